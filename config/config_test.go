package config

import (
	"strings"
	"testing"

	"github.com/hupe1980/deliberate/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultStagesOrder(t *testing.T) {
	stages := DefaultStages()
	require.Len(t, stages, len(core.StageSequence()))

	prev := -1.0
	for i, sc := range stages {
		assert.Equal(t, core.StageSequence()[i], sc.Stage)
		assert.GreaterOrEqual(t, sc.MinConfidence, prev, "confidence bars must not decrease")
		assert.Contains(t, sc.RequiredSections, "CONFIDENCE")
		prev = sc.MinConfidence
	}
	assert.Equal(t, 0.0, stages[0].MinConfidence)
	assert.Equal(t, 0.75, stages[len(stages)-1].MinConfidence)
}

func TestStageForClampsAtFinalStage(t *testing.T) {
	cfg := Default()

	assert.Equal(t, core.StagePreFlop, cfg.StageFor(0).Stage)
	assert.Equal(t, core.StageShowdown, cfg.StageFor(4).Stage)
	assert.Equal(t, core.StageShowdown, cfg.StageFor(9).Stage)
}

func TestFind(t *testing.T) {
	cfg := Default()

	sc, err := cfg.Find(core.StageTurn)
	require.NoError(t, err)
	assert.Equal(t, core.StageTurn, sc.Stage)

	_, err = cfg.Find(core.Stage("BLUFF"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "empty stage table",
			mutate:  func(c *Config) { c.Stages = nil },
			wantErr: "stage table is empty",
		},
		{
			name:    "duplicate stage",
			mutate:  func(c *Config) { c.Stages[1].Stage = c.Stages[0].Stage },
			wantErr: "appears twice",
		},
		{
			name:    "empty prompt template",
			mutate:  func(c *Config) { c.Stages[2].PromptTemplate = "" },
			wantErr: "empty prompt template",
		},
		{
			name:    "confidence bar out of range",
			mutate:  func(c *Config) { c.Stages[4].MinConfidence = 1.5 },
			wantErr: "out of range",
		},
		{
			name:    "decreasing confidence bar",
			mutate:  func(c *Config) { c.Stages[3].MinConfidence = 0.1 },
			wantErr: "lower than preceding stage",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Settings.ConsensusThreshold = 1.2 },
			wantErr: "consensus threshold",
		},
		{
			name:    "zero quorum",
			mutate:  func(c *Config) { c.Settings.Quorum = 0 },
			wantErr: "quorum",
		},
		{
			name:    "zero max rounds",
			mutate:  func(c *Config) { c.Settings.MaxRounds = 0 },
			wantErr: "max rounds",
		},
		{
			name:    "non positive call timeout",
			mutate:  func(c *Config) { c.Settings.CallTimeout = 0 },
			wantErr: "call timeout",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Settings.MaxRetries = -1 },
			wantErr: "max retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr),
				"error %q should contain %q", err, tt.wantErr)
		})
	}
}
