// Package config holds the immutable configuration of a deliberation: the
// ordered stage table (prompt templates, required sections, confidence bars)
// and the engine settings (thresholds, quorum, timeouts, retries).
//
// Configuration is constructed once at startup and passed explicitly into the
// engine and its collaborators; there is no ambient global state. Validate
// rejects malformed tables before any participant is invoked.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/deliberate/core"
)

// StageConfig describes one stage of the deliberation sequence.
type StageConfig struct {
	// Stage is the stable identifier persisted with each round.
	Stage core.Stage
	// Name is the human readable purpose of the stage.
	Name string
	// MinConfidence is the mean confidence required for consensus in this
	// stage. Bars are non-decreasing across the sequence.
	MinConfidence float64
	// PromptTemplate is the format guidance appended to every round prompt of
	// this stage.
	PromptTemplate string
	// RequiredSections lists the UPPER-case section headers a well formed
	// response must contain. Responses missing sections are degraded, not
	// discarded.
	RequiredSections []string
}

// Settings bundles the engine-wide knobs. The zero value is not usable; start
// from DefaultSettings.
type Settings struct {
	// ConsensusThreshold is the global similarity bar, distinct from the
	// per-stage confidence minimums.
	ConsensusThreshold float64
	// Quorum is the minimum number of successful responses per round.
	Quorum int
	// MaxRounds bounds the number of executed rounds. Rounds past the stage
	// sequence repeat the final stage.
	MaxRounds int
	// CallTimeout applies to each individual participant call, not to the
	// round as a whole.
	CallTimeout time.Duration
	// MaxRetries is the number of additional attempts for retryable provider
	// failures.
	MaxRetries int
	// RetryBackoff is the fixed pause between retry attempts.
	RetryBackoff time.Duration
}

// DefaultSettings returns the standard engine settings.
func DefaultSettings() Settings {
	return Settings{
		ConsensusThreshold: 0.8,
		Quorum:             2,
		MaxRounds:          len(core.StageSequence()),
		CallTimeout:        120 * time.Second,
		MaxRetries:         2,
		RetryBackoff:       2 * time.Second,
	}
}

// DefaultStages returns the five-stage deliberation table. The confidence
// bars rise across the sequence so later stages demand firmer commitment.
func DefaultStages() []StageConfig {
	return []StageConfig{
		{
			Stage:            core.StagePreFlop,
			Name:             "Initial Understanding",
			MinConfidence:    0.0,
			PromptTemplate:   preFlopFormat,
			RequiredSections: []string{"UNDERSTANDING", "CONSTRAINTS", "INITIAL_POSITION", "CONFIDENCE"},
		},
		{
			Stage:            core.StageFlop,
			Name:             "Opening Analysis",
			MinConfidence:    0.5,
			PromptTemplate:   flopFormat,
			RequiredSections: []string{"AGREEMENTS", "DIFFERENCES", "EVIDENCE", "POSITION", "CONFIDENCE"},
		},
		{
			Stage:            core.StageTurn,
			Name:             "Position Refinement",
			MinConfidence:    0.6,
			PromptTemplate:   turnFormat,
			RequiredSections: []string{"EVIDENCE_ANALYSIS", "POSITION_UPDATE", "COMPROMISE_AREAS", "CONFIDENCE"},
		},
		{
			Stage:            core.StageRiver,
			Name:             "Consensus Building",
			MinConfidence:    0.7,
			PromptTemplate:   riverFormat,
			RequiredSections: []string{"SYNTHESIS", "RESOLUTION", "REMAINING_ISSUES", "CONFIDENCE"},
		},
		{
			Stage:            core.StageShowdown,
			Name:             "Final Resolution",
			MinConfidence:    0.75,
			PromptTemplate:   showdownFormat,
			RequiredSections: []string{"FINAL_POSITION", "IMPLEMENTATION", "CONFIDENCE", "DISSENTING_VIEWS"},
		},
	}
}

// Config is the full immutable configuration handed to the engine.
type Config struct {
	Settings Settings
	Stages   []StageConfig
}

// Default returns settings and stage table with standard values.
func Default() Config {
	return Config{Settings: DefaultSettings(), Stages: DefaultStages()}
}

// StageFor returns the stage configuration for the given round index,
// stopping at the final stage for indexes beyond the sequence.
func (c Config) StageFor(roundIndex int) StageConfig {
	if roundIndex >= len(c.Stages) {
		return c.Stages[len(c.Stages)-1]
	}
	return c.Stages[roundIndex]
}

// Find returns the configuration for a stage identifier.
func (c Config) Find(stage core.Stage) (StageConfig, error) {
	for _, sc := range c.Stages {
		if sc.Stage == stage {
			return sc, nil
		}
	}
	return StageConfig{}, fmt.Errorf("unknown stage %q", stage)
}

// Validate checks the configuration for structural errors. It must pass
// before any participant is invoked; a failure here is fatal at startup.
func (c Config) Validate() error {
	if len(c.Stages) == 0 {
		return errors.New("stage table is empty")
	}
	seen := make(map[core.Stage]bool, len(c.Stages))
	prev := -1.0
	for i, sc := range c.Stages {
		if sc.Stage == "" {
			return fmt.Errorf("stage %d: missing identifier", i)
		}
		if seen[sc.Stage] {
			return fmt.Errorf("stage %q appears twice", sc.Stage)
		}
		seen[sc.Stage] = true
		if sc.PromptTemplate == "" {
			return fmt.Errorf("stage %q: empty prompt template", sc.Stage)
		}
		if sc.MinConfidence < 0 || sc.MinConfidence > 1 {
			return fmt.Errorf("stage %q: confidence bar %v out of range", sc.Stage, sc.MinConfidence)
		}
		if sc.MinConfidence < prev {
			return fmt.Errorf("stage %q: confidence bar %v lower than preceding stage", sc.Stage, sc.MinConfidence)
		}
		prev = sc.MinConfidence
	}
	s := c.Settings
	if s.ConsensusThreshold <= 0 || s.ConsensusThreshold > 1 {
		return fmt.Errorf("consensus threshold %v out of range", s.ConsensusThreshold)
	}
	if s.Quorum < 1 {
		return fmt.Errorf("quorum %d must be at least 1", s.Quorum)
	}
	if s.MaxRounds < 1 {
		return fmt.Errorf("max rounds %d must be at least 1", s.MaxRounds)
	}
	if s.CallTimeout <= 0 {
		return errors.New("call timeout must be positive")
	}
	if s.MaxRetries < 0 {
		return errors.New("max retries must not be negative")
	}
	return nil
}
