package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSections(t *testing.T) {
	raw := `UNDERSTANDING: The question is about storage.
Continuation of the understanding.

INITIAL_POSITION: Use SQLite for the archive.
CONFIDENCE: 0.8`

	p := Parse(raw, []string{"UNDERSTANDING", "INITIAL_POSITION", "CONFIDENCE"})

	assert.True(t, p.Complete)
	assert.Equal(t, "The question is about storage.\nContinuation of the understanding.", p.Section("UNDERSTANDING"))
	assert.Equal(t, "Use SQLite for the archive.", p.Section("INITIAL_POSITION"))
	require.NotNil(t, p.Confidence)
	assert.InDelta(t, 0.8, *p.Confidence, 1e-9)
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"plain decimal", "CONFIDENCE: 0.85", 0.85},
		{"percentage sign", "CONFIDENCE: 85%", 0.85},
		{"bare integer above one", "CONFIDENCE: 90", 0.9},
		{"label in prose", "I rate my confidence 0.7 on this.", 0.7},
		{"clamped above one hundred", "CONFIDENCE: 150", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.raw, nil)
			require.NotNil(t, p.Confidence)
			assert.InDelta(t, tt.want, *p.Confidence, 1e-9)
		})
	}
}

func TestParseMissingConfidence(t *testing.T) {
	p := Parse("POSITION: No numbers anywhere here.", []string{"POSITION"})

	assert.Nil(t, p.Confidence)
	// Missing confidence degrades the response without discarding it.
	assert.False(t, p.Complete)
	assert.Equal(t, "No numbers anywhere here.", p.Section("POSITION"))
}

func TestParseMissingRequiredSection(t *testing.T) {
	p := Parse("POSITION: Present.\nCONFIDENCE: 0.9", []string{"POSITION", "EVIDENCE", "CONFIDENCE"})

	assert.False(t, p.Complete)
	require.NotNil(t, p.Confidence)
	assert.InDelta(t, 0.9, *p.Confidence, 1e-9)
}

func TestParseLowercaseHeadersIgnored(t *testing.T) {
	p := Parse("position: lower case is prose, not a header.\nCONFIDENCE: 0.5", nil)

	assert.NotContains(t, p.Sections, "position")
	require.NotNil(t, p.Confidence)
}

func TestFinalPosition(t *testing.T) {
	t.Run("prefers FINAL_POSITION", func(t *testing.T) {
		p := Parse("FINAL_POSITION: Ship it.\nIMPLEMENTATION: Steps.\nCONFIDENCE: 0.9", nil)
		assert.Equal(t, "Ship it.", p.FinalPosition())
	})

	t.Run("falls back to IMPLEMENTATION", func(t *testing.T) {
		p := Parse("IMPLEMENTATION: Steps only.\nCONFIDENCE: 0.9", nil)
		assert.Equal(t, "Steps only.", p.FinalPosition())
	})

	t.Run("empty when neither present", func(t *testing.T) {
		p := Parse("SYNTHESIS: Something else.\nCONFIDENCE: 0.9", nil)
		assert.Empty(t, p.FinalPosition())
	})
}
