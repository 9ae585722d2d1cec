package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreIdenticalTexts(t *testing.T) {
	text := "We should adopt sqlite because a local archive needs zero operational overhead."
	score := NewScorer().Score([]string{text, text})

	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScoreDisjointTexts(t *testing.T) {
	score := NewScorer().Score([]string{
		"alpha bravo charlie delta",
		"echo foxtrot golf hotel",
	})

	assert.InDelta(t, 0.0, score, 1e-9)
}

func TestScoreFewerThanTwoTexts(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 0.0, s.Score(nil))
	assert.Equal(t, 0.0, s.Score([]string{"lonely response"}))
}

func TestScoreRange(t *testing.T) {
	texts := []string{
		"Use a message queue for decoupling the producers.",
		"A queue decouples producers from consumers nicely.",
		"Direct calls are simpler than any queue here.",
	}
	score := NewScorer().Score(texts)

	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestScoreFallbackTwoTexts(t *testing.T) {
	// Stop-word only texts leave the vocabulary empty, so scoring falls back
	// to direct sequence comparison.
	score := NewScorer().Score([]string{"it was the of and", "it was the of and"})

	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScoreFallbackManyTexts(t *testing.T) {
	// Single-letter tokens are below the length floor; the three-text fallback
	// counts words shared by all texts over all distinct words.
	score := NewScorer().Score([]string{"x y", "x z", "x w"})

	assert.InDelta(t, 0.25, score, 1e-9)
}

func TestScoreBlendsCodeSimilarity(t *testing.T) {
	prose := "The implementation below handles the parsing requirement."
	sameCode := prose + "\n```go\nfunc parse(s string) int {\n\treturn len(s)\n}\n```"
	otherCode := prose + "\n```go\nfunc totallyDifferent(queue chan int) {\n\tclose(queue)\n}\n```"

	s := NewScorer()
	identical := s.Score([]string{sameCode, sameCode})
	divergent := s.Score([]string{sameCode, otherCode})

	assert.InDelta(t, 1.0, identical, 1e-9)
	assert.Less(t, divergent, identical, "diverging code must lower the blended score")
}

func TestScoreBlendsEvidenceOverlap(t *testing.T) {
	base := "POSITION: Adopt the caching layer for read traffic.\n"
	agree := base + "EVIDENCE: benchmark report, production incident"
	disagree := base + "EVIDENCE: gut feeling, vendor brochure"

	s := NewScorer()
	shared := s.Score([]string{agree, agree})
	split := s.Score([]string{agree, disagree})

	assert.InDelta(t, 1.0, shared, 1e-9)
	assert.Less(t, split, shared, "disjoint evidence must lower the blended score")
}

func TestSequenceRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"both empty", "", "", 1.0},
		{"one empty", "abc", "", 0.0},
		{"identical", "consensus", "consensus", 1.0},
		{"disjoint", "aaaa", "bbbb", 0.0},
		{"partial overlap", "abcd", "abxd", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, sequenceRatio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestEvidenceSet(t *testing.T) {
	set := evidenceSet("CLAIM: x\nEVIDENCE: RFC 9110, production logs , \nPOSITION: y")

	require.Len(t, set, 2)
	assert.True(t, set["rfc 9110"])
	assert.True(t, set["production logs"])
}

func TestCodeSimilarityLoneBlock(t *testing.T) {
	blocks, present := codeBlocks([]string{
		"no code here at all",
		"```go\nfunc only(one int) {}\n```",
	})

	require.True(t, present)
	assert.Equal(t, 0.0, codeSimilarity(blocks))
}
