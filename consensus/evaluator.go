// Package consensus decides whether a scored round clears its thresholds and
// produces the merged answer when the terminal stage succeeds.
package consensus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/deliberate/config"
	"github.com/hupe1980/deliberate/core"
	"github.com/hupe1980/deliberate/parse"
)

// Response pairs a participant's raw text with its parsed form for
// evaluation.
type Response struct {
	Participant string
	Text        string
	Parsed      parse.Parsed
}

// Outcome is the evaluation result for one round.
type Outcome struct {
	Reached bool
	// MeanConfidence averages the present confidence values only; responses
	// without a parseable confidence are excluded, not counted as zero.
	MeanConfidence float64
	// ConfidenceCount is the number of responses that contributed to the mean.
	ConfidenceCount int
	// MergedAnswer is set only when the terminal stage reaches consensus.
	MergedAnswer string
}

// Evaluator applies the global similarity threshold and per-stage confidence
// bars.
type Evaluator struct {
	similarityThreshold float64
	terminalStage       core.Stage
}

// NewEvaluator constructs an evaluator with the given global similarity
// threshold.
func NewEvaluator(similarityThreshold float64) *Evaluator {
	return &Evaluator{
		similarityThreshold: similarityThreshold,
		terminalStage:       core.TerminalStage(),
	}
}

// Evaluate combines the round's similarity score with the mean confidence
// against the stage's bar. Both conditions are necessary; neither alone
// suffices. A merged answer is produced only in the terminal stage.
func (e *Evaluator) Evaluate(stage config.StageConfig, similarity float64, responses []Response) Outcome {
	out := Outcome{}

	var sum float64
	for _, r := range responses {
		if r.Parsed.Confidence != nil {
			sum += *r.Parsed.Confidence
			out.ConfidenceCount++
		}
	}
	if out.ConfidenceCount > 0 {
		out.MeanConfidence = sum / float64(out.ConfidenceCount)
	}

	// No parseable confidence at all cannot satisfy a stage's bar.
	if out.ConfidenceCount == 0 {
		return out
	}
	if similarity < e.similarityThreshold || out.MeanConfidence < stage.MinConfidence {
		return out
	}

	out.Reached = true
	if stage.Stage == e.terminalStage {
		out.MergedAnswer = e.mergeAnswer(responses, out.MeanConfidence)
	}
	return out
}

// mergeAnswer selects the highest-confidence final position and annotates it
// with the aggregate confidence and supporting factors drawn from the other
// responses.
func (e *Evaluator) mergeAnswer(responses []Response, meanConfidence float64) string {
	ranked := make([]Response, len(responses))
	copy(ranked, responses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return confidenceOf(ranked[i]) > confidenceOf(ranked[j])
	})

	best := ranked[0]
	answer := best.Parsed.FinalPosition()
	if answer == "" {
		answer = best.Text
	}

	var b strings.Builder
	b.WriteString(answer)
	fmt.Fprintf(&b, "\n\nAggregate confidence: %.2f", meanConfidence)

	var factors []string
	for _, r := range ranked[1:] {
		if factor := supportingFactor(r); factor != "" {
			factors = append(factors, fmt.Sprintf("- %s: %s", r.Participant, factor))
		}
	}
	if len(factors) > 0 {
		b.WriteString("\n\nSupporting positions:\n")
		b.WriteString(strings.Join(factors, "\n"))
	}
	return b.String()
}

func confidenceOf(r Response) float64 {
	if r.Parsed.Confidence == nil {
		return -1
	}
	return *r.Parsed.Confidence
}

// supportingFactor reduces another participant's response to a one-line
// contribution for the merged answer.
func supportingFactor(r Response) string {
	text := r.Parsed.FinalPosition()
	if text == "" {
		text = r.Text
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if nl := strings.Index(text, "\n"); nl >= 0 {
		text = text[:nl]
	}
	const maxLen = 160
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}
	return text
}
