// Package transcript maintains the cumulative deliberation record injected
// into subsequent round prompts. The rendered transcript is the only
// mechanism by which participants see each other's positions; there is no
// direct participant-to-participant channel.
package transcript

import (
	"fmt"
	"strings"

	"github.com/hupe1980/deliberate/core"
)

// Entry is one participant's labeled contribution to a round.
type Entry struct {
	Participant string
	Text        string
}

type roundRecord struct {
	stage   core.Stage
	index   int
	entries []Entry
}

// History accumulates per-round responses in round order. It is owned by the
// sequencer and never mutated concurrently.
type History struct {
	prompt string
	rounds []roundRecord
}

// New creates a history rooted at the original prompt.
func New(prompt string) *History {
	return &History{prompt: prompt}
}

// Append records one completed round's responses in the given order.
func (h *History) Append(stage core.Stage, index int, entries []Entry) {
	record := roundRecord{stage: stage, index: index}
	record.entries = append(record.entries, entries...)
	h.rounds = append(h.rounds, record)
}

// Len returns the number of recorded rounds.
func (h *History) Len() int { return len(h.rounds) }

// Render produces the complete transcript: the original prompt followed by
// one labeled section per round, each listing every responding participant's
// text. The output is injected verbatim into later round prompts.
func (h *History) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original prompt: %s\n", h.prompt)

	for _, round := range h.rounds {
		fmt.Fprintf(&b, "\n--- Round %d (%s) ---\n", round.index, round.stage)
		for _, e := range round.entries {
			fmt.Fprintf(&b, "\n%s:\n%s\n", e.Participant, e.Text)
		}
	}
	return b.String()
}

// ContainsCode reports whether any recorded response carries a fenced code
// block, which switches later prompts to code-consensus guidance.
func (h *History) ContainsCode() bool {
	for _, round := range h.rounds {
		for _, e := range round.entries {
			if strings.Contains(e.Text, "```") {
				return true
			}
		}
	}
	return false
}
