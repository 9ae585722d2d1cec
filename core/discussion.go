package core

import (
	"time"

	"github.com/google/uuid"
)

// Status describes the lifecycle of a Discussion.
type Status string

const (
	// StatusOpen marks a discussion still executing rounds.
	StatusOpen Status = "open"
	// StatusConsensus marks a discussion concluded with an agreed answer.
	StatusConsensus Status = "consensus"
	// StatusNoConsensus marks a discussion that exhausted all rounds without
	// clearing the thresholds.
	StatusNoConsensus Status = "no_consensus"
	// StatusAborted marks a discussion terminated early (quorum loss or
	// cancellation). Partial history remains valid.
	StatusAborted Status = "aborted"
)

// Stage identifies one phase of the fixed deliberation sequence. The names
// are part of the persisted record format and must stay stable.
type Stage string

const (
	StagePreFlop  Stage = "PRE_FLOP"
	StageFlop     Stage = "FLOP"
	StageTurn     Stage = "TURN"
	StageRiver    Stage = "RIVER"
	StageShowdown Stage = "SHOWDOWN"
)

// StageSequence returns the ordered deliberation stages. A discussion never
// revisits an earlier stage; rounds beyond the sequence stay at the final one.
func StageSequence() []Stage {
	return []Stage{StagePreFlop, StageFlop, StageTurn, StageRiver, StageShowdown}
}

// TerminalStage is the last stage of the sequence; only its success produces
// a final consensus answer.
func TerminalStage() Stage {
	seq := StageSequence()
	return seq[len(seq)-1]
}

// Discussion is one deliberation over a single prompt. It is owned by the
// sequencer for its lifetime and mutated only at round boundaries, never
// concurrently.
type Discussion struct {
	ID             string     `json:"id"`
	Prompt         string     `json:"prompt"`
	Status         Status     `json:"status"`
	FinalConsensus string     `json:"final_consensus,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Rounds         []Round    `json:"rounds"`
}

// NewDiscussion creates an open discussion for the given prompt.
func NewDiscussion(prompt string) *Discussion {
	return &Discussion{
		ID:        NewID(),
		Prompt:    prompt,
		Status:    StatusOpen,
		StartedAt: time.Now().UTC(),
	}
}

// Complete transitions the discussion into a terminal status and stamps the
// completion time. FinalConsensus is set only for StatusConsensus.
func (d *Discussion) Complete(status Status, finalConsensus string) {
	d.Status = status
	if status == StatusConsensus {
		d.FinalConsensus = finalConsensus
	}
	now := time.Now().UTC()
	d.CompletedAt = &now
}

// Round is one immutable stage execution of a discussion. Once its responses
// are collected and scored it is never mutated again.
type Round struct {
	ID               string                `json:"id"`
	DiscussionID     string                `json:"discussion_id"`
	Stage            Stage                 `json:"stage"`
	Index            int                   `json:"index"`
	Prompt           string                `json:"prompt"`
	Similarity       float64               `json:"similarity"`
	ConsensusReached bool                  `json:"consensus_reached"`
	Responses        []ParticipantResponse `json:"responses"`
}

// ParticipantResponse is one participant's output for one round, created by
// the parser immediately after collection.
type ParticipantResponse struct {
	Participant string   `json:"participant"`
	Text        string   `json:"text"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Parsed      bool     `json:"parsed"`
}

// HasConfidence reports whether a usable confidence value was extracted.
func (r ParticipantResponse) HasConfidence() bool { return r.Confidence != nil }

// NewID generates a unique identifier for discussions, rounds and events.
func NewID() string { return uuid.NewString() }
