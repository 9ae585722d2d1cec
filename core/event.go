package core

import "time"

// ProgressKind categorizes progress events emitted at round boundaries.
type ProgressKind string

const (
	ProgressDiscussionStarted   ProgressKind = "discussion_started"
	ProgressStageStarted        ProgressKind = "stage_started"
	ProgressParticipantOutcome  ProgressKind = "participant_outcome"
	ProgressRoundScored         ProgressKind = "round_scored"
	ProgressDiscussionConcluded ProgressKind = "discussion_concluded"
)

// ProgressEvent is a human-readable status update for front ends. Events are
// emitted in round order, one-directional, with no acknowledgment. A round's
// events are only emitted after its persistence write succeeded, so consumers
// never observe phantom progress for unpersisted state.
type ProgressEvent struct {
	ID           string       `json:"id"`
	DiscussionID string       `json:"discussion_id"`
	Kind         ProgressKind `json:"kind"`
	Stage        Stage        `json:"stage,omitempty"`
	RoundIndex   int          `json:"round_index"`
	Participant  string       `json:"participant,omitempty"`
	Message      string       `json:"message"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ProgressFunc consumes progress events. It is invoked synchronously from the
// sequencer goroutine; implementations must not block for long.
type ProgressFunc func(ProgressEvent)

// NewProgressEvent creates a progress event bound to a discussion.
func NewProgressEvent(discussionID string, kind ProgressKind, msg string) ProgressEvent {
	return ProgressEvent{
		ID:           NewID(),
		DiscussionID: discussionID,
		Kind:         kind,
		Message:      msg,
		Timestamp:    time.Now().UTC(),
	}
}
