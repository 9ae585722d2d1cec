// Package store persists discussions, rounds and responses.
//
// The engine issues synchronous ordered writes from the sequencer goroutine
// immediately after each round's barrier completes. A write failure is fatal
// to the in-progress discussion; already committed rounds remain valid,
// queryable records.
package store

import (
	"context"
	"errors"

	"github.com/hupe1980/deliberate/core"
)

// ErrNotFound is returned when a requested discussion does not exist.
var ErrNotFound = errors.New("discussion not found")

// Gateway is the persistence contract consumed by the engine and front ends.
type Gateway interface {
	// CreateDiscussion records a newly opened discussion.
	CreateDiscussion(ctx context.Context, d *core.Discussion) error

	// CreateRound records a round before its responses are stored.
	CreateRound(ctx context.Context, r *core.Round) error

	// StoreResponse records one participant's response for a round.
	StoreResponse(ctx context.Context, roundID string, resp core.ParticipantResponse) error

	// UpdateRoundScore records the round's similarity and consensus flag once
	// scoring completed.
	UpdateRoundScore(ctx context.Context, roundID string, similarity float64, consensusReached bool) error

	// CompleteDiscussion transitions a discussion into a terminal status.
	// finalAnswer is stored only for core.StatusConsensus.
	CompleteDiscussion(ctx context.Context, discussionID string, status core.Status, finalAnswer string) error

	// LoadDiscussion returns a stored discussion with its rounds and
	// responses, or ErrNotFound.
	LoadDiscussion(ctx context.Context, discussionID string) (*core.Discussion, error)

	// ListDiscussions returns stored discussions without their rounds, newest
	// first.
	ListDiscussions(ctx context.Context, limit int) ([]*core.Discussion, error)

	// Close releases underlying resources.
	Close() error
}
