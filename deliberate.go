// Package deliberate provides a high-level façade over the round-based
// consensus engine and its service abstractions (persistence, logging,
// progress reporting) enabling quick construction of multi-LLM deliberation
// systems. Most applications interact with this package by:
//  1. Creating a Deliberate via New() with a set of participants (optionally
//     overriding the default in-memory store)
//  2. Calling Discuss to run a complete deliberation
//  3. Reading archived discussions via LoadDiscussion
//
// The façade delegates orchestration to engine.Sequencer while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a SQLite store and a
// structured logger.
package deliberate

import (
	"context"

	"github.com/hupe1980/deliberate/config"
	"github.com/hupe1980/deliberate/core"
	"github.com/hupe1980/deliberate/engine"
	"github.com/hupe1980/deliberate/logging"
	"github.com/hupe1980/deliberate/participant"
	"github.com/hupe1980/deliberate/store"
)

// Options configures the Deliberate instance.
type Options struct {
	// Config is the immutable stage table and engine settings.
	Config config.Config

	// Gateway persists discussions (defaults to an in-memory store).
	Gateway store.Gateway

	// Logger defaults to a NoOp logger if nil.
	Logger logging.Logger

	// Progress receives human-readable status events in round order.
	Progress core.ProgressFunc
}

// Deliberate is the high-level façade aggregating the engine and services.
type Deliberate struct {
	opts      Options
	sequencer *engine.Sequencer
}

// New creates a Deliberate instance for a fixed participant set. Any unset
// service is initialized with an in-memory or no-op implementation. The
// configuration is validated eagerly; an error here means the stage table or
// settings are malformed.
func New(participants []participant.Participant, optFns ...func(o *Options)) (*Deliberate, error) {
	opts := Options{
		Config:  config.Default(),
		Gateway: store.NewInMemoryStore(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	seq, err := engine.New(participants, func(o *engine.Options) {
		o.Config = opts.Config
		o.Gateway = opts.Gateway
		o.Logger = opts.Logger
		o.Progress = opts.Progress
	})
	if err != nil {
		return nil, err
	}

	return &Deliberate{opts: opts, sequencer: seq}, nil
}

// Discuss conducts a complete deliberation over the prompt and returns the
// concluded discussion. The status distinguishes consensus, exhaustion and
// abortion; a non-nil error indicates a halted, indeterminate discussion.
func (d *Deliberate) Discuss(ctx context.Context, prompt string) (*core.Discussion, error) {
	return d.sequencer.Run(ctx, prompt)
}

// LoadDiscussion returns an archived discussion with its rounds and
// responses.
func (d *Deliberate) LoadDiscussion(ctx context.Context, id string) (*core.Discussion, error) {
	return d.opts.Gateway.LoadDiscussion(ctx, id)
}

// ListDiscussions returns archived discussions, newest first.
func (d *Deliberate) ListDiscussions(ctx context.Context, limit int) ([]*core.Discussion, error) {
	return d.opts.Gateway.ListDiscussions(ctx, limit)
}
