// Package engine drives a deliberation through the fixed stage sequence
// until the participants converge or the rounds are exhausted.
//
// A single goroutine owns the state machine. Within each round the
// participant calls run concurrently (see collector), and the round cannot
// progress until all of them have settled; no two rounds ever execute
// concurrently. Discussion, round and transcript state are mutated only
// between the barrier's completion and the next round's start, so that state
// needs no locking.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/deliberate/collector"
	"github.com/hupe1980/deliberate/config"
	"github.com/hupe1980/deliberate/consensus"
	"github.com/hupe1980/deliberate/core"
	"github.com/hupe1980/deliberate/logging"
	"github.com/hupe1980/deliberate/parse"
	"github.com/hupe1980/deliberate/participant"
	"github.com/hupe1980/deliberate/similarity"
	"github.com/hupe1980/deliberate/store"
	"github.com/hupe1980/deliberate/transcript"
)

// Options configures a Sequencer. Unset services fall back to in-memory or
// no-op implementations.
type Options struct {
	Config   config.Config
	Gateway  store.Gateway
	Logger   logging.Logger
	Progress core.ProgressFunc
}

// Sequencer executes discussions. It is safe to reuse for consecutive
// discussions but runs at most one at a time per call to Run.
type Sequencer struct {
	cfg          config.Config
	participants []participant.Participant
	collector    *collector.Collector
	scorer       *similarity.Scorer
	evaluator    *consensus.Evaluator
	gateway      store.Gateway
	logger       logging.Logger
	progress     core.ProgressFunc
}

// New constructs a Sequencer for a fixed participant set. The configuration
// is validated here so malformed stage tables fail before any provider is
// invoked.
func New(participants []participant.Participant, optFns ...func(o *Options)) (*Sequencer, error) {
	opts := Options{
		Config:  config.Default(),
		Gateway: store.NewInMemoryStore(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if len(participants) < opts.Config.Settings.Quorum {
		return nil, fmt.Errorf("%d participants cannot satisfy quorum %d",
			len(participants), opts.Config.Settings.Quorum)
	}

	return &Sequencer{
		cfg:          opts.Config,
		participants: participants,
		collector: collector.New(collector.Options{
			CallTimeout:  opts.Config.Settings.CallTimeout,
			MaxRetries:   opts.Config.Settings.MaxRetries,
			RetryBackoff: opts.Config.Settings.RetryBackoff,
			Logger:       opts.Logger,
		}),
		scorer:    similarity.NewScorer(),
		evaluator: consensus.NewEvaluator(opts.Config.Settings.ConsensusThreshold),
		gateway:   opts.Gateway,
		logger:    opts.Logger,
		progress:  opts.Progress,
	}, nil
}

// Run conducts a complete deliberation over the prompt. The returned
// discussion carries a terminal status (consensus, no_consensus or aborted)
// unless a persistence failure halted it, in which case the error is non-nil
// and the discussion must not be resumed.
func (s *Sequencer) Run(ctx context.Context, prompt string) (*core.Discussion, error) {
	d := core.NewDiscussion(prompt)
	if err := s.gateway.CreateDiscussion(ctx, d); err != nil {
		return nil, fmt.Errorf("persist discussion: %w", err)
	}

	s.emit(d, core.ProgressDiscussionStarted, "", 0, "", "Starting consensus discussion")
	s.logger.Info("discussion started", "discussion_id", d.ID, "participants", len(s.participants))

	history := transcript.New(prompt)
	benched := make(map[string]bool)

	for i := 0; i < s.cfg.Settings.MaxRounds; i++ {
		// Cancellation is honored at round boundaries only; completed rounds
		// stay valid.
		if ctx.Err() != nil {
			return s.conclude(d, core.StatusAborted, "", "discussion cancelled")
		}

		stageCfg := s.cfg.StageFor(i)
		done, err := s.runRound(ctx, d, stageCfg, i, history, benched)
		if err != nil {
			// Persistence failure: halt immediately, leave the discussion in
			// an indeterminate state the caller must not resume silently.
			s.logger.Error("discussion halted", "discussion_id", d.ID, "error", err)
			return d, err
		}
		if done {
			return d, nil
		}
	}

	return s.conclude(d, core.StatusNoConsensus, "", "No consensus reached after all rounds")
}

// runRound executes one stage round end to end. done reports that the
// discussion reached a terminal status; a non-nil error is always fatal.
func (s *Sequencer) runRound(
	ctx context.Context,
	d *core.Discussion,
	stageCfg config.StageConfig,
	index int,
	history *transcript.History,
	benched map[string]bool,
) (bool, error) {
	round := core.Round{
		ID:           core.NewID(),
		DiscussionID: d.ID,
		Stage:        stageCfg.Stage,
		Index:        index,
		Prompt:       s.buildRoundPrompt(stageCfg, history),
	}
	if err := s.gateway.CreateRound(ctx, &round); err != nil {
		return false, fmt.Errorf("persist round %d: %w", index, err)
	}

	s.emit(d, core.ProgressStageStarted, stageCfg.Stage, index, "",
		fmt.Sprintf("Starting %s round (%s)", stageCfg.Stage, stageCfg.Name))

	active := s.activeParticipants(benched)
	result := s.collector.Collect(ctx, participant.Request{
		Prompt:     round.Prompt,
		Transcript: history.Render(),
	}, active)

	for name, failure := range result.Failures {
		if failure.Permanent {
			// Benched for the remainder; later rounds do not re-attempt it.
			benched[name] = true
			s.logger.Warn("participant benched", "discussion_id", d.ID, "participant", name, "error", failure.Err)
		}
	}

	// Stable participant order keeps transcripts and scores reproducible.
	var responses []consensus.Response
	var entries []transcript.Entry
	for _, p := range active {
		text, ok := result.Responses[p.Name()]
		if !ok {
			continue
		}
		parsed := parse.Parse(text, stageCfg.RequiredSections)
		responses = append(responses, consensus.Response{Participant: p.Name(), Text: text, Parsed: parsed})
		entries = append(entries, transcript.Entry{Participant: p.Name(), Text: text})

		resp := core.ParticipantResponse{
			Participant: p.Name(),
			Text:        text,
			Confidence:  parsed.Confidence,
			Parsed:      parsed.Complete,
		}
		if err := s.gateway.StoreResponse(ctx, round.ID, resp); err != nil {
			return false, fmt.Errorf("persist response of %s: %w", p.Name(), err)
		}
		round.Responses = append(round.Responses, resp)
	}

	// Outcome events follow the persistence write, never precede it.
	for _, r := range responses {
		msg := fmt.Sprintf("%s responded", r.Participant)
		if r.Parsed.Confidence != nil {
			msg = fmt.Sprintf("%s responded (confidence %.2f)", r.Participant, *r.Parsed.Confidence)
		}
		s.emit(d, core.ProgressParticipantOutcome, stageCfg.Stage, index, r.Participant, msg)
	}
	for name, failure := range result.Failures {
		s.emit(d, core.ProgressParticipantOutcome, stageCfg.Stage, index, name,
			fmt.Sprintf("%s failed: %v", name, failure.Err))
	}

	history.Append(stageCfg.Stage, index, entries)

	if len(responses) < s.cfg.Settings.Quorum {
		round.ConsensusReached = false
		d.Rounds = append(d.Rounds, round)
		return s.concludeStored(d, core.StatusAborted, "",
			fmt.Sprintf("Quorum lost: %d of %d required responses", len(responses), s.cfg.Settings.Quorum))
	}

	texts := make([]string, len(responses))
	for i, r := range responses {
		texts[i] = r.Text
	}
	sim := s.scorer.Score(texts)
	outcome := s.evaluator.Evaluate(stageCfg, sim, responses)

	round.Similarity = sim
	round.ConsensusReached = outcome.Reached
	if err := s.gateway.UpdateRoundScore(ctx, round.ID, sim, outcome.Reached); err != nil {
		return false, fmt.Errorf("persist round score: %w", err)
	}
	d.Rounds = append(d.Rounds, round)

	s.logger.Info("round scored",
		"discussion_id", d.ID, "stage", string(stageCfg.Stage), "round_index", index,
		"similarity", sim, "mean_confidence", outcome.MeanConfidence, "consensus_reached", outcome.Reached)
	s.emit(d, core.ProgressRoundScored, stageCfg.Stage, index, "",
		fmt.Sprintf("Round %d scored: similarity %.2f (target %.2f), mean confidence %.2f (required %.2f)",
			index, sim, s.cfg.Settings.ConsensusThreshold, outcome.MeanConfidence, stageCfg.MinConfidence))

	// Only the terminal stage produces the final consensus; earlier stages
	// that clear their bars simply carry the flag forward.
	if outcome.Reached && outcome.MergedAnswer != "" {
		return s.concludeStored(d, core.StatusConsensus, outcome.MergedAnswer, "Consensus reached")
	}
	return false, nil
}

// conclude finishes the discussion with a best-effort persistence write, for
// paths where the write failing should not mask the outcome (cancellation).
func (s *Sequencer) conclude(d *core.Discussion, status core.Status, finalAnswer, msg string) (*core.Discussion, error) {
	// Completion uses a fresh context so a cancelled discussion still gets
	// its terminal status persisted.
	if err := s.gateway.CompleteDiscussion(context.Background(), d.ID, status, finalAnswer); err != nil {
		s.logger.Error("failed to persist discussion completion", "discussion_id", d.ID, "error", err)
		return d, fmt.Errorf("persist completion: %w", err)
	}
	d.Complete(status, finalAnswer)
	s.emit(d, core.ProgressDiscussionConcluded, "", len(d.Rounds), "", msg)
	s.logger.Info("discussion concluded", "discussion_id", d.ID, "status", string(status))
	return d, nil
}

// concludeStored adapts conclude to the (done, err) shape used inside the
// round loop.
func (s *Sequencer) concludeStored(d *core.Discussion, status core.Status, finalAnswer, msg string) (bool, error) {
	if _, err := s.conclude(d, status, finalAnswer, msg); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Sequencer) activeParticipants(benched map[string]bool) []participant.Participant {
	active := make([]participant.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if !benched[p.Name()] {
			active = append(active, p)
		}
	}
	return active
}

// buildRoundPrompt assembles the stage prompt: purpose line, confidence
// guidance, code guidance when the transcript carries code, then the stage's
// response format.
func (s *Sequencer) buildRoundPrompt(stageCfg config.StageConfig, history *transcript.History) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deliberation stage: %s (%s)\n\n", stageCfg.Name, stageCfg.Stage)
	b.WriteString(config.ConfidenceGuidance)
	b.WriteString("\n\n")
	if history.ContainsCode() {
		b.WriteString(config.CodeConsensusGuidance)
		b.WriteString("\n\n")
	}
	b.WriteString(stageCfg.PromptTemplate)
	return b.String()
}

func (s *Sequencer) emit(d *core.Discussion, kind core.ProgressKind, stage core.Stage, index int, participantName, msg string) {
	if s.progress == nil {
		return
	}
	ev := core.NewProgressEvent(d.ID, kind, msg)
	ev.Stage = stage
	ev.RoundIndex = index
	ev.Participant = participantName
	s.progress(ev)
}
