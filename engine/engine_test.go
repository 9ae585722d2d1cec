package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/deliberate/config"
	"github.com/hupe1980/deliberate/core"
	"github.com/hupe1980/deliberate/internal/testutil"
	"github.com/hupe1980/deliberate/participant"
	"github.com/hupe1980/deliberate/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// agreeingMock scripts one identical, fully-formed response per round so the
// panel converges at the terminal stage.
func agreeingMock(name, position string, confidence float64, rounds int) *participant.Mock {
	m := participant.NewMock(name)
	for i := 0; i < rounds; i++ {
		m.AddResponse(testutil.ShowdownResponse(position, confidence))
	}
	return m
}

func TestRunReachesConsensus(t *testing.T) {
	rounds := len(core.StageSequence())
	alice := agreeingMock("alice", "Use approach X for the migration.", 0.9, rounds)
	bob := agreeingMock("bob", "Use approach X for the migration.", 0.9, rounds)

	var events []core.ProgressEvent
	seq, err := New([]participant.Participant{alice, bob}, func(o *Options) {
		o.Progress = func(ev core.ProgressEvent) { events = append(events, ev) }
	})
	require.NoError(t, err)

	d, err := seq.Run(context.Background(), "How should we migrate?")
	require.NoError(t, err)

	assert.Equal(t, core.StatusConsensus, d.Status)
	assert.Contains(t, d.FinalConsensus, "Use approach X for the migration.")
	require.NotNil(t, d.CompletedAt)

	// Identical responses clear every stage bar, so the discussion walks the
	// full sequence and concludes at the terminal stage.
	require.Len(t, d.Rounds, rounds)
	for i, r := range d.Rounds {
		assert.Equal(t, i, r.Index, "round indexes are strictly increasing from zero")
		assert.Equal(t, core.StageSequence()[i], r.Stage)
		assert.True(t, r.ConsensusReached)
		assert.InDelta(t, 1.0, r.Similarity, 1e-9)
		assert.Len(t, r.Responses, 2)
	}

	require.NotEmpty(t, events)
	assert.Equal(t, core.ProgressDiscussionStarted, events[0].Kind)
	assert.Equal(t, core.ProgressDiscussionConcluded, events[len(events)-1].Kind)
}

func TestRunExhaustsWithoutConsensus(t *testing.T) {
	// Unscripted mocks echo divergent placeholders with no confidence value,
	// so no round can clear its thresholds.
	alice := participant.NewMock("alice")
	bob := participant.NewMock("bob")

	seq, err := New([]participant.Participant{alice, bob})
	require.NoError(t, err)

	d, err := seq.Run(context.Background(), "irreconcilable question")
	require.NoError(t, err)

	assert.Equal(t, core.StatusNoConsensus, d.Status)
	assert.Empty(t, d.FinalConsensus)
	assert.Len(t, d.Rounds, len(core.StageSequence()))
	for _, r := range d.Rounds {
		assert.False(t, r.ConsensusReached)
	}
}

func TestRunSimilarityGateBlocksContradictoryPositions(t *testing.T) {
	// Three firmly held but contradictory terminal positions: every
	// confidence clears every stage bar, so only the similarity gate can
	// block consensus.
	positions := map[string]string{
		"alice": "FINAL_POSITION: Rewrite the service in a compiled language for throughput.\n" +
			"IMPLEMENTATION: Port one endpoint at a time behind the existing proxy.\n" +
			"CONFIDENCE: 0.9\nDISSENTING_VIEWS: None.",
		"bob": "FINAL_POSITION: Keep the interpreter and add a caching tier instead.\n" +
			"IMPLEMENTATION: Put memcached in front of the hot read paths.\n" +
			"CONFIDENCE: 0.85\nDISSENTING_VIEWS: Rewrites stall feature work.",
		"carol": "FINAL_POSITION: Split the monolith and scale the slow paths horizontally.\n" +
			"IMPLEMENTATION: Extract the billing worker into its own deployment.\n" +
			"CONFIDENCE: 0.88\nDISSENTING_VIEWS: Operational load grows.",
	}

	rounds := len(core.StageSequence())
	var panel []participant.Participant
	for _, name := range []string{"alice", "bob", "carol"} {
		m := participant.NewMock(name)
		for i := 0; i < rounds; i++ {
			m.AddResponse(positions[name])
		}
		panel = append(panel, m)
	}

	seq, err := New(panel)
	require.NoError(t, err)

	d, err := seq.Run(context.Background(), "How do we fix the latency?")
	require.NoError(t, err)

	assert.Equal(t, core.StatusNoConsensus, d.Status)
	assert.Empty(t, d.FinalConsensus)
	require.Len(t, d.Rounds, rounds)
	for _, r := range d.Rounds {
		assert.False(t, r.ConsensusReached)
		assert.Less(t, r.Similarity, 0.8, "divergent positions must stay under the similarity gate")
		for _, resp := range r.Responses {
			require.NotNil(t, resp.Confidence, "every response carries a parseable confidence")
			assert.GreaterOrEqual(t, *resp.Confidence, 0.85)
		}
	}
}

func TestRunAbortsOnQuorumLoss(t *testing.T) {
	healthy := agreeingMock("healthy", "position", 0.9, 1)
	broken := participant.NewMock("broken").
		AddError(participant.NewPermanentError("broken", errors.New("invalid api key")))

	seq, err := New([]participant.Participant{healthy, broken})
	require.NoError(t, err)

	d, err := seq.Run(context.Background(), "question")
	require.NoError(t, err)

	// One of two responders is below the quorum of two.
	assert.Equal(t, core.StatusAborted, d.Status)
	require.Len(t, d.Rounds, 1)
	assert.False(t, d.Rounds[0].ConsensusReached)
	assert.Equal(t, 1, broken.Calls(), "permanent failure is not retried")
}

func TestRunBenchesPermanentlyFailedParticipant(t *testing.T) {
	rounds := len(core.StageSequence())
	alice := agreeingMock("alice", "Keep the monolith.", 0.9, rounds)
	bob := agreeingMock("bob", "Keep the monolith.", 0.9, rounds)
	flaky := participant.NewMock("flaky").
		AddError(participant.NewPermanentError("flaky", errors.New("revoked key")))

	seq, err := New([]participant.Participant{alice, bob, flaky})
	require.NoError(t, err)

	d, err := seq.Run(context.Background(), "monolith or services?")
	require.NoError(t, err)

	// Quorum still holds with two of three, and the benched participant is
	// never queried again after its permanent failure.
	assert.Equal(t, core.StatusConsensus, d.Status)
	assert.Equal(t, 1, flaky.Calls())
	for _, r := range d.Rounds {
		assert.Len(t, r.Responses, 2)
	}
}

func TestRunCancellationAtRoundBoundary(t *testing.T) {
	alice := participant.NewMock("alice")
	bob := participant.NewMock("bob")

	seq, err := New([]participant.Participant{alice, bob})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := seq.Run(ctx, "cancelled before the first round")
	require.NoError(t, err)

	assert.Equal(t, core.StatusAborted, d.Status)
	assert.Empty(t, d.Rounds)
	assert.Equal(t, 0, alice.Calls())
}

func TestRunPersistsBeforeEmitting(t *testing.T) {
	rounds := len(core.StageSequence())
	alice := agreeingMock("alice", "answer", 0.9, rounds)
	bob := agreeingMock("bob", "answer", 0.9, rounds)

	gateway := store.NewInMemoryStore()
	var scoredRounds []int
	seq, err := New([]participant.Participant{alice, bob}, func(o *Options) {
		o.Gateway = gateway
		o.Progress = func(ev core.ProgressEvent) {
			if ev.Kind != core.ProgressRoundScored {
				return
			}
			// By the time a round_scored event arrives, the round and its
			// responses must already be readable from the store.
			d, err := gateway.LoadDiscussion(context.Background(), ev.DiscussionID)
			require.NoError(t, err)
			require.Greater(t, len(d.Rounds), ev.RoundIndex)
			assert.NotEmpty(t, d.Rounds[ev.RoundIndex].Responses)
			scoredRounds = append(scoredRounds, ev.RoundIndex)
		}
	})
	require.NoError(t, err)

	_, err = seq.Run(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, scoredRounds)
}

func TestRunTranscriptGrowsAcrossRounds(t *testing.T) {
	rounds := len(core.StageSequence())
	alice := agreeingMock("alice", "grow", 0.9, rounds)
	bob := agreeingMock("bob", "grow", 0.9, rounds)

	seq, err := New([]participant.Participant{alice, bob})
	require.NoError(t, err)

	_, err = seq.Run(context.Background(), "the original question")
	require.NoError(t, err)

	// The last request each mock saw carries the full prior history.
	last := alice.LastRequest()
	assert.Contains(t, last.Transcript, "Original prompt: the original question")
	assert.Contains(t, last.Transcript, "--- Round 0 (PRE_FLOP) ---")
	assert.Contains(t, last.Transcript, "--- Round 3 (RIVER) ---")
	assert.Contains(t, last.Transcript, "alice:")
	assert.Contains(t, last.Transcript, "bob:")
}

func TestNewRejectsInvalidSetup(t *testing.T) {
	t.Run("participants below quorum", func(t *testing.T) {
		_, err := New([]participant.Participant{participant.NewMock("solo")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quorum")
	})

	t.Run("invalid configuration", func(t *testing.T) {
		_, err := New([]participant.Participant{
			participant.NewMock("a"), participant.NewMock("b"),
		}, func(o *Options) {
			o.Config.Settings.ConsensusThreshold = 2.0
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestStageRepeatsWhenRoundsExceedSequence(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.MaxRounds = len(core.StageSequence()) + 2

	alice := participant.NewMock("alice")
	bob := participant.NewMock("bob")

	seq, err := New([]participant.Participant{alice, bob}, func(o *Options) {
		o.Config = cfg
	})
	require.NoError(t, err)

	d, err := seq.Run(context.Background(), "never agrees")
	require.NoError(t, err)

	require.Len(t, d.Rounds, cfg.Settings.MaxRounds)
	terminal := core.TerminalStage()
	assert.Equal(t, terminal, d.Rounds[len(d.Rounds)-1].Stage)
	assert.Equal(t, terminal, d.Rounds[len(d.Rounds)-2].Stage)
}
