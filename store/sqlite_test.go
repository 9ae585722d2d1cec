package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/deliberate/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	d := core.NewDiscussion("pick a queue")
	require.NoError(t, s.CreateDiscussion(ctx, d))

	for i, stage := range []core.Stage{core.StagePreFlop, core.StageFlop} {
		round := &core.Round{
			ID:           core.NewID(),
			DiscussionID: d.ID,
			Stage:        stage,
			Index:        i,
			Prompt:       "round prompt",
		}
		require.NoError(t, s.CreateRound(ctx, round))

		confidence := 0.8
		require.NoError(t, s.StoreResponse(ctx, round.ID, core.ParticipantResponse{
			Participant: "claude",
			Text:        "POSITION: kafka",
			Confidence:  &confidence,
			Parsed:      true,
		}))
		require.NoError(t, s.StoreResponse(ctx, round.ID, core.ParticipantResponse{
			Participant: "gpt",
			Text:        "POSITION: kafka too",
		}))
		require.NoError(t, s.UpdateRoundScore(ctx, round.ID, 0.9, i == 1))
	}
	require.NoError(t, s.CompleteDiscussion(ctx, d.ID, core.StatusConsensus, "kafka"))

	loaded, err := s.LoadDiscussion(ctx, d.ID)
	require.NoError(t, err)

	assert.Equal(t, "pick a queue", loaded.Prompt)
	assert.Equal(t, core.StatusConsensus, loaded.Status)
	assert.Equal(t, "kafka", loaded.FinalConsensus)
	require.NotNil(t, loaded.CompletedAt)

	require.Len(t, loaded.Rounds, 2)
	assert.Equal(t, 0, loaded.Rounds[0].Index)
	assert.Equal(t, 1, loaded.Rounds[1].Index)
	assert.False(t, loaded.Rounds[0].ConsensusReached)
	assert.True(t, loaded.Rounds[1].ConsensusReached)

	responses := loaded.Rounds[0].Responses
	require.Len(t, responses, 2)
	require.NotNil(t, responses[0].Confidence)
	assert.InDelta(t, 0.8, *responses[0].Confidence, 1e-9)
	assert.Nil(t, responses[1].Confidence, "absent confidence round-trips as NULL")
}

func TestSQLiteAbortedHasNoFinalConsensus(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	d := core.NewDiscussion("prompt")
	require.NoError(t, s.CreateDiscussion(ctx, d))
	require.NoError(t, s.CompleteDiscussion(ctx, d.ID, core.StatusAborted, "should be dropped"))

	loaded, err := s.LoadDiscussion(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusAborted, loaded.Status)
	assert.Empty(t, loaded.FinalConsensus)
}

func TestSQLiteNotFound(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.LoadDiscussion(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.UpdateRoundScore(ctx, "missing", 0.5, false), ErrNotFound)
	assert.ErrorIs(t, s.CompleteDiscussion(ctx, "missing", core.StatusAborted, ""), ErrNotFound)
}

func TestSQLiteListNewestFirst(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	older := core.NewDiscussion("older")
	older.StartedAt = time.Now().UTC().Add(-time.Hour)
	newer := core.NewDiscussion("newer")

	require.NoError(t, s.CreateDiscussion(ctx, older))
	require.NoError(t, s.CreateDiscussion(ctx, newer))

	list, err := s.ListDiscussions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Prompt)

	limited, err := s.ListDiscussions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
