package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/deliberate/participant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectAllSucceed(t *testing.T) {
	c := New(Options{CallTimeout: time.Second})
	participants := []participant.Participant{
		participant.NewMock("alice").AddResponse("answer a"),
		participant.NewMock("bob").AddResponse("answer b"),
	}

	result := c.Collect(context.Background(), participant.Request{Prompt: "q"}, participants)

	require.Len(t, result.Responses, 2)
	assert.Empty(t, result.Failures)
	assert.Equal(t, "answer a", result.Responses["alice"])
	assert.Equal(t, "answer b", result.Responses["bob"])
}

func TestCollectRunsConcurrently(t *testing.T) {
	c := New(Options{CallTimeout: 5 * time.Second})
	delay := 100 * time.Millisecond
	participants := []participant.Participant{
		participant.NewMock("alice").WithDelay(delay),
		participant.NewMock("bob").WithDelay(delay),
		participant.NewMock("carol").WithDelay(delay),
	}

	start := time.Now()
	result := c.Collect(context.Background(), participant.Request{Prompt: "q"}, participants)
	elapsed := time.Since(start)

	require.Len(t, result.Responses, 3)
	// Sequential execution would need at least 3x the delay.
	assert.Less(t, elapsed, 3*delay, "calls must run concurrently")
}

func TestCollectPerCallTimeout(t *testing.T) {
	c := New(Options{CallTimeout: 30 * time.Millisecond, MaxRetries: 0})
	participants := []participant.Participant{
		participant.NewMock("slow").WithDelay(500 * time.Millisecond),
		participant.NewMock("fast").AddResponse("done"),
	}

	result := c.Collect(context.Background(), participant.Request{Prompt: "q"}, participants)

	assert.Equal(t, "done", result.Responses["fast"])
	failure, ok := result.Failures["slow"]
	require.True(t, ok, "slow participant must fail this round")
	assert.False(t, failure.Permanent, "a timeout is transient, not permanent")
}

func TestCollectRetriesTransientFailure(t *testing.T) {
	c := New(Options{CallTimeout: time.Second, MaxRetries: 2, RetryBackoff: time.Millisecond})
	flaky := participant.NewMock("flaky").
		AddError(participant.NewRetryableError("flaky", errors.New("rate limited"))).
		AddResponse("recovered")

	result := c.Collect(context.Background(), participant.Request{Prompt: "q"},
		[]participant.Participant{flaky})

	assert.Equal(t, "recovered", result.Responses["flaky"])
	assert.Empty(t, result.Failures)
	assert.Equal(t, 2, flaky.Calls())
}

func TestCollectRetriesExhausted(t *testing.T) {
	c := New(Options{CallTimeout: time.Second, MaxRetries: 1, RetryBackoff: time.Millisecond})
	failing := participant.NewMock("failing").
		AddError(participant.NewRetryableError("failing", errors.New("boom"))).
		AddError(participant.NewRetryableError("failing", errors.New("boom again")))

	result := c.Collect(context.Background(), participant.Request{Prompt: "q"},
		[]participant.Participant{failing})

	failure, ok := result.Failures["failing"]
	require.True(t, ok)
	assert.False(t, failure.Permanent)
	assert.Equal(t, 2, failing.Calls(), "initial attempt plus one retry")
}

func TestCollectPermanentFailureNotRetried(t *testing.T) {
	c := New(Options{CallTimeout: time.Second, MaxRetries: 3, RetryBackoff: time.Millisecond})
	broken := participant.NewMock("broken").
		AddError(participant.NewPermanentError("broken", errors.New("invalid api key")))

	result := c.Collect(context.Background(), participant.Request{Prompt: "q"},
		[]participant.Participant{broken})

	failure, ok := result.Failures["broken"]
	require.True(t, ok)
	assert.True(t, failure.Permanent)
	assert.Equal(t, 1, broken.Calls(), "permanent failures are never retried")
}

func TestCollectParentCancellation(t *testing.T) {
	c := New(Options{CallTimeout: time.Second, MaxRetries: 5, RetryBackoff: 10 * time.Second})
	failing := participant.NewMock("failing").
		AddError(participant.NewRetryableError("failing", errors.New("boom")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	result := c.Collect(ctx, participant.Request{Prompt: "q"},
		[]participant.Participant{failing})

	assert.NotEmpty(t, result.Failures)
	assert.Less(t, time.Since(start), time.Second, "cancellation must cut the backoff short")
}
