package participant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewRetryableError("claude", cause)

	assert.Contains(t, err.Error(), "claude")
	assert.Contains(t, err.Error(), "retryable")
	assert.ErrorIs(t, err, cause)

	perm := NewPermanentError("gpt", errors.New("invalid api key"))
	assert.Contains(t, perm.Error(), "permanent")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryableError("p", errors.New("timeout"))))
	assert.False(t, IsRetryable(NewPermanentError("p", errors.New("auth"))))

	// Unclassified errors are treated as transient.
	assert.True(t, IsRetryable(errors.New("something else")))

	wrapped := errors.Join(errors.New("outer"), NewPermanentError("p", errors.New("auth")))
	assert.False(t, IsRetryable(wrapped))
}

func TestMockScriptOrder(t *testing.T) {
	m := NewMock("mock").
		AddResponse("first").
		AddError(errors.New("scripted failure")).
		AddResponse("third")

	ctx := context.Background()

	text, err := m.Generate(ctx, Request{Prompt: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	_, err = m.Generate(ctx, Request{Prompt: "p2"})
	require.Error(t, err)

	text, err = m.Generate(ctx, Request{Prompt: "p3"})
	require.NoError(t, err)
	assert.Equal(t, "third", text)

	// Exhausted scripts fall back to a deterministic placeholder.
	text, err = m.Generate(ctx, Request{Prompt: "p4"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response from mock", text)

	assert.Equal(t, 4, m.Calls())
	assert.Equal(t, "p4", m.LastRequest().Prompt)
}
