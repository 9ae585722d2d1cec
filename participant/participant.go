// Package participant defines the capability implemented by provider
// adapters: turning a round prompt plus the shared transcript into one text
// response. The engine never depends on a specific provider's request or
// response shape.
//
// Adapters are selected by constructor injection at startup; there is no
// runtime string-based lookup. Implementations must be safe to invoke
// concurrently, one call per participant per round.
package participant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Request carries the inputs of one generation call. Transcript is the
// cumulative round-labeled record of all prior responses; it is the only way
// a participant sees the others' positions.
type Request struct {
	Prompt     string
	Transcript string
}

// Participant is an independent text-generating agent contributing one
// response per round.
type Participant interface {
	// Name returns the stable identifier used in transcripts and persistence.
	Name() string

	// Generate produces a response for the request. Implementations must
	// respect context cancellation and classify failures via ProviderError.
	Generate(ctx context.Context, req Request) (string, error)
}

// ProviderError wraps a provider failure with a retryable classification.
// Timeouts, rate limits and transient network errors are retryable;
// authentication and other permanent failures are not and the participant is
// excluded for the remainder of the discussion.
type ProviderError struct {
	Provider  string
	Retryable bool
	Err       error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("provider %s: %s failure: %v", e.Provider, kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ProviderError) Unwrap() error { return e.Err }

// NewRetryableError classifies a transient provider failure.
func NewRetryableError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Retryable: true, Err: err}
}

// NewPermanentError classifies a non-retryable provider failure.
func NewPermanentError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Retryable: false, Err: err}
}

// IsRetryable reports whether err is a provider failure worth retrying.
// Unclassified errors are treated as retryable so transient transport
// problems are absorbed; only an explicit permanent classification benches a
// participant.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return true
}

// Mock is a lightweight in-memory Participant useful for tests and examples.
// Responses are consumed per round in script order; a scripted error entry
// fails that round's call.
type Mock struct {
	name    string
	mu      sync.Mutex
	script  []scriptEntry
	cursor  int
	delay   time.Duration
	calls   int
	lastReq Request
}

type scriptEntry struct {
	text string
	err  error
}

// NewMock constructs a mock participant with no scripted responses. Unscripted
// calls echo a deterministic placeholder.
func NewMock(name string) *Mock {
	return &Mock{name: name}
}

// WithDelay makes every call sleep before responding, for timeout tests.
func (m *Mock) WithDelay(d time.Duration) *Mock {
	m.delay = d
	return m
}

// AddResponse appends a canned response to the script.
func (m *Mock) AddResponse(text string) *Mock {
	m.script = append(m.script, scriptEntry{text: text})
	return m
}

// AddError appends a scripted failure to the script.
func (m *Mock) AddError(err error) *Mock {
	m.script = append(m.script, scriptEntry{err: err})
	return m
}

// Name implements Participant.
func (m *Mock) Name() string { return m.name }

// Calls reports how many Generate invocations the mock has served.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request seen by the mock.
func (m *Mock) LastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

// Generate implements Participant.
func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", NewRetryableError(m.name, ctx.Err())
		case <-time.After(m.delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastReq = req

	if m.cursor < len(m.script) {
		entry := m.script[m.cursor]
		m.cursor++
		if entry.err != nil {
			return "", entry.err
		}
		return entry.text, nil
	}
	return fmt.Sprintf("Mock response from %s", m.name), nil
}
