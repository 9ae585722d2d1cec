// Package collector fans a round's prompt out to all live participants
// concurrently and joins on the full set before returning.
//
// Each call runs in its own goroutine with an independent timeout, so one
// participant's latency never blocks or extends another's deadline. Transient
// provider failures are absorbed by a bounded retry with fixed backoff;
// permanent failures (authentication and the like) are never retried. Collect
// returns only after every participant has completed, failed or exhausted
// retries. The WaitGroup barrier is the round's synchronization point, so
// scoring always sees a stable, complete response set.
package collector

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/deliberate/logging"
	"github.com/hupe1980/deliberate/participant"
)

// Failure records why a participant produced no response this round.
type Failure struct {
	Err error
	// Permanent marks failures that must bench the participant for the
	// remainder of the discussion.
	Permanent bool
}

// Result is the outcome of one round's collection. Responses holds raw text
// keyed by participant name; Failures holds the participants excluded from
// this round.
type Result struct {
	Responses map[string]string
	Failures  map[string]Failure
}

// Options configures a Collector.
type Options struct {
	// CallTimeout bounds each individual participant call.
	CallTimeout time.Duration
	// MaxRetries is the number of additional attempts after a retryable
	// failure.
	MaxRetries int
	// RetryBackoff is the fixed pause between attempts.
	RetryBackoff time.Duration
	// Logger receives per-call outcomes.
	Logger logging.Logger
}

// Collector queries participants concurrently with per-call timeouts and
// bounded retries. It is stateless across rounds and safe for reuse.
type Collector struct {
	opts Options
}

// New constructs a Collector. A nil logger is replaced with a no-op.
func New(opts Options) *Collector {
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 120 * time.Second
	}
	return &Collector{opts: opts}
}

// Collect queries every participant concurrently and blocks until all calls
// have settled. Failures are per-round: a participant that fails here may
// still be queried next round unless its failure was permanent.
func (c *Collector) Collect(ctx context.Context, req participant.Request, participants []participant.Participant) Result {
	result := Result{
		Responses: make(map[string]string, len(participants)),
		Failures:  make(map[string]Failure),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range participants {
		wg.Add(1)
		go func(p participant.Participant) {
			defer wg.Done()

			text, err := c.callWithRetry(ctx, p, req)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures[p.Name()] = Failure{Err: err, Permanent: !participant.IsRetryable(err)}
				return
			}
			result.Responses[p.Name()] = text
		}(p)
	}

	// Barrier: no partial round proceeds to scoring.
	wg.Wait()
	return result
}

// callWithRetry attempts the call up to 1+MaxRetries times. Permanent
// failures and parent-context cancellation end the attempts immediately.
func (c *Collector) callWithRetry(ctx context.Context, p participant.Participant, req participant.Request) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", participant.NewRetryableError(p.Name(), ctx.Err())
			case <-time.After(c.opts.RetryBackoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
		start := time.Now()
		text, err := p.Generate(callCtx, req)
		cancel()

		if err == nil {
			c.opts.Logger.Debug("participant call completed",
				"participant", p.Name(), "attempt", attempt+1, "duration", time.Since(start))
			return text, nil
		}

		lastErr = err
		c.opts.Logger.Warn("participant call failed",
			"participant", p.Name(), "attempt", attempt+1, "duration", time.Since(start), "error", err)

		if !participant.IsRetryable(err) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", err
		}
	}
	return "", lastErr
}
