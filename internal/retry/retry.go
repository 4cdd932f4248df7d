// Package retry replays remote operations that fail with quota or transient
// server errors, waiting an exponentially growing interval between attempts.
package retry

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"postergen/internal/failure"
	"postergen/internal/infra"
	"postergen/internal/metrics"
)

// DefaultMaxAttempts is the attempt budget when none is configured.
const DefaultMaxAttempts = 4

// QuotaMessage replaces the upstream wording when the budget runs out on a
// quota failure. It names no provider: the text step may run on OpenAI while
// images and video run on Gemini.
const QuotaMessage = "Usage limit reached: the shared API quota is exhausted. " +
	"Select your own API key from a billing-enabled account to remove the limit."

// Operation is a replayable unit of remote work.
type Operation[T any] func(ctx context.Context) (T, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor holds the retry policy. The zero value is usable.
type Executor struct {
	MaxAttempts int
	// Backoff returns the wait after the failed attempt with the given
	// zero-based index.
	Backoff    func(attempt int) time.Duration
	Classifier *failure.Classifier
	Sleep      SleepFunc
	Logger     *infra.Logger
}

// New returns an executor with the default policy and the given logger.
func New(logger *infra.Logger) *Executor {
	return &Executor{MaxAttempts: DefaultMaxAttempts, Logger: logger}
}

// ExponentialBackoff waits 2^(attempt+2)-1 seconds: 3s, 7s, 15s, 31s...
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 20 {
		attempt = 20
	}
	return time.Duration((1<<(attempt+2))-1) * time.Second
}

// SleepContext is the default SleepFunc.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op until it succeeds, fails with a fatal error or the attempt
// budget is spent. Every returned error is a *failure.Error.
func Do[T any](ctx context.Context, e *Executor, name string, op Operation[T]) (T, error) {
	if e == nil {
		e = &Executor{}
	}
	var zero T
	maxAttempts := e.maxAttempts()
	logger := e.logger()

	var last *failure.Error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return zero, last
			}
			return zero, e.classify(err)
		}
		result, err := op(ctx)
		if err == nil {
			metrics.RemoteAttempts.WithLabelValues(name, "success").Inc()
			return result, nil
		}
		last = e.classify(err)
		metrics.RemoteAttempts.WithLabelValues(name, "failure").Inc()
		metrics.ClassifiedFailures.WithLabelValues(name, last.Kind.String()).Inc()

		if !last.Kind.Retryable() {
			return zero, last
		}
		if attempt == maxAttempts-1 {
			break
		}
		wait := e.backoff(attempt)
		logger.Warn().
			Err(last.Cause).
			Str("operation", name).
			Int("attempt", attempt+1).
			Int("max_attempts", maxAttempts).
			Str("kind", last.Kind.String()).
			Dur("wait", wait).
			Msg("retry: attempt failed, backing off")
		metrics.RetryWait.WithLabelValues(name).Observe(wait.Seconds())
		if err := e.sleep(ctx, wait); err != nil {
			return zero, last
		}
	}

	if last.Kind == failure.QuotaExhausted {
		return zero, last.WithMessage(QuotaMessage)
	}
	return zero, last
}

func (e *Executor) maxAttempts() int {
	if e.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return e.MaxAttempts
}

func (e *Executor) backoff(attempt int) time.Duration {
	if e.Backoff != nil {
		return e.Backoff(attempt)
	}
	return ExponentialBackoff(attempt)
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

func (e *Executor) classify(err error) *failure.Error {
	if e.Classifier != nil {
		return e.Classifier.Classify(err)
	}
	return failure.Classify(err)
}

func (e *Executor) logger() *infra.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	discard := zerolog.New(io.Discard)
	return &discard
}
