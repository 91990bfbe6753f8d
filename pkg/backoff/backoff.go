package backoff

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Strategy selects the delay curve between attempts.
type Strategy string

const (
	// Exponential doubles the base delay on every failed attempt.
	Exponential Strategy = "exponential"
	// Linear grows the delay by one base delay per failed attempt.
	Linear Strategy = "linear"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Strategy    Strategy
}

// Delay returns the wait before the next try after failed attempt n (1-indexed).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	switch p.Strategy {
	case Linear:
		return p.BaseDelay * time.Duration(attempt)
	default:
		return p.BaseDelay * (1 << (attempt - 1))
	}
}

func (p Policy) validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("backoff: max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	return nil
}

// Sleeper suspends the calling task until the delay elapses or ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Executor retries fallible operations according to a Policy. The sleeper is
// injectable so tests never wait on real time.
type Executor struct {
	sleep Sleeper
}

func NewExecutor() *Executor {
	return &Executor{sleep: defaultSleeper}
}

func NewExecutorWithSleeper(sleep Sleeper) *Executor {
	return &Executor{sleep: sleep}
}

// Retry invokes op up to p.MaxAttempts times. The wait happens only between
// attempts, never after the last failure, and the last error is returned
// wrapped so its cause stays visible.
func (e *Executor) Retry(ctx context.Context, name string, p Policy, op func(ctx context.Context) error) error {
	_, err := RetryValue(ctx, e, name, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// RetryValue is Retry for operations that produce a value.
func RetryValue[T any](ctx context.Context, e *Executor, name string, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := p.validate(); err != nil {
		return zero, err
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Delay(attempt)
		zap.L().Warn("retrying operation",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := e.sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%s: wait aborted: %w", name, err)
		}
	}

	return zero, fmt.Errorf("%s: %d attempts exhausted: %w", name, p.MaxAttempts, lastErr)
}
