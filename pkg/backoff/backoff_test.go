package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func recordingExecutor() (*Executor, *[]time.Duration) {
	var waits []time.Duration
	e := NewExecutorWithSleeper(func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	})
	return e, &waits
}

func TestExponentialDelaySequence(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: 1000 * time.Millisecond, Strategy: Exponential}

	require.Equal(t, 1000*time.Millisecond, p.Delay(1))
	require.Equal(t, 2000*time.Millisecond, p.Delay(2))
	require.Equal(t, 4000*time.Millisecond, p.Delay(3))
}

func TestLinearDelaySequence(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: 2000 * time.Millisecond, Strategy: Linear}

	require.Equal(t, 2000*time.Millisecond, p.Delay(1))
	require.Equal(t, 4000*time.Millisecond, p.Delay(2))
	require.Equal(t, 6000*time.Millisecond, p.Delay(3))
}

func TestRetryStopsAtMaxAttempts(t *testing.T) {
	e, waits := recordingExecutor()

	calls := 0
	cause := errors.New("connection refused")
	err := e.Retry(context.Background(), "test-op", Policy{MaxAttempts: 3, BaseDelay: time.Second, Strategy: Exponential}, func(ctx context.Context) error {
		calls++
		return cause
	})

	require.Error(t, err)
	require.ErrorIs(t, err, cause)
	require.Equal(t, 3, calls)
	// no trailing sleep after the final failed attempt
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestRetrySucceedsMidway(t *testing.T) {
	e, waits := recordingExecutor()

	calls := 0
	v, err := RetryValue(context.Background(), e, "test-op", Policy{MaxAttempts: 5, BaseDelay: time.Second, Strategy: Linear}, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("not yet")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestRetryRejectsZeroAttempts(t *testing.T) {
	e, _ := recordingExecutor()

	err := e.Retry(context.Background(), "test-op", Policy{MaxAttempts: 0, BaseDelay: time.Second}, func(ctx context.Context) error {
		t.Fatal("operation must not run")
		return nil
	})

	require.Error(t, err)
}

func TestRetryAbortsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := NewExecutorWithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})

	calls := 0
	err := e.Retry(ctx, "test-op", Policy{MaxAttempts: 3, BaseDelay: time.Second}, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})

	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
