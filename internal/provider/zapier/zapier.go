package zapier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"construyo-opshub/pkg/backoff"
	"construyo-opshub/pkg/errutil"
	"construyo-opshub/pkg/metrics"
)

var Module = fx.Module("provider.zapier", fx.Provide(NewClient))

const (
	// DefaultMaxAttempts bounds the webhook delivery when the caller does
	// not override it.
	DefaultMaxAttempts = 3
	// maxNetworkFailures caps retries on pure transport errors.
	maxNetworkFailures = 3
)

var (
	rateLimitPolicy = backoff.Policy{Strategy: backoff.Exponential, BaseDelay: time.Second}
	serverErrPolicy = backoff.Policy{Strategy: backoff.Linear, BaseDelay: 2 * time.Second}
)

type Client struct {
	http  *resty.Client
	sleep backoff.Sleeper
}

type Params struct {
	fx.In
	HTTP *resty.Client
}

func NewClient(p Params) *Client {
	return &Client{
		http: p.HTTP,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// NewClientWithSleeper is for tests that must not wait on real time.
func NewClientWithSleeper(http *resty.Client, sleep backoff.Sleeper) *Client {
	return &Client{http: http, sleep: sleep}
}

// Send POSTs the field-mapped record to the webhook. Rate limiting (429)
// backs off exponentially, server errors (5xx) linearly, transport errors
// linearly with their own cap; any other 4xx is terminal. The returned count
// is the number of retried attempts, for the audit log.
func (c *Client) Send(ctx context.Context, webhookURL string, payload map[string]any, maxAttempts int) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	retries := 0
	networkFailures := 0

	for attempt := 1; ; attempt++ {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(payload).
			Post(webhookURL)

		var delay time.Duration
		var attemptErr error

		switch {
		case err != nil:
			networkFailures++
			attemptErr = fmt.Errorf("webhook request: %w", err)
			if networkFailures >= maxNetworkFailures {
				return retries, errutil.BadGateway("webhook unreachable", errutil.WithErr(err))
			}
			delay = serverErrPolicy.Delay(attempt)
		case resp.IsSuccess():
			return retries, nil
		case resp.StatusCode() == 429:
			attemptErr = errutil.TooManyRequest("webhook rate limited")
			delay = rateLimitPolicy.Delay(attempt)
		case resp.StatusCode() >= 500:
			attemptErr = errutil.BadGateway(fmt.Sprintf("webhook returned %s", resp.Status()))
			delay = serverErrPolicy.Delay(attempt)
		default:
			// 4xx other than 429: the payload or URL is wrong, retrying won't help
			return retries, errutil.BadGateway(fmt.Sprintf("webhook rejected request: %s", resp.Status()))
		}

		if attempt >= maxAttempts {
			return retries, fmt.Errorf("webhook delivery: %d attempts exhausted: %w", maxAttempts, attemptErr)
		}

		retries++
		metrics.DeliveryRetries.WithLabelValues("crm_webhook").Inc()
		zap.L().Warn("retrying webhook delivery",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(attemptErr),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return retries, fmt.Errorf("webhook delivery: wait aborted: %w", err)
		}
	}
}
