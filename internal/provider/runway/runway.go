package runway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"construyo-opshub/pkg/backoff"
	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/errutil"
)

var Module = fx.Module("provider.runway", fx.Provide(NewClient))

const apiVersion = "2024-11-06"

// Terminal task statuses reported by the provider.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// SubmitRequest describes one video generation task.
type SubmitRequest struct {
	BeforeImageURL string
	AfterImageURL  string
	Prompt         string
	DurationSecs   int
}

// Output is the terminal result of a successful generation.
type Output struct {
	VideoURL     string
	DurationSecs int
}

// ProgressFunc receives interim progress in [0,1] while polling.
type ProgressFunc func(progress float64)

type Client struct {
	http         *resty.Client
	baseURL      string
	apiKey       string
	model        string
	pollInterval time.Duration
	pollAttempts int
	sleep        backoff.Sleeper
}

type Params struct {
	fx.In
	Config *config.Config
	HTTP   *resty.Client
}

func NewClient(p Params) *Client {
	cfg := p.Config.Providers.Runway
	return &Client{
		http:         p.HTTP,
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		pollInterval: cfg.PollInterval,
		pollAttempts: cfg.PollAttempts,
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

// NewClientForTest wires a fake transport and sleeper.
func NewClientForTest(http *resty.Client, baseURL string, pollInterval time.Duration, pollAttempts int, sleep backoff.Sleeper) *Client {
	return &Client{
		http:         http,
		baseURL:      baseURL,
		model:        "gen3a_turbo",
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		sleep:        sleep,
	}
}

type promptImage struct {
	URI      string `json:"uri"`
	Position string `json:"position"`
}

type submitBody struct {
	Model       string        `json:"model"`
	PromptImage []promptImage `json:"promptImage"`
	PromptText  string        `json:"promptText"`
	Duration    int           `json:"duration"`
	Ratio       string        `json:"ratio"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type taskResponse struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Progress float64  `json:"progress"`
	Output   []string `json:"output"`
	Failure  string   `json:"failure"`
}

// Submit starts a generation task and returns the provider task id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	duration := req.DurationSecs
	if duration == 0 {
		duration = 10
	}

	var out submitResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("X-Runway-Version", apiVersion).
		SetBody(submitBody{
			Model: c.model,
			PromptImage: []promptImage{
				{URI: req.BeforeImageURL, Position: "first"},
				{URI: req.AfterImageURL, Position: "last"},
			},
			PromptText: req.Prompt,
			Duration:   duration,
			Ratio:      "1280:768",
		}).
		SetResult(&out).
		Post(c.baseURL + "/v1/image_to_video")
	if err != nil {
		return "", fmt.Errorf("runway: submit task: %w", err)
	}

	if !resp.IsSuccess() {
		return "", errutil.BadGateway(fmt.Sprintf("runway: submit task failed: %s", resp.Status()))
	}

	return out.ID, nil
}

// Await polls the task until it reaches a terminal status. A FAILED status
// stops polling immediately; exhausting the attempt budget is a timeout.
func (c *Client) Await(ctx context.Context, taskID string, onProgress ProgressFunc) (*Output, error) {
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		task, err := c.pollOnce(ctx, taskID)
		if err != nil {
			zap.L().Warn("runway poll failed", zap.String("task_id", taskID), zap.Int("attempt", attempt), zap.Error(err))
		} else {
			switch task.Status {
			case StatusSucceeded:
				if len(task.Output) == 0 {
					return nil, errutil.BadGateway("runway: task succeeded without output")
				}
				return &Output{VideoURL: task.Output[0], DurationSecs: 10}, nil
			case StatusFailed:
				reason := task.Failure
				if reason == "" {
					reason = "generation failed"
				}
				return nil, errutil.BadGateway(fmt.Sprintf("runway: %s", reason))
			default:
				if onProgress != nil {
					onProgress(task.Progress)
				}
			}
		}

		if attempt == c.pollAttempts {
			break
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, fmt.Errorf("runway: poll aborted: %w", err)
		}
	}

	return nil, errutil.Timeout(fmt.Sprintf("runway: task %s did not finish within %d polls", taskID, c.pollAttempts))
}

func (c *Client) pollOnce(ctx context.Context, taskID string) (*taskResponse, error) {
	var out taskResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("X-Runway-Version", apiVersion).
		SetResult(&out).
		Get(fmt.Sprintf("%s/v1/tasks/%s", c.baseURL, taskID))
	if err != nil {
		return nil, fmt.Errorf("runway: poll task: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, errutil.BadGateway(fmt.Sprintf("runway: poll task failed: %s", resp.Status()))
	}

	return &out, nil
}
