package runway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"construyo-opshub/pkg/errutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testClient(t *testing.T, baseURL string, pollAttempts int) (*Client, *[]time.Duration) {
	t.Helper()
	var waits []time.Duration
	c := NewClientForTest(resty.New(), baseURL, 10*time.Second, pollAttempts, func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	})
	return c, &waits
}

func TestSubmitSendsOrderedPromptImages(t *testing.T) {
	var got submitBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2024-11-06", r.Header.Get("X-Runway-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(submitResponse{ID: "task_123"})
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, 60)
	id, err := c.Submit(context.Background(), SubmitRequest{
		BeforeImageURL: "https://img/before.jpg",
		AfterImageURL:  "https://img/after.jpg",
		Prompt:         "smooth renovation transition",
	})

	require.NoError(t, err)
	require.Equal(t, "task_123", id)
	require.Len(t, got.PromptImage, 2)
	require.Equal(t, "first", got.PromptImage[0].Position)
	require.Equal(t, "https://img/before.jpg", got.PromptImage[0].URI)
	require.Equal(t, "last", got.PromptImage[1].Position)
	require.Equal(t, "https://img/after.jpg", got.PromptImage[1].URI)
}

func TestAwaitReturnsOutputOnSuccess(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		w.Header().Set("Content-Type", "application/json")
		if polls < 3 {
			json.NewEncoder(w).Encode(taskResponse{Status: "RUNNING", Progress: 0.5})
			return
		}
		json.NewEncoder(w).Encode(taskResponse{Status: StatusSucceeded, Output: []string{"https://cdn/video.mp4"}})
	}))
	defer srv.Close()

	var progress []float64
	c, waits := testClient(t, srv.URL, 60)
	out, err := c.Await(context.Background(), "task_123", func(p float64) { progress = append(progress, p) })

	require.NoError(t, err)
	require.Equal(t, "https://cdn/video.mp4", out.VideoURL)
	require.Equal(t, []float64{0.5, 0.5}, progress)
	require.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, *waits)
}

func TestAwaitStopsImmediatelyOnFailure(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(taskResponse{Status: StatusFailed, Failure: "content moderation"})
	}))
	defer srv.Close()

	c, waits := testClient(t, srv.URL, 60)
	_, err := c.Await(context.Background(), "task_123", nil)

	require.Error(t, err)
	require.Contains(t, err.Error(), "content moderation")
	require.Equal(t, 1, polls)
	require.Empty(t, *waits)
}

func TestAwaitTimesOutWhenBudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(taskResponse{Status: "RUNNING", Progress: 0.1})
	}))
	defer srv.Close()

	c, waits := testClient(t, srv.URL, 5)
	_, err := c.Await(context.Background(), "task_123", nil)

	require.Error(t, err)
	require.Equal(t, errutil.StatusTimeout, errutil.StatusOf(err))
	require.Len(t, *waits, 4)
}
