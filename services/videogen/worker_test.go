package videogen

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"construyo-opshub/internal/provider/runway"
	"construyo-opshub/pkg/errutil"
	"construyo-opshub/services/analytics"
	"construyo-opshub/services/testutil"
)

type fakeGenerator struct {
	submitErr error
	awaitErr  error
	output    *runway.Output
	progress  []float64
	awaits    int
}

func (f *fakeGenerator) Submit(ctx context.Context, req runway.SubmitRequest) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "task_1", nil
}

func (f *fakeGenerator) Await(ctx context.Context, taskID string, onProgress runway.ProgressFunc) (*runway.Output, error) {
	f.awaits++
	for _, p := range f.progress {
		onProgress(p)
	}
	if f.awaitErr != nil {
		return nil, f.awaitErr
	}
	return f.output, nil
}

type fakeArchiver struct {
	err error
	url string
}

func (f *fakeArchiver) ArchiveURL(ctx context.Context, sourceURL, objectName string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newWorkerFixture(t *testing.T) (*Worker, *fakeGenerator, *gorm.DB, string) {
	t.Helper()
	db := testutil.NewTestDB(t, &VideoGeneration{}, &analytics.Event{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	row := VideoGeneration{
		ID:             "vg1",
		UserID:         "u1",
		ProjectID:      "p1",
		VideoType:      VideoTypeBeforeAfter,
		Status:         StatusPending,
		BeforeImageURL: "https://img/before.jpg",
		AfterImageURL:  "https://img/after.jpg",
		Prompt:         buildPrompt(VideoTypeBeforeAfter, ""),
	}
	require.NoError(t, db.Create(&row).Error)

	gen := &fakeGenerator{output: &runway.Output{VideoURL: "https://cdn/video.mp4", DurationSecs: 10}}
	w := &Worker{
		db:        db,
		generator: gen,
		archiver:  &fakeArchiver{url: "https://bucket/videos/vg1.mp4"},
		analytics: analytics.NewWriter(analytics.WriterParams{DB: db, Node: node}),
	}
	return w, gen, db, row.ID
}

func generateTask(t *testing.T, id string) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(GeneratePayload{VideoGenerationID: id})
	require.NoError(t, err)
	return asynq.NewTask(TypeGenerate, payload)
}

func TestHandleGenerateCompletesRow(t *testing.T) {
	w, gen, db, id := newWorkerFixture(t)
	gen.progress = []float64{0.3, 0.7}

	require.NoError(t, w.HandleGenerate(context.Background(), generateTask(t, id)))

	var row VideoGeneration
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	require.Equal(t, StatusCompleted, row.Status)
	require.Equal(t, "https://cdn/video.mp4", row.OutputURL)
	require.Equal(t, "https://bucket/videos/vg1.mp4", row.ArchiveURL)
	require.Equal(t, "task_1", row.ProviderTaskID)
	require.Equal(t, 1.0, row.Progress)
	require.NotNil(t, row.CompletedAt)

	var events []analytics.Event
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, "video_generation_completed", events[0].EventType)
}

func TestHandleGenerateMarksFailedOnProviderFailure(t *testing.T) {
	w, gen, db, id := newWorkerFixture(t)
	gen.awaitErr = errutil.BadGateway("runway: content moderation")

	require.NoError(t, w.HandleGenerate(context.Background(), generateTask(t, id)))

	var row VideoGeneration
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	require.Equal(t, StatusFailed, row.Status)
	require.Contains(t, row.Error, "content moderation")
	require.NotNil(t, row.CompletedAt)
}

func TestHandleGenerateMarksFailedOnTimeout(t *testing.T) {
	w, gen, db, id := newWorkerFixture(t)
	gen.awaitErr = errutil.Timeout("runway: task task_1 did not finish within 60 polls")

	require.NoError(t, w.HandleGenerate(context.Background(), generateTask(t, id)))

	var row VideoGeneration
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	require.Equal(t, StatusFailed, row.Status)
	require.Contains(t, row.Error, "did not finish within 60 polls")
}

func TestHandleGenerateArchiveFailureIsBestEffort(t *testing.T) {
	w, _, db, id := newWorkerFixture(t)
	w.archiver = &fakeArchiver{err: errutil.BadGateway("bucket unavailable")}

	require.NoError(t, w.HandleGenerate(context.Background(), generateTask(t, id)))

	var row VideoGeneration
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	require.Equal(t, StatusCompleted, row.Status)
	require.Empty(t, row.ArchiveURL)
	require.Equal(t, "https://cdn/video.mp4", row.OutputURL)
}
