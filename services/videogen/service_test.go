package videogen

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"construyo-opshub/pkg/errutil"
	"construyo-opshub/services/analytics"
	"construyo-opshub/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, t *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, t)
	return &asynq.TaskInfo{}, nil
}

type fakeFlags struct {
	enabled bool
}

func (f *fakeFlags) IsEnabled(identifier, feature string) bool { return f.enabled }

func newService(t *testing.T) (*Service, *fakeEnqueuer, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &VideoGeneration{}, &analytics.Event{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	enq := &fakeEnqueuer{}
	svc := &Service{
		db:        db,
		node:      node,
		enqueuer:  enq,
		analytics: analytics.NewWriter(analytics.WriterParams{DB: db, Node: node}),
		flags:     &fakeFlags{enabled: true},
	}
	return svc, enq, db
}

func validRequest() GenerateRequest {
	return GenerateRequest{
		ProjectID:      "p1",
		BeforeImageURL: "https://img/before.jpg",
		AfterImageURL:  "https://img/after.jpg",
	}
}

func TestDispatchCreatesPendingRowAndEnqueues(t *testing.T) {
	svc, enq, db := newService(t)

	resp, err := svc.Dispatch(context.Background(), "u1", validRequest())

	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, StatusProcessing, resp.Status)
	require.NotEmpty(t, resp.VideoGenerationID)
	require.Len(t, enq.tasks, 1)
	require.Equal(t, TypeGenerate, enq.tasks[0].Type())

	var row VideoGeneration
	require.NoError(t, db.First(&row, "id = ?", resp.VideoGenerationID).Error)
	require.Equal(t, StatusPending, row.Status)
	require.Equal(t, VideoTypeBeforeAfter, row.VideoType)

	var events []analytics.Event
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, "video_generation_started", events[0].EventType)
}

func TestDispatchDefaultsVideoType(t *testing.T) {
	svc, _, db := newService(t)

	resp, err := svc.Dispatch(context.Background(), "u1", validRequest())
	require.NoError(t, err)

	var row VideoGeneration
	require.NoError(t, db.First(&row, "id = ?", resp.VideoGenerationID).Error)
	require.Equal(t, VideoTypeBeforeAfter, row.VideoType)
}

func TestDispatchRejectsUnknownVideoType(t *testing.T) {
	svc, enq, _ := newService(t)
	req := validRequest()
	req.VideoType = VideoType("drone_flyover")

	_, err := svc.Dispatch(context.Background(), "u1", req)

	require.Error(t, err)
	require.Equal(t, errutil.StatusValidationFailed, errutil.StatusOf(err))
	require.Empty(t, enq.tasks)
}

func TestDispatchRequiresTestimonialText(t *testing.T) {
	svc, _, _ := newService(t)
	req := validRequest()
	req.VideoType = VideoTypeTestimonial

	_, err := svc.Dispatch(context.Background(), "u1", req)

	require.Error(t, err)
	require.Equal(t, errutil.StatusValidationFailed, errutil.StatusOf(err))
}

func TestDispatchGatedByFeatureFlag(t *testing.T) {
	svc, enq, _ := newService(t)
	svc.flags = &fakeFlags{enabled: false}

	_, err := svc.Dispatch(context.Background(), "u1", validRequest())

	require.Error(t, err)
	require.Equal(t, errutil.StatusForbidden, errutil.StatusOf(err))
	require.Empty(t, enq.tasks)
}

func TestGetScopedToOwner(t *testing.T) {
	svc, _, _ := newService(t)
	resp, err := svc.Dispatch(context.Background(), "u1", validRequest())
	require.NoError(t, err)

	row, err := svc.Get(context.Background(), "u1", resp.VideoGenerationID)
	require.NoError(t, err)
	require.Equal(t, resp.VideoGenerationID, row.ID)

	_, err = svc.Get(context.Background(), "u2", resp.VideoGenerationID)
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}
