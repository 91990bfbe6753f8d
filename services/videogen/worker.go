package videogen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"construyo-opshub/internal/provider/runway"
	"construyo-opshub/pkg/metrics"
	"construyo-opshub/pkg/objectstore"
	"construyo-opshub/services/analytics"
)

// Generator is the two-phase video provider surface the worker drives.
type Generator interface {
	Submit(ctx context.Context, req runway.SubmitRequest) (string, error)
	Await(ctx context.Context, taskID string, onProgress runway.ProgressFunc) (*runway.Output, error)
}

// Worker runs the detached generation continuation. It always leaves the row
// in a terminal state and never asks asynq to retry; the runway poll loop is
// the sole attempt budget.
type Worker struct {
	db        *gorm.DB
	generator Generator
	archiver  objectstore.Archiver
	analytics *analytics.Writer
}

type WorkerParams struct {
	fx.In

	DB        *gorm.DB
	Runway    *runway.Client
	Archiver  objectstore.Archiver
	Analytics *analytics.Writer
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		db:        p.DB,
		generator: p.Runway,
		archiver:  p.Archiver,
		analytics: p.Analytics,
	}
}

func RegisterWorker(mux *asynq.ServeMux, w *Worker) {
	mux.HandleFunc(TypeGenerate, w.HandleGenerate)
}

func (w *Worker) HandleGenerate(ctx context.Context, t *asynq.Task) error {
	var payload GeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		zap.L().Error("malformed video generation payload", zap.Error(err))
		return nil
	}

	var row VideoGeneration
	if err := w.db.WithContext(ctx).First(&row, "id = ?", payload.VideoGenerationID).Error; err != nil {
		zap.L().Error("video generation row not found", zap.String("id", payload.VideoGenerationID), zap.Error(err))
		return nil
	}

	started := time.Now()
	if err := w.run(ctx, &row); err != nil {
		metrics.RecordDelivery("runway", "failed", time.Since(started).Seconds())
		w.complete(ctx, &row, StatusFailed, err.Error())
		w.analytics.Emit(ctx, row.UserID, row.ID, "video_generation_failed", map[string]any{
			"project_id": row.ProjectID,
			"error":      err.Error(),
		})
		return nil
	}

	metrics.RecordDelivery("runway", "success", time.Since(started).Seconds())
	w.complete(ctx, &row, StatusCompleted, "")
	w.analytics.Emit(ctx, row.UserID, row.ID, "video_generation_completed", map[string]any{
		"project_id":    row.ProjectID,
		"video_type":    string(row.VideoType),
		"duration_secs": row.DurationSecs,
	})
	return nil
}

func (w *Worker) run(ctx context.Context, row *VideoGeneration) error {
	w.update(ctx, row.ID, map[string]any{"status": StatusProcessing})

	taskID, err := w.generator.Submit(ctx, runway.SubmitRequest{
		BeforeImageURL: row.BeforeImageURL,
		AfterImageURL:  row.AfterImageURL,
		Prompt:         row.Prompt,
	})
	if err != nil {
		return err
	}
	w.update(ctx, row.ID, map[string]any{"provider_task_id": taskID})

	out, err := w.generator.Await(ctx, taskID, func(progress float64) {
		// interim progress is best-effort; a lost update is harmless
		w.update(ctx, row.ID, map[string]any{"progress": progress})
	})
	if err != nil {
		return err
	}

	row.OutputURL = out.VideoURL
	row.DurationSecs = out.DurationSecs

	archiveURL, err := w.archiver.ArchiveURL(ctx, out.VideoURL, fmt.Sprintf("videos/%s.mp4", row.ID))
	if err != nil {
		zap.L().Warn("video archive failed", zap.String("id", row.ID), zap.Error(err))
	} else {
		row.ArchiveURL = archiveURL
	}
	return nil
}

func (w *Worker) complete(ctx context.Context, row *VideoGeneration, status Status, errMsg string) {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":       status,
		"completed_at": &now,
	}
	if status == StatusCompleted {
		updates["output_url"] = row.OutputURL
		updates["archive_url"] = row.ArchiveURL
		updates["duration_secs"] = row.DurationSecs
		updates["progress"] = 1.0
	} else {
		updates["error"] = errMsg
	}
	w.update(ctx, row.ID, updates)
}

func (w *Worker) update(ctx context.Context, id string, updates map[string]any) {
	err := w.db.WithContext(ctx).Model(&VideoGeneration{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		zap.L().Error("failed to update video generation", zap.String("id", id), zap.Error(err))
	}
}
