package videogen

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"construyo-opshub/pkg/errutil"
	"construyo-opshub/pkg/featureflags"
	"construyo-opshub/pkg/task"
	"construyo-opshub/services/analytics"
)

const betaFlag = "video_generation"

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	enqueuer  task.Enqueuer
	analytics *analytics.Writer
	flags     featureflags.FeatureFlag
}

type ServiceParams struct {
	fx.In

	DB        *gorm.DB
	Node      *snowflake.Node
	Enqueuer  task.Enqueuer
	Analytics *analytics.Writer
	Flags     featureflags.FeatureFlag
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		enqueuer:  p.Enqueuer,
		analytics: p.Analytics,
		flags:     p.Flags,
	}
}

// Dispatch records a pending generation and hands it to the worker queue.
// The response returns before the video exists; the caller reads the final
// state off the persisted row.
func (s *Service) Dispatch(ctx context.Context, userID string, req GenerateRequest) (*GenerateResponse, error) {
	if !s.flags.IsEnabled(userID, betaFlag) {
		return nil, errutil.Forbidden("video generation is not enabled for this account")
	}

	if req.VideoType == "" {
		req.VideoType = VideoTypeBeforeAfter
	}
	if !req.VideoType.Valid() {
		return nil, errutil.ValidationFailed(fmt.Sprintf("unknown video type %q", req.VideoType))
	}
	if req.VideoType == VideoTypeTestimonial && req.TestimonialText == "" {
		return nil, errutil.ValidationFailed("testimonialText is required for testimonial videos")
	}

	row := VideoGeneration{
		ID:              s.node.Generate().String(),
		UserID:          userID,
		ProjectID:       req.ProjectID,
		VideoType:       req.VideoType,
		Status:          StatusPending,
		BeforeImageURL:  req.BeforeImageURL,
		AfterImageURL:   req.AfterImageURL,
		TestimonialText: req.TestimonialText,
		Prompt:          buildPrompt(req.VideoType, req.TestimonialText),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, errutil.Internal("failed to record video generation", errutil.WithErr(err))
	}

	s.analytics.Emit(ctx, userID, row.ID, "video_generation_started", map[string]any{
		"project_id": req.ProjectID,
		"video_type": string(req.VideoType),
	})

	t, err := NewGenerateTask(row.ID)
	if err != nil {
		return nil, errutil.Internal("failed to build generation task", errutil.WithErr(err))
	}
	if _, err := s.enqueuer.Enqueue(ctx, t); err != nil {
		// the row would otherwise sit pending forever
		s.markFailed(ctx, row.ID, fmt.Sprintf("enqueue failed: %v", err))
		return nil, errutil.Internal("failed to queue video generation", errutil.WithErr(err))
	}

	return &GenerateResponse{
		Success:           true,
		VideoGenerationID: row.ID,
		Status:            StatusProcessing,
		Message:           "Video generation started; check the record for the final result",
	}, nil
}

// Get reads one generation row scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, id string) (*VideoGeneration, error) {
	var row VideoGeneration
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("video generation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("fetch video generation: %w", err)
	}
	return &row, nil
}

func (s *Service) markFailed(ctx context.Context, id, msg string) {
	err := s.db.WithContext(ctx).Model(&VideoGeneration{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": StatusFailed, "error": msg}).Error
	if err != nil {
		zap.L().Error("failed to mark video generation failed", zap.String("id", id), zap.Error(err))
	}
}

func buildPrompt(vt VideoType, testimonial string) string {
	switch vt {
	case VideoTypeTestimonial:
		return fmt.Sprintf("Cinematic before and after reveal of a renovation project, warm natural light, with the client testimonial %q displayed as elegant overlay text", testimonial)
	case VideoTypeProgress:
		return "Construction progress timelapse from the first photo to the second, steady camera, daylight, professional site documentation style"
	default:
		return "Smooth cinematic transition from the before photo to the after photo of a renovation project, slow camera push-in, warm natural light"
	}
}
