package audit

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("audit.module", fx.Provide(NewWriter))

// Writer appends delivery outcomes. Append never surfaces an error: a lost
// log row must not fail the delivery it describes.
type Writer struct {
	db   *gorm.DB
	node *snowflake.Node
}

type WriterParams struct {
	fx.In

	DB   *gorm.DB
	Node *snowflake.Node
}

func NewWriter(p WriterParams) *Writer {
	return &Writer{db: p.DB, node: p.Node}
}

type Entry struct {
	UserID     string
	RecordType string
	RecordID   string
	Provider   string
	Status     Status
	Error      string
	RetryCount int
}

func (w *Writer) Append(ctx context.Context, e Entry) {
	now := time.Now().UTC()
	row := DeliveryLog{
		ID:          w.node.Generate().String(),
		UserID:      e.UserID,
		RecordType:  e.RecordType,
		RecordID:    e.RecordID,
		Provider:    e.Provider,
		Status:      e.Status,
		Error:       e.Error,
		RetryCount:  e.RetryCount,
		CompletedAt: &now,
	}

	if err := w.db.WithContext(ctx).Create(&row).Error; err != nil {
		zap.L().Error("failed to append delivery log",
			zap.String("user_id", e.UserID),
			zap.String("provider", e.Provider),
			zap.String("status", string(e.Status)),
			zap.Error(err),
		)
	}
}

// Recent lists the user's latest delivery logs, newest first.
func (w *Writer) Recent(ctx context.Context, userID string, limit int) ([]DeliveryLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var logs []DeliveryLog
	err := w.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
