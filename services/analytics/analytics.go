package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var Module = fx.Module("analytics.module", fx.Provide(NewWriter))

type Event struct {
	ID        string         `gorm:"column:id;primaryKey"`
	UserID    string         `gorm:"column:user_id;index;not null"`
	EntityID  string         `gorm:"column:entity_id;index"`
	EventType string         `gorm:"column:event_type;type:varchar(100);not null"`
	EventData datatypes.JSON `gorm:"column:event_data"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

// Writer emits product analytics events. Emit is fire-and-forget: failures
// are logged and dropped.
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

func (w *Writer) Emit(ctx context.Context, userID, entityID, eventType string, data map[string]any) {
	var payload datatypes.JSON
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			zap.L().Warn("failed to encode analytics event data", zap.String("event_type", eventType), zap.Error(err))
		} else {
			payload = raw
		}
	}

	event := Event{
		ID:        w.node.Generate().String(),
		UserID:    userID,
		EntityID:  entityID,
		EventType: eventType,
		EventData: payload,
	}

	if err := w.db.WithContext(ctx).Create(&event).Error; err != nil {
		zap.L().Warn("failed to emit analytics event",
			zap.String("event_type", eventType),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
