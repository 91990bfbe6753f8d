package audit

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusRetrying Status = "retrying"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
)

// DeliveryLog records the outcome of one outbound delivery attempt. Rows are
// written once with a terminal status; they are never rewritten afterwards.
type DeliveryLog struct {
	ID          string     `gorm:"column:id;primaryKey" json:"id"`
	UserID      string     `gorm:"column:user_id;index;not null" json:"user_id"`
	RecordType  string     `gorm:"column:record_type" json:"record_type"`
	RecordID    string     `gorm:"column:record_id;index" json:"record_id"`
	Provider    string     `gorm:"column:provider;type:varchar(50);not null" json:"provider"`
	Status      Status     `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Error       string     `gorm:"column:error;type:text" json:"error,omitempty"`
	RetryCount  int        `gorm:"column:retry_count;not null;default:0" json:"retry_count"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}
