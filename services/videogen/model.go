package videogen

import "time"

type VideoType string

const (
	VideoTypeBeforeAfter VideoType = "before_after"
	VideoTypeTestimonial VideoType = "testimonial"
	VideoTypeProgress    VideoType = "progress"
)

func (vt VideoType) Valid() bool {
	switch vt {
	case VideoTypeBeforeAfter, VideoTypeTestimonial, VideoTypeProgress:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// VideoGeneration tracks one generation task from dispatch to its terminal
// state. The row is the only place the final outcome is visible; the
// triggering request returns before the worker finishes.
type VideoGeneration struct {
	ID              string     `gorm:"column:id;primaryKey" json:"id"`
	UserID          string     `gorm:"column:user_id;index;not null" json:"user_id"`
	ProjectID       string     `gorm:"column:project_id;index" json:"project_id"`
	VideoType       VideoType  `gorm:"column:video_type;type:varchar(20);not null" json:"video_type"`
	Status          Status     `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	BeforeImageURL  string     `gorm:"column:before_image_url;type:text;not null" json:"before_image_url"`
	AfterImageURL   string     `gorm:"column:after_image_url;type:text;not null" json:"after_image_url"`
	TestimonialText string     `gorm:"column:testimonial_text;type:text" json:"testimonial_text,omitempty"`
	Prompt          string     `gorm:"column:prompt;type:text" json:"prompt,omitempty"`
	ProviderTaskID  string     `gorm:"column:provider_task_id" json:"-"`
	Progress        float64    `gorm:"column:progress;not null;default:0" json:"progress"`
	OutputURL       string     `gorm:"column:output_url;type:text" json:"output_url,omitempty"`
	ArchiveURL      string     `gorm:"column:archive_url;type:text" json:"archive_url,omitempty"`
	DurationSecs    int        `gorm:"column:duration_secs" json:"duration_secs,omitempty"`
	Error           string     `gorm:"column:error;type:text" json:"error,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

type GenerateRequest struct {
	ProjectID       string    `json:"projectId" binding:"required"`
	BeforeImageURL  string    `json:"beforeImageUrl" binding:"required"`
	AfterImageURL   string    `json:"afterImageUrl" binding:"required"`
	TestimonialText string    `json:"testimonialText"`
	VideoType       VideoType `json:"videoType"`
}

type GenerateResponse struct {
	Success           bool   `json:"success"`
	VideoGenerationID string `json:"videoGenerationId"`
	Status            Status `json:"status"`
	Message           string `json:"message"`
}
