package videogen

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TypeGenerate is the asynq task type for the detached generation
// continuation. Retries are disabled at the queue level: the poll loop owns
// its own attempt budget and the row must reach exactly one terminal state.
const TypeGenerate = "video:generate"

type GeneratePayload struct {
	VideoGenerationID string `json:"video_generation_id"`
}

func NewGenerateTask(videoGenerationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(GeneratePayload{VideoGenerationID: videoGenerationID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerate, payload, asynq.MaxRetry(0), asynq.Queue("default")), nil
}
