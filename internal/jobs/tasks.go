package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskTypeApplySearch runs the journal append and fan-out search for one
	// captured batch token.
	TaskTypeApplySearch = "apply:search"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// ApplySearchPayload carries everything the search job needs; the
// conversation that enqueued it is already over by the time this runs.
type ApplySearchPayload struct {
	ChatID      int64     `json:"chat_id"`
	FullName    string    `json:"full_name"`
	Username    string    `json:"username"`
	Batch       string    `json:"batch"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewApplySearchTask builds the asynq task for a captured batch token.
func NewApplySearchTask(payload ApplySearchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeApplySearch, data, asynq.Queue(QueueDefault), asynq.MaxRetry(2)), nil
}
