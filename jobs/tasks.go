package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup precomputes dashboard statistics.
	TaskDashboardWarmup = "dashboard:warmup"
)

// DashboardWarmupPayload names the session to warm. An empty SessionID warms every session
// that signed in within the lookback window.
type DashboardWarmupPayload struct {
	SessionID string `json:"session_id,omitempty"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
