package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsCleanup removes expired login sessions.
	TaskSessionsCleanup = "sessions:cleanup"
)

// SessionsCleanupPayload tunes one cleanup run.
type SessionsCleanupPayload struct {
	// GraceSeconds keeps sessions that expired less than this long ago.
	GraceSeconds int `json:"grace_seconds"`
}

// NewSessionsCleanupTask constructs an Asynq task.
func NewSessionsCleanupTask(payload SessionsCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsCleanup, data), nil
}
