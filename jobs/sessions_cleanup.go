package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// SessionPurger deletes login sessions that expired before now.
type SessionPurger interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// JobObserver records job outcomes.
type JobObserver interface {
	ObserveJob(task string, err error)
}

// SessionsCleanupJob removes expired auth_sessions rows.
type SessionsCleanupJob struct {
	Sessions SessionPurger
	Logger   *slog.Logger
	Metrics  JobObserver
	clock    func() time.Time
}

// NewSessionsCleanupJob wires dependencies for the cleanup handler.
func NewSessionsCleanupJob(sessions SessionPurger, logger *slog.Logger, metrics JobObserver) *SessionsCleanupJob {
	return &SessionsCleanupJob{
		Sessions: sessions,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes sessions cleanup tasks.
func (j *SessionsCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Sessions == nil {
		return errors.New("sessions cleanup: handler not configured")
	}
	var payload SessionsCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.GraceSeconds < 0 {
		payload.GraceSeconds = 0
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.ObserveJob(TaskSessionsCleanup, resultErr)
		}
	}()

	cutoff := j.clock().Add(-time.Duration(payload.GraceSeconds) * time.Second)
	removed, err := j.Sessions.DeleteExpiredSessions(ctx, cutoff)
	if err != nil {
		j.logger().Error("sessions cleanup", slog.Any("error", err))
		return err
	}
	j.logger().Info("sessions cleanup", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
	return nil
}

func (j *SessionsCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
