package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
)

// QueueStats summarises the default queue.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// Queue enqueues maintenance tasks on demand and inspects the queue.
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewQueue connects a client and an inspector to the same Redis.
func NewQueue(opts asynq.RedisClientOpt) *Queue {
	return &Queue{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases the Redis connections.
func (q *Queue) Close() error {
	if q == nil {
		return nil
	}
	var errs []error
	if q.inspector != nil {
		errs = append(errs, q.inspector.Close())
	}
	if q.client != nil {
		errs = append(errs, q.client.Close())
	}
	return errors.Join(errs...)
}

// TriggerSessionsCleanup enqueues an immediate cleanup run.
func (q *Queue) TriggerSessionsCleanup(ctx context.Context, payload SessionsCleanupPayload) (string, error) {
	if q == nil || q.client == nil {
		return "", errors.New("jobs: queue client not configured")
	}
	task, err := NewSessionsCleanupTask(payload)
	if err != nil {
		return "", err
	}
	info, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Stats reports the default queue counters.
func (q *Queue) Stats(ctx context.Context) (QueueStats, error) {
	if q == nil || q.inspector == nil {
		return QueueStats{}, errors.New("jobs: queue inspector not configured")
	}
	info, err := q.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	return QueueStats{
		Queue:     info.Queue,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Archived:  info.Archived,
	}, nil
}
