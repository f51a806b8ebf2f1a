// Package jobs owns the asynq queue: task definitions, the enqueue-side
// manager, and the worker that drains them.
package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Manager describes the enqueue side of the queue. The batch handler uses it
// to dispatch apply-search tasks and never waits on their outcome.
type Manager interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type manager struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewManager builds a Manager backed by an asynq client on the shared Redis.
func NewManager(redisOpt asynq.RedisConnOpt, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		client: asynq.NewClient(redisOpt),
		log:    log,
	}
}

// Enqueue submits the task and logs its queue placement.
func (m *manager) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	info, err := m.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return nil, err
	}

	m.log.Debug("task enqueued",
		slog.String("task_type", task.Type()),
		slog.String("queue", info.Queue),
		slog.String("task_id", info.ID),
	)

	return info, nil
}

// Close releases the underlying client connection.
func (m *manager) Close() error {
	return m.client.Close()
}
