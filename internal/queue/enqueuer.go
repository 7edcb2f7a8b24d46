package queue

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

// TaskClient is the subset of *asynq.Client used by Enqueuer.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules background tasks on asynq.
type Enqueuer struct {
	Client   TaskClient
	Queue    string
	MaxRetry int
}

// ScheduleOrderConfirmation enqueues order:confirm for orderID after delay.
// Scheduling the same order twice is a no-op.
func (e Enqueuer) ScheduleOrderConfirmation(ctx context.Context, orderID string, delay time.Duration) error {
	if e.Client == nil {
		return errors.New("queue: task client not configured")
	}
	task, err := NewOrderConfirmTask(orderID)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.TaskID(confirmTaskID(orderID))}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	maxRetry := e.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 10
	}
	opts = append(opts, asynq.MaxRetry(maxRetry))
	if _, err := e.Client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return err
	}
	return nil
}
