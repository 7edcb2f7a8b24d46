package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boulangerie-api/internal/order"
	"github.com/noah-isme/boulangerie-api/internal/queue"
)

type fakeClient struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "x"}, nil
}

func optionTypes(opts []asynq.Option) map[asynq.OptionType]any {
	out := map[asynq.OptionType]any{}
	for _, o := range opts {
		out[o.Type()] = o.Value()
	}
	return out
}

func TestScheduleOrderConfirmation(t *testing.T) {
	client := &fakeClient{}
	enq := queue.Enqueuer{Client: client, Queue: "orders"}
	require.NoError(t, enq.ScheduleOrderConfirmation(context.Background(), "o-1", 3*time.Second))

	require.Len(t, client.tasks, 1)
	require.Equal(t, queue.TypeOrderConfirm, client.tasks[0].Type())
	p, err := queue.ParseOrderConfirm(client.tasks[0])
	require.NoError(t, err)
	require.Equal(t, "o-1", p.OrderID)

	opts := optionTypes(client.opts[0])
	require.Equal(t, "order:confirm:o-1", opts[asynq.TaskIDOpt])
	require.Equal(t, 3*time.Second, opts[asynq.ProcessInOpt])
	require.Equal(t, "orders", opts[asynq.QueueOpt])
}

func TestScheduleIgnoresDuplicates(t *testing.T) {
	enq := queue.Enqueuer{Client: &fakeClient{err: asynq.ErrTaskIDConflict}}
	require.NoError(t, enq.ScheduleOrderConfirmation(context.Background(), "o-1", 0))

	boom := errors.New("redis down")
	enq = queue.Enqueuer{Client: &fakeClient{err: boom}}
	require.ErrorIs(t, enq.ScheduleOrderConfirmation(context.Background(), "o-1", 0), boom)

	require.Error(t, queue.Enqueuer{}.ScheduleOrderConfirmation(context.Background(), "o-1", 0))
	require.Error(t, queue.Enqueuer{Client: &fakeClient{}}.ScheduleOrderConfirmation(context.Background(), " ", 0))
}

type confirmerFunc func(ctx context.Context, orderID string) error

func (f confirmerFunc) Confirm(ctx context.Context, orderID string) error { return f(ctx, orderID) }

func TestMuxRoutesOrderConfirm(t *testing.T) {
	var confirmed []string
	var result error
	mux := queue.NewMux(confirmerFunc(func(_ context.Context, id string) error {
		confirmed = append(confirmed, id)
		return result
	}), zerolog.Nop())

	task, err := queue.NewOrderConfirmTask("o-9")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	require.Equal(t, []string{"o-9"}, confirmed)

	result = order.ErrInvalidTransition
	err = mux.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)

	result = errors.New("transient")
	err = mux.ProcessTask(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)

	bad := asynq.NewTask(queue.TypeOrderConfirm, []byte(`{}`))
	require.ErrorIs(t, mux.ProcessTask(context.Background(), bad), asynq.SkipRetry)
}
