package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/boulangerie-api/internal/order"
)

// OrderConfirmer confirms a pending order.
type OrderConfirmer interface {
	Confirm(ctx context.Context, orderID string) error
}

// NewMux routes task types to their handlers.
func NewMux(confirmer OrderConfirmer, logger zerolog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrderConfirm, func(ctx context.Context, t *asynq.Task) error {
		p, err := ParseOrderConfirm(t)
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		err = confirmer.Confirm(ctx, p.OrderID)
		switch {
		case err == nil:
			logger.Info().Str("order_id", p.OrderID).Msg("order confirmed")
			return nil
		case errors.Is(err, order.ErrNotFound), errors.Is(err, order.ErrInvalidTransition):
			logger.Warn().Err(err).Str("order_id", p.OrderID).Msg("order confirmation skipped")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		default:
			return err
		}
	})
	return mux
}

// ServerConfig configures the worker server.
type ServerConfig struct {
	Concurrency int
	Queue       string
}

// NewServer builds an asynq server logging through logger.
func NewServer(redisOpt asynq.RedisConnOpt, cfg ServerConfig, logger zerolog.Logger) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	queues := map[string]int{"default": 1}
	if cfg.Queue != "" && cfg.Queue != "default" {
		queues = map[string]int{cfg.Queue: 2, "default": 1}
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		Logger:      zerologAdapter{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task_type", task.Type()).Msg("task failed")
		}),
	})
}

type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Debug(args ...any) { a.logger.Debug().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Info(args ...any)  { a.logger.Info().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Warn(args ...any)  { a.logger.Warn().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Error(args ...any) { a.logger.Error().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Fatal(args ...any) { a.logger.Fatal().Msg(fmt.Sprint(args...)) }
