package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/license-dashboard-api/internal/config"
	"github.com/makkenzo/license-dashboard-api/internal/tasks"
	"go.uber.org/zap"
)

func RedisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// RunWorkers processes queued activity tasks until ctx is canceled.
func RunWorkers(ctx context.Context, cfg *config.Config, saver tasks.ActivitySaver, logger *zap.Logger) error {
	queue := cfg.Activity.Queue
	if queue == "" {
		queue = tasks.DefaultQueue
	}
	concurrency := cfg.Activity.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	errLog := logger.Named("AsynqServerErrorHandler")
	srv := asynq.NewServer(
		RedisClientOpt(&cfg.Redis),
		asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{queue: 1},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				errLog.Error("Asynq task processing failed",
					zap.String("task_type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err),
				)
			}),
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqServer")),
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeActivityRecord, tasks.NewRecordActivityHandler(saver, logger))

	logger.Info("Starting Asynq Server...", zap.String("queue", queue), zap.Int("concurrency", concurrency))
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}

	<-ctx.Done()

	logger.Info("Shutting down Asynq Server...")
	srv.Shutdown()
	logger.Info("Asynq Server stopped.")
	return nil
}

type asynqLoggerAdapter struct {
	logger *zap.Logger
}

func NewAsynqLoggerAdapter(logger *zap.Logger) *asynqLoggerAdapter {
	return &asynqLoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (l *asynqLoggerAdapter) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
