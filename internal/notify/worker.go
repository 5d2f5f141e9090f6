// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// QueueConnection converts parsed Redis options into the asynq connection
// settings, so the queue and the presence store share one REDIS_URL.
func QueueConnection(options *redis.Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Network:      options.Network,
		Addr:         options.Addr,
		Username:     options.Username,
		Password:     options.Password,
		DB:           options.DB,
		DialTimeout:  options.DialTimeout,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
		PoolSize:     options.PoolSize,
		TLSConfig:    options.TLSConfig,
	}
}

// Worker runs the asynq server and the periodic scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// WorkerConfig collects what the worker needs. PurgeSessions is optional;
// without it no periodic task is scheduled.
type WorkerConfig struct {
	Redis         asynq.RedisConnOpt
	Concurrency   int
	NewUser       *NewUserHandler
	PurgeSessions *PurgeSessionsHandler
	Logger        *slog.Logger
}

// NewWorker constructs a [Worker] with every handler registered.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	server := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueNotifications: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			cfg.Logger.WarnContext(ctx, "notification_task_failed",
				slog.String("task", task.Type()),
				slog.Int("retried", retried),
				slog.Int("max_retry", maxRetry),
				slog.Any("error", err),
			)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskNewUser, cfg.NewUser.Handle)

	var scheduler *asynq.Scheduler
	if cfg.PurgeSessions != nil {
		mux.HandleFunc(TaskPurgeSessions, cfg.PurgeSessions.Handle)

		scheduler = asynq.NewScheduler(cfg.Redis, &asynq.SchedulerOpts{Location: time.UTC})
		if _, err := scheduler.Register(PurgeSessionsSchedule, NewPurgeSessionsTask()); err != nil {
			return nil, fmt.Errorf("notify_schedule_register_failed: %w", err)
		}
	}

	return &Worker{server: server, mux: mux, scheduler: scheduler}, nil
}

// Run processes tasks until ctx is cancelled, then drains in-flight tasks.
func (worker *Worker) Run(ctx context.Context) error {
	if worker.scheduler != nil {
		if err := worker.scheduler.Start(); err != nil {
			return err
		}
		defer worker.scheduler.Shutdown()
	}

	if err := worker.server.Start(worker.mux); err != nil {
		return err
	}
	<-ctx.Done()
	worker.server.Shutdown()
	return nil
}
