// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskQueue accepts tasks. *asynq.Client satisfies it.
type TaskQueue interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer publishes notification tasks.
type Enqueuer struct {
	queue  TaskQueue
	logger *slog.Logger
}

// NewEnqueuer constructs a new [Enqueuer].
func NewEnqueuer(queue TaskQueue, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{queue: queue, logger: logger}
}

/*
NotifyNewUser enqueues the admin notification for a new signup.

Parameters:
  - context: context.Context
  - name: string
  - registrationCode: string
  - area: string
  - requestedAt: time.Time

Returns:
  - error: Queue failures. Delivery failures surface in the worker only.
*/
func (enqueuer *Enqueuer) NotifyNewUser(context context.Context, name, registrationCode, area string, requestedAt time.Time) error {
	task, err := NewNewUserTask(NewUserPayload{
		Name:             name,
		RegistrationCode: registrationCode,
		Area:             area,
		RequestedAt:      requestedAt,
	})
	if err != nil {
		return err
	}

	info, err := enqueuer.queue.EnqueueContext(context, task)
	if err != nil {
		return fmt.Errorf("notify_enqueue_new_user_failed: %w", err)
	}

	enqueuer.logger.InfoContext(context, "notification_enqueued",
		slog.String("task", TaskNewUser),
		slog.String("task_id", info.ID),
		slog.String("registration_code", registrationCode),
	)
	return nil
}
