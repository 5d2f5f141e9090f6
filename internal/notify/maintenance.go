// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskPurgeSessions removes expired and revoked sessions.
const TaskPurgeSessions = "maintenance:purge_sessions"

// PurgeSessionsSchedule is the cron expression of [TaskPurgeSessions].
const PurgeSessionsSchedule = "@hourly"

// SessionPurger deletes sessions that can no longer authenticate.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// NewPurgeSessionsTask builds the periodic purge task.
func NewPurgeSessionsTask() *asynq.Task {
	return asynq.NewTask(TaskPurgeSessions, nil, asynq.Queue(QueueNotifications), asynq.MaxRetry(1))
}

// PurgeSessionsHandler runs the periodic session purge.
type PurgeSessionsHandler struct {
	purger SessionPurger
	logger *slog.Logger
}

// NewPurgeSessionsHandler constructs a new [PurgeSessionsHandler].
func NewPurgeSessionsHandler(purger SessionPurger, logger *slog.Logger) *PurgeSessionsHandler {
	return &PurgeSessionsHandler{purger: purger, logger: logger}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (handler *PurgeSessionsHandler) Handle(context context.Context, _ *asynq.Task) error {
	removed, err := handler.purger.PurgeExpiredSessions(context)
	if err != nil {
		return fmt.Errorf("notify_purge_sessions_failed: %w", err)
	}

	handler.logger.InfoContext(context, "sessions_purged", slog.Int64("removed", removed))
	return nil
}
