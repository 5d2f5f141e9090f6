// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify moves admin notifications off the request path.

Signup enqueues a task on the Redis-backed asynq queue and returns; the
worker binary renders and sends the email. Retries happen only here, so a
slow or failing email provider never delays or fails a signup.

The same worker runs the hourly session purge.
*/
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Queue and task names.
const (
	QueueNotifications = "notifications"
	TaskNewUser        = "notify:new_user"
)

// Delivery settings of the new-user task.
const (
	newUserMaxRetry = 5
	newUserTimeout  = 30 * time.Second
)

// NewUserPayload describes a signup awaiting approval.
type NewUserPayload struct {
	Name             string    `json:"name"`
	RegistrationCode string    `json:"registration_code"`
	Area             string    `json:"area"`
	RequestedAt      time.Time `json:"requested_at"`
}

// NewNewUserTask builds the asynq task for payload.
func NewNewUserTask(payload NewUserPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("notify_new_user_marshal_failed: %w", err)
	}
	return asynq.NewTask(TaskNewUser, data,
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(newUserMaxRetry),
		asynq.Timeout(newUserTimeout),
	), nil
}
