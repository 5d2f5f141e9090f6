// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/taibuivan/portal/internal/platform/mail"
	"github.com/taibuivan/portal/internal/platform/metrics"
)

// NewUserHandler sends the new-signup email to the configured admins.
type NewUserHandler struct {
	mailer     mail.Sender
	recipients []string
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewNewUserHandler constructs a new [NewUserHandler]. metrics may be nil.
func NewNewUserHandler(mailer mail.Sender, recipients []string, metrics *metrics.Metrics, logger *slog.Logger) *NewUserHandler {
	return &NewUserHandler{mailer: mailer, recipients: recipients, metrics: metrics, logger: logger}
}

/*
Handle fulfils the asynq.HandlerFunc contract.

Description: A malformed payload or an empty recipient list cannot succeed
on retry and is archived with SkipRetry. Send failures are returned so
asynq retries them with backoff.
*/
func (handler *NewUserHandler) Handle(context context.Context, task *asynq.Task) error {
	var payload NewUserPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("notify_new_user_payload_invalid: %v: %w", err, asynq.SkipRetry)
	}

	if len(handler.recipients) == 0 {
		handler.logger.WarnContext(context, "notification_no_recipients",
			slog.String("task", TaskNewUser),
			slog.String("registration_code", payload.RegistrationCode),
		)
		return fmt.Errorf("notify_new_user_no_recipients: %w", asynq.SkipRetry)
	}

	message, err := mail.NewUserMessage(handler.recipients, mail.NewUserData{
		Name:             payload.Name,
		RegistrationCode: payload.RegistrationCode,
		Area:             payload.Area,
		RequestedAt:      payload.RequestedAt,
	})
	if err != nil {
		return fmt.Errorf("notify_new_user_render_failed: %v: %w", err, asynq.SkipRetry)
	}

	err = handler.mailer.Send(context, message)
	handler.metrics.Notification("new_user", err)
	if err != nil {
		return fmt.Errorf("notify_new_user_send_failed: %w", err)
	}

	handler.logger.InfoContext(context, "notification_sent",
		slog.String("task", TaskNewUser),
		slog.String("registration_code", payload.RegistrationCode),
		slog.Int("recipients", len(handler.recipients)),
	)
	return nil
}
