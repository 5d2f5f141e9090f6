// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mail is the outbound email collaborator.

It is only used for notifications (issued credentials, new signup alerts).
No core operation depends on delivery succeeding: callers receive the error
and decide how to surface it.
*/
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ErrNotConfigured is returned by [Disabled] for every send.
var ErrNotConfigured = errors.New("mail: delivery is not configured")

// Message is a single HTML email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a [Message].
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// # Resend

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// ResendOption customizes a [ResendSender].
type ResendOption func(*resend.Client)

// WithBaseURL points the client at another API endpoint (used by tests).
func WithBaseURL(baseURL *url.URL) ResendOption {
	return func(client *resend.Client) {
		client.BaseURL = baseURL
	}
}

// NewResendSender creates a sender authenticated with apiKey.
func NewResendSender(apiKey, from string, options ...ResendOption) *ResendSender {
	client := resend.NewClient(apiKey)
	for _, option := range options {
		option(client)
	}
	return &ResendSender{client: client, from: from}
}

// Send implements [Sender].
func (sender *ResendSender) Send(ctx context.Context, message Message) error {
	if err := message.validate(); err != nil {
		return err
	}

	_, err := sender.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    sender.from,
		To:      message.To,
		Subject: message.Subject,
		Html:    message.HTML,
	})
	if err != nil {
		return fmt.Errorf("mail: resend delivery to %s failed: %w", strings.Join(message.To, ","), err)
	}
	return nil
}

// # Disabled

// Disabled is the sender used when no provider key is configured.
type Disabled struct{}

// Send implements [Sender] and always fails with [ErrNotConfigured].
func (Disabled) Send(context.Context, Message) error {
	return ErrNotConfigured
}

func (message Message) validate() error {
	if len(message.To) == 0 {
		return errors.New("mail: message has no recipients")
	}
	if message.Subject == "" {
		return errors.New("mail: message has no subject")
	}
	return nil
}
