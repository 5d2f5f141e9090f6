// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin is the single entry point for privileged account mutations.

# Security

Every call re-authenticates the bearer token and re-reads the admin role from
the store before anything else happens. Nothing here trusts the request
context set up by other middleware, so a route that forgets a guard cannot
reach a mutation.
*/
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/mail"
	"github.com/taibuivan/portal/internal/platform/metrics"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/platform/validate"
	"github.com/taibuivan/portal/internal/users/account"
)

// # Actions

// Action names accepted by the gateway.
const (
	ActionResetPassword = "reset-password"
	ActionDeleteUser    = "delete-user"
	ActionUpdateProfile = "update-profile"
	ActionPromote       = "promote"
	ActionDemote        = "demote"
	ActionSetStatus     = "set-status"
)

// # Collaborators

// Authenticator verifies a bearer token and the session behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*sec.AuthClaims, error)
}

// CredentialManager performs privileged identity changes.
type CredentialManager interface {
	AdminUpdateCredential(ctx context.Context, identityID, newPassword string) error
	AdminDeleteIdentity(ctx context.Context, identityID string) error
}

// StatusChanger applies lifecycle transitions.
type StatusChanger interface {
	SetStatus(ctx context.Context, userID string, transition account.Transition) (*account.Profile, error)
}

// ActivityPurger removes the access log and presence of a user.
type ActivityPurger interface {
	PurgeUser(ctx context.Context, userID string) error
}

// Dependencies groups the collaborators of [Gateway].
type Dependencies struct {
	Authenticator    Authenticator
	Profiles         account.ProfileRepository
	Roles            account.RoleRepository
	Credentials      CredentialManager
	Statuses         StatusChanger
	Mailer           mail.Sender
	Activity         ActivityPurger
	FallbackPassword string
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
}

// Gateway executes admin actions.
type Gateway struct {
	deps Dependencies
}

// NewGateway constructs a new [Gateway].
func NewGateway(deps Dependencies) *Gateway {
	return &Gateway{deps: deps}
}

// # Contracts

// Request is one admin action.
type Request struct {
	Action      string         `json:"action"`
	UserID      string         `json:"userId"`
	NewPassword string         `json:"newPassword,omitempty"`
	ProfileData map[string]any `json:"profileData,omitempty"`
	Status      string         `json:"status,omitempty"`
}

// Result is the outcome of a successful action.
type Result struct {
	Success    bool             `json:"success"`
	Action     string           `json:"action"`
	UserID     string           `json:"userId"`
	EmailSent  *bool            `json:"emailSent,omitempty"`
	EmailError string           `json:"emailError,omitempty"`
	Profile    *account.Profile `json:"profile,omitempty"`
}

// Caller is an administrator proven by [Gateway.Authorize]. The zero value
// authorizes nothing.
type Caller struct {
	userID string
}

/*
Execute authorizes the caller and runs the requested action.

Description: Steps always run in the same order: authenticate the bearer,
re-check the admin role and the caller's own status, validate, mutate.
Any failure before the mutation step leaves every store untouched.

Parameters:
  - context: context.Context
  - token: string (raw bearer token)
  - request: Request

Returns:
  - *Result: Outcome of the mutation
  - error: Unauthorized, Forbidden, ValidationError, NotFound, Upstream or PartialFailure
*/
func (gateway *Gateway) Execute(context context.Context, token string, request Request) (*Result, error) {
	callerID, err := gateway.authorize(context, token)
	if err != nil {
		gateway.denied(context, request.Action, err)
		return nil, err
	}
	return gateway.Run(context, Caller{userID: callerID}, request)
}

/*
Authorize proves the bearer belongs to an active administrator.

Description: The HTTP handler calls it before reading the request body, so
a caller without the admin role never learns anything about the payload
format.

Returns:
  - Caller: The proven administrator
  - error: Unauthorized, Forbidden, AccountBlocked, AccountPending or Upstream
*/
func (gateway *Gateway) Authorize(context context.Context, token string) (Caller, error) {
	callerID, err := gateway.authorize(context, token)
	if err != nil {
		gateway.denied(context, "", err)
		return Caller{}, err
	}
	return Caller{userID: callerID}, nil
}

// Run executes request on behalf of a caller returned by [Gateway.Authorize].
func (gateway *Gateway) Run(context context.Context, caller Caller, request Request) (*Result, error) {
	if caller.userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	result, err := gateway.dispatch(context, caller.userID, request)
	gateway.deps.Metrics.AdminAction(request.Action, resultCode(err))
	if err != nil {
		return nil, err
	}

	gateway.deps.Logger.InfoContext(context, "admin_action_completed",
		slog.String("action", request.Action),
		slog.String("caller_id", caller.userID),
		slog.String("target_id", request.UserID),
	)
	return result, nil
}

func (gateway *Gateway) denied(context context.Context, action string, err error) {
	if action == "" {
		action = "unknown"
	}
	gateway.deps.Metrics.AdminAction(action, resultCode(err))
	gateway.deps.Logger.WarnContext(context, "admin_action_denied",
		slog.String("action", action),
		slog.String("reason", resultCode(err)),
	)
}

// authorize returns the caller id once the caller is proven to be an active admin.
func (gateway *Gateway) authorize(context context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.Unauthorized("Authentication required")
	}

	claims, err := gateway.deps.Authenticator.Authenticate(context, token)
	if err != nil {
		// Store failures stay distinguishable from a bad token.
		if !apperr.IsAppError(err) {
			err = apperr.Upstream("authenticate", err)
		}
		return "", err
	}

	isAdmin, err := gateway.deps.Roles.HasRole(context, claims.UserID, sec.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("admin_gateway_role_check_failed: %w", err)
	}
	if !isAdmin {
		return "", apperr.Forbidden("Forbidden: admin role required")
	}

	caller, err := gateway.deps.Profiles.FindByUserID(context, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return "", apperr.Forbidden("Forbidden: caller has no active account")
		}
		return "", fmt.Errorf("admin_gateway_caller_lookup_failed: %w", err)
	}
	switch caller.Status {
	case account.StatusActive:
	case account.StatusBlocked:
		return "", apperr.AccountBlocked()
	default:
		return "", apperr.AccountPending()
	}
	return claims.UserID, nil
}

func (gateway *Gateway) dispatch(context context.Context, callerID string, request Request) (*Result, error) {
	request.UserID = strings.TrimSpace(request.UserID)

	validator := &validate.Validator{}
	validator.Required("userId", request.UserID).UUID("userId", request.UserID)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	switch request.Action {
	case ActionResetPassword:
		return gateway.resetPassword(context, request)
	case ActionDeleteUser:
		return gateway.deleteUser(context, callerID, request)
	case ActionUpdateProfile:
		return gateway.updateProfile(context, request)
	case ActionPromote:
		return gateway.promote(context, request)
	case ActionDemote:
		return gateway.demote(context, callerID, request)
	case ActionSetStatus:
		return gateway.setStatus(context, request)
	}
	return nil, apperr.BadRequest("Invalid action")
}

// resultCode is the metrics label for an outcome.
func resultCode(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr := apperr.As(err); appErr != nil {
		return strings.ToLower(appErr.Code)
	}
	return "internal_error"
}
