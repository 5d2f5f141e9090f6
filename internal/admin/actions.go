// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/mail"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/platform/validate"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/pkg/pointer"
)

// # Reset Password

/*
resetPassword gives the target a new credential and forces a change on next use.

Description: The credential is chosen in this order: the explicit one from
the request, a random one when the target has an email to receive it, the
configured fallback otherwise. Whenever the target has an email, the new
credential is sent to it. Delivery is reported next to the mutation and
never undoes it.
*/
func (gateway *Gateway) resetPassword(context context.Context, request Request) (*Result, error) {
	target, err := gateway.findTarget(context, request.UserID)
	if err != nil {
		return nil, err
	}

	var password string
	deliver := target.Email != ""

	switch {
	case request.NewPassword != "":
		validator := &validate.Validator{}
		validator.Password("newPassword", request.NewPassword)
		if err := validator.Err(); err != nil {
			return nil, err
		}
		password = request.NewPassword
	case deliver:
		password, err = sec.GeneratePassword(sec.GeneratedPasswordLength)
		if err != nil {
			return nil, apperr.Internal(err)
		}
	default:
		password = gateway.deps.FallbackPassword
	}

	if err := gateway.deps.Credentials.AdminUpdateCredential(context, target.UserID, password); err != nil {
		return nil, fmt.Errorf("admin_gateway_reset_credential_failed: %w", err)
	}
	if err := gateway.deps.Profiles.SetMustChangePassword(context, target.UserID, true); err != nil {
		return nil, fmt.Errorf("admin_gateway_reset_flag_failed: %w", err)
	}

	result := &Result{Success: true, Action: ActionResetPassword, UserID: target.UserID, EmailSent: pointer.To(false)}
	if !deliver {
		return result, nil
	}

	message, err := mail.CredentialMessage(target.Email, mail.CredentialData{
		Name:             target.Name,
		RegistrationCode: target.RegistrationCode,
		Password:         password,
	})
	if err == nil {
		err = gateway.deps.Mailer.Send(context, message)
	}
	gateway.deps.Metrics.Notification("credential", err)

	if err != nil {
		gateway.deps.Logger.WarnContext(context, "admin_reset_delivery_failed",
			slog.String("target_id", target.UserID),
			slog.Any("error", err),
		)
		result.EmailError = err.Error()
		return result, nil
	}
	result.EmailSent = pointer.To(true)
	return result, nil
}

// # Delete User

/*
deleteUser removes the target's account rows, activity and identity.

Description: Role and profile rows go in one transaction. Activity is purged
best-effort. If the identity cannot be removed afterwards the rows are
already gone, and the caller gets a PartialFailure instead of a generic error.
*/
func (gateway *Gateway) deleteUser(context context.Context, callerID string, request Request) (*Result, error) {
	if request.UserID == callerID {
		return nil, apperr.BadRequest("Administrators cannot delete their own account")
	}

	target, err := gateway.findTarget(context, request.UserID)
	if err != nil {
		return nil, err
	}

	if err := gateway.deps.Profiles.DeleteAccount(context, target.UserID); err != nil {
		return nil, fmt.Errorf("admin_gateway_delete_rows_failed: %w", err)
	}

	if gateway.deps.Activity != nil {
		if err := gateway.deps.Activity.PurgeUser(context, target.UserID); err != nil {
			gateway.deps.Logger.WarnContext(context, "admin_delete_activity_purge_failed",
				slog.String("target_id", target.UserID),
				slog.Any("error", err),
			)
		}
	}

	if err := gateway.deps.Credentials.AdminDeleteIdentity(context, target.UserID); err != nil {
		gateway.deps.Logger.ErrorContext(context, "admin_delete_identity_failed",
			slog.String("target_id", target.UserID),
			slog.Any("error", err),
		)
		return nil, apperr.PartialFailure("Account rows were deleted but the identity could not be removed", err)
	}

	return &Result{Success: true, Action: ActionDeleteUser, UserID: target.UserID}, nil
}

// # Update Profile

// editableFields is the allow-list of profile keys an admin may change.
var editableFields = map[string]bool{
	account.FieldName:    true,
	account.FieldTitle:   true,
	account.FieldEmail:   true,
	account.FieldCompany: true,
	account.FieldPhone:   true,
}

/*
updateProfile changes contact fields of the target.

Description: Keys outside the allow-list are dropped without error.
Registration code, area, status and roles cannot be changed here.
*/
func (gateway *Gateway) updateProfile(context context.Context, request Request) (*Result, error) {
	update, err := parseProfileData(request.ProfileData)
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, apperr.ValidationError("No editable field was provided",
			apperr.FieldError{Field: "profileData", Message: "must contain name, title, email, company or phone"})
	}

	if _, err := gateway.findTarget(context, request.UserID); err != nil {
		return nil, err
	}

	profile, err := gateway.deps.Profiles.UpdateContact(context, request.UserID, update)
	if err != nil {
		return nil, fmt.Errorf("admin_gateway_update_profile_failed: %w", err)
	}
	return &Result{Success: true, Action: ActionUpdateProfile, UserID: request.UserID, Profile: profile}, nil
}

func parseProfileData(data map[string]any) (account.ProfileUpdate, error) {
	values := map[string]string{}
	validator := &validate.Validator{}

	for key, raw := range data {
		if !editableFields[key] {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			validator.Custom(key, true, "Must be a string")
			continue
		}
		values[key] = strings.TrimSpace(value)
	}

	var update account.ProfileUpdate
	if name, ok := values[account.FieldName]; ok {
		validator.Required(account.FieldName, name).MaxLen(account.FieldName, name, account.MaxNameLength)
		update.Name = pointer.To(name)
	}
	if title, ok := values[account.FieldTitle]; ok {
		validator.MaxLen(account.FieldTitle, title, account.MaxTitleLength)
		update.Title = pointer.To(title)
	}
	if email, ok := values[account.FieldEmail]; ok {
		email = strings.ToLower(email)
		if email != "" {
			validator.Email(account.FieldEmail, email).MaxLen(account.FieldEmail, email, account.MaxEmailLength)
		}
		update.Email = pointer.To(email)
	}
	if company, ok := values[account.FieldCompany]; ok {
		validator.MaxLen(account.FieldCompany, company, account.MaxCompanyLength)
		update.Company = pointer.To(company)
	}
	if phone, ok := values[account.FieldPhone]; ok {
		validator.Phone(account.FieldPhone, phone)
		update.Phone = pointer.To(validate.PhoneDigits(phone))
	}

	if err := validator.Err(); err != nil {
		return account.ProfileUpdate{}, err
	}
	return update, nil
}

// # Roles

func (gateway *Gateway) promote(context context.Context, request Request) (*Result, error) {
	if _, err := gateway.findTarget(context, request.UserID); err != nil {
		return nil, err
	}
	if err := gateway.deps.Roles.Grant(context, request.UserID, sec.RoleAdmin); err != nil {
		return nil, fmt.Errorf("admin_gateway_promote_failed: %w", err)
	}
	return &Result{Success: true, Action: ActionPromote, UserID: request.UserID}, nil
}

func (gateway *Gateway) demote(context context.Context, callerID string, request Request) (*Result, error) {
	if request.UserID == callerID {
		return nil, apperr.BadRequest("Administrators cannot remove their own admin role")
	}
	if _, err := gateway.findTarget(context, request.UserID); err != nil {
		return nil, err
	}
	if err := gateway.deps.Roles.Revoke(context, request.UserID, sec.RoleAdmin); err != nil {
		return nil, fmt.Errorf("admin_gateway_demote_failed: %w", err)
	}
	return &Result{Success: true, Action: ActionDemote, UserID: request.UserID}, nil
}

// # Status

func (gateway *Gateway) setStatus(context context.Context, request Request) (*Result, error) {
	transition, err := account.ParseTransition(request.Status)
	if err != nil {
		return nil, err
	}

	profile, err := gateway.deps.Statuses.SetStatus(context, request.UserID, transition)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Action: ActionSetStatus, UserID: request.UserID, Profile: profile}, nil
}

func (gateway *Gateway) findTarget(context context.Context, userID string) (*account.Profile, error) {
	profile, err := gateway.deps.Profiles.FindByUserID(context, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("admin_gateway_find_target_failed: %w", err)
	}
	return profile, nil
}
