// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/mail"
	"github.com/taibuivan/portal/internal/platform/metrics"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/platform/validate"
	"github.com/taibuivan/portal/internal/users/identity"
	"github.com/taibuivan/portal/pkg/pagination"
	"github.com/taibuivan/portal/pkg/uuid"
)

// # Collaborators

// IdentityProvider is the credential oracle and session store.
type IdentityProvider interface {
	SignIn(ctx context.Context, input identity.SignInInput) (*identity.AuthSession, error)
	SignUp(ctx context.Context, login, password string) (*identity.Identity, error)
	SignOut(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*identity.AuthSession, error)
	UpdateCredential(ctx context.Context, identityID, keepSessionID, newPassword string) error
	AdminUpdateCredential(ctx context.Context, identityID, newPassword string) error
	AdminDeleteIdentity(ctx context.Context, identityID string) error
}

// SignupNotifier tells the admins that someone is waiting for approval.
type SignupNotifier interface {
	NotifyNewUser(ctx context.Context, name, registrationCode, area string, requestedAt time.Time) error
}

// ActivityRecorder appends to the access log.
type ActivityRecorder interface {
	Record(ctx context.Context, userID, action, page string) error
}

// signupSecretLength is the size of the throwaway credential created at
// signup. It is never returned; an admin reset issues the first usable one.
const signupSecretLength = 32

// Service implements the account lifecycle.
type Service struct {
	profileRepository ProfileRepository
	roleRepository    RoleRepository
	identities        IdentityProvider
	mailer            mail.Sender
	notifier          SignupNotifier
	activity          ActivityRecorder
	metrics           *metrics.Metrics
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its required dependencies.
func NewService(
	profiles ProfileRepository,
	roles RoleRepository,
	identities IdentityProvider,
	mailer mail.Sender,
	logger *slog.Logger,
) *Service {
	return &Service{
		profileRepository: profiles,
		roleRepository:    roles,
		identities:        identities,
		mailer:            mailer,
		logger:            logger,
	}
}

// WithNotifier sets the signup notifier.
func (service *Service) WithNotifier(notifier SignupNotifier) *Service {
	service.notifier = notifier
	return service
}

// WithActivity sets the access log recorder used on login.
func (service *Service) WithActivity(recorder ActivityRecorder) *Service {
	service.activity = recorder
	return service
}

// WithMetrics sets the domain counters.
func (service *Service) WithMetrics(m *metrics.Metrics) *Service {
	service.metrics = m
	return service
}

// # Views

// View is a profile together with its admin flag.
type View struct {
	Profile
	IsAdmin bool `json:"is_admin"`
}

// LoginResult is an established session for an active account.
type LoginResult struct {
	Session *identity.AuthSession
	Account View
}

// # Sign Up

// SignUpInput is a self-service registration request.
type SignUpInput struct {
	RegistrationCode string
	Name             string
	Title            string
	Email            string
	Company          string
	Phone            string
	Area             string
}

/*
SignUp registers a pending account.

Description: The identity is created first with a random credential nobody
learns. If the profile insert then fails, the identity is deleted again so
the registration code can be reused. Admins are notified on a best-effort
basis.

Parameters:
  - context: context.Context
  - input: SignUpInput

Returns:
  - *Profile: The pending profile
  - error: ValidationError, Conflict or storage failures
*/
func (service *Service) SignUp(context context.Context, input SignUpInput) (*Profile, error) {
	profile, err := normalizeSignUp(input)
	if err != nil {
		return nil, err
	}

	if _, err := service.profileRepository.FindByRegistrationCode(context, profile.RegistrationCode); err == nil {
		return nil, apperr.Conflict("Registration code is already registered")
	} else if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("account_service_sign_up_lookup_failed: %w", err)
	}

	secret, err := sec.GeneratePassword(signupSecretLength)
	if err != nil {
		return nil, fmt.Errorf("account_service_sign_up_secret_failed: %w", err)
	}

	created, err := service.identities.SignUp(context, profile.RegistrationCode, secret)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeConflict) {
			return nil, apperr.Conflict("Registration code is already registered")
		}
		return nil, fmt.Errorf("account_service_sign_up_identity_failed: %w", err)
	}

	profile.ID = uuid.New()
	profile.UserID = created.ID
	if err := service.profileRepository.Create(context, profile); err != nil {
		if compensateErr := service.identities.AdminDeleteIdentity(context, created.ID); compensateErr != nil {
			service.logger.ErrorContext(context, "signup_compensation_failed",
				slog.String("user_id", created.ID),
				slog.Any("error", compensateErr),
			)
		}
		return nil, fmt.Errorf("account_service_sign_up_profile_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_signed_up",
		slog.String("user_id", profile.UserID),
		slog.String("area", string(profile.Area)),
	)

	if service.notifier != nil {
		err := service.notifier.NotifyNewUser(context, profile.Name, profile.RegistrationCode, string(profile.Area), profile.CreatedAt)
		if err != nil {
			service.logger.WarnContext(context, "signup_notification_failed",
				slog.String("user_id", profile.UserID),
				slog.Any("error", err),
			)
			service.metrics.Notification("new_user_enqueue", err)
		}
	}
	return profile, nil
}

func normalizeSignUp(input SignUpInput) (*Profile, error) {
	code := strings.ToUpper(strings.TrimSpace(input.RegistrationCode))
	name := strings.TrimSpace(input.Name)
	title := strings.TrimSpace(input.Title)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	company := strings.TrimSpace(input.Company)

	validator := &validate.Validator{}
	validator.RegistrationCode(FieldRegistrationCode, code).
		Required(FieldName, name).
		MaxLen(FieldName, name, MaxNameLength).
		MaxLen(FieldTitle, title, MaxTitleLength).
		Required(FieldEmail, email).
		Email(FieldEmail, email).
		MaxLen(FieldEmail, email, MaxEmailLength).
		Required(FieldCompany, company).
		MaxLen(FieldCompany, company, MaxCompanyLength).
		Phone(FieldPhone, input.Phone)

	area, areaErr := access.ParseArea(input.Area)
	validator.Custom(FieldArea, areaErr != nil, "Must be a known area")

	if err := validator.Err(); err != nil {
		return nil, err
	}

	return &Profile{
		RegistrationCode: code,
		Name:             name,
		Title:            title,
		Email:            email,
		Company:          company,
		Phone:            validate.PhoneDigits(input.Phone),
		Area:             area,
		Status:           StatusPending,
	}, nil
}

// # Sessions

/*
Login signs in with a registration code and applies the lifecycle gate.

Description: The credential is checked by the identity provider first. A
session it opens for an account that is not active is revoked straight away,
so a rejected login never leaves a usable token behind.

Parameters:
  - context: context.Context
  - code: string (registration code)
  - password: string
  - userAgent, ipAddress: string (session metadata)

Returns:
  - *LoginResult: Tokens and the account view
  - error: Unauthorized, AccountPending, AccountBlocked or storage failures
*/
func (service *Service) Login(context context.Context, code, password, userAgent, ipAddress string) (*LoginResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	validator := &validate.Validator{}
	validator.RegistrationCode(FieldRegistrationCode, code).Required(FieldPassword, password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	session, err := service.identities.SignIn(context, identity.SignInInput{
		Login:     code,
		Password:  password,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	})
	if err != nil {
		if apperr.IsCode(err, apperr.CodeUnauthorized) {
			service.metrics.LoginOutcome("invalid")
		}
		return nil, err
	}

	view, err := service.admit(context, session, code)
	if err != nil {
		return nil, err
	}

	if service.activity != nil {
		if err := service.activity.Record(context, view.UserID, "login", ""); err != nil {
			service.logger.WarnContext(context, "login_activity_record_failed", slog.Any("error", err))
		}
	}

	service.metrics.LoginOutcome("success")
	service.logger.InfoContext(context, "user_logged_in", slog.String("user_id", view.UserID))
	return &LoginResult{Session: session, Account: *view}, nil
}

/*
Refresh rotates the refresh token and re-applies the lifecycle gate.

Returns:
  - *LoginResult: The rotated session
  - error: Unauthorized, AccountPending, AccountBlocked or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshToken, userAgent, ipAddress string) (*LoginResult, error) {
	session, err := service.identities.Refresh(context, refreshToken, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	view, err := service.admit(context, session, session.Identity.Login)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session, Account: *view}, nil
}

// Logout revokes the session of principal.
func (service *Service) Logout(context context.Context, principal access.Principal) error {
	if err := service.identities.SignOut(context, principal.SessionID); err != nil {
		return fmt.Errorf("account_service_logout_failed: %w", err)
	}
	return nil
}

// admit checks the account behind a freshly opened session. Any rejection
// discards the session before returning.
func (service *Service) admit(context context.Context, session *identity.AuthSession, code string) (*View, error) {
	profile, err := service.profileRepository.FindByRegistrationCode(context, code)
	if err == nil && profile.UserID != session.Identity.ID {
		err = apperr.NotFound("Profile")
	}

	var rejection error
	switch {
	case err != nil && apperr.IsNotFound(err):
		rejection = apperr.Unauthorized("Invalid login credentials")
		service.metrics.LoginOutcome("invalid")
	case err != nil:
		rejection = fmt.Errorf("account_service_admit_lookup_failed: %w", err)
	case profile.Status == StatusBlocked:
		rejection = apperr.AccountBlocked()
		service.metrics.LoginOutcome("blocked")
	case profile.Status != StatusActive:
		rejection = apperr.AccountPending()
		service.metrics.LoginOutcome("pending")
	}

	var isAdmin bool
	if rejection == nil {
		isAdmin, err = service.roleRepository.HasRole(context, profile.UserID, sec.RoleAdmin)
		if err != nil {
			rejection = fmt.Errorf("account_service_admit_role_failed: %w", err)
		}
	}

	if rejection != nil {
		if err := service.identities.SignOut(context, session.SessionID); err != nil {
			service.logger.ErrorContext(context, "rejected_session_revoke_failed",
				slog.String("session_id", session.SessionID),
				slog.Any("error", err),
			)
		}
		return nil, rejection
	}
	return &View{Profile: *profile, IsAdmin: isAdmin}, nil
}

/*
ResolvePrincipal turns verified token claims into a request principal.

Description: Status and the admin role are read from the store on every
call, so a block or demotion applies to sessions that are already open.

Returns:
  - *access.Principal: The lifecycle-checked principal
  - error: Unauthorized, AccountPending, AccountBlocked or storage failures
*/
func (service *Service) ResolvePrincipal(context context.Context, claims *sec.AuthClaims) (*access.Principal, error) {
	profile, err := service.profileRepository.FindByUserID(context, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Account no longer exists")
		}
		return nil, fmt.Errorf("account_service_resolve_failed: %w", err)
	}

	switch profile.Status {
	case StatusActive:
	case StatusBlocked:
		return nil, apperr.AccountBlocked()
	default:
		return nil, apperr.AccountPending()
	}

	isAdmin, err := service.roleRepository.HasRole(context, profile.UserID, sec.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("account_service_resolve_role_failed: %w", err)
	}
	return profile.Principal(claims.SessionID, isAdmin), nil
}

// # Credentials

/*
ForgotPassword issues a new credential to the owner of email.

Description: Exactly one profile must match. The credential is rotated,
the account is flagged for a forced change and the credential is mailed.
A delivery failure after the rotation is reported as NotificationFailed;
the rotation stays in place.

Returns:
  - error: NotFound (none or several matches), NotificationFailed or storage failures
*/
func (service *Service) ForgotPassword(context context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Email(FieldEmail, email)
	if err := validator.Err(); err != nil {
		return err
	}

	matches, err := service.profileRepository.FindByEmail(context, email)
	if err != nil {
		return fmt.Errorf("account_service_forgot_lookup_failed: %w", err)
	}
	if len(matches) != 1 {
		return apperr.NotFound("Account")
	}
	profile := matches[0]

	password, err := sec.GeneratePassword(sec.GeneratedPasswordLength)
	if err != nil {
		return fmt.Errorf("account_service_forgot_generate_failed: %w", err)
	}

	if err := service.identities.AdminUpdateCredential(context, profile.UserID, password); err != nil {
		return fmt.Errorf("account_service_forgot_rotate_failed: %w", err)
	}
	if err := service.profileRepository.SetMustChangePassword(context, profile.UserID, true); err != nil {
		return fmt.Errorf("account_service_forgot_flag_failed: %w", err)
	}

	message, err := mail.CredentialMessage(profile.Email, mail.CredentialData{
		Name:             profile.Name,
		RegistrationCode: profile.RegistrationCode,
		Password:         password,
	})
	if err == nil {
		err = service.mailer.Send(context, message)
	}
	service.metrics.Notification("credential", err)
	if err != nil {
		service.logger.ErrorContext(context, "forgot_password_delivery_failed",
			slog.String("user_id", profile.UserID),
			slog.Any("error", err),
		)
		return apperr.NotificationFailed("Password was reset but the email could not be sent", err)
	}

	service.logger.InfoContext(context, "forgot_password_issued", slog.String("user_id", profile.UserID))
	return nil
}

/*
ChangePassword replaces the caller's credential and clears the forced change flag.

Description: Other sessions are revoked; the calling session stays.

Returns:
  - error: ValidationError or storage failures
*/
func (service *Service) ChangePassword(context context.Context, principal access.Principal, newPassword string) error {
	validator := &validate.Validator{}
	validator.Required(FieldNewPassword, newPassword).Password(FieldNewPassword, newPassword)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.identities.UpdateCredential(context, principal.UserID, principal.SessionID, newPassword); err != nil {
		return fmt.Errorf("account_service_change_password_failed: %w", err)
	}
	if err := service.profileRepository.SetMustChangePassword(context, principal.UserID, false); err != nil {
		return fmt.Errorf("account_service_change_password_flag_failed: %w", err)
	}

	service.logger.InfoContext(context, "password_changed", slog.String("user_id", principal.UserID))
	return nil
}

// # Administration

/*
SetStatus applies a lifecycle transition to the account of userID.

Returns:
  - *Profile: The profile in its new state
  - error: NotFound, Conflict for a transition the state does not allow, or storage failures
*/
func (service *Service) SetStatus(context context.Context, userID string, transition Transition) (*Profile, error) {
	profile, err := service.profileRepository.FindByUserID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_set_status_lookup_failed: %w", err)
	}

	next, err := profile.Status.Apply(transition)
	if err != nil {
		return nil, err
	}

	if next != profile.Status {
		if err := service.profileRepository.UpdateStatus(context, userID, next); err != nil {
			return nil, fmt.Errorf("account_service_set_status_failed: %w", err)
		}
	}

	service.metrics.AccountTransition(string(transition))
	service.logger.InfoContext(context, "account_status_changed",
		slog.String("user_id", userID),
		slog.String("from", string(profile.Status)),
		slog.String("to", string(next)),
	)

	profile.Status = next
	return profile, nil
}

// Me returns the caller's own account view.
func (service *Service) Me(context context.Context, principal access.Principal) (*View, error) {
	profile, err := service.profileRepository.FindByUserID(context, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("account_service_me_failed: %w", err)
	}
	return &View{Profile: *profile, IsAdmin: principal.IsAdmin}, nil
}

/*
ListProfiles returns one page of accounts, newest first, with admin flags.

Returns:
  - []View: The page
  - int: Total number of accounts
  - error: Storage failures
*/
func (service *Service) ListProfiles(context context.Context, params pagination.Params) ([]View, int, error) {
	profiles, total, err := service.profileRepository.List(context, params)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_failed: %w", err)
	}

	adminIDs, err := service.roleRepository.ListUserIDs(context, sec.RoleAdmin)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_admins_failed: %w", err)
	}
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	views := make([]View, 0, len(profiles))
	for _, profile := range profiles {
		views = append(views, View{Profile: profile, IsAdmin: admins[profile.UserID]})
	}
	return views, total, nil
}
