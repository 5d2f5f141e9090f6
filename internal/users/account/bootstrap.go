// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/identity"
	"github.com/taibuivan/portal/pkg/uuid"
)

// # Operator Bootstrap

// IdentityAdmin is the privileged identity surface the operator CLI needs.
type IdentityAdmin interface {
	LookupLogin(ctx context.Context, login string) (*identity.Identity, error)
	AdminCreateIdentity(ctx context.Context, login, password string) (*identity.Identity, error)
	AdminDeleteIdentity(ctx context.Context, identityID string) error
}

// Bootstrapper recreates administrator accounts outside the HTTP surface.
type Bootstrapper struct {
	profileRepository ProfileRepository
	roleRepository    RoleRepository
	identities        IdentityAdmin
	logger            *slog.Logger
}

// NewBootstrapper constructs a new [Bootstrapper].
func NewBootstrapper(profiles ProfileRepository, roles RoleRepository, identities IdentityAdmin, logger *slog.Logger) *Bootstrapper {
	return &Bootstrapper{
		profileRepository: profiles,
		roleRepository:    roles,
		identities:        identities,
		logger:            logger,
	}
}

// BootstrapAdminInput describes the administrator to (re)create.
type BootstrapAdminInput struct {
	SignUpInput
	Password string
}

/*
BootstrapAdmin deletes any account registered under the code and creates an
active administrator in its place.

Description: This is the recovery path when nobody can sign in as admin.
The new account must change its password on first login. Every field is
validated before anything is deleted.

Parameters:
  - context: context.Context
  - input: BootstrapAdminInput

Returns:
  - *Profile: The new administrator
  - error: ValidationError or storage failures
*/
func (bootstrapper *Bootstrapper) BootstrapAdmin(context context.Context, input BootstrapAdminInput) (*Profile, error) {
	profile, err := normalizeSignUp(input.SignUpInput)
	if err != nil {
		return nil, err
	}
	if err := sec.CheckPasswordPolicy(input.Password); err != nil {
		return nil, apperr.ValidationError("Invalid password", apperr.FieldError{Field: "password", Message: err.Error()})
	}

	if err := bootstrapper.removeExisting(context, profile.RegistrationCode); err != nil {
		return nil, err
	}

	created, err := bootstrapper.identities.AdminCreateIdentity(context, profile.RegistrationCode, input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_bootstrap_identity_failed: %w", err)
	}

	profile.ID = uuid.New()
	profile.UserID = created.ID
	profile.Status = StatusActive
	profile.MustChangePassword = true

	if err := bootstrapper.profileRepository.Create(context, profile); err != nil {
		return nil, fmt.Errorf("account_bootstrap_profile_failed: %w", err)
	}
	if err := bootstrapper.roleRepository.Grant(context, profile.UserID, sec.RoleAdmin); err != nil {
		return nil, fmt.Errorf("account_bootstrap_grant_failed: %w", err)
	}

	bootstrapper.logger.InfoContext(context, "admin_bootstrapped",
		slog.String("user_id", profile.UserID),
		slog.String("registration_code", profile.RegistrationCode),
	)
	return profile, nil
}

func (bootstrapper *Bootstrapper) removeExisting(context context.Context, code string) error {
	existing, err := bootstrapper.identities.LookupLogin(context, code)
	if apperr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("account_bootstrap_lookup_failed: %w", err)
	}

	if err := bootstrapper.profileRepository.DeleteAccount(context, existing.ID); err != nil && !apperr.IsNotFound(err) {
		return fmt.Errorf("account_bootstrap_delete_profile_failed: %w", err)
	}
	if err := bootstrapper.identities.AdminDeleteIdentity(context, existing.ID); err != nil {
		return fmt.Errorf("account_bootstrap_delete_identity_failed: %w", err)
	}

	bootstrapper.logger.InfoContext(context, "admin_bootstrap_replaced_account", slog.String("user_id", existing.ID))
	return nil
}
