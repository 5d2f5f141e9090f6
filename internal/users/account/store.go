// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"

	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/pkg/pagination"
)

// # Repository Contracts

// ProfileRepository defines the persistence operations for employee profiles.
type ProfileRepository interface {
	// Create stores a new profile together with its default "user" role.
	Create(ctx context.Context, profile *Profile) error

	// FindByUserID returns the profile owned by an identity.
	FindByUserID(ctx context.Context, userID string) (*Profile, error)

	// FindByRegistrationCode returns the profile with the given code.
	FindByRegistrationCode(ctx context.Context, code string) (*Profile, error)

	// FindByEmail returns at most two profiles whose email matches
	// case-insensitively. Two results are enough to detect ambiguity.
	FindByEmail(ctx context.Context, email string) ([]Profile, error)

	// List returns a page of profiles, newest first, and the total count.
	List(ctx context.Context, params pagination.Params) ([]Profile, int, error)

	// ListByUserIDs returns the profiles of the given identities.
	ListByUserIDs(ctx context.Context, userIDs []string) ([]Profile, error)

	// UpdateStatus stores a new lifecycle status.
	UpdateStatus(ctx context.Context, userID string, status Status) error

	// UpdateContact applies the non-nil fields of update and returns the result.
	UpdateContact(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error)

	// SetMustChangePassword sets or clears the forced change flag.
	SetMustChangePassword(ctx context.Context, userID string, value bool) error

	// DeleteAccount removes the role rows and the profile in one transaction.
	DeleteAccount(ctx context.Context, userID string) error
}

// RoleRepository defines the persistence operations for role assignments.
type RoleRepository interface {
	HasRole(ctx context.Context, userID string, role sec.UserRole) (bool, error)

	// Grant adds a role. Granting a held role is a no-op.
	Grant(ctx context.Context, userID string, role sec.UserRole) error

	// Revoke removes a role. Revoking a missing role is a no-op.
	Revoke(ctx context.Context, userID string, role sec.UserRole) error

	// ListUserIDs returns every identity holding role.
	ListUserIDs(ctx context.Context, role sec.UserRole) ([]string, error)
}
