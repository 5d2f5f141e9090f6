// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import "context"

// # Identity Data Access

// IdentityRepository defines the data access contract for logins.
type IdentityRepository interface {

	/*
		FindByID returns the identity with the given ID.

		Returns:
		  - *Identity: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*Identity, error)

	/*
		FindByLogin returns the identity registered under login.

		Returns:
		  - *Identity: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByLogin(context context.Context, login string) (*Identity, error)

	/*
		Create persists a new identity.

		Returns:
		  - error: apperr.Conflict when the login is taken
	*/
	Create(context context.Context, identity *Identity) error

	// UpdatePassword replaces only the credential hash.
	UpdatePassword(context context.Context, id, newHash string) error

	// Delete removes the identity and, by cascade, its sessions.
	Delete(context context.Context, id string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for sessions.
type SessionRepository interface {

	// Create persists a new session for a successful sign-in.
	Create(context context.Context, session *Session) error

	/*
		FindByID returns the session with the given ID, revoked or not.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*Session, error)

	/*
		FindByTokenHash returns the active session matching the refresh token hash.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound when no active session matches
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	// Revoke invalidates a single session.
	Revoke(context context.Context, sessionID string) error

	// RevokeAll invalidates every session of identityID.
	RevokeAll(context context.Context, identityID string) error

	// RevokeOthers invalidates every session of identityID except keepSessionID.
	RevokeOthers(context context.Context, identityID, keepSessionID string) error

	// DeleteExpired physically removes sessions past their expiry.
	DeleteExpired(context context.Context) (int64, error)
}
