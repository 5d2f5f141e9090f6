// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity is the credential oracle behind every portal account.

It owns logins, password hashes and sessions. Nothing here knows about
profiles, areas or account status: the account package layers the lifecycle
gate on top of a successful sign-in.

# Architecture

  - Service: SignIn, SignUp, SignOut, Refresh, Authenticate, credential updates.
  - Repository: Postgres-backed identities (auth.identity) and sessions (auth.session).
  - Security: bcrypt hashes, RS256 access tokens bound to a session id.

An access token is only as valid as its session row. Revoking a session
invalidates every token issued for it on the next request.
*/
package identity

import "time"

// # Domain Entities

// Identity is a login plus its credential hash.
type Identity struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is one signed-in device. The refresh token itself is never stored.
type Session struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"`
	TokenHash  string    `json:"-"`
	UserAgent  string    `json:"user_agent"`
	IPAddress  string    `json:"ip_address"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsRevoked  bool      `json:"is_revoked"`
	CreatedAt  time.Time `json:"created_at"`
}

// Active reports whether the session can still authenticate requests at now.
func (session *Session) Active(now time.Time) bool {
	return !session.IsRevoked && now.Before(session.ExpiresAt)
}

// # Authentication Constraints

const (
	// AccessTokenTTL is the lifetime of a JWT access token.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the lifetime of a session and its refresh token.
	RefreshTokenTTL = 7 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random refresh token.
	RefreshTokenLength = 32
)
