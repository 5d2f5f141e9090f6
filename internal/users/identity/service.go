// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/pkg/uuid"
)

// # Contracts & Types

// TokenProvider signs and verifies access tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT bound to sessionID.
	GenerateAccessToken(userID, login, sessionID string, timeToLive time.Duration) (string, error)

	// VerifyToken checks signature, issuer and expiry.
	VerifyToken(token string) (*sec.AuthClaims, error)
}

// Service implements the identity collaborator.
//
// # Review Process
//
// This service is critical for security. Any change to hashing, session
// binding or revocation must be reviewed together with the account gate.
type Service struct {
	identityRepository IdentityRepository
	sessionRepository  SessionRepository
	tokenProvider      TokenProvider
	now                func() time.Time
}

// NewService constructs a new [Service] with its dependencies.
func NewService(identities IdentityRepository, sessions SessionRepository, tokens TokenProvider) *Service {
	return &Service{
		identityRepository: identities,
		sessionRepository:  sessions,
		tokenProvider:      tokens,
		now:                time.Now,
	}
}

// WithClock replaces the time source. Used by tests to expire sessions.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// # Sign In

// SignInInput holds a credential check request.
type SignInInput struct {
	Login     string
	Password  string
	UserAgent string
	IPAddress string
}

// AuthSession is a freshly established session and its tokens.
type AuthSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	SessionID             string
	Identity              *Identity
}

/*
SignIn verifies the credential and opens a new session.

Description: The identity is looked up by login, the password compared in
constant time, and a session is created with a rotated refresh token.

Parameters:
  - context: context.Context
  - input: SignInInput

Returns:
  - *AuthSession: Tokens bound to the new session
  - error: Unauthorized with a generic message for any credential mismatch
*/
func (service *Service) SignIn(context context.Context, input SignInInput) (*AuthSession, error) {
	identity, err := service.identityRepository.FindByLogin(context, input.Login)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, fmt.Errorf("identity_service_sign_in_lookup_failed: %w", err)
	}

	// bcrypt comparison is constant-time.
	if !sec.CheckPasswordHash(input.Password, identity.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	return service.openSession(context, identity, input.UserAgent, input.IPAddress)
}

/*
SignOut revokes a session. Unknown or already revoked sessions are ignored.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Storage failures
*/
func (service *Service) SignOut(context context.Context, sessionID string) error {
	if err := service.sessionRepository.Revoke(context, sessionID); err != nil {
		return fmt.Errorf("identity_service_sign_out_failed: %w", err)
	}
	return nil
}

/*
Refresh implements refresh token rotation.

Description: The presented refresh token is resolved to an active session,
that session is revoked, and a new session with a new token pair is opened.
A replayed token finds no active session and is rejected.

Parameters:
  - context: context.Context
  - refreshToken: string
  - userAgent: string
  - ipAddress: string

Returns:
  - *AuthSession: The rotated session
  - error: Unauthorized or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshToken, userAgent, ipAddress string) (*AuthSession, error) {
	session, err := service.sessionRepository.FindByTokenHash(context, sec.HashToken(refreshToken))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid or expired refresh token")
		}
		return nil, fmt.Errorf("identity_service_refresh_lookup_failed: %w", err)
	}

	if err := service.sessionRepository.Revoke(context, session.ID); err != nil {
		return nil, fmt.Errorf("identity_service_refresh_revoke_failed: %w", err)
	}

	identity, err := service.identityRepository.FindByID(context, session.IdentityID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Identity no longer exists")
		}
		return nil, fmt.Errorf("identity_service_refresh_identity_failed: %w", err)
	}

	return service.openSession(context, identity, userAgent, ipAddress)
}

/*
Authenticate verifies an access token and the session it is bound to.

Description: Signature and expiry are checked first, then the session row is
loaded. A revoked or expired session, or one owned by another identity,
rejects the token even if the JWT itself is still valid.

Parameters:
  - context: context.Context
  - token: string (raw bearer token)

Returns:
  - *sec.AuthClaims: Verified claims
  - error: Unauthorized or storage failures
*/
func (service *Service) Authenticate(context context.Context, token string) (*sec.AuthClaims, error) {
	claims, err := service.tokenProvider.VerifyToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired access token")
	}

	session, err := service.sessionRepository.FindByID(context, claims.SessionID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Session has ended")
		}
		return nil, fmt.Errorf("identity_service_authenticate_failed: %w", err)
	}

	if !session.Active(service.now()) || session.IdentityID != claims.UserID {
		return nil, apperr.Unauthorized("Session has ended")
	}

	return claims, nil
}

// # Credential Management

/*
SignUp registers a new identity under login.

Parameters:
  - context: context.Context
  - login: string
  - password: string

Returns:
  - *Identity: Created entity
  - error: Conflict when the login exists, ValidationError for a weak credential
*/
func (service *Service) SignUp(context context.Context, login, password string) (*Identity, error) {
	return service.create(context, login, password)
}

// AdminCreateIdentity creates an identity on behalf of an operator.
func (service *Service) AdminCreateIdentity(context context.Context, login, password string) (*Identity, error) {
	return service.create(context, login, password)
}

// LookupLogin returns the identity registered under login.
func (service *Service) LookupLogin(context context.Context, login string) (*Identity, error) {
	return service.identityRepository.FindByLogin(context, login)
}

/*
UpdateCredential changes the caller's own credential.

Description: Every other session of the identity is revoked, the session
performing the change stays signed in.

Parameters:
  - context: context.Context
  - identityID: string
  - keepSessionID: string
  - newPassword: string

Returns:
  - error: ValidationError or storage failures
*/
func (service *Service) UpdateCredential(context context.Context, identityID, keepSessionID, newPassword string) error {
	if err := service.setPassword(context, identityID, newPassword); err != nil {
		return err
	}

	if err := service.sessionRepository.RevokeOthers(context, identityID, keepSessionID); err != nil {
		return fmt.Errorf("identity_service_update_credential_revoke_failed: %w", err)
	}
	return nil
}

/*
AdminUpdateCredential replaces another identity's credential.

Description: All sessions of the target are revoked, so the new credential is
the only way back in.

Returns:
  - error: NotFound, ValidationError or storage failures
*/
func (service *Service) AdminUpdateCredential(context context.Context, identityID, newPassword string) error {
	if err := service.setPassword(context, identityID, newPassword); err != nil {
		return err
	}

	if err := service.sessionRepository.RevokeAll(context, identityID); err != nil {
		return fmt.Errorf("identity_service_admin_update_credential_revoke_failed: %w", err)
	}
	return nil
}

// AdminDeleteIdentity removes an identity and every session it owns.
func (service *Service) AdminDeleteIdentity(context context.Context, identityID string) error {
	if err := service.identityRepository.Delete(context, identityID); err != nil {
		return fmt.Errorf("identity_service_admin_delete_failed: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry.
func (service *Service) PurgeExpiredSessions(context context.Context) (int64, error) {
	count, err := service.sessionRepository.DeleteExpired(context)
	if err != nil {
		return 0, fmt.Errorf("identity_service_purge_sessions_failed: %w", err)
	}
	return count, nil
}

// # Internal Helpers

func (service *Service) create(context context.Context, login, password string) (*Identity, error) {
	if err := checkPolicy(password); err != nil {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	identity := &Identity{
		ID:           uuid.New(),
		Login:        login,
		PasswordHash: hashedPassword,
	}

	if err := service.identityRepository.Create(context, identity); err != nil {
		if apperr.IsCode(err, apperr.CodeConflict) {
			return nil, apperr.Conflict("Login is already registered")
		}
		return nil, fmt.Errorf("identity_service_create_failed: %w", err)
	}

	return identity, nil
}

func (service *Service) setPassword(context context.Context, identityID, newPassword string) error {
	if err := checkPolicy(newPassword); err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	if err := service.identityRepository.UpdatePassword(context, identityID, hashedPassword); err != nil {
		return fmt.Errorf("identity_service_update_password_failed: %w", err)
	}
	return nil
}

func (service *Service) openSession(context context.Context, identity *Identity, userAgent, ipAddress string) (*AuthSession, error) {
	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("identity_service_refresh_token_failed: %w", err)
	}

	session := &Session{
		ID:         uuid.New(),
		IdentityID: identity.ID,
		TokenHash:  sec.HashToken(refreshToken),
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		ExpiresAt:  service.now().Add(RefreshTokenTTL),
		CreatedAt:  service.now(),
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("identity_service_session_creation_failed: %w", err)
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(identity.ID, identity.Login, session.ID, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("identity_service_token_generation_failed: %w", err)
	}

	return &AuthSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
		SessionID:             session.ID,
		Identity:              identity,
	}, nil
}

func checkPolicy(password string) error {
	if err := sec.CheckPasswordPolicy(password); err != nil {
		return apperr.ValidationError("Password does not meet the credential policy",
			apperr.FieldError{Field: "password", Message: err.Error()})
	}
	return nil
}
