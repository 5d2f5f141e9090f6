// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/portal/internal/platform/database/schema"
	"github.com/taibuivan/portal/internal/platform/dberr"
)

// # Identity Repository

// PostgresIdentityRepository implements [IdentityRepository] using pgx.
type PostgresIdentityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository creates a new PostgreSQL implementation of [IdentityRepository].
func NewIdentityRepository(pool *pgxpool.Pool) *PostgresIdentityRepository {
	return &PostgresIdentityRepository{pool: pool}
}

var identitySelect = fmt.Sprintf(`SELECT %s FROM %s`,
	strings.Join(schema.AuthIdentity.Columns(), ", "), schema.AuthIdentity.Table)

/*
Create persists a new identity into auth.identity.

Parameters:
  - context: context.Context
  - identity: *Identity (Entity to persist)

Returns:
  - error: apperr.Conflict when the login already exists
*/
func (repository *PostgresIdentityRepository) Create(context context.Context, identity *Identity) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5)`,
		schema.AuthIdentity.Table, strings.Join(schema.AuthIdentity.Columns(), ", "))

	now := time.Now()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		identity.ID,
		identity.Login,
		identity.PasswordHash,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	return dberr.Wrap(err, "Identity", "postgres_identity_repo_create")
}

// FindByID retrieves an identity by primary key.
func (repository *PostgresIdentityRepository) FindByID(context context.Context, id string) (*Identity, error) {
	return repository.findOne(context, schema.AuthIdentity.ID, id, "postgres_identity_repo_find_by_id")
}

// FindByLogin retrieves an identity by its unique login.
func (repository *PostgresIdentityRepository) FindByLogin(context context.Context, login string) (*Identity, error) {
	return repository.findOne(context, schema.AuthIdentity.Login, login, "postgres_identity_repo_find_by_login")
}

func (repository *PostgresIdentityRepository) findOne(context context.Context, column, value, action string) (*Identity, error) {
	query := identitySelect + fmt.Sprintf(` WHERE %s = $1`, column)

	identity := &Identity{}
	err := repository.pool.QueryRow(context, query, value).Scan(
		&identity.ID,
		&identity.Login,
		&identity.PasswordHash,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Identity", action)
	}
	return identity, nil
}

/*
UpdatePassword replaces the credential hash of an identity.

Returns:
  - error: apperr.NotFound when no row matched
*/
func (repository *PostgresIdentityRepository) UpdatePassword(context context.Context, id, newHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.AuthIdentity.Table, schema.AuthIdentity.PasswordHash,
		schema.AuthIdentity.UpdatedAt, schema.AuthIdentity.ID)

	tag, err := repository.pool.Exec(context, query, id, newHash, time.Now())
	if err != nil {
		return dberr.Wrap(err, "Identity", "postgres_identity_repo_update_password")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Identity", "postgres_identity_repo_update_password")
	}
	return nil
}

// Delete removes an identity. Sessions are removed by the foreign key cascade.
func (repository *PostgresIdentityRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.AuthIdentity.Table, schema.AuthIdentity.ID)

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "Identity", "postgres_identity_repo_delete")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Identity", "postgres_identity_repo_delete")
	}
	return nil
}

// # Session Repository

// PostgresSessionRepository implements [SessionRepository] using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of [SessionRepository].
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

var (
	sessionColumns = strings.Join(schema.AuthSession.Columns(), ", ")
	sessionSelect  = fmt.Sprintf(`SELECT %s FROM %s`, sessionColumns, schema.AuthSession.Table)
	sessionRevoke  = fmt.Sprintf(`UPDATE %s SET %s = TRUE`, schema.AuthSession.Table, schema.AuthSession.IsRevoked)
)

// Queries of [PostgresSessionRepository], built from the generated schema names.
var (
	sessionInsertQuery = fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		schema.AuthSession.Table, sessionColumns)

	sessionByIDQuery = sessionSelect + fmt.Sprintf(` WHERE %s = $1`, schema.AuthSession.ID)

	sessionByTokenHashQuery = sessionSelect + fmt.Sprintf(` WHERE %s = $1 AND %s = FALSE AND %s > NOW()`,
		schema.AuthSession.TokenHash, schema.AuthSession.IsRevoked, schema.AuthSession.ExpiresAt)

	sessionRevokeQuery = sessionRevoke + fmt.Sprintf(` WHERE %s = $1`, schema.AuthSession.ID)

	sessionRevokeAllQuery = sessionRevoke + fmt.Sprintf(` WHERE %s = $1 AND %s = FALSE`,
		schema.AuthSession.IdentityID, schema.AuthSession.IsRevoked)

	sessionRevokeOthersQuery = sessionRevoke + fmt.Sprintf(` WHERE %s = $1 AND %s <> $2 AND %s = FALSE`,
		schema.AuthSession.IdentityID, schema.AuthSession.ID, schema.AuthSession.IsRevoked)

	sessionDeleteExpiredQuery = fmt.Sprintf(`DELETE FROM %s WHERE %s < NOW()`,
		schema.AuthSession.Table, schema.AuthSession.ExpiresAt)
)

/*
Create persists a new session record into auth.session.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Storage failures
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, sessionInsertQuery,
		session.ID,
		session.IdentityID,
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.IsRevoked,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return dberr.Wrap(err, "Session", "postgres_session_repo_create")
}

// FindByID retrieves a session by ID regardless of its state.
func (repository *PostgresSessionRepository) FindByID(context context.Context, id string) (*Session, error) {
	return repository.scanOne(context, sessionByIDQuery, id, "postgres_session_repo_find_by_id")
}

/*
FindByTokenHash resolves a refresh token hash into an active session.

Returns:
  - *Session: Hydrated session metadata
  - error: apperr.NotFound when the token is unknown, revoked or expired
*/
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	return repository.scanOne(context, sessionByTokenHashQuery, tokenHash, "postgres_session_repo_find_by_token_hash")
}

func (repository *PostgresSessionRepository) scanOne(context context.Context, query, argument, action string) (*Session, error) {
	session := &Session{}
	err := repository.pool.QueryRow(context, query, argument).Scan(
		&session.ID,
		&session.IdentityID,
		&session.TokenHash,
		&session.UserAgent,
		&session.IPAddress,
		&session.IsRevoked,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Session", action)
	}
	return session, nil
}

// Revoke marks one session as revoked. Revoking twice is a no-op.
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	_, err := repository.pool.Exec(context, sessionRevokeQuery, sessionID)
	return dberr.Wrap(err, "Session", "postgres_session_repo_revoke")
}

// RevokeAll revokes every active session of an identity.
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, identityID string) error {
	_, err := repository.pool.Exec(context, sessionRevokeAllQuery, identityID)
	return dberr.Wrap(err, "Session", "postgres_session_repo_revoke_all")
}

// RevokeOthers revokes every active session of an identity except one.
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, identityID, keepSessionID string) error {
	_, err := repository.pool.Exec(context, sessionRevokeOthersQuery, identityID, keepSessionID)
	return dberr.Wrap(err, "Session", "postgres_session_repo_revoke_others")
}

// DeleteExpired removes expired sessions and reports how many were deleted.
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context) (int64, error) {
	tag, err := repository.pool.Exec(context, sessionDeleteExpiredQuery)
	if err != nil {
		return 0, dberr.Wrap(err, "Session", "postgres_session_repo_delete_expired")
	}
	return tag.RowsAffected(), nil
}
