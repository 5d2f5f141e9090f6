// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/database/schema"
	"github.com/taibuivan/portal/internal/platform/dberr"
	"github.com/taibuivan/portal/internal/platform/postgres"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/pkg/pagination"
	"github.com/taibuivan/portal/pkg/uuid"
)

// # Profile Repository

// PostgresProfileRepository implements [ProfileRepository] using pgx.
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new PostgreSQL implementation of [ProfileRepository].
func NewProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

var (
	profileColumns = strings.Join(schema.PortalProfile.Columns(), ", ")
	profileSelect  = fmt.Sprintf(`SELECT %s FROM %s`, profileColumns, schema.PortalProfile.Table)
)

/*
Create persists a pending profile and its default role.

Description: Both rows are written in a single transaction so a profile
never exists without its "user" role.

Parameters:
  - context: context.Context
  - profile: *Profile (Entity to persist)

Returns:
  - error: apperr.Conflict when the code or identity is already registered
*/
func (repository *PostgresProfileRepository) Create(context context.Context, profile *Profile) error {
	insertProfile := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		schema.PortalProfile.Table, profileColumns)

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(context, insertProfile,
			profile.ID,
			profile.UserID,
			profile.RegistrationCode,
			profile.Name,
			profile.Title,
			profile.Email,
			profile.Company,
			profile.Phone,
			string(profile.Area),
			string(profile.Status),
			profile.MustChangePassword,
			profile.CreatedAt,
			profile.UpdatedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(context, roleInsert, uuid.New(), profile.UserID, string(sec.RoleUser), now)
		return err
	})
	return dberr.Wrap(err, "Profile", "postgres_profile_repo_create")
}

// FindByUserID retrieves the profile owned by an identity.
func (repository *PostgresProfileRepository) FindByUserID(context context.Context, userID string) (*Profile, error) {
	query := profileSelect + fmt.Sprintf(` WHERE %s = $1`, schema.PortalProfile.UserID)

	profile, err := scanProfile(repository.pool.QueryRow(context, query, userID))
	if err != nil {
		return nil, dberr.Wrap(err, "Profile", "postgres_profile_repo_find_by_user")
	}
	return profile, nil
}

// FindByRegistrationCode retrieves the profile with the given registration code.
func (repository *PostgresProfileRepository) FindByRegistrationCode(context context.Context, code string) (*Profile, error) {
	query := profileSelect + fmt.Sprintf(` WHERE %s = $1`, schema.PortalProfile.RegistrationCode)

	profile, err := scanProfile(repository.pool.QueryRow(context, query, code))
	if err != nil {
		return nil, dberr.Wrap(err, "Profile", "postgres_profile_repo_find_by_code")
	}
	return profile, nil
}

// FindByEmail returns up to two profiles whose email matches case-insensitively.
func (repository *PostgresProfileRepository) FindByEmail(context context.Context, email string) ([]Profile, error) {
	query := profileSelect + fmt.Sprintf(` WHERE LOWER(%s) = LOWER($1) LIMIT 2`, schema.PortalProfile.Email)
	return repository.queryProfiles(context, "postgres_profile_repo_find_by_email", query, email)
}

/*
List returns one page of profiles, newest first.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []Profile: The page
  - int: Total number of profiles
  - error: Storage failures
*/
func (repository *PostgresProfileRepository) List(context context.Context, params pagination.Params) ([]Profile, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, schema.PortalProfile.Table)
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Profile", "postgres_profile_repo_count")
	}

	query := profileSelect + fmt.Sprintf(` ORDER BY %s DESC, %s DESC LIMIT $1 OFFSET $2`,
		schema.PortalProfile.CreatedAt, schema.PortalProfile.ID)

	profiles, err := repository.queryProfiles(context, "postgres_profile_repo_list", query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// ListByUserIDs returns the profiles owned by the given identities.
func (repository *PostgresProfileRepository) ListByUserIDs(context context.Context, userIDs []string) ([]Profile, error) {
	if len(userIDs) == 0 {
		return []Profile{}, nil
	}
	query := profileSelect + fmt.Sprintf(` WHERE %s = ANY($1::uuid[])`, schema.PortalProfile.UserID)
	return repository.queryProfiles(context, "postgres_profile_repo_list_by_users", query, userIDs)
}

// UpdateStatus stores a new lifecycle status.
func (repository *PostgresProfileRepository) UpdateStatus(context context.Context, userID string, status Status) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.PortalProfile.Table, schema.PortalProfile.Status,
		schema.PortalProfile.UpdatedAt, schema.PortalProfile.UserID)

	return repository.execOne(context, "postgres_profile_repo_update_status", query, userID, string(status), time.Now())
}

/*
UpdateContact applies the set fields of update.

Description: Nil fields keep their stored value through COALESCE, so the
statement touches only what the caller sent.

Returns:
  - *Profile: The profile after the update
  - error: apperr.NotFound when no profile matched
*/
func (repository *PostgresProfileRepository) UpdateContact(context context.Context, userID string, update ProfileUpdate) (*Profile, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s SET
			%[2]s = COALESCE($2, %[2]s),
			%[3]s = COALESCE($3, %[3]s),
			%[4]s = COALESCE($4, %[4]s),
			%[5]s = COALESCE($5, %[5]s),
			%[6]s = COALESCE($6, %[6]s),
			%[7]s = $7
		WHERE %[8]s = $1
		RETURNING %[9]s`,
		schema.PortalProfile.Table,
		schema.PortalProfile.Name, schema.PortalProfile.Title, schema.PortalProfile.Email,
		schema.PortalProfile.Company, schema.PortalProfile.Phone, schema.PortalProfile.UpdatedAt,
		schema.PortalProfile.UserID, profileColumns)

	profile, err := scanProfile(repository.pool.QueryRow(context, query, userID,
		update.Name, update.Title, update.Email, update.Company, update.Phone, time.Now()))
	if err != nil {
		return nil, dberr.Wrap(err, "Profile", "postgres_profile_repo_update_contact")
	}
	return profile, nil
}

// SetMustChangePassword sets or clears the forced change flag.
func (repository *PostgresProfileRepository) SetMustChangePassword(context context.Context, userID string, value bool) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.PortalProfile.Table, schema.PortalProfile.MustChangePassword,
		schema.PortalProfile.UpdatedAt, schema.PortalProfile.UserID)

	return repository.execOne(context, "postgres_profile_repo_set_must_change", query, userID, value, time.Now())
}

// DeleteAccount removes every role row and the profile of userID in one transaction.
func (repository *PostgresProfileRepository) DeleteAccount(context context.Context, userID string) error {
	deleteRoles := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.PortalUserRole.Table, schema.PortalUserRole.UserID)
	deleteProfile := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.PortalProfile.Table, schema.PortalProfile.UserID)

	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(context, deleteRoles, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(context, deleteProfile, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	return dberr.Wrap(err, "Profile", "postgres_profile_repo_delete_account")
}

func (repository *PostgresProfileRepository) execOne(context context.Context, action, query string, args ...any) error {
	tag, err := repository.pool.Exec(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, "Profile", action)
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Profile", action)
	}
	return nil
}

func (repository *PostgresProfileRepository) queryProfiles(context context.Context, action, query string, args ...any) ([]Profile, error) {
	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "Profile", action)
	}
	defer rows.Close()

	profiles := []Profile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Profile", action)
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Profile", action)
	}
	return profiles, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var profile Profile
	var area, status string

	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.RegistrationCode,
		&profile.Name,
		&profile.Title,
		&profile.Email,
		&profile.Company,
		&profile.Phone,
		&area,
		&status,
		&profile.MustChangePassword,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	profile.Area = access.Area(area)
	profile.Status = Status(status)
	return &profile, nil
}

// # Role Repository

// PostgresRoleRepository implements [RoleRepository] using pgx.
type PostgresRoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new PostgreSQL implementation of [RoleRepository].
func NewRoleRepository(pool *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{pool: pool}
}

var roleInsert = fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4) ON CONFLICT (%s, %s) DO NOTHING`,
	schema.PortalUserRole.Table, strings.Join(schema.PortalUserRole.Columns(), ", "),
	schema.PortalUserRole.UserID, schema.PortalUserRole.Role)

// HasRole reports whether userID holds role.
func (repository *PostgresRoleRepository) HasRole(context context.Context, userID string, role sec.UserRole) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = $2)`,
		schema.PortalUserRole.Table, schema.PortalUserRole.UserID, schema.PortalUserRole.Role)

	var exists bool
	if err := repository.pool.QueryRow(context, query, userID, string(role)).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "Role", "postgres_role_repo_has_role")
	}
	return exists, nil
}

// Grant adds role to userID. Existing assignments are left as they are.
func (repository *PostgresRoleRepository) Grant(context context.Context, userID string, role sec.UserRole) error {
	_, err := repository.pool.Exec(context, roleInsert, uuid.New(), userID, string(role), time.Now())
	return dberr.Wrap(err, "Role", "postgres_role_repo_grant")
}

// Revoke removes role from userID.
func (repository *PostgresRoleRepository) Revoke(context context.Context, userID string, role sec.UserRole) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.PortalUserRole.Table, schema.PortalUserRole.UserID, schema.PortalUserRole.Role)

	_, err := repository.pool.Exec(context, query, userID, string(role))
	return dberr.Wrap(err, "Role", "postgres_role_repo_revoke")
}

// ListUserIDs returns every identity holding role.
func (repository *PostgresRoleRepository) ListUserIDs(context context.Context, role sec.UserRole) ([]string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.PortalUserRole.UserID, schema.PortalUserRole.Table, schema.PortalUserRole.Role)

	rows, err := repository.pool.Query(context, query, string(role))
	if err != nil {
		return nil, dberr.Wrap(err, "Role", "postgres_role_repo_list_users")
	}
	defer rows.Close()

	userIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberr.Wrap(err, "Role", "postgres_role_repo_list_users")
	}
	return userIDs, nil
}
