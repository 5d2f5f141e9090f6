// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/portal/internal/platform/database/schema"
	"github.com/taibuivan/portal/internal/platform/dberr"
)

// PostgresLogRepository implements [LogRepository] using pgx.
type PostgresLogRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository creates a new PostgreSQL implementation of [LogRepository].
func NewLogRepository(pool *pgxpool.Pool) *PostgresLogRepository {
	return &PostgresLogRepository{pool: pool}
}

var logColumns = strings.Join(schema.PortalAccessLog.Columns(), ", ")

// Append inserts one entry.
func (repository *PostgresLogRepository) Append(context context.Context, entry *Entry) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5)`, schema.PortalAccessLog.Table, logColumns)

	_, err := repository.pool.Exec(context, query, entry.ID, entry.UserID, entry.Action, entry.Page, entry.CreatedAt)
	return dberr.Wrap(err, "Access log", "postgres_access_log_repo_append")
}

/*
Recent returns the newest entries.

Description: Ids are ULIDs, so ordering by id follows insertion time even
for entries written within the same millisecond.

Parameters:
  - context: context.Context
  - limit: int

Returns:
  - []Entry: Newest first
  - error: Storage failures
*/
func (repository *PostgresLogRepository) Recent(context context.Context, limit int) ([]Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC LIMIT $1`,
		logColumns, schema.PortalAccessLog.Table, schema.PortalAccessLog.ID)

	rows, err := repository.pool.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "Access log", "postgres_access_log_repo_recent")
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var entry Entry
		err := row.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Page, &entry.CreatedAt)
		return entry, err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "Access log", "postgres_access_log_repo_recent")
	}
	return entries, nil
}

// DeleteByUser removes every entry of userID.
func (repository *PostgresLogRepository) DeleteByUser(context context.Context, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.PortalAccessLog.Table, schema.PortalAccessLog.UserID)

	_, err := repository.pool.Exec(context, query, userID)
	return dberr.Wrap(err, "Access log", "postgres_access_log_repo_delete_by_user")
}
