// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

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

// PostgresPermissionRepository implements [PermissionRepository] using pgx.
type PostgresPermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository creates a new PostgreSQL implementation of [PermissionRepository].
func NewPermissionRepository(pool *pgxpool.Pool) *PostgresPermissionRepository {
	return &PostgresPermissionRepository{pool: pool}
}

var (
	permissionColumns = strings.Join(schema.PortalAreaPermission.Columns(), ", ")

	permissionUpsert = fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (%[3]s) DO UPDATE
		SET %[4]s = EXCLUDED.%[4]s, %[5]s = EXCLUDED.%[5]s, %[6]s = EXCLUDED.%[6]s, %[7]s = EXCLUDED.%[7]s`,
		schema.PortalAreaPermission.Table, permissionColumns, schema.PortalAreaPermission.Area,
		schema.PortalAreaPermission.Modules, schema.PortalAreaPermission.ReportIDs,
		schema.PortalAreaPermission.AllAccess, schema.PortalAreaPermission.UpdatedAt)

	permissionInsertMissing = fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (%s) DO NOTHING`,
		schema.PortalAreaPermission.Table, permissionColumns, schema.PortalAreaPermission.Area)
)

/*
FindByArea retrieves the permission row of one area.

Parameters:
  - context: context.Context
  - area: Area

Returns:
  - *AreaPermission: Hydrated record
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresPermissionRepository) FindByArea(context context.Context, area Area) (*AreaPermission, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		permissionColumns, schema.PortalAreaPermission.Table, schema.PortalAreaPermission.Area)

	record, err := scanPermission(repository.pool.QueryRow(context, query, string(area)))
	if err != nil {
		return nil, dberr.Wrap(err, "Area permission", "postgres_permission_repo_find_by_area")
	}
	return record, nil
}

// List returns every stored area permission ordered by area name.
func (repository *PostgresPermissionRepository) List(context context.Context) ([]AreaPermission, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`,
		permissionColumns, schema.PortalAreaPermission.Table, schema.PortalAreaPermission.Area)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "Area permission", "postgres_permission_repo_list")
	}
	defer rows.Close()

	records := make([]AreaPermission, 0, len(AllAreas()))
	for rows.Next() {
		record, err := scanPermission(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Area permission", "postgres_permission_repo_list_scan")
		}
		records = append(records, *record)
	}
	return records, dberr.Wrap(rows.Err(), "Area permission", "postgres_permission_repo_list")
}

/*
Upsert writes a batch of records in one round trip.

Description: Each record is an INSERT ... ON CONFLICT DO UPDATE keyed by area.
The batch runs in an implicit transaction, so either every row is written
or none is.

Returns:
  - error: Storage failures
*/
func (repository *PostgresPermissionRepository) Upsert(context context.Context, records []AreaPermission) error {
	_, err := repository.sendBatch(context, permissionUpsert, records)
	return dberr.Wrap(err, "Area permission", "postgres_permission_repo_upsert")
}

// InsertMissing inserts only the areas that have no row yet.
func (repository *PostgresPermissionRepository) InsertMissing(context context.Context, records []AreaPermission) (int64, error) {
	inserted, err := repository.sendBatch(context, permissionInsertMissing, records)
	if err != nil {
		return 0, dberr.Wrap(err, "Area permission", "postgres_permission_repo_insert_missing")
	}
	return inserted, nil
}

func (repository *PostgresPermissionRepository) sendBatch(context context.Context, query string, records []AreaPermission) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	now := time.Now()
	for _, record := range records {
		batch.Queue(query, string(record.Area), moduleStrings(record.Modules), nonNil(record.ReportIDs), record.AllAccess, now)
	}

	results := repository.pool.SendBatch(context, batch)
	defer results.Close()

	var affected int64
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return affected, err
		}
		affected += tag.RowsAffected()
	}
	return affected, nil
}

func scanPermission(row pgx.Row) (*AreaPermission, error) {
	var (
		area    string
		modules []string
		record  AreaPermission
	)
	if err := row.Scan(&area, &modules, &record.ReportIDs, &record.AllAccess, &record.UpdatedAt); err != nil {
		return nil, err
	}

	record.Area = Area(area)
	record.Modules = make([]Module, 0, len(modules))
	for _, name := range modules {
		// Unknown names left behind by older releases are ignored, never granted.
		if module, err := ParseModule(name); err == nil {
			record.Modules = append(record.Modules, module)
		}
	}
	record.ReportIDs = nonNil(record.ReportIDs)
	return &record, nil
}

func moduleStrings(modules []Module) []string {
	names := make([]string, 0, len(modules))
	for _, module := range modules {
		names = append(names, string(module))
	}
	return names
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
