// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/portal/internal/platform/database/schema"
	"github.com/taibuivan/portal/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of [Repository].
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var (
	reportColumns = strings.Join(schema.PortalReportLink.Columns(), ", ")
	reportSelect  = fmt.Sprintf(`SELECT %s FROM %s`, reportColumns, schema.PortalReportLink.Table)
)

// List returns the whole catalog ordered for display.
func (repository *PostgresRepository) List(context context.Context) ([]Report, error) {
	query := reportSelect + fmt.Sprintf(` ORDER BY %s ASC, %s ASC`,
		schema.PortalReportLink.SortOrder, schema.PortalReportLink.Title)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "Report", "postgres_report_repo_list")
	}
	defer rows.Close()

	reports := []Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Report", "postgres_report_repo_list_scan")
		}
		reports = append(reports, *report)
	}
	return reports, dberr.Wrap(rows.Err(), "Report", "postgres_report_repo_list")
}

// FindByID retrieves a link by its primary key.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Report, error) {
	query := reportSelect + fmt.Sprintf(` WHERE %s = $1`, schema.PortalReportLink.ID)

	report, err := scanReport(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Report", "postgres_report_repo_find_by_id")
	}
	return report, nil
}

/*
Create persists a new link.

Parameters:
  - context: context.Context
  - report: *Report (ID and timestamps already set)

Returns:
  - error: Storage failures
*/
func (repository *PostgresRepository) Create(context context.Context, report *Report) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		schema.PortalReportLink.Table, reportColumns)

	_, err := repository.pool.Exec(context, query,
		report.ID,
		report.Title,
		report.Description,
		report.URL,
		report.Icon,
		report.Order,
		report.Active,
		report.CreatedAt,
		report.UpdatedAt,
	)
	return dberr.Wrap(err, "Report", "postgres_report_repo_create")
}

// Update overwrites every mutable column of the link.
func (repository *PostgresRepository) Update(context context.Context, report *Report) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8
		WHERE %s = $1`,
		schema.PortalReportLink.Table,
		schema.PortalReportLink.Title, schema.PortalReportLink.Description, schema.PortalReportLink.URL,
		schema.PortalReportLink.Icon, schema.PortalReportLink.SortOrder, schema.PortalReportLink.IsActive,
		schema.PortalReportLink.UpdatedAt, schema.PortalReportLink.ID)

	tag, err := repository.pool.Exec(context, query, report.ID,
		report.Title, report.Description, report.URL, report.Icon, report.Order, report.Active, report.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "Report", "postgres_report_repo_update")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Report", "postgres_report_repo_update")
	}
	return nil
}

// Delete removes a link.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.PortalReportLink.Table, schema.PortalReportLink.ID)

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "Report", "postgres_report_repo_delete")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Report", "postgres_report_repo_delete")
	}
	return nil
}

// ExistingIDs returns the subset of ids present in the table.
func (repository *PostgresRepository) ExistingIDs(context context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	// Ids arrive from admins as free text; compare as text so a malformed one is simply absent.
	query := fmt.Sprintf(`SELECT %[1]s::text FROM %[2]s WHERE %[1]s::text = ANY($1::text[])`,
		schema.PortalReportLink.ID, schema.PortalReportLink.Table)

	rows, err := repository.pool.Query(context, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "Report", "postgres_report_repo_existing_ids")
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberr.Wrap(err, "Report", "postgres_report_repo_existing_ids")
	}

	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

func scanReport(row pgx.Row) (*Report, error) {
	var report Report
	err := row.Scan(
		&report.ID,
		&report.Title,
		&report.Description,
		&report.URL,
		&report.Icon,
		&report.Order,
		&report.Active,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &report, nil
}
