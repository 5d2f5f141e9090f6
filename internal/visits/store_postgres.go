// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visits

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/portal/internal/platform/database/schema"
	"github.com/taibuivan/portal/internal/platform/dberr"
	"github.com/taibuivan/portal/pkg/pagination"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of [Repository].
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var visitColumns = strings.Join(schema.PortalVisit.Columns(), ", ")

// Create inserts a visit.
func (repository *PostgresRepository) Create(context context.Context, visit *Visit) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		schema.PortalVisit.Table, visitColumns)

	_, err := repository.pool.Exec(context, query,
		visit.ID,
		visit.SupervisorID,
		visit.Location,
		visit.VisitDate,
		visit.Notes,
		visit.Signature,
		visit.Status,
		visit.CreatedAt,
		visit.UpdatedAt,
	)
	return dberr.Wrap(err, "Visit", "postgres_visit_repo_create")
}

/*
ListBySupervisor returns a page of visits of one supervisor.

Parameters:
  - context: context.Context
  - supervisorID: string
  - params: pagination.Params

Returns:
  - []Visit: Ordered by visit date, then creation, newest first
  - int: Total rows of the supervisor
  - error: Storage failures
*/
func (repository *PostgresRepository) ListBySupervisor(context context.Context, supervisorID string, params pagination.Params) ([]Visit, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, schema.PortalVisit.Table, schema.PortalVisit.SupervisorID)
	if err := repository.pool.QueryRow(context, countQuery, supervisorID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Visit", "postgres_visit_repo_count")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC, %s DESC LIMIT $2 OFFSET $3`,
		visitColumns, schema.PortalVisit.Table, schema.PortalVisit.SupervisorID,
		schema.PortalVisit.VisitDate, schema.PortalVisit.CreatedAt)

	rows, err := repository.pool.Query(context, query, supervisorID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Visit", "postgres_visit_repo_list")
	}

	visits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Visit, error) {
		var visit Visit
		err := row.Scan(
			&visit.ID,
			&visit.SupervisorID,
			&visit.Location,
			&visit.VisitDate,
			&visit.Notes,
			&visit.Signature,
			&visit.Status,
			&visit.CreatedAt,
			&visit.UpdatedAt,
		)
		return visit, err
	})
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Visit", "postgres_visit_repo_list")
	}
	return visits, total, nil
}
