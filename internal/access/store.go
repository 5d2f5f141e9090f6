// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import "context"

// PermissionRepository defines the persistence contract for area permissions.
type PermissionRepository interface {

	/*
		FindByArea returns the stored record of area.

		Returns:
		  - *AreaPermission: Hydrated record
		  - error: apperr.NotFound when the area has no row
	*/
	FindByArea(context context.Context, area Area) (*AreaPermission, error)

	// List returns every stored record.
	List(context context.Context) ([]AreaPermission, error)

	// Upsert writes each record keyed by area. Concurrent writers: last write wins.
	Upsert(context context.Context, records []AreaPermission) error

	// InsertMissing inserts records whose area has no row yet and reports how many were added.
	InsertMissing(context context.Context, records []AreaPermission) (int64, error)
}

// ReportCatalog answers which report ids exist. Implemented by the reports store.
type ReportCatalog interface {
	ExistingIDs(context context.Context, ids []string) (map[string]bool, error)
}
