// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reports

import "context"

// Repository defines the persistence contract for report links.
type Repository interface {

	// List returns every link, active or not, by order then title.
	List(context context.Context) ([]Report, error)

	/*
		FindByID retrieves one link.

		Returns:
		  - *Report: Hydrated link
		  - error: apperr.NotFound when absent
	*/
	FindByID(context context.Context, id string) (*Report, error)

	// Create persists a new link. ID and timestamps are set by the caller.
	Create(context context.Context, report *Report) error

	// Update overwrites the mutable columns of an existing link.
	Update(context context.Context, report *Report) error

	// Delete removes a link. Area records that still list its id keep it; it simply stops matching.
	Delete(context context.Context, id string) error

	// ExistingIDs reports which of ids are present in the catalog.
	ExistingIDs(context context.Context, ids []string) (map[string]bool, error)
}
