// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visits

import (
	"context"

	"github.com/taibuivan/portal/pkg/pagination"
)

// Repository defines the persistence contract for visits.
type Repository interface {

	// Create persists a new visit.
	Create(context context.Context, visit *Visit) error

	/*
		ListBySupervisor returns one page of a supervisor's visits.

		Returns:
		  - []Visit: Newest visit date first
		  - int: Total visits of the supervisor
		  - error: Storage failures
	*/
	ListBySupervisor(context context.Context, supervisorID string, params pagination.Params) ([]Visit, int, error)
}
