// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import "slices"

// Grant is the evaluated capability set of one principal.
type Grant struct {
	admin      bool
	allAccess  bool
	modules    []Module
	reportIDs  map[string]struct{}
	configured bool
}

// Report is anything the engine can filter: it needs an id and an active flag.
type Report interface {
	ReportID() string
	IsActive() bool
}

/*
Resolve evaluates the policy for principal against its area record.

Description: Pure and side-effect free. A nil record means the area has no
stored configuration and yields an empty grant for non-admins.

Parameters:
  - principal: Principal
  - record: *AreaPermission (nil when absent)

Returns:
  - Grant: The effective capabilities
*/
func Resolve(principal Principal, record *AreaPermission) Grant {
	if principal.IsAdmin {
		return Grant{admin: true, allAccess: true, modules: AllModules(), configured: true}
	}

	if record == nil || record.Area != principal.Area {
		return Grant{}
	}

	if record.AllAccess {
		return Grant{allAccess: true, modules: AllModules(), configured: true}
	}

	grant := Grant{configured: true, reportIDs: make(map[string]struct{}, len(record.ReportIDs))}
	for _, module := range AllModules() {
		if slices.Contains(record.Modules, module) {
			grant.modules = append(grant.modules, module)
		}
	}
	for _, id := range record.ReportIDs {
		grant.reportIDs[id] = struct{}{}
	}
	return grant
}

// CanAccessModule reports whether module is granted.
func (grant Grant) CanAccessModule(module Module) bool {
	return slices.Contains(grant.modules, module)
}

// CanViewReport reports whether report may be served. Inactive reports never are.
func (grant Grant) CanViewReport(report Report) bool {
	if !report.IsActive() {
		return false
	}
	if grant.allAccess {
		return true
	}
	_, ok := grant.reportIDs[report.ReportID()]
	return ok
}

// Modules returns the granted modules in display order.
func (grant Grant) Modules() []Module {
	return slices.Clone(grant.modules)
}

// IsAdmin reports whether the grant came from the admin role.
func (grant Grant) IsAdmin() bool { return grant.admin }

// AllAccess reports whether every active report is visible.
func (grant Grant) AllAccess() bool { return grant.allAccess }

// Configured reports whether an area record (or the admin role) backed the grant.
func (grant Grant) Configured() bool { return grant.configured }

// VisibleReports filters reports down to those the grant may see, keeping order.
func VisibleReports[R Report](grant Grant, reports []R) []R {
	visible := make([]R, 0, len(reports))
	for _, report := range reports {
		if grant.CanViewReport(report) {
			visible = append(visible, report)
		}
	}
	return visible
}
