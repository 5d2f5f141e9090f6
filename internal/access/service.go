// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/taibuivan/portal/internal/platform/apperr"
)

// # Engine

// Engine evaluates the policy against stored area permissions.
type Engine struct {
	permissionRepository PermissionRepository
}

// NewEngine constructs a new [Engine].
func NewEngine(permissions PermissionRepository) *Engine {
	return &Engine{permissionRepository: permissions}
}

/*
Grant computes the capabilities of principal.

Description: Admins are resolved without touching the store. For everyone
else the area row is loaded; a missing row is not an error, it is an empty
grant.

Parameters:
  - context: context.Context
  - principal: Principal

Returns:
  - Grant: Effective capabilities
  - error: Storage failures only
*/
func (engine *Engine) Grant(context context.Context, principal Principal) (Grant, error) {
	if principal.IsAdmin {
		return Resolve(principal, nil), nil
	}

	record, err := engine.permissionRepository.FindByArea(context, principal.Area)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Resolve(principal, nil), nil
		}
		return Grant{}, fmt.Errorf("access_engine_grant_failed: %w", err)
	}
	return Resolve(principal, record), nil
}

// CanAccessModule loads the grant and checks one module.
func (engine *Engine) CanAccessModule(context context.Context, principal Principal, module Module) (bool, error) {
	grant, err := engine.Grant(context, principal)
	if err != nil {
		return false, err
	}
	return grant.CanAccessModule(module), nil
}

// # Administration

// Service manages the stored area permissions.
type Service struct {
	permissionRepository PermissionRepository
	reportCatalog        ReportCatalog
	logger               *slog.Logger
}

// NewService constructs a new [Service].
func NewService(permissions PermissionRepository, catalog ReportCatalog, logger *slog.Logger) *Service {
	return &Service{
		permissionRepository: permissions,
		reportCatalog:        catalog,
		logger:               logger,
	}
}

/*
ListPermissions returns one record per known area.

Description: Stored rows win; areas without a row are filled from the
built-in defaults. Listing never writes.

Returns:
  - []AreaPermission: Records in [AllAreas] order
  - error: Storage failures
*/
func (service *Service) ListPermissions(context context.Context) ([]AreaPermission, error) {
	stored, err := service.permissionRepository.List(context)
	if err != nil {
		return nil, fmt.Errorf("access_service_list_failed: %w", err)
	}

	byArea := make(map[Area]AreaPermission, len(stored))
	for _, record := range stored {
		byArea[record.Area] = record
	}

	merged := make([]AreaPermission, 0, len(AllAreas()))
	for _, area := range AllAreas() {
		if record, ok := byArea[area]; ok {
			merged = append(merged, record)
			continue
		}
		merged = append(merged, DefaultPermission(area))
	}
	return merged, nil
}

// PermissionInput is one area edit as received from an admin.
type PermissionInput struct {
	Area      string   `json:"area"       validate:"required"`
	Modules   []string `json:"modules"`
	ReportIDs []string `json:"report_ids"`
	AllAccess bool     `json:"all_access"`
}

/*
SavePermissions validates and upserts a batch of area edits.

Description: Unknown areas or modules reject the whole batch. Enabling
allAccess also stores the full module list. Every report id must exist.

Parameters:
  - context: context.Context
  - inputs: []PermissionInput

Returns:
  - []AreaPermission: The records as stored
  - error: ValidationError or storage failures
*/
func (service *Service) SavePermissions(context context.Context, inputs []PermissionInput) ([]AreaPermission, error) {
	if len(inputs) == 0 {
		return nil, apperr.ValidationError("At least one area is required")
	}

	records := make([]AreaPermission, 0, len(inputs))
	var details []apperr.FieldError
	var reportIDs []string
	seen := map[Area]bool{}

	for index, input := range inputs {
		record, fieldErrors := parseInput(index, input)
		details = append(details, fieldErrors...)
		if len(fieldErrors) > 0 {
			continue
		}
		if seen[record.Area] {
			details = append(details, apperr.FieldError{Field: fmt.Sprintf("[%d].area", index), Message: "is duplicated"})
			continue
		}
		seen[record.Area] = true
		reportIDs = append(reportIDs, record.ReportIDs...)
		records = append(records, record)
	}

	if len(details) > 0 {
		return nil, apperr.ValidationError("Invalid area permissions", details...)
	}

	if err := service.checkReports(context, reportIDs); err != nil {
		return nil, err
	}

	if err := service.permissionRepository.Upsert(context, records); err != nil {
		return nil, fmt.Errorf("access_service_save_failed: %w", err)
	}

	for _, record := range records {
		service.logger.InfoContext(context, "area_permission_saved",
			slog.String("area", string(record.Area)),
			slog.Bool("all_access", record.AllAccess),
			slog.Int("modules", len(record.Modules)),
			slog.Int("reports", len(record.ReportIDs)),
		)
	}
	return records, nil
}

/*
EnsureDefaults inserts seed records for areas that have no stored row.

Description: Existing rows, including admin edits, are never touched.

Returns:
  - int64: Number of rows inserted
  - error: Storage failures
*/
func (service *Service) EnsureDefaults(context context.Context, seed []AreaPermission) (int64, error) {
	if len(seed) == 0 {
		seed = BuiltinDefaults()
	}

	inserted, err := service.permissionRepository.InsertMissing(context, seed)
	if err != nil {
		return 0, fmt.Errorf("access_service_ensure_defaults_failed: %w", err)
	}

	if inserted > 0 {
		service.logger.InfoContext(context, "area_permissions_seeded", slog.Int64("inserted", inserted))
	}
	return inserted, nil
}

func (service *Service) checkReports(context context.Context, ids []string) error {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	if len(ids) == 0 {
		return nil
	}

	existing, err := service.reportCatalog.ExistingIDs(context, ids)
	if err != nil {
		return fmt.Errorf("access_service_check_reports_failed: %w", err)
	}

	var details []apperr.FieldError
	for _, id := range ids {
		if !existing[id] {
			details = append(details, apperr.FieldError{Field: "report_ids", Message: fmt.Sprintf("report %s does not exist", id)})
		}
	}
	if len(details) > 0 {
		return apperr.ValidationError("Unknown report ids", details...)
	}
	return nil
}

func parseInput(index int, input PermissionInput) (AreaPermission, []apperr.FieldError) {
	var details []apperr.FieldError
	prefix := fmt.Sprintf("[%d]", index)

	area, err := ParseArea(input.Area)
	if err != nil {
		details = append(details, apperr.FieldError{Field: prefix + ".area", Message: err.Error()})
	}

	modules := make([]Module, 0, len(input.Modules))
	for _, name := range input.Modules {
		module, err := ParseModule(name)
		if err != nil {
			details = append(details, apperr.FieldError{Field: prefix + ".modules", Message: err.Error()})
			continue
		}
		if !slices.Contains(modules, module) {
			modules = append(modules, module)
		}
	}

	if input.AllAccess {
		modules = AllModules()
	}

	reportIDs := slices.Compact(slices.Sorted(slices.Values(input.ReportIDs)))
	if reportIDs == nil {
		reportIDs = []string{}
	}

	return AreaPermission{Area: area, Modules: modules, ReportIDs: reportIDs, AllAccess: input.AllAccess}, details
}
