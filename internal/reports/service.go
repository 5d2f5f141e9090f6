// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/validate"
	"github.com/taibuivan/portal/pkg/pointer"
	"github.com/taibuivan/portal/pkg/uuid"
)

// GrantResolver computes the capabilities of a principal.
type GrantResolver interface {
	Grant(ctx context.Context, principal access.Principal) (access.Grant, error)
}

// Service serves and administers report links.
type Service struct {
	repository Repository
	grants     GrantResolver
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a new [Service].
func NewService(repository Repository, grants GrantResolver, logger *slog.Logger) *Service {
	return &Service{repository: repository, grants: grants, logger: logger, now: time.Now}
}

// # Serving

/*
ListVisible returns the links principal may open, in display order.

Description: Reports live in the powerbi module, so a principal without it
is refused outright, even when its area lists report ids. This gate belongs
to the serving path only; [access.VisibleReports] filters by report ids and
knows nothing about modules. Past the gate the catalog is filtered by the
grant and inactive links are dropped for everyone.

Parameters:
  - context: context.Context
  - principal: access.Principal

Returns:
  - []Report: Visible links
  - error: Forbidden or storage failures
*/
func (service *Service) ListVisible(context context.Context, principal access.Principal) ([]Report, error) {
	grant, err := service.reportGrant(context, principal)
	if err != nil {
		return nil, err
	}

	catalog, err := service.repository.List(context)
	if err != nil {
		return nil, fmt.Errorf("report_service_list_failed: %w", err)
	}
	return access.VisibleReports(grant, catalog), nil
}

// GetVisible returns one link if principal may open it. Links it may not see are reported as missing.
func (service *Service) GetVisible(context context.Context, principal access.Principal, id string) (*Report, error) {
	grant, err := service.reportGrant(context, principal)
	if err != nil {
		return nil, err
	}

	report, err := service.find(context, id)
	if err != nil {
		return nil, err
	}
	if !grant.CanViewReport(report) {
		return nil, apperr.NotFound("Report")
	}
	return report, nil
}

func (service *Service) reportGrant(context context.Context, principal access.Principal) (access.Grant, error) {
	grant, err := service.grants.Grant(context, principal)
	if err != nil {
		return access.Grant{}, err
	}
	if !grant.CanAccessModule(access.ModulePowerBI) {
		return access.Grant{}, apperr.Forbidden("Reports are not enabled for your area")
	}
	return grant, nil
}

// # Administration

// ListAll returns the whole catalog, inactive links included.
func (service *Service) ListAll(context context.Context) ([]Report, error) {
	catalog, err := service.repository.List(context)
	if err != nil {
		return nil, fmt.Errorf("report_service_list_all_failed: %w", err)
	}
	return catalog, nil
}

/*
Create adds a link to the catalog.

Description: Title and URL are required; the URL must be absolute http(s).
New links are active unless the input says otherwise.

Returns:
  - *Report: The stored link
  - error: ValidationError or storage failures
*/
func (service *Service) Create(context context.Context, input Input) (*Report, error) {
	if input.Title == nil {
		input.Title = pointer.To("")
	}
	if input.URL == nil {
		input.URL = pointer.To("")
	}

	now := service.now()
	report := &Report{ID: uuid.New(), Active: true, CreatedAt: now, UpdatedAt: now}
	if err := apply(report, input); err != nil {
		return nil, err
	}

	if err := service.repository.Create(context, report); err != nil {
		return nil, fmt.Errorf("report_service_create_failed: %w", err)
	}

	service.logger.InfoContext(context, "report_created",
		slog.String("report_id", report.ID),
		slog.String("title", report.Title),
	)
	return report, nil
}

// Update applies the set fields of input to an existing link.
func (service *Service) Update(context context.Context, id string, input Input) (*Report, error) {
	report, err := service.find(context, id)
	if err != nil {
		return nil, err
	}

	if err := apply(report, input); err != nil {
		return nil, err
	}
	report.UpdatedAt = service.now()

	if err := service.repository.Update(context, report); err != nil {
		return nil, fmt.Errorf("report_service_update_failed: %w", err)
	}

	service.logger.InfoContext(context, "report_updated",
		slog.String("report_id", report.ID),
		slog.Bool("active", report.Active),
	)
	return report, nil
}

// Delete removes a link from the catalog.
func (service *Service) Delete(context context.Context, id string) error {
	if _, err := service.find(context, id); err != nil {
		return err
	}
	if err := service.repository.Delete(context, id); err != nil {
		return fmt.Errorf("report_service_delete_failed: %w", err)
	}

	service.logger.InfoContext(context, "report_deleted", slog.String("report_id", id))
	return nil
}

// ExistingIDs lets the access service check report ids without knowing the catalog.
func (service *Service) ExistingIDs(context context.Context, ids []string) (map[string]bool, error) {
	return service.repository.ExistingIDs(context, ids)
}

func (service *Service) find(context context.Context, id string) (*Report, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("Report")
	}

	report, err := service.repository.FindByID(context, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Report")
		}
		return nil, fmt.Errorf("report_service_find_failed: %w", err)
	}
	return report, nil
}

// apply validates input and copies its set fields onto report.
func apply(report *Report, input Input) error {
	validator := &validate.Validator{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		validator.Required(FieldTitle, title).MaxLen(FieldTitle, title, MaxTitleLength)
		report.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		validator.MaxLen(FieldDescription, description, MaxDescriptionLength)
		report.Description = description
	}
	if input.URL != nil {
		url := strings.TrimSpace(*input.URL)
		validator.Required(FieldURL, url).HTTPURL(FieldURL, url).MaxLen(FieldURL, url, MaxURLLength)
		report.URL = url
	}
	if input.Icon != nil {
		icon := strings.TrimSpace(*input.Icon)
		validator.MaxLen(FieldIcon, icon, MaxIconLength)
		report.Icon = icon
	}
	if input.Order != nil {
		validator.Custom(FieldOrder, *input.Order < 0, "Must not be negative")
		report.Order = *input.Order
	}
	if input.Active != nil {
		report.Active = *input.Active
	}

	return validator.Err()
}
