// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visits

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/portal/internal/platform/validate"
	"github.com/taibuivan/portal/pkg/pagination"
	"github.com/taibuivan/portal/pkg/uuid"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// Service records and lists visits.
type Service struct {
	repository Repository
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a new [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

/*
Create records a visit for supervisorID.

Description: The date defaults to today (UTC). A signature, when present,
must be a PNG data URL that actually decodes to a PNG.

Parameters:
  - context: context.Context
  - supervisorID: string (the caller)
  - input: Input

Returns:
  - *Visit: The stored visit
  - error: ValidationError or storage failures
*/
func (service *Service) Create(context context.Context, supervisorID string, input Input) (*Visit, error) {
	now := service.now()
	location := strings.TrimSpace(input.Location)
	notes := strings.TrimSpace(input.Notes)
	signature := strings.TrimSpace(input.Signature)

	validator := &validate.Validator{}
	validator.Required(FieldLocation, location).MaxLen(FieldLocation, location, MaxLocationLength)
	validator.MaxLen(FieldNotes, notes, MaxNotesLength)

	visitDate := now.UTC().Truncate(24 * time.Hour)
	if raw := strings.TrimSpace(input.VisitDate); raw != "" {
		parsed, err := time.Parse(DateLayout, raw)
		validator.Custom(FieldVisitDate, err != nil, "Must be a date in YYYY-MM-DD format")
		visitDate = parsed
	}

	if signature != "" {
		validator.Custom(FieldSignature, len(signature) > MaxSignatureLength, "Signature image is too large")
		validator.Custom(FieldSignature, !isPNGDataURL(signature), "Must be a PNG data URL")
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	visit := &Visit{
		ID:           uuid.New(),
		SupervisorID: supervisorID,
		Location:     location,
		VisitDate:    visitDate,
		Notes:        notes,
		Signature:    signature,
		Status:       StatusCompleted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := service.repository.Create(context, visit); err != nil {
		return nil, fmt.Errorf("visit_service_create_failed: %w", err)
	}

	service.logger.InfoContext(context, "visit_recorded",
		slog.String("visit_id", visit.ID),
		slog.String("supervisor_id", supervisorID),
		slog.Bool("signed", signature != ""),
	)
	return visit, nil
}

// List returns one page of the caller's own visits.
func (service *Service) List(context context.Context, supervisorID string, params pagination.Params) ([]Visit, int, error) {
	visits, total, err := service.repository.ListBySupervisor(context, supervisorID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("visit_service_list_failed: %w", err)
	}
	return visits, total, nil
}

func isPNGDataURL(value string) bool {
	encoded, ok := strings.CutPrefix(value, SignaturePrefix)
	if !ok {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	return bytes.HasPrefix(decoded, pngMagic)
}
