// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/portal/internal/platform/apperr"
	requestutil "github.com/taibuivan/portal/internal/platform/request"
	"github.com/taibuivan/portal/internal/platform/respond"
)

// Handler implements the capability and area permission endpoints.
type Handler struct {
	engine  *Engine
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(engine *Engine, service *Service) *Handler {
	return &Handler{engine: engine, service: service}
}

// AdminRoutes returns the area permission management routes.
//
// # Endpoints
//   - GET / : Every known area with stored or default permissions.
//   - PUT / : Batch upsert of area permissions.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listPermissions)
	router.Put("/", handler.savePermissions)
	return router
}

type capabilitiesResponse struct {
	Admin     bool     `json:"admin"`
	AllAccess bool     `json:"all_access"`
	Area      Area     `json:"area"`
	Modules   []Module `json:"modules"`
}

/*
Capabilities reports what the caller may open.

GET /api/v1/me/capabilities

Response:
  - 200: capabilitiesResponse
  - 401: ErrUnauthorized: No principal on the request
*/
func (handler *Handler) Capabilities(writer http.ResponseWriter, request *http.Request) {
	principal := PrincipalFrom(request.Context())
	if principal == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	grant, err := handler.engine.Grant(request.Context(), *principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, capabilitiesResponse{
		Admin:     grant.IsAdmin(),
		AllAccess: grant.AllAccess(),
		Area:      principal.Area,
		Modules:   grant.Modules(),
	})
}

func (handler *Handler) listPermissions(writer http.ResponseWriter, request *http.Request) {
	records, err := handler.service.ListPermissions(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, records)
}

type savePermissionsRequest struct {
	Areas []PermissionInput `json:"areas" validate:"required,min=1,dive"`
}

/*
savePermissions stores a batch of area edits.

PUT /api/v1/admin/permissions

Request:
  - Body: savePermissionsRequest

Response:
  - 200: []AreaPermission as stored
  - 400: VALIDATION_ERROR: Unknown area, module or report id
*/
func (handler *Handler) savePermissions(writer http.ResponseWriter, request *http.Request) {
	var input savePermissionsRequest
	if err := requestutil.DecodeValid(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	records, err := handler.service.SavePermissions(request.Context(), input.Areas)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, records)
}
