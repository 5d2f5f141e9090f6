// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reports

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	requestutil "github.com/taibuivan/portal/internal/platform/request"
	"github.com/taibuivan/portal/internal/platform/respond"
)

// Handler implements the report link endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the serving routes. They expect a principal on the context.
//
// # Endpoints
//   - GET /     : Links visible to the caller.
//   - GET /{id} : One visible link.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listVisible)
	router.Get("/{id}", handler.getVisible)
	return router
}

// AdminRoutes returns the catalog management routes.
//
// # Endpoints
//   - GET    /     : Whole catalog, inactive links included.
//   - POST   /     : Create a link.
//   - PUT    /{id} : Edit a link.
//   - DELETE /{id} : Delete a link.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listAll)
	router.Post("/", handler.create)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)
	return router
}

func (handler *Handler) listVisible(writer http.ResponseWriter, request *http.Request) {
	principal := access.PrincipalFrom(request.Context())
	if principal == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	visible, err := handler.service.ListVisible(request.Context(), *principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, visible)
}

func (handler *Handler) getVisible(writer http.ResponseWriter, request *http.Request) {
	principal := access.PrincipalFrom(request.Context())
	if principal == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	report, err := handler.service.GetVisible(request.Context(), *principal, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, report)
}

func (handler *Handler) listAll(writer http.ResponseWriter, request *http.Request) {
	catalog, err := handler.service.ListAll(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, catalog)
}

/*
create adds a link.

POST /api/v1/admin/reports

Request:
  - Body: Input (title and url required)

Response:
  - 201: Report
  - 400: VALIDATION_ERROR
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input Input
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	report, err := handler.service.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, report)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input Input
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	report, err := handler.service.Update(request.Context(), requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, report)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
