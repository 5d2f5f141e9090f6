// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visits

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	requestutil "github.com/taibuivan/portal/internal/platform/request"
	"github.com/taibuivan/portal/internal/platform/respond"
	"github.com/taibuivan/portal/pkg/pagination"
)

// Handler implements the visit endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the visit routes. They expect a principal on the context.
//
// # Endpoints
//   - GET  / : The caller's visits, paginated.
//   - POST / : Record a visit.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	router.Post("/", handler.create)
	return router
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principal := access.PrincipalFrom(request.Context())
	if principal == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	params := pagination.FromRequest(request)
	visits, total, err := handler.service.List(request.Context(), principal.UserID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, visits, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
create records a visit for the caller.

POST /api/v1/visits

Request:
  - Body: Input

Response:
  - 201: Visit
  - 400: VALIDATION_ERROR: Missing location, bad date or signature
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	principal := access.PrincipalFrom(request.Context())
	if principal == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	var input Input
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	visit, err := handler.service.Create(request.Context(), principal.UserID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, visit)
}
