// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	requestutil "github.com/taibuivan/portal/internal/platform/request"
	"github.com/taibuivan/portal/internal/platform/respond"
)

// Handler implements the activity endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the caller-facing routes. They expect a principal on the context.
//
// # Endpoints
//   - POST /heartbeat : Refresh the caller's presence.
//   - POST /log       : Append an access log entry for the caller.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/heartbeat", handler.heartbeat)
	router.Post("/log", handler.log)
	return router
}

// AdminRoutes returns the activity overview route.
//
// # Endpoints
//   - GET / : Recent access log and online users.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.overview)
	return router
}

type heartbeatRequest struct {
	Page string `json:"page"`
}

type logRequest struct {
	Action string `json:"action"`
	Page   string `json:"page"`
}

func (handler *Handler) heartbeat(writer http.ResponseWriter, request *http.Request) {
	principal := access.PrincipalFrom(request.Context())
	if principal == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	var input heartbeatRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Heartbeat(request.Context(), principal.UserID, input.Page); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
log appends an entry for the caller.

POST /api/v1/activity/log

Request:
  - Body: logRequest

Response:
  - 204: Stored
  - 400: VALIDATION_ERROR: Missing action
*/
func (handler *Handler) log(writer http.ResponseWriter, request *http.Request) {
	principal := access.PrincipalFrom(request.Context())
	if principal == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	var input logRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Record(request.Context(), principal.UserID, input.Action, input.Page); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) overview(writer http.ResponseWriter, request *http.Request) {
	overview, err := handler.service.Overview(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, overview)
}
