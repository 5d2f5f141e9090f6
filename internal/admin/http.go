// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/middleware"
	requestutil "github.com/taibuivan/portal/internal/platform/request"
	"github.com/taibuivan/portal/internal/platform/respond"
)

// Handler exposes the gateway over HTTP.
type Handler struct {
	gateway *Gateway
}

// NewHandler constructs a new [Handler].
func NewHandler(gateway *Gateway) *Handler {
	return &Handler{gateway: gateway}
}

// Routes returns the gateway route.
//
// # Endpoints
//   - POST / : Executes one admin action.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.execute)
	return router
}

/*
execute runs an admin action.

POST /api/v1/admin-actions

Description: The bearer token is read here and handed to the gateway, which
authenticates it itself before the body is decoded. The success body is not
wrapped in the data envelope: {"success": true, ...}.

Response:
  - 200: Result
  - 400: BAD_REQUEST or VALIDATION_ERROR
  - 401: UNAUTHORIZED
  - 403: FORBIDDEN, ACCOUNT_BLOCKED or ACCOUNT_PENDING_APPROVAL
  - 404: NOT_FOUND: Target user
  - 500: UPSTREAM_FAILURE or PARTIAL_FAILURE
*/
func (handler *Handler) execute(writer http.ResponseWriter, request *http.Request) {
	token, present, err := middleware.BearerToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !present {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	caller, err := handler.gateway.Authorize(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Request
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.gateway.Run(request.Context(), caller, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.JSON(writer, http.StatusOK, result)
}
