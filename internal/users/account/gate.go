// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/portal/internal/platform/request"
	"github.com/taibuivan/portal/internal/platform/respond"
	"github.com/taibuivan/portal/internal/platform/sec"
)

// PrincipalResolver loads the lifecycle-checked principal behind token claims.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, claims *sec.AuthClaims) (*access.Principal, error)
}

// Gate is the per-request lifecycle check.
//
// # Usage
//
// Must be registered AFTER [middleware.Authenticate]. Handlers behind it read
// the principal with [access.PrincipalFrom].
type Gate struct {
	resolver PrincipalResolver
}

// NewGate constructs a new [Gate].
func NewGate(resolver PrincipalResolver) *Gate {
	return &Gate{resolver: resolver}
}

// Resolve rejects anonymous, pending, blocked and deleted callers and
// attaches the principal to the request context.
func (gate *Gate) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims, err := requestutil.RequiredClaims(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		principal, err := gate.resolver.ResolvePrincipal(request.Context(), claims)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		ctx := access.WithPrincipal(request.Context(), principal)
		ctx = ctxutil.EnrichLogger(ctx, slog.Bool("admin", principal.IsAdmin))
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// RequirePasswordCurrent blocks principals that still have to change their password.
// Routes the flagged user needs to get out of that state stay outside of it.
func RequirePasswordCurrent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := access.PrincipalFrom(request.Context())
		if principal == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		if principal.MustChangePassword {
			respond.Error(writer, request, apperr.PasswordChangeRequired())
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAdmin blocks principals without the admin role.
// The role was read from the store by [Gate.Resolve] for this very request.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := access.PrincipalFrom(request.Context())
		if principal == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		if !principal.IsAdmin {
			ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "admin_route_denied",
				slog.String("path", request.URL.Path))
			respond.Error(writer, request, apperr.Forbidden("Administrator role required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
