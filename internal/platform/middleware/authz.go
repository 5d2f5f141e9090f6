// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the portal API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, Authentication, Rate Limiting, security headers and CORS.
//
// Authorization decisions that depend on account state (status, roles,
// forced password change) are not made here; the account gate owns them.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/respond"
	"github.com/taibuivan/portal/internal/platform/sec"
)

// TokenVerifier authenticates a bearer token.
//
// The identity service implements it by checking the signature and then
// confirming the session behind the token has not been revoked.
type TokenVerifier interface {
	Authenticate(ctx context.Context, token string) (*sec.AuthClaims, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// ok is false when the header is absent; a malformed header returns an error.
func BearerToken(request *http.Request) (token string, ok bool, err error) {
	authHeader := request.Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", true, apperr.Unauthorized("Invalid authorization format")
	}
	return parts[1], true, nil
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, verify the token and its session via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context and tag the
//     request logger with the user id.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Anonymous Access / Format Validation ───────────────────────
			token, present, err := BearerToken(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}
			if !present {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token + Session Verification ───────────────────────────────
			claims, err := verifier.Authenticate(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			ctx = ctxutil.EnrichLogger(ctx, slog.String("user_id", claims.UserID))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
