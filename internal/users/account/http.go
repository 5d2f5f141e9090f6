// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/middleware"
	requestutil "github.com/taibuivan/portal/internal/platform/request"
	"github.com/taibuivan/portal/internal/platform/respond"
	"github.com/taibuivan/portal/internal/users/identity"
	"github.com/taibuivan/portal/pkg/pagination"
)

// Handler implements the HTTP layer for sign-up, sessions and accounts.
type Handler struct {
	accountService *Service
	gate           *Gate
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, gate *Gate) *Handler {
	return &Handler{accountService: service, gate: gate}
}

// AuthRoutes returns the authentication routes.
//
// # Endpoints
//   - POST /signup          : Registers a pending account.
//   - POST /login           : Signs in with a registration code.
//   - POST /refresh         : Rotates the refresh token cookie.
//   - POST /forgot-password : Mails a new credential.
//   - POST /logout          : Revokes the current session.
//   - POST /change-password : Replaces the caller's credential.
func (handler *Handler) AuthRoutes() chi.Router {
	router := chi.NewRouter()

	// Credential endpoints get a tight per-IP budget
	router.Group(func(r chi.Router) {
		r.Use(middleware.LimitByIP(constants.CredentialRateLimit, constants.CredentialRateWindow))
		r.Post("/signup", handler.signUp)
		r.Post("/login", handler.login)
		r.Post("/forgot-password", handler.forgotPassword)
	})

	router.Post("/refresh", handler.refresh)

	// Lifecycle-checked endpoints. No forced-change check here: these are
	// the way out of it.
	router.Group(func(r chi.Router) {
		r.Use(handler.gate.Resolve)
		r.Post("/logout", handler.logout)
		r.Post("/change-password", handler.changePassword)
	})

	return router
}

// AdminRoutes returns the account administration routes.
//
// # Endpoints
//   - GET / : Paginated account list, newest first.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listAccounts)
	return router
}

// # Request Payloads

type signUpRequest struct {
	RegistrationCode string `json:"registration_code"`
	Name             string `json:"name"`
	Title            string `json:"title"`
	Email            string `json:"email"`
	Company          string `json:"company"`
	Phone            string `json:"phone"`
	Area             string `json:"area"`
}

type loginRequest struct {
	RegistrationCode string `json:"registration_code"`
	Password         string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

type sessionResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   time.Duration `json:"expires_in"`
	User        View          `json:"user"`
}

/*
signUp registers a pending account.

POST /api/v1/auth/signup

Request:
  - Body: signUpRequest

Response:
  - 201: Profile (status pending)
  - 400: VALIDATION_ERROR: Bad code, phone, email or area
  - 409: CONFLICT: Registration code already registered
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input signUpRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.SignUp(request.Context(), SignUpInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, profile)
}

/*
login signs in and sets the refresh token cookie.

POST /api/v1/auth/login

Response:
  - 200: sessionResponse
  - 401: UNAUTHORIZED: Invalid credentials
  - 403: ACCOUNT_PENDING_APPROVAL or ACCOUNT_BLOCKED
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.accountService.Login(request.Context(),
		input.RegistrationCode, input.Password, request.UserAgent(), middleware.RealIP(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, result.Session)
	respond.OK(writer, newSessionResponse(result))
}

/*
refresh rotates the session behind the refresh token cookie.

POST /api/v1/auth/refresh

Response:
  - 200: sessionResponse
  - 401: UNAUTHORIZED: Missing, replayed or expired refresh token
  - 403: ACCOUNT_BLOCKED or ACCOUNT_PENDING_APPROVAL
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	result, err := handler.accountService.Refresh(request.Context(),
		cookie.Value, request.UserAgent(), middleware.RealIP(request))
	if err != nil {
		clearRefreshCookie(writer)
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, result.Session)
	respond.OK(writer, newSessionResponse(result))
}

/*
forgotPassword mails a new credential to the owner of an email address.

POST /api/v1/auth/forgot-password

Response:
  - 200: Confirmation message
  - 404: NOT_FOUND: No single account uses this email
  - 502: NOTIFICATION_FAILED: Credential rotated but not delivered
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest
	if err := requestutil.DecodeValid(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.ForgotPassword(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{
		constants.FieldMessage: "A new password was sent to your email",
	})
}

/*
logout revokes the current session and clears the refresh cookie.

POST /api/v1/auth/logout

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	principal := access.PrincipalFrom(request.Context())
	if err := handler.accountService.Logout(request.Context(), *principal); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
changePassword replaces the caller's credential.

POST /api/v1/auth/change-password

Response:
  - 204: No Content
  - 400: VALIDATION_ERROR: Password policy violation
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	var input changePasswordRequest
	if err := requestutil.DecodeValid(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal := access.PrincipalFrom(request.Context())
	if err := handler.accountService.ChangePassword(request.Context(), *principal, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
Me returns the caller's own account.

GET /api/v1/me

Response:
  - 200: View
*/
func (handler *Handler) Me(writer http.ResponseWriter, request *http.Request) {
	principal := access.PrincipalFrom(request.Context())
	if principal == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	view, err := handler.accountService.Me(request.Context(), *principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

func (handler *Handler) listAccounts(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	views, total, err := handler.accountService.ListProfiles(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, views, pagination.NewMeta(params.Page, params.Limit, total))
}

// # Cookies

func newSessionResponse(result *LoginResult) sessionResponse {
	return sessionResponse{
		AccessToken: result.Session.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   identity.AccessTokenTTL / time.Second,
		User:        result.Account,
	}
}

func setRefreshCookie(writer http.ResponseWriter, session *identity.AuthSession) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    session.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  session.RefreshTokenExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
