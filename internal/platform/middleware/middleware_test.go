// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/middleware"
	"github.com/taibuivan/portal/internal/platform/sec"
)

type stubVerifier struct {
	claims *sec.AuthClaims
	err    error
	seen   string
}

func (v *stubVerifier) Authenticate(_ context.Context, token string) (*sec.AuthClaims, error) {
	v.seen = token
	return v.claims, v.err
}

func decodeCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	code, _ := body[constants.FieldCode].(string)
	return code
}

/*
TestAuthenticate covers anonymous, malformed, rejected and accepted bearers.
*/
func TestAuthenticate(t *testing.T) {
	var captured *sec.AuthClaims
	next := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		captured = ctxutil.GetAuthUser(request.Context())
		writer.WriteHeader(http.StatusOK)
	})

	t.Run("anonymous", func(t *testing.T) {
		captured = nil
		verifier := &stubVerifier{}
		recorder := httptest.NewRecorder()
		middleware.Authenticate(verifier)(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Nil(t, captured)
		assert.Empty(t, verifier.seen)
	})

	t.Run("malformed", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Token abc")
		recorder := httptest.NewRecorder()
		middleware.Authenticate(&stubVerifier{})(next).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeCode(t, recorder))
	})

	t.Run("rejected", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Bearer revoked")
		recorder := httptest.NewRecorder()
		middleware.Authenticate(&stubVerifier{err: errors.New("session revoked")})(next).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("accepted", func(t *testing.T) {
		captured = nil
		verifier := &stubVerifier{claims: &sec.AuthClaims{UserID: "user-1", SessionID: "s-1"}}
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "bearer good-token")
		recorder := httptest.NewRecorder()
		middleware.Authenticate(verifier)(next).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "good-token", verifier.seen)
		require.NotNil(t, captured)
		assert.Equal(t, "user-1", captured.UserID)
	})
}

/*
TestRequireAuth blocks anonymous requests.
*/
func TestRequireAuth(t *testing.T) {
	handler := middleware.RequireAuth(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "u"}))
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

/*
TestRequestID propagates a client supplied ID and generates one otherwise.
*/
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "client-id")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, "client-id", seen)
	assert.Equal(t, "client-id", recorder.Header().Get(constants.HeaderXRequestID))

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "client-id", seen)

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "forged\nlevel=ERROR")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.NotContains(t, seen, "forged")
}

type corsConfig struct {
	dev    bool
	suffix string
}

func (c corsConfig) IsDevelopment() bool         { return c.dev }
func (c corsConfig) AllowedOriginSuffix() string { return c.suffix }

/*
TestCORS allows matching origins in production and short-circuits pre-flight.
*/
func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	handler := middleware.CORS(corsConfig{suffix: "empresa.com.br"})(next)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Origin", "https://portal.empresa.com.br")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, "https://portal.empresa.com.br", recorder.Header().Get("Access-Control-Allow-Origin"))

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Origin", "https://evil.example")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Origin", "https://fakeempresa.com.br")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))

	request = httptest.NewRequest(http.MethodOptions, "/", nil)
	request.Header.Set("Origin", "https://portal.empresa.com.br")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

/*
TestLimitByIP rejects requests over the window limit with RATE_LIMITED.
*/
func TestLimitByIP(t *testing.T) {
	handler := middleware.ClientIP(nil)(middleware.LimitByIP(2, time.Minute)(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		request := httptest.NewRequest(http.MethodPost, "/login", nil)
		request.RemoteAddr = "203.0.113.7:40000"
		// A different forged address on every attempt must not reset the window.
		request.Header.Set(constants.HeaderXForwardedFor, fmt.Sprintf("198.51.100.%d", i))
		request.Header.Set(constants.HeaderXRealIP, fmt.Sprintf("198.51.100.%d", i))
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, request)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "RATE_LIMITED", decodeCode(t, last))

	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "203.0.113.8:40000"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, other)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestClientIP believes forwarding headers only from trusted proxies.
*/
func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name      string
		trusted   []netip.Prefix
		peer      string
		forwarded []string
		realIP    string
		expected  string
	}{
		{name: "no proxies configured", peer: "203.0.113.7:1234", forwarded: []string{"198.51.100.1"}, realIP: "198.51.100.2", expected: "203.0.113.7"},
		{name: "untrusted peer", trusted: trusted, peer: "203.0.113.7:1234", forwarded: []string{"198.51.100.1"}, expected: "203.0.113.7"},
		{name: "trusted peer", trusted: trusted, peer: "10.0.0.5:1234", forwarded: []string{"198.51.100.1"}, expected: "198.51.100.1"},
		{name: "forged leftmost hop", trusted: trusted, peer: "10.0.0.5:1234", forwarded: []string{"1.2.3.4, 198.51.100.1"}, expected: "198.51.100.1"},
		{name: "proxy chain", trusted: trusted, peer: "10.0.0.5:1234", forwarded: []string{"198.51.100.1, 10.0.0.9", "10.0.0.7"}, expected: "198.51.100.1"},
		{name: "garbage hop", trusted: trusted, peer: "10.0.0.5:1234", forwarded: []string{"not-an-ip"}, expected: "10.0.0.5"},
		{name: "real ip from trusted peer", trusted: trusted, peer: "10.0.0.5:1234", realIP: "198.51.100.3", expected: "198.51.100.3"},
		{name: "real ip from untrusted peer", trusted: trusted, peer: "203.0.113.7:1234", realIP: "198.51.100.3", expected: "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := middleware.ClientIP(tt.trusted)(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
				seen = middleware.RealIP(request)
			}))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.peer
			for _, value := range tt.forwarded {
				request.Header.Add(constants.HeaderXForwardedFor, value)
			}
			if tt.realIP != "" {
				request.Header.Set(constants.HeaderXRealIP, tt.realIP)
			}
			handler.ServeHTTP(httptest.NewRecorder(), request)

			assert.Equal(t, tt.expected, seen)
		})
	}
}

/*
TestRealIP_IgnoresHeadersWithoutClientIP falls back to the socket peer.
*/
func TestRealIP_IgnoresHeadersWithoutClientIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "203.0.113.7:1234"
	request.Header.Set(constants.HeaderXRealIP, "198.51.100.2")

	assert.Equal(t, "203.0.113.7", middleware.RealIP(request))
}

/*
TestSecureHeaders sets the hardening headers.
*/
func TestSecureHeaders(t *testing.T) {
	handler := middleware.SecureHeaders(false)(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", recorder.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", recorder.Header().Get("X-Content-Type-Options"))
}

/*
TestPanicRecovery converts a panic into a JSON 500.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(ctxutil.GetLogger(context.Background()))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeCode(t, recorder))
}
