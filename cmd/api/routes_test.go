package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/minibank/internal/config"
)

func TestRoutes_ProtectedEndpointsRequireToken(t *testing.T) {
	h := routes(routeDeps{cfg: &config.Config{JWTSecret: "secret", JWTExpiry: time.Hour, IdempotencyTTL: time.Hour}})

	for _, target := range []string{
		"GET /api/v1/accounts/me",
		"GET /api/v1/accounts/me/transactions",
		"POST /api/v1/accounts/me/deposit",
		"POST /api/v1/accounts/me/withdraw",
		"POST /api/v1/accounts/me/transfer",
	} {
		method, path, _ := strings.Cut(target, " ")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"), target)
	}
}

func TestRoutes_PublicEndpoints(t *testing.T) {
	h := routes(routeDeps{cfg: &config.Config{JWTSecret: "secret"}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "openapi:")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/me", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
