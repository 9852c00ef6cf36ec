package main

import (
	"database/sql"
	"net/http"

	"github.com/josh-kwaku/minibank/api"
	"github.com/josh-kwaku/minibank/internal/auth"
	"github.com/josh-kwaku/minibank/internal/config"
	"github.com/josh-kwaku/minibank/internal/handler"
	"github.com/josh-kwaku/minibank/internal/middleware"
	"github.com/josh-kwaku/minibank/internal/repository"
	"github.com/josh-kwaku/minibank/internal/service"
)

type routeDeps struct {
	cfg       *config.Config
	db        *sql.DB
	ledger    *service.LedgerService
	hasher    *auth.BcryptHasher
	idemCache *repository.IdempotencyRepository
}

func routes(d routeDeps) http.Handler {
	health := handler.NewHealthHandler(d.db, version)
	authH := handler.NewAuthHandler(d.ledger, d.hasher, d.cfg.JWTSecret, d.cfg.JWTExpiry)
	accounts := handler.NewAccountHandler(d.ledger)

	authed := middleware.Auth(d.cfg.JWTSecret)
	idempotent := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.Idempotency(d.idemCache, d.cfg.IdempotencyTTL)(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeOpenAPI(api.OpenAPI))

	mux.HandleFunc("POST /api/v1/auth/register", authH.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authH.Login)

	mux.Handle("GET /api/v1/accounts/me", authed(http.HandlerFunc(accounts.Me)))
	mux.Handle("GET /api/v1/accounts/me/transactions", authed(http.HandlerFunc(accounts.History)))
	mux.Handle("POST /api/v1/accounts/me/deposit", idempotent(accounts.Deposit))
	mux.Handle("POST /api/v1/accounts/me/withdraw", idempotent(accounts.Withdraw))
	mux.Handle("POST /api/v1/accounts/me/transfer", idempotent(accounts.Transfer))

	return middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))
}
