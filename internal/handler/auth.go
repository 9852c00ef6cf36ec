package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/minibank/internal/auth"
	"github.com/josh-kwaku/minibank/internal/domain"
	"github.com/josh-kwaku/minibank/internal/logging"
	"github.com/josh-kwaku/minibank/internal/service"
)

type credentialService interface {
	Register(ctx context.Context, username, password string) (*domain.Account, error)
	AuthenticateLookup(ctx context.Context, username string) (*domain.AccountView, error)
}

type passwordVerifier interface {
	Compare(hash, plaintext string) error
}

type AuthHandler struct {
	accounts  credentialService
	passwords passwordVerifier
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(accounts credentialService, passwords passwordVerifier, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		passwords: passwords,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r credentialsRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

// ValidateRegistration adds the format rules that only apply to new accounts.
func (r credentialsRequest) ValidateRegistration() []FieldError {
	errs := r.Validate()
	if r.Username != "" && !domain.ValidUsername(service.NormalizeUsername(r.Username)) {
		errs = append(errs, FieldError{Field: "username", Message: "must be 3-32 characters of a-z, 0-9, '_', '.', '-'"})
	}
	if r.Password != "" && len(r.Password) < service.MinPasswordLength {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if len(r.Password) > service.MaxPasswordLength {
		errs = append(errs, FieldError{Field: "password", Message: "must be at most 72 bytes"})
	}
	return errs
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Account   accountRef `json:"account"`
}

type accountRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.ValidateRegistration(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, domain.ErrUsernameTaken) {
			logging.FromContext(r.Context()).Error("failed to register account", "error", err)
		}
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	view, err := h.accounts.AuthenticateLookup(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondAppError(w, ErrInvalidCredentials, nil)
			return
		}
		RespondDomainError(w, err)
		return
	}

	if err := h.passwords.Compare(view.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			logging.FromContext(r.Context()).Error("password verification failed", "error", err, "account_id", view.ID)
		}
		RespondAppError(w, ErrInvalidCredentials, nil)
		return
	}

	token, err := auth.GenerateToken(view, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(h.jwtExpiry),
		Account: accountRef{
			ID:       view.ID,
			Username: view.Username,
			Role:     string(view.Role),
		},
	})
}
