package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/minibank/internal/auth"
	"github.com/josh-kwaku/minibank/internal/handler"
	"github.com/josh-kwaku/minibank/internal/logging"
	"github.com/josh-kwaku/minibank/internal/repository"
)

const maxIdempotencyKeyLength = 255

type idempotencyRepository interface {
	Get(ctx context.Context, key string, accountID uuid.UUID) (*repository.IdempotencyCacheEntry, error)
	Claim(ctx context.Context, entry *repository.IdempotencyCacheEntry) (bool, error)
	Complete(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
	Release(ctx context.Context, key string, accountID uuid.UUID) error
}

// Idempotency replays the stored response for a repeated Idempotency-Key from
// the same account, so a retried deposit or transfer is applied once. The key
// is claimed before the handler runs; a duplicate arriving while the first
// request is in flight gets 409. Server errors release the claim so the key
// may be retried.
func Idempotency(repo idempotencyRepository, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}
			if len(key) > maxIdempotencyKeyLength {
				handler.RespondValidationError(w, []handler.FieldError{{Field: "Idempotency-Key", Message: "must be at most 255 characters"}})
				return
			}

			accountID, ok := auth.AccountIDFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)
			log := logging.FromContext(r.Context()).With("idempotency_key", key)

			now := time.Now().UTC()
			entry := &repository.IdempotencyCacheEntry{
				Key:         key,
				AccountID:   accountID,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(ttl),
			}

			claimed, err := repo.Claim(r.Context(), entry)
			if err != nil {
				log.Error("idempotency claim failed", "error", err)
				handler.RespondDomainError(w, err)
				return
			}
			if !claimed {
				replay(w, r, repo, entry, log)
				return
			}

			// Bookkeeping after the handler must survive a client disconnect.
			bg := context.WithoutCancel(r.Context())
			settled := false
			defer func() {
				if settled {
					return
				}
				if err := repo.Release(bg, key, accountID); err != nil {
					log.Error("idempotency release failed", "error", err)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError {
				return
			}

			// The ledger effect has happened; from here the claim is never
			// released, even if storing the response fails.
			settled = true
			entry.StatusCode = rec.statusCode
			entry.ResponseBody = rec.body.Bytes()
			if err := repo.Complete(bg, entry); err != nil {
				log.Error("idempotency cache store failed", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, repo idempotencyRepository, claim *repository.IdempotencyCacheEntry, log *slog.Logger) {
	cached, err := repo.Get(r.Context(), claim.Key, claim.AccountID)
	if err != nil {
		log.Error("idempotency cache lookup failed", "error", err)
		handler.RespondDomainError(w, err)
		return
	}

	switch {
	case cached == nil || cached.Pending():
		// nil means the holder released its claim between our insert and read.
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
	case cached.RequestHash != claim.RequestHash:
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Idempotent-Replayed", "true")
		w.WriteHeader(cached.StatusCode)
		if _, err := w.Write(cached.ResponseBody); err != nil {
			log.Error("failed to write idempotent replay", "error", err)
		}
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
