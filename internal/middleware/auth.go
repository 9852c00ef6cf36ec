package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/minibank/internal/auth"
	"github.com/josh-kwaku/minibank/internal/handler"
	"github.com/josh-kwaku/minibank/internal/logging"
)

// Auth verifies the bearer token and attaches the caller's principal and an
// account-scoped logger to the request context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Debug("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), auth.Principal{
				AccountID: claims.AccountID,
				Username:  claims.Username,
				Role:      string(claims.Role),
			})
			ctx = logging.With(ctx, "account_id", claims.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
