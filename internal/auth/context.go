package auth

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	AccountID uuid.UUID
	Username  string
	Role      string
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return p.AccountID, true
}
