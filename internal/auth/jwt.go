package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/josh-kwaku/minibank/internal/domain"
)

const issuer = "minibank"

type Claims struct {
	AccountID uuid.UUID
	Username  string
	Role      domain.Role
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

func GenerateToken(view *domain.AccountView, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   view.ID.String(),
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: view.Username,
		Role:     string(view.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("ValidateToken: invalid token claims")
	}

	accountID, err := uuid.Parse(tc.Subject)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: invalid subject in token: %w", err)
	}
	if domain.Role(tc.Role) != domain.RoleUser {
		return nil, fmt.Errorf("ValidateToken: unknown role %q", tc.Role)
	}

	return &Claims{
		AccountID: accountID,
		Username:  tc.Username,
		Role:      domain.Role(tc.Role),
	}, nil
}
