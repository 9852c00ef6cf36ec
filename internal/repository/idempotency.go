package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyCacheEntry is a stored response keyed by Idempotency-Key and the
// authenticated account that sent it. A StatusCode of 0 marks a claim whose
// request is still being processed.
type IdempotencyCacheEntry struct {
	Key          string
	AccountID    uuid.UUID
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (e *IdempotencyCacheEntry) Pending() bool {
	return e.StatusCode == 0
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string, accountID uuid.UUID) (*IdempotencyCacheEntry, error) {
	var e IdempotencyCacheEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, account_id, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_cache
		WHERE idempotency_key = $1 AND account_id = $2 AND expires_at > now()`,
		key, accountID,
	).Scan(&e.Key, &e.AccountID, &e.RequestHash, &e.StatusCode, &e.ResponseBody, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", classify(err))
	}
	return &e, nil
}

// Claim inserts a pending row for the key, taking over an expired one. It
// reports false when a live row already exists, so exactly one of several
// concurrent requests with the same key wins.
func (r *IdempotencyRepository) Claim(ctx context.Context, entry *IdempotencyCacheEntry) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_cache (idempotency_key, account_id, request_hash, status_code, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, 0, ''::bytea, $4, $5)
		ON CONFLICT (idempotency_key, account_id) DO UPDATE
			SET request_hash = EXCLUDED.request_hash,
				status_code = 0,
				response_body = ''::bytea,
				created_at = EXCLUDED.created_at,
				expires_at = EXCLUDED.expires_at
			WHERE idempotency_cache.expires_at <= now()`,
		entry.Key, entry.AccountID, entry.RequestHash, entry.CreatedAt, entry.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("Claim: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Claim: rows affected: %w", err)
	}
	return n == 1, nil
}

// Complete stores the final response on a claimed row.
func (r *IdempotencyRepository) Complete(ctx context.Context, entry *IdempotencyCacheEntry) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE idempotency_cache SET status_code = $3, response_body = $4
		WHERE idempotency_key = $1 AND account_id = $2 AND status_code = 0`,
		entry.Key, entry.AccountID, entry.StatusCode, entry.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", classify(err))
	}
	return nil
}

// Release drops a pending claim so the key can be retried.
func (r *IdempotencyRepository) Release(ctx context.Context, key string, accountID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache WHERE idempotency_key = $1 AND account_id = $2 AND status_code = 0`,
		key, accountID,
	)
	if err != nil {
		return fmt.Errorf("Release: %w", classify(err))
	}
	return nil
}

func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: rows affected: %w", err)
	}
	return n, nil
}
