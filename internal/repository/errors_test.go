package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/minibank/internal/domain"
)

func TestClassify(t *testing.T) {
	plain := errors.New("boom")

	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantRaw bool
	}{
		{
			name:   "duplicate username",
			err:    &pq.Error{Code: "23505", Constraint: "accounts_username_key"},
			wantIs: domain.ErrUsernameTaken,
		},
		{
			name:   "other unique violation",
			err:    &pq.Error{Code: "23505", Constraint: "transactions_pkey"},
			wantIs: domain.ErrConflict,
		},
		{
			name:   "negative balance check",
			err:    &pq.Error{Code: "23514", Constraint: "accounts_balance_check"},
			wantIs: domain.ErrConflict,
		},
		{
			name:   "serialization failure",
			err:    &pq.Error{Code: "40001"},
			wantIs: domain.ErrConflict,
		},
		{
			name:   "deadlock",
			err:    &pq.Error{Code: "40P01"},
			wantIs: domain.ErrConflict,
		},
		{
			name:   "connection failure",
			err:    &pq.Error{Code: "08006"},
			wantIs: domain.ErrStorageUnavailable,
		},
		{
			name:   "bad driver connection",
			err:    fmt.Errorf("exec: %w", driver.ErrBadConn),
			wantIs: domain.ErrStorageUnavailable,
		},
		{
			name:   "closed connection",
			err:    sql.ErrConnDone,
			wantIs: domain.ErrStorageUnavailable,
		},
		{
			name:    "unrelated error passes through",
			err:     plain,
			wantRaw: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err)
			if tc.wantRaw {
				assert.Same(t, tc.err, got)
				return
			}
			assert.ErrorIs(t, got, tc.wantIs)
		})
	}

	assert.NoError(t, classify(nil))
}
