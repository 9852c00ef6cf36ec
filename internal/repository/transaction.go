package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/minibank/internal/domain"
)

const transactionColumns = `id, account_id, type, amount, description, counterparty,
	balance_after, created_at`

// TransactionRepository is append-only: there is no update or delete.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, account_id, type, amount, description, counterparty,
			balance_after, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.AccountID, t.Type, t.Amount, t.Description, t.Counterparty,
		t.BalanceAfter, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", classify(err))
	}
	return nil
}

// GetByAccountID returns the account's transactions oldest first together
// with the total count. A non-positive limit returns every row.
func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: count: %w", classify(err))
	}

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY created_at, seq LIMIT $2 OFFSET $3`,
		accountID, limitArg, max(offset, 0),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", classify(err))
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("GetByAccountID: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: rows: %w", classify(err))
	}
	return txns, total, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Description, &t.Counterparty,
		&t.BalanceAfter, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
