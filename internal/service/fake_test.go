package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/minibank/internal/domain"
)

// fakeLedgerStore stands in for Postgres. WithTx holds an exclusive lock for
// the whole unit of work and restores a snapshot when fn fails, which mirrors
// row locking plus rollback closely enough for service-level tests.
type fakeLedgerStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	accounts map[uuid.UUID]domain.Account
	txns     []domain.Transaction

	failTxnCreate int
	txnCreates    int
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{accounts: make(map[uuid.UUID]domain.Account)}
}

func (f *fakeLedgerStore) WithTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	accounts := maps.Clone(f.accounts)
	txns := append([]domain.Transaction(nil), f.txns...)
	f.mu.Unlock()

	if err := fn(nil); err != nil {
		f.mu.Lock()
		f.accounts, f.txns = accounts, txns
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeLedgerStore) Create(_ context.Context, account *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Username == account.Username {
			return domain.ErrUsernameTaken
		}
	}
	f.accounts[account.ID] = *account
	return nil
}

func (f *fakeLedgerStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	return &a, nil
}

func (f *fakeLedgerStore) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("GetByUsername: %w", domain.ErrNotFound)
}

func (f *fakeLedgerStore) GetForUpdate(ctx context.Context, _ *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeLedgerStore) UpdateBalance(_ context.Context, _ *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok || a.Version != newVersion-1 {
		return domain.ErrVersionConflict
	}
	a.Balance, a.Version = newBalance, newVersion
	f.accounts[id] = a
	return nil
}

func (f *fakeLedgerStore) balance(id uuid.UUID) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id].Balance
}

type fakeTransactionStore struct {
	*fakeLedgerStore
}

func (f fakeTransactionStore) Create(_ context.Context, _ *sql.Tx, t *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txnCreates++
	if f.failTxnCreate > 0 && f.txnCreates == f.failTxnCreate {
		return errors.New("disk full")
	}
	f.txns = append(f.txns, *t)
	return nil
}

func (f fakeTransactionStore) GetByAccountID(_ context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Transaction
	for _, t := range f.txns {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	total := len(out)
	if offset > 0 {
		out = out[min(offset, len(out)):]
	}
	if limit > 0 {
		out = out[:min(limit, len(out))]
	}
	return out, total, nil
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

type recordingPublisher struct {
	mu        sync.Mutex
	published []*domain.Transaction
	err       error
}

func (r *recordingPublisher) PublishTransactions(_ context.Context, txns ...*domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, txns...)
	return r.err
}
