// Package events publishes ledger activity to downstream consumers after it
// has been committed. Publishing is best effort: the database is the record of
// truth and a lost event never rolls back a movement.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/minibank/internal/domain"
)

const TypeTransactionRecorded = "transaction.recorded"

type TransactionRecorded struct {
	EventID       uuid.UUID              `json:"event_id"`
	EventType     string                 `json:"event_type"`
	TransactionID uuid.UUID              `json:"transaction_id"`
	AccountID     uuid.UUID              `json:"account_id"`
	Type          domain.TransactionType `json:"type"`
	Amount        decimal.Decimal        `json:"amount"`
	BalanceAfter  decimal.Decimal        `json:"balance_after"`
	Counterparty  *string                `json:"counterparty,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

func NewTransactionRecorded(t *domain.Transaction) TransactionRecorded {
	return TransactionRecorded{
		EventID:       uuid.New(),
		EventType:     TypeTransactionRecorded,
		TransactionID: t.ID,
		AccountID:     t.AccountID,
		Type:          t.Type,
		Amount:        t.Amount,
		BalanceAfter:  t.BalanceAfter,
		Counterparty:  t.Counterparty,
		OccurredAt:    t.CreatedAt,
	}
}

type Publisher interface {
	PublishTransactions(ctx context.Context, txns ...*domain.Transaction) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTransactions(context.Context, ...*domain.Transaction) error { return nil }

func (NopPublisher) Close() error { return nil }
