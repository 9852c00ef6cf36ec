package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransferOut, TransactionTypeTransferIn:
		return true
	}
	return false
}

// Describe renders the human-readable label stored with a transaction.
func (t TransactionType) Describe(counterparty string) string {
	switch t {
	case TransactionTypeDeposit:
		return "Deposit"
	case TransactionTypeWithdrawal:
		return "Withdrawal"
	case TransactionTypeTransferOut:
		return fmt.Sprintf("Transfer Out to %s", counterparty)
	case TransactionTypeTransferIn:
		return fmt.Sprintf("Transfer In from %s", counterparty)
	default:
		return string(t)
	}
}

// Transaction is immutable once written. Amount is always positive; the
// direction is carried by Type.
type Transaction struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Type         TransactionType
	Amount       decimal.Decimal
	Description  string
	Counterparty *string
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}
