package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/minibank/internal/domain"
	"github.com/josh-kwaku/minibank/internal/logging"
)

// Movement is the outcome of a deposit or withdrawal: the account as it stood
// after commit and the record written for it.
type Movement struct {
	Account     *domain.Account
	Transaction *domain.Transaction
}

type TransferResult struct {
	Sender *domain.Account
	Debit  *domain.Transaction
	Credit *domain.Transaction
}

type LedgerService struct {
	accounts     accountRepository
	transactions transactionRepository
	db           txRunner
	hasher       passwordHasher
	events       eventPublisher
	maxAmount    decimal.Decimal
	now          func() time.Time
}

func NewLedgerService(
	accounts accountRepository,
	transactions transactionRepository,
	db txRunner,
	hasher passwordHasher,
	events eventPublisher,
	maxAmount decimal.Decimal,
) *LedgerService {
	return &LedgerService{
		accounts:     accounts,
		transactions: transactions,
		db:           db,
		hasher:       hasher,
		events:       events,
		maxAmount:    maxAmount,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *LedgerService) Register(ctx context.Context, username, password string) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	username = NormalizeUsername(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	_, err := s.accounts.GetByUsername(ctx, username)
	if err == nil {
		return nil, fmt.Errorf("Register: %w", domain.ErrUsernameTaken)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Register: check existing: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	now := s.now()
	account := &domain.Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Balance:      decimal.Zero,
		Version:      0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still guards the race between lookup and insert.
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	log.Info("account registered", "account_id", account.ID, "username", username)
	return account, nil
}

func (s *LedgerService) AuthenticateLookup(ctx context.Context, username string) (*domain.AccountView, error) {
	account, err := s.accounts.GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, fmt.Errorf("AuthenticateLookup: %w", err)
	}
	return &domain.AccountView{
		ID:           account.ID,
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		Role:         domain.RoleUser,
	}, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", notFoundAs(err, domain.ErrAccountNotFound))
	}
	return account, nil
}

func (s *LedgerService) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*Movement, error) {
	m, err := s.applyMovement(ctx, accountID, domain.TransactionTypeDeposit, amount)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	return m, nil
}

func (s *LedgerService) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*Movement, error) {
	m, err := s.applyMovement(ctx, accountID, domain.TransactionTypeWithdrawal, amount)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	return m, nil
}

func (s *LedgerService) applyMovement(ctx context.Context, accountID uuid.UUID, typ domain.TransactionType, amount decimal.Decimal) (*Movement, error) {
	log := logging.FromContext(ctx)

	if err := domain.ValidateAmount(amount, s.maxAmount); err != nil {
		return nil, fmt.Errorf("applyMovement: %w", err)
	}

	var m Movement
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return notFoundAs(err, domain.ErrAccountNotFound)
		}

		var newBalance decimal.Decimal
		switch typ {
		case domain.TransactionTypeDeposit:
			newBalance = account.Balance.Add(amount)
		case domain.TransactionTypeWithdrawal:
			if account.Balance.LessThan(amount) {
				return domain.ErrInsufficientFunds
			}
			newBalance = account.Balance.Sub(amount)
		default:
			return fmt.Errorf("unsupported movement %q: %w", typ, domain.ErrInvalidRequest)
		}

		now := s.now()
		if err := s.accounts.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version+1); err != nil {
			return err
		}

		t := &domain.Transaction{
			ID:           uuid.New(),
			AccountID:    account.ID,
			Type:         typ,
			Amount:       amount,
			Description:  typ.Describe(""),
			BalanceAfter: newBalance,
			CreatedAt:    now,
		}
		if err := s.transactions.Create(ctx, tx, t); err != nil {
			return fmt.Errorf("record %s: %w", typ, err)
		}

		account.Balance = newBalance
		account.Version++
		account.UpdatedAt = now
		m = Movement{Account: account, Transaction: t}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("applyMovement: %w", err)
	}

	log.Info("movement committed",
		"account_id", accountID,
		"type", typ,
		"amount", amount.StringFixed(domain.AmountScale),
		"balance_after", m.Account.Balance.StringFixed(domain.AmountScale),
	)
	s.publish(ctx, m.Transaction)

	return &m, nil
}

func (s *LedgerService) Transfer(ctx context.Context, fromID uuid.UUID, toUsername string, amount decimal.Decimal) (*TransferResult, error) {
	log := logging.FromContext(ctx)

	if err := domain.ValidateAmount(amount, s.maxAmount); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	recipient, err := s.accounts.GetByUsername(ctx, NormalizeUsername(toUsername))
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", notFoundAs(err, domain.ErrRecipientNotFound))
	}
	if recipient.ID == fromID {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}

	var res TransferResult
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		locked, err := lockAccountsInOrder(ctx, tx, s.accounts, fromID, recipient.ID)
		if err != nil {
			return err
		}
		sender, receiver := locked[fromID], locked[recipient.ID]

		if sender.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		senderBalance := sender.Balance.Sub(amount)
		receiverBalance := receiver.Balance.Add(amount)

		if err := s.accounts.UpdateBalance(ctx, tx, sender.ID, senderBalance, sender.Version+1); err != nil {
			return fmt.Errorf("update sender: %w", err)
		}
		if err := s.accounts.UpdateBalance(ctx, tx, receiver.ID, receiverBalance, receiver.Version+1); err != nil {
			return fmt.Errorf("update recipient: %w", err)
		}

		now := s.now()
		debit, credit := transferRecords(sender, receiver, amount, senderBalance, receiverBalance, now)
		if err := s.transactions.Create(ctx, tx, debit); err != nil {
			return fmt.Errorf("record debit: %w", err)
		}
		if err := s.transactions.Create(ctx, tx, credit); err != nil {
			return fmt.Errorf("record credit: %w", err)
		}

		sender.Balance = senderBalance
		sender.Version++
		sender.UpdatedAt = now
		res = TransferResult{Sender: sender, Debit: debit, Credit: credit}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	log.Info("transfer committed",
		"sender_account", fromID,
		"recipient_account", recipient.ID,
		"amount", amount.StringFixed(domain.AmountScale),
	)
	s.publish(ctx, res.Debit, res.Credit)

	return &res, nil
}

func (s *LedgerService) GetTransactionHistory(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, 0, fmt.Errorf("GetTransactionHistory: %w", notFoundAs(err, domain.ErrAccountNotFound))
	}

	txns, total, err := s.transactions.GetByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("GetTransactionHistory: %w", err)
	}
	return txns, total, nil
}

func (s *LedgerService) publish(ctx context.Context, txns ...*domain.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactions(ctx, txns...); err != nil {
		logging.FromContext(ctx).Warn("failed to publish transaction events", "error", err, "count", len(txns))
	}
}

func transferRecords(sender, receiver *domain.Account, amount, senderBalance, receiverBalance decimal.Decimal, now time.Time) (*domain.Transaction, *domain.Transaction) {
	to, from := receiver.Username, sender.Username
	debit := &domain.Transaction{
		ID:           uuid.New(),
		AccountID:    sender.ID,
		Type:         domain.TransactionTypeTransferOut,
		Amount:       amount,
		Description:  domain.TransactionTypeTransferOut.Describe(to),
		Counterparty: &to,
		BalanceAfter: senderBalance,
		CreatedAt:    now,
	}
	credit := &domain.Transaction{
		ID:           uuid.New(),
		AccountID:    receiver.ID,
		Type:         domain.TransactionTypeTransferIn,
		Amount:       amount,
		Description:  domain.TransactionTypeTransferIn.Describe(from),
		Counterparty: &from,
		BalanceAfter: receiverBalance,
		CreatedAt:    now,
	}
	return debit, credit
}

// lockAccountsInOrder takes row locks in ascending id order so two opposite
// transfers between the same pair cannot deadlock.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepository, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", notFoundAs(err, domain.ErrAccountNotFound))
		}
		result[id] = acct
	}
	return result, nil
}

func notFoundAs(err, kind error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}
