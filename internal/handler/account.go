package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/minibank/internal/auth"
	"github.com/josh-kwaku/minibank/internal/domain"
	"github.com/josh-kwaku/minibank/internal/logging"
	"github.com/josh-kwaku/minibank/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type ledgerService interface {
	GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*service.Movement, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*service.Movement, error)
	Transfer(ctx context.Context, fromID uuid.UUID, toUsername string, amount decimal.Decimal) (*service.TransferResult, error)
	GetTransactionHistory(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
}

type AccountHandler struct {
	ledger ledgerService
}

func NewAccountHandler(ledger ledgerService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (r amountRequest) Validate() []FieldError {
	if !r.Amount.IsPositive() {
		return []FieldError{{Field: "amount", Message: "must be greater than 0"}}
	}
	return nil
}

type transferRequest struct {
	ToUsername string          `json:"to_username"`
	Amount     decimal.Decimal `json:"amount"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.ToUsername == "" {
		errs = append(errs, FieldError{Field: "to_username", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type accountDTO struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Username:  a.Username,
		Balance:   a.Balance.StringFixed(domain.AmountScale),
		CreatedAt: a.CreatedAt,
	}
}

type transactionDTO struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	Amount       string    `json:"amount"`
	Description  string    `json:"description"`
	Counterparty *string   `json:"counterparty"`
	BalanceAfter string    `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:           t.ID,
		Type:         string(t.Type),
		Amount:       t.Amount.StringFixed(domain.AmountScale),
		Description:  t.Description,
		Counterparty: t.Counterparty,
		BalanceAfter: t.BalanceAfter.StringFixed(domain.AmountScale),
		CreatedAt:    t.CreatedAt,
	}
}

type movementResponse struct {
	Account     accountDTO     `json:"account"`
	Transaction transactionDTO `json:"transaction"`
}

type historyResponse struct {
	Transactions []transactionDTO `json:"transactions"`
	Total        int              `json:"total"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), accountID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Deposit, "deposit")
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Withdraw, "withdraw")
}

type movementFunc func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*service.Movement, error)

func (h *AccountHandler) move(w http.ResponseWriter, r *http.Request, fn movementFunc, op string) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	m, err := fn(r.Context(), accountID, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("movement rejected", "op", op, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, movementResponse{
		Account:     toAccountDTO(m.Account),
		Transaction: toTransactionDTO(m.Transaction),
	})
}

func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.ledger.Transfer(r.Context(), accountID, req.ToUsername, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, movementResponse{
		Account:     toAccountDTO(res.Sender),
		Transaction: toTransactionDTO(res.Debit),
	})
}

func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset, fields := parsePagination(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txns, total, err := h.ledger.GetTransactionHistory(r.Context(), accountID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transactions", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toTransactionDTO(&txns[i])
	}

	RespondSuccess(w, http.StatusOK, historyResponse{
		Transactions: dtos,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

func parsePagination(r *http.Request) (int, int, []FieldError) {
	var errs []FieldError
	limit, offset := defaultHistoryLimit, 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			errs = append(errs, FieldError{Field: "limit", Message: "must be between 1 and 200"})
		} else {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "offset", Message: "must be a non-negative integer"})
		} else {
			offset = n
		}
	}
	return limit, offset, errs
}
