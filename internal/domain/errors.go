package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrSelfTransfer       = errors.New("cannot transfer to same account")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrVersionConflict    = errors.New("optimistic lock conflict")
	ErrConflict           = errors.New("conflicting concurrent update")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
