package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrServiceUnavailable = &AppError{http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Storage is temporarily unavailable, please retry"}

	ErrUsernameTaken     = &AppError{http.StatusConflict, "USERNAME_TAKEN", "Username is already taken"}
	ErrAccountNotFound   = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrRecipientNotFound = &AppError{http.StatusUnprocessableEntity, "RECIPIENT_NOT_FOUND", "Recipient not found"}
	ErrInsufficientFunds = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrSelfTransfer      = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to the same account"}
	ErrInvalidAmount     = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero with at most two decimal places"}
	ErrVersionConflict   = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrConflict          = &AppError{http.StatusConflict, "CONFLICT", "Request conflicts with a concurrent update, please retry"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed"}
)
