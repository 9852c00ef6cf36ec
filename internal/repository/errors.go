package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/minibank/internal/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	classConnectionException = "08"

	usernameConstraint = "accounts_username_key"
)

// classify maps driver failures onto domain error kinds so callers never need
// to inspect pq types. Errors that are already domain errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch {
	case pqErr.Code == codeUniqueViolation && pqErr.Constraint == usernameConstraint:
		return domain.ErrUsernameTaken
	case pqErr.Code == codeUniqueViolation, pqErr.Code == codeCheckViolation:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
	case pqErr.Code == codeSerializationFailure, pqErr.Code == codeDeadlockDetected:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
	case pqErr.Code.Class() == classConnectionException:
		return fmt.Errorf("%w: %s", domain.ErrStorageUnavailable, pqErr.Message)
	default:
		return err
	}
}
