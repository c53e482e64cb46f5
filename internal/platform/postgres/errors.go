package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/lib/pq"

	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/sentinel"
)

// SQLSTATE codes the stores react to.
const (
	CodeUniqueViolation      = pq.ErrorCode("23505")
	CodeForeignKeyViolation  = pq.ErrorCode("23503")
	CodeSerializationFailure = pq.ErrorCode("40001")
	CodeDeadlockDetected     = pq.ErrorCode("40P01")
	CodeLockNotAvailable     = pq.ErrorCode("55P03")
	CodeQueryCanceled        = pq.ErrorCode("57014")
)

// UniqueViolation returns the violated constraint name when err is a unique violation.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == CodeUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// IsTransient reports whether retrying the whole transaction may succeed.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable:
			return true
		}
		// class 08: connection exception
		return pqErr.Code.Class() == "08"
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Translate maps a driver error to the matching sentinel, keeping the cause.
// Unique violations become sentinel.ErrAlreadyUsed; stores that need a finer
// split inspect UniqueViolation first.
func Translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", msg, sentinel.ErrNotFound)
	case IsTransient(err):
		return fmt.Errorf("%s: %w: %w", msg, sentinel.ErrUnavailable, err)
	}
	if _, ok := UniqueViolation(err); ok {
		return fmt.Errorf("%s: %w: %w", msg, sentinel.ErrAlreadyUsed, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
