package models

import (
	"errors"

	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
)

// Placement failures. Business-rule failures are terminal for the caller and
// are never retried; ErrCorruptTree signals a broken invariant in stored data.
var (
	ErrSponsorNotInTree        = errors.New("sponsor not in tree")
	ErrMaxDepthReached         = errors.New("max depth reached")
	ErrNoAvailablePosition     = errors.New("no available position")
	ErrPlanNotOwned            = errors.New("plan not owned")
	ErrIncompatibleSponsorPlan = errors.New("incompatible sponsor plan")
	ErrCorruptTree             = errors.New("corrupt tree")
)

var failureCodes = map[error]dErrors.Code{
	ErrSponsorNotInTree:        dErrors.CodeNotFound,
	ErrMaxDepthReached:         dErrors.CodeUnprocessable,
	ErrNoAvailablePosition:     dErrors.CodeUnprocessable,
	ErrPlanNotOwned:            dErrors.CodeForbidden,
	ErrIncompatibleSponsorPlan: dErrors.CodeUnprocessable,
	ErrCorruptTree:             dErrors.CodeInvariantViolation,
}

// Fail wraps a placement sentinel in a coded domain error so handlers can render
// it while callers still match it with errors.Is.
func Fail(kind error, message string) error {
	code, ok := failureCodes[kind]
	if !ok {
		code = dErrors.CodeInternal
	}
	return dErrors.Wrap(kind, code, message)
}

// IsBusinessFailure reports whether err is a terminal placement rule violation.
func IsBusinessFailure(err error) bool {
	for _, kind := range []error{
		ErrSponsorNotInTree,
		ErrMaxDepthReached,
		ErrNoAvailablePosition,
		ErrPlanNotOwned,
		ErrIncompatibleSponsorPlan,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
