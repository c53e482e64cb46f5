// Package store persists tree positions, slot claims, commissions and locked
// rewards.
//
// Stores return sentinel errors from pkg/platform/sentinel:
//   - ErrNotFound when a position does not exist for the fanout
//   - ErrAlreadyUsed when an agent already has a position (or already fills a slot)
//   - ErrConflict when another writer claimed the slot first
//   - ErrUnavailable for transient database failures worth retrying
//
// Mutations are expected to run inside RunInTx; the Postgres stores pick the
// transaction up from the context.
package store

import (
	"context"
	"time"

	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// withTxDeadline bounds one transaction. A caller deadline that expires sooner
// still wins.
func withTxDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func cancelledErr(err error) error {
	return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
}

var (
	errPositionNotFound = sentinel.ErrNotFound
	errSlotTaken        = sentinel.ErrConflict
	errAlreadyPlaced    = sentinel.ErrAlreadyUsed
)
