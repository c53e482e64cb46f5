// Package sentinel names the storage facts placement stores report. Services
// translate them into coded domain errors and decide which ones to retry.
// Input validation never uses these; see pkg/domain-errors.
package sentinel

import "errors"

var (
	// ErrNotFound: no position for the agent in the requested fanout partition.
	ErrNotFound = errors.New("not found")
	// ErrConflict: another writer claimed the slot first. Retryable.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyUsed: the agent already holds a position or already fills a slot.
	ErrAlreadyUsed = errors.New("already used")
	// ErrUnavailable: serialization failure, deadlock, lock timeout or a lost
	// connection. Retryable.
	ErrUnavailable = errors.New("unavailable")
)
