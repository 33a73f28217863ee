// Package errors provides error handling for opsbolt.
//
// It re-exports github.com/cockroachdb/errors so callers get stack traces,
// wrapping with context, and hint/detail support without importing the
// upstream package directly.
//
// Usage:
//
//	if err := mgr.TryAcquire(slug); err != nil {
//	    return errors.Wrap(err, "acquiring job lock")
//	}
//
//	if errors.Is(err, errors.ErrLockHeld) {
//	    // another invocation is running
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is          = crdb.Is
	IsAny       = crdb.IsAny
	As          = crdb.As
	Unwrap      = crdb.Unwrap
	UnwrapAll   = crdb.UnwrapAll
	GetAllHints = crdb.GetAllHints
)

// CombineErrors for multi-source fetches where more than one collaborator
// can fail independently.
var (
	CombineErrors = crdb.CombineErrors
	Join          = crdb.Join
)

// Sentinel errors for use across opsbolt.
// Check with errors.Is(); wrap with errors.Wrap() to add context while
// preserving the type.
var (
	// ErrLockHeld indicates another invocation holds the job lock.
	ErrLockHeld = New("lock already held")

	// ErrUsage indicates the invocation was missing mandatory arguments.
	ErrUsage = New("usage error")

	// ErrJobFailed indicates the supervised command produced error output
	// or the stale-lock threshold was exceeded. The invocation must exit
	// nonzero whether or not a notification was dispatched.
	ErrJobFailed = New("job failed")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = New("not found")
)

// IsLockHeld reports whether err is or wraps ErrLockHeld.
func IsLockHeld(err error) bool {
	return err != nil && Is(err, ErrLockHeld)
}

// IsUsage reports whether err is or wraps ErrUsage.
func IsUsage(err error) bool {
	return err != nil && Is(err, ErrUsage)
}
