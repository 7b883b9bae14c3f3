package ledger

import "errors"

var (
	// ErrInvalidPayment rejects non-positive amounts and payments against
	// instruments that are not ACTIVE. Never retried; surfaced to the caller.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrUndefinedInversion means a liability partial payment cannot be
	// encoded as a backdated start date because the daily rate or principal
	// is zero. The instrument is left untouched.
	ErrUndefinedInversion = errors.New("start date inversion undefined for zero rate or principal")

	// ErrInternalConsistency marks a negative principal or interest found
	// before an operation. This indicates an upstream bug and aborts the
	// operation; it is never clamped away.
	ErrInternalConsistency = errors.New("internal consistency violation: negative balance")
)
