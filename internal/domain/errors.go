package domain

import "fmt"

type ErrNotFound string

func (e ErrNotFound) Error() string { return string(e) + " not found" }

type ErrConflict string

func (e ErrConflict) Error() string { return string(e) }

type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }

type ErrForbidden string

func (e ErrForbidden) Error() string { return string(e) }

// ErrPaymentNotCompleted carries the status the gateway reported.
type ErrPaymentNotCompleted string

func (e ErrPaymentNotCompleted) Error() string {
	return "payment not completed (status " + string(e) + ")"
}

// ErrInvalidAmount carries the rejected amount in cents.
type ErrInvalidAmount int64

func (e ErrInvalidAmount) Error() string {
	return fmt.Sprintf("amount %d cents is below the %d cent minimum", int64(e), MinChargeCents)
}

// ErrUpstream wraps a failed call to the payments gateway. Reconciliation is
// idempotent, so callers may retry the whole operation.
type ErrUpstream struct {
	Op  string
	Err error
}

func (e *ErrUpstream) Error() string { return "gateway " + e.Op + ": " + e.Err.Error() }
func (e *ErrUpstream) Unwrap() error { return e.Err }

// ErrCaptureFailed is never retried automatically; an operator has to decide.
type ErrCaptureFailed struct {
	IntentID string
	Err      error
}

func (e *ErrCaptureFailed) Error() string {
	return "capture failed for " + e.IntentID + ": " + e.Err.Error()
}
func (e *ErrCaptureFailed) Unwrap() error { return e.Err }
