// engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Sentinels, matched with errors.Is. Structured errors below unwrap to
// these so callers can branch without knowing the concrete type.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnitOnLoan        = errors.New("unit already on loan")
	ErrAlreadyTerminal   = errors.New("record already in a terminal state")
	ErrPartiallyApplied  = errors.New("operation partially applied")
	ErrUpstream          = errors.New("store unavailable")
)

// ValidationError rejects malformed input before any ledger call.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return "validation: " + e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError names the item that could not cover the ask.
type InsufficientStockError struct {
	ItemID    string
	ItemName  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ItemName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PartiallyAppliedError is surfaced when the second half of a two-step
// unit of work fails after the first half succeeded. Never masked as full
// success or full failure; Missing tells the caller which half to retry.
type PartiallyAppliedError struct {
	Op      string
	Missing string
	Err     error
}

func (e *PartiallyAppliedError) Error() string {
	return fmt.Sprintf("%s partially applied, missing %s: %v", e.Op, e.Missing, e.Err)
}

func (e *PartiallyAppliedError) Unwrap() error { return ErrPartiallyApplied }

// ApprovalHaltedError reports a mid-stream approval failure: lines
// converted so far keep their loans, the rest stay unlinked, and the
// failing item is named. Follow-up is the caller's call.
type ApprovalHaltedError struct {
	RequestID string
	ItemID    string
	Converted int
	Err       error
}

func (e *ApprovalHaltedError) Error() string {
	return fmt.Sprintf("approval halted after %d line(s) at item %s: %v",
		e.Converted, e.ItemID, e.Err)
}

func (e *ApprovalHaltedError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err was rejected before touching the ledger.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsClientError reports whether the caller, not the system, is at fault.
func IsClientError(err error) bool {
	return IsValidation(err) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrUnitOnLoan) ||
		errors.Is(err, ErrAlreadyTerminal)
}
