/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages (accounts, cards) wrap these with more context.

ERROR CATEGORIES:
  1. Construction errors - Invalid amounts, dates, installment counts
  2. Structural errors - Transfer legs without a counterpart
  3. Lookup errors - Missing entries, sessions, accounts, cards

Construction errors are returned where the offending value is built
(BuildPlan, Expand, Entry.Validate). The aggregator only checks pairing.

USAGE:
  if errors.Is(err, ledger.ErrUnresolvedTransferPair) {
      var ute *ledger.UnresolvedTransferError
      errors.As(err, &ute)
      ...
  }

SEE ALSO:
  - aggregate.go: Transfer pairing
  - billing.go: Plan construction
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a non-positive total is given where a
	// positive one is required, or an entry amount is negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidInstallmentCount is returned when count <= 0.
	ErrInvalidInstallmentCount = errors.New("invalid installment count")

	// ErrInvalidDate is returned for malformed calendar date components.
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnresolvedTransferPair is returned when a transfer leg lacks its
	// counterpart in the supplied entry set.
	ErrUnresolvedTransferPair = errors.New("unresolved transfer pair")

	ErrInvalidFrequency = errors.New("invalid recurrence frequency")
	ErrInvalidWindow    = errors.New("invalid window: end before start")
	ErrInvalidCard      = errors.New("invalid card")
	ErrInvalidEntry     = errors.New("invalid entry")

	// ErrVirtualEntry is returned when a simulation entry reaches a Store.
	ErrVirtualEntry = errors.New("virtual entries cannot be persisted")

	ErrDuplicateEntry  = errors.New("duplicate entry id")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrSessionNotFound = errors.New("simulation session not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrCardNotFound    = errors.New("card not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DateError reports the offending date components.
type DateError struct {
	Year  int
	Month int
	Day   int
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date %04d-%02d-%02d", e.Year, e.Month, e.Day)
}

func (e *DateError) Unwrap() error {
	return ErrInvalidDate
}

// AmountError reports a rejected amount.
type AmountError struct {
	Field  string
	Amount Money
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Amount)
}

func (e *AmountError) Unwrap() error {
	return ErrInvalidAmount
}

// UnresolvedTransferError lists the legs found for a broken pair.
type UnresolvedTransferError struct {
	PairID   string
	EntryIDs []EntryID
}

func (e *UnresolvedTransferError) Error() string {
	if e.PairID == "" {
		return fmt.Sprintf("transfer entry %v has no pair id", e.EntryIDs)
	}
	return fmt.Sprintf("transfer pair %q has %d leg(s) %v, want 2", e.PairID, len(e.EntryIDs), e.EntryIDs)
}

func (e *UnresolvedTransferError) Unwrap() error {
	return ErrUnresolvedTransferPair
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidInstallmentCount) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrUnresolvedTransferPair) ||
		errors.Is(err, ErrInvalidFrequency) ||
		errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrInvalidCard) ||
		errors.Is(err, ErrInvalidEntry) ||
		errors.Is(err, ErrVirtualEntry) ||
		errors.Is(err, ErrDuplicateEntry)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrCardNotFound)
}
