/*
Package ledger provides the temporal ledger and projection engine.

PURPOSE:
  This package turns dated monetary events into balances over time. A
  purchase becomes a schedule of installments tied to a card's billing
  cycle, a recurring charge becomes a bounded series of forecast entries,
  and any mix of entries becomes a per-day running balance series that can
  be projected 24 months forward, with or without a what-if overlay.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: Integer minor currency units (cents). Never floating point.
  - Entry: The atomic unit consumed by the aggregator
  - Kind: Closed enumeration deciding how an entry moves the balance
  - Account / Card: Metadata the projection needs (visibility, cycles)

DESIGN PRINCIPLES:
  1. Purity: No clock, no randomness, no I/O in calculations
  2. Precision: Amounts are int64 cents end to end
  3. Immutability: Plans and series are recomputed wholesale, never patched
  4. Explicit kinds: Classification is one switch on Kind, never flag soup

USAGE:
  e := ledger.Entry{
      ID:     "salary-2024-01",
      Date:   ledger.MustDate(2024, time.January, 5),
      Amount: 350000,
      Kind:   ledger.KindInflow,
  }

SEE ALSO:
  - time.go: Calendar arithmetic
  - billing.go: Installment plans and card cycles
  - aggregate.go: Per-day aggregation
  - projection.go: 24-month projection
*/
package ledger

import "fmt"

// =============================================================================
// MONEY - Integer cents
// =============================================================================

// Money is an amount in minor currency units.
type Money int64

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Neg() Money        { return -m }
func (m Money) IsZero() bool      { return m == 0 }
func (m Money) IsPositive() bool  { return m > 0 }
func (m Money) IsNegative() bool  { return m < 0 }
func (m Money) Cents() int64      { return int64(m) }

func (m Money) Min(o Money) Money {
	if m < o {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m > o {
		return m
	}
	return o
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type AccountID string
type CardID string

// =============================================================================
// KIND - What an entry does to the balance
// =============================================================================

type Kind string

const (
	KindInflow         Kind = "inflow"          // Money entering a visible account
	KindOutflow        Kind = "outflow"         // Money leaving a visible account
	KindInvestment     Kind = "investment"      // Money moved into investments
	KindTransferDebit  Kind = "transfer_debit"  // Sending leg of a transfer pair
	KindTransferCredit Kind = "transfer_credit" // Receiving leg of a transfer pair
	KindInitialBalance Kind = "initial_balance" // Opening balance marker
	KindCardBillDue    Kind = "card_bill_due"   // Synthesized card statement payment
)

var kinds = map[Kind]bool{
	KindInflow:         true,
	KindOutflow:        true,
	KindInvestment:     true,
	KindTransferDebit:  true,
	KindTransferCredit: true,
	KindInitialBalance: true,
	KindCardBillDue:    true,
}

func (k Kind) Valid() bool      { return kinds[k] }
func (k Kind) IsTransfer() bool { return k == KindTransferDebit || k == KindTransferCredit }

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown entry kind %q", s)
	}
	return k, nil
}

// =============================================================================
// ENTRY - Atomic dated monetary event
// =============================================================================

// Entry is one dated monetary event. Amount is never negative: the
// direction comes from Kind.
type Entry struct {
	ID     EntryID
	Date   Date
	Amount Money
	Kind   Kind

	// PairID links the two legs of a transfer.
	PairID string

	// AccountID is empty for entries that belong to no persisted account.
	AccountID AccountID

	// Virtual marks simulation entries. Virtual entries are never persisted.
	Virtual bool

	Description string
	Category    string

	// Settled is false for forecast entries.
	Settled bool

	// RecurrenceID is shared by every occurrence of a recurrence series.
	RecurrenceID string

	// CardID and Statement identify a card payment and the competency it pays.
	CardID    CardID
	Statement Competency
}

// Validate checks the value-level invariants of an entry.
func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry id required: %w", ErrInvalidEntry)
	}
	if e.Amount < 0 {
		return &AmountError{Field: "amount", Amount: e.Amount}
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("entry %s: unknown kind %q: %w", e.ID, e.Kind, ErrInvalidEntry)
	}
	if e.Kind.IsTransfer() && e.PairID == "" {
		return &UnresolvedTransferError{EntryIDs: []EntryID{e.ID}}
	}
	return nil
}

// AccountSet is the set of accounts whose movements are visible to the
// aggregator. An empty set means every account is visible.
type AccountSet map[AccountID]bool

// NewAccountSet builds an AccountSet from ids.
func NewAccountSet(ids ...AccountID) AccountSet {
	s := make(AccountSet, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// Visible reports whether e counts toward the balance of this set.
func (s AccountSet) Visible(e Entry) bool {
	if len(s) == 0 || e.Virtual || e.AccountID == "" {
		return true
	}
	return s[e.AccountID]
}

// =============================================================================
// ACCOUNTS AND CARDS - Metadata
// =============================================================================

type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"
)

// Account is a persisted bank or cash account.
type Account struct {
	ID       AccountID
	Name     string
	Type     AccountType
	OpenedOn Date
}

// Card is a credit card with a monthly statement cycle.
type Card struct {
	ID         CardID
	Name       string
	ClosingDay int
	DueDay     int

	// AccountID is the account the bill is paid from.
	AccountID AccountID
}

// Validate checks the card's cycle days.
func (c Card) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("card id required: %w", ErrInvalidCard)
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return fmt.Errorf("card %s: closing day %d out of range: %w", c.ID, c.ClosingDay, ErrInvalidCard)
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return fmt.Errorf("card %s: due day %d out of range: %w", c.ID, c.DueDay, ErrInvalidCard)
	}
	return nil
}
