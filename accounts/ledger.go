package accounts

import (
	"context"
	"fmt"

	"github.com/warp/cashflow-engine/ledger"
)

// =============================================================================
// ACCOUNT LEDGER
// =============================================================================

// Ledger records account movements through a Book.
//
// Entries recorded here are always real: simulations go through
// ledger.Overlay. Card bills are never recorded, they are projected.
type Ledger struct {
	book *ledger.Book
	repo ledger.Repository
}

func NewLedger(book *ledger.Book) *Ledger {
	return &Ledger{book: book, repo: book.Repository()}
}

// OpenAccount saves account and, when opening is non-zero, records its
// initial balance on account.OpenedOn.
func (l *Ledger) OpenAccount(ctx context.Context, account ledger.Account, opening ledger.Money) error {
	if account.ID == "" {
		return fmt.Errorf("account id required: %w", ledger.ErrInvalidEntry)
	}
	if account.Type == "" {
		account.Type = ledger.AccountChecking
	}
	if opening.IsNegative() {
		return &ledger.AmountError{Field: "opening", Amount: opening}
	}
	if !opening.IsZero() {
		if err := account.OpenedOn.Validate(); err != nil {
			return fmt.Errorf("account %s: %w", account.ID, err)
		}
	}
	if err := l.repo.SaveAccount(ctx, account); err != nil {
		return err
	}
	if opening.IsZero() {
		return nil
	}
	return l.book.Record(ctx, Opening(account, opening))
}

func (l *Ledger) Account(ctx context.Context, id ledger.AccountID) (ledger.Account, error) {
	return l.repo.GetAccount(ctx, id)
}

func (l *Ledger) Accounts(ctx context.Context) ([]ledger.Account, error) {
	return l.repo.ListAccounts(ctx)
}

// Record persists a single-leg entry. Transfer legs go through
// RecordTransfer; card bills are projection output only.
func (l *Ledger) Record(ctx context.Context, e ledger.Entry) error {
	if err := checkSingleLeg(e); err != nil {
		return err
	}
	return l.book.Record(ctx, e)
}

// RecordTransfer persists both legs of t atomically.
func (l *Ledger) RecordTransfer(ctx context.Context, t Transfer) (ledger.Entry, ledger.Entry, error) {
	if err := t.Validate(); err != nil {
		return ledger.Entry{}, ledger.Entry{}, err
	}
	debit, credit := t.Legs()
	if err := l.book.RecordBatch(ctx, []ledger.Entry{debit, credit}); err != nil {
		return ledger.Entry{}, ledger.Entry{}, err
	}
	return debit, credit, nil
}

// RecordRecurring expands e with freq and stores the series, replacing any
// previous series with the same recurrence id.
func (l *Ledger) RecordRecurring(ctx context.Context, e ledger.Entry, freq ledger.Frequency) ([]ledger.Entry, error) {
	if err := checkSingleLeg(e); err != nil {
		return nil, err
	}
	return l.book.RecordSeries(ctx, freq, e)
}

// RecordRecurringTransfer expands both legs of t with freq.
func (l *Ledger) RecordRecurringTransfer(ctx context.Context, t Transfer, freq ledger.Frequency) ([]ledger.Entry, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	debit, credit := t.Legs()
	debit.RecurrenceID = t.ID
	credit.RecurrenceID = t.ID
	return l.book.RecordSeries(ctx, freq, debit, credit)
}

// StopRecurring removes every occurrence of a series.
func (l *Ledger) StopRecurring(ctx context.Context, recurrenceID string) error {
	return l.repo.DeleteSeries(ctx, recurrenceID)
}

// Balance returns the balance of the given accounts at the end of day on.
// No account means every account.
func (l *Ledger) Balance(ctx context.Context, on ledger.Date, ids ...ledger.AccountID) (ledger.Money, error) {
	if err := on.Validate(); err != nil {
		return 0, err
	}
	entries, err := l.book.Entries(ctx)
	if err != nil {
		return 0, err
	}
	return ledger.BalanceBefore(entries, on.AddDays(1), ledger.NewAccountSet(ids...))
}

func checkSingleLeg(e ledger.Entry) error {
	switch {
	case e.Kind.IsTransfer():
		return fmt.Errorf("entry %s: transfer legs are recorded in pairs: %w", e.ID, ledger.ErrInvalidEntry)
	case e.Kind == ledger.KindCardBillDue:
		return fmt.Errorf("entry %s: card bills are projected, not recorded: %w", e.ID, ledger.ErrInvalidEntry)
	}
	return nil
}
