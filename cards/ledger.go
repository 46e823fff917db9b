/*
ledger.go - Card ledger: purchases, bill payments and statements

PURPOSE:
  Wraps ledger.Book with card specific rules. Purchases never touch the
  cash ledger directly: they become installment plans, and the projection
  synthesizes a card_bill_due entry for each unpaid competency. Paying a
  bill records a real outflow that carries the card and the statement
  month, which reduces that competency's remainder.

INVARIANTS:
  1. A purchase is charged to a known card, on that card's closing day.
  2. A payment never exceeds the outstanding remainder of its statement
     (plus PaidTolerance).
  3. Re-recording a purchase replaces its plan (same purchase id).

RECURRING PURCHASES:
  A subscription charged to a card is expanded into one purchase per
  occurrence, each with its own first competency:

    base 2024-01-26, closing 25, monthly
      -> 2024-01-26 (competency 2024-02)
      -> 2024-02-26 (competency 2024-03)
      -> ...

EXAMPLE:
  cl := cards.NewLedger(book)

  plan, err := cl.RecordPurchase(ctx, cards.Purchase{
      ID: "tv", CardID: "visa", Date: ledger.MustDate(2024, 1, 31),
      Total: 120000, Installments: 10,
  })

  _, err = cl.PayBill(ctx, cards.Payment{
      CardID: "visa", Statement: plan.Installments[0].Competency, Amount: 12000,
  })

SEE ALSO:
  - ledger/billing.go: FirstCompetency, DueDate, CardAccount
  - ledger/projection.go: Bill synthesis
*/
package cards

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/warp/cashflow-engine/ledger"
)

// =============================================================================
// CARD LEDGER
// =============================================================================

type Ledger struct {
	book *ledger.Book
	repo ledger.Repository
}

func NewLedger(book *ledger.Book) *Ledger {
	return &Ledger{book: book, repo: book.Repository()}
}

// OpenCard registers a card. Its payer account, when set, must exist.
func (l *Ledger) OpenCard(ctx context.Context, card ledger.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	if card.AccountID != "" {
		if _, err := l.repo.GetAccount(ctx, card.AccountID); err != nil {
			return fmt.Errorf("card %s: %w", card.ID, err)
		}
	}
	return l.repo.SaveCard(ctx, card)
}

func (l *Ledger) Card(ctx context.Context, id ledger.CardID) (ledger.Card, error) {
	return l.repo.GetCard(ctx, id)
}

func (l *Ledger) Cards(ctx context.Context) ([]ledger.Card, error) {
	return l.repo.ListCards(ctx)
}

// RecordPurchase plans p on its card and stores the plan.
func (l *Ledger) RecordPurchase(ctx context.Context, p Purchase) (ledger.InstallmentPlan, error) {
	card, err := l.repo.GetCard(ctx, p.CardID)
	if err != nil {
		return ledger.InstallmentPlan{}, err
	}
	plan, err := p.Plan(card)
	if err != nil {
		return ledger.InstallmentPlan{}, err
	}
	if err := l.book.RecordPlan(ctx, plan); err != nil {
		return ledger.InstallmentPlan{}, fmt.Errorf("record purchase %s: %w", p.ID, err)
	}
	return plan, nil
}

// RecordRecurringPurchase expands p with freq and stores every occurrence.
// Nothing is stored when any occurrence is invalid.
func (l *Ledger) RecordRecurringPurchase(ctx context.Context, p Purchase, freq ledger.Frequency) ([]ledger.InstallmentPlan, error) {
	card, err := l.repo.GetCard(ctx, p.CardID)
	if err != nil {
		return nil, err
	}
	occurrences, err := ExpandPurchase(p, freq)
	if err != nil {
		return nil, err
	}

	plans := make([]ledger.InstallmentPlan, 0, len(occurrences))
	for _, occ := range occurrences {
		plan, err := occ.Plan(card)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	for _, plan := range plans {
		if err := l.book.RecordPlan(ctx, plan); err != nil {
			return nil, fmt.Errorf("record purchase %s: %w", plan.PurchaseID, err)
		}
	}
	return plans, nil
}

// CancelPurchase drops the plan of a purchase.
func (l *Ledger) CancelPurchase(ctx context.Context, purchaseID string) error {
	return l.repo.DeletePlan(ctx, purchaseID)
}

// PayBill records a payment against the statement of one competency.
func (l *Ledger) PayBill(ctx context.Context, pay Payment) (ledger.Entry, error) {
	acct, err := l.book.CardAccount(ctx, pay.CardID)
	if err != nil {
		return ledger.Entry{}, err
	}
	if pay.ID == "" {
		pay.ID = ledger.EntryID("pay-" + uuid.NewString())
	}

	outstanding := acct.Outstanding(pay.Statement)
	if pay.Amount > outstanding+ledger.PaidTolerance {
		return ledger.Entry{}, &OverpaymentError{
			CardID:      pay.CardID,
			Statement:   pay.Statement,
			Outstanding: outstanding,
			Amount:      pay.Amount,
		}
	}

	e, err := pay.Entry(acct.Card)
	if err != nil {
		return ledger.Entry{}, err
	}
	if err := l.book.Record(ctx, e); err != nil {
		return ledger.Entry{}, err
	}
	return e, nil
}

// Statement returns the per-competency statement of a card.
func (l *Ledger) Statement(ctx context.Context, id ledger.CardID) (Statement, error) {
	acct, err := l.book.CardAccount(ctx, id)
	if err != nil {
		return Statement{}, err
	}
	return BuildStatement(acct), nil
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// OverpaymentError is returned when a payment exceeds what the statement owes.
type OverpaymentError struct {
	CardID      ledger.CardID
	Statement   ledger.Competency
	Outstanding ledger.Money
	Amount      ledger.Money
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("card %s statement %s: payment %s exceeds outstanding %s",
		e.CardID, e.Statement, e.Amount, e.Outstanding)
}

func (e *OverpaymentError) Unwrap() error {
	return ledger.ErrInvalidAmount
}
