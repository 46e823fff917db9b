// Package cards implements credit card purchases, installment plans, bill
// payments and statements on top of the ledger engine.
package cards

import (
	"fmt"
	"strings"

	"github.com/warp/cashflow-engine/ledger"
)

// =============================================================================
// PURCHASE
// =============================================================================

// Purchase is a card purchase, paid in one or more installments.
type Purchase struct {
	ID           string
	CardID       ledger.CardID
	Date         ledger.Date
	Total        ledger.Money
	Installments int // 0 means a single installment
	Description  string
	Category     string
}

// Count returns the number of installments, at least 1 when unset.
func (p Purchase) Count() int {
	if p.Installments == 0 {
		return 1
	}
	return p.Installments
}

// Validate checks p against the card it is charged to.
func (p Purchase) Validate(card ledger.Card) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("purchase id required: %w", ledger.ErrInvalidEntry)
	}
	if p.CardID != "" && p.CardID != card.ID {
		return fmt.Errorf("purchase %s is on card %s, not %s: %w", p.ID, p.CardID, card.ID, ledger.ErrInvalidCard)
	}
	if err := card.Validate(); err != nil {
		return err
	}
	if p.Count() < 0 {
		return fmt.Errorf("purchase %s: %d installments: %w", p.ID, p.Installments, ledger.ErrInvalidInstallmentCount)
	}
	return nil
}

// Plan splits p into installments on card's billing cycle.
func (p Purchase) Plan(card ledger.Card) (ledger.InstallmentPlan, error) {
	if err := p.Validate(card); err != nil {
		return ledger.InstallmentPlan{}, err
	}
	description := p.Description
	if description == "" {
		description = p.ID
	}
	return ledger.BuildPlan(ledger.PlanInput{
		PurchaseID:  p.ID,
		CardID:      card.ID,
		Date:        p.Date,
		Total:       p.Total,
		Count:       p.Count(),
		ClosingDay:  card.ClosingDay,
		Description: description,
	})
}

// ExpandPurchase repeats p with freq. Every occurrence is a purchase of its
// own and resolves its own competencies from its own date.
func ExpandPurchase(p Purchase, freq ledger.Frequency) ([]Purchase, error) {
	n, err := freq.Occurrences()
	if err != nil {
		return nil, err
	}
	if err := p.Date.Validate(); err != nil {
		return nil, err
	}

	out := make([]Purchase, n)
	for i := range out {
		occ := p
		occ.Date = freq.DateAt(p.Date, i)
		if i > 0 {
			occ.ID = string(ledger.OccurrenceID(ledger.EntryID(p.ID), i))
		}
		out[i] = occ
	}
	return out, nil
}

// =============================================================================
// PAYMENT
// =============================================================================

// Payment settles (part of) the bill of one competency.
type Payment struct {
	ID        ledger.EntryID
	CardID    ledger.CardID
	Statement ledger.Competency
	Date      ledger.Date // zero = the statement's due date
	Amount    ledger.Money
	AccountID ledger.AccountID // zero = the card's payer account
}

// Entry converts p into the outflow it records on the payer account.
func (p Payment) Entry(card ledger.Card) (ledger.Entry, error) {
	if p.Statement.IsZero() {
		return ledger.Entry{}, fmt.Errorf("payment %s: statement month required: %w", p.ID, ledger.ErrInvalidDate)
	}
	if !p.Amount.IsPositive() {
		return ledger.Entry{}, &ledger.AmountError{Field: "payment", Amount: p.Amount}
	}

	date := p.Date
	if date.IsZero() {
		date = ledger.DueDate(p.Statement, card.DueDay)
	}
	account := p.AccountID
	if account == "" {
		account = card.AccountID
	}
	name := card.Name
	if name == "" {
		name = string(card.ID)
	}

	return ledger.Entry{
		ID:          p.ID,
		Date:        date,
		Amount:      p.Amount,
		Kind:        ledger.KindOutflow,
		AccountID:   account,
		CardID:      card.ID,
		Statement:   p.Statement,
		Description: fmt.Sprintf("%s payment %s", name, p.Statement),
		Category:    "card",
		Settled:     true,
	}, nil
}

// =============================================================================
// STATEMENT
// =============================================================================

// StatementLine is one competency of a card.
type StatementLine struct {
	Competency  ledger.Competency
	Due         ledger.Date
	Charged     ledger.Money
	Paid        ledger.Money
	Outstanding ledger.Money
	Settled     bool
}

// Statement lists every competency of a card, oldest first.
type Statement struct {
	Card        ledger.Card
	Lines       []StatementLine
	Outstanding ledger.Money // sum of unsettled remainders
}

// BuildStatement reads acct into a Statement.
func BuildStatement(acct ledger.CardAccount) Statement {
	st := Statement{Card: acct.Card}
	for _, c := range acct.Competencies() {
		line := StatementLine{
			Competency:  c,
			Due:         ledger.DueDate(c, acct.Card.DueDay),
			Charged:     acct.Charges[c],
			Paid:        acct.Payments[c],
			Outstanding: acct.Outstanding(c),
			Settled:     acct.IsPaid(c),
		}
		if !line.Settled {
			st.Outstanding += line.Outstanding
		}
		st.Lines = append(st.Lines, line)
	}
	return st
}

// Line returns the line of competency c, if any.
func (s Statement) Line(c ledger.Competency) (StatementLine, bool) {
	for _, l := range s.Lines {
		if l.Competency == c {
			return l, true
		}
	}
	return StatementLine{}, false
}
