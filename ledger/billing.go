/*
billing.go - Card billing cycles and installment plans

PURPOSE:
  Resolves which statement month (competency) a card purchase is billed in
  and turns a purchase into an installment plan: N amounts that add up to
  the purchase total exactly, each tied to a consecutive competency.

COMPETENCY RULE:
  closing = min(card.ClosingDay, lastDayOfMonth(purchase month))

  purchase.Day <= closing  ->  purchase month
  purchase.Day >  closing  ->  following month (December -> next January)

  Installment i (0-based) is billed in firstCompetency + i months.

DUE DATES:
  A competency's bill is due on min(card.DueDay, lastDayOfMonth), in the
  competency month itself.

EXAMPLE:
  plan, _ := BuildPlan(PlanInput{
      Date:       MustDate(2024, time.January, 31),
      Total:      1000,
      Count:      3,
      ClosingDay: 25,
  })
  // 2024-02: 334, 2024-03: 333, 2024-04: 333

SEE ALSO:
  - split.go: Even splitting
  - projection.go: Bill synthesis from card accounts
  - cards/: Purchase domain wrapper
*/
package ledger

import (
	"fmt"
	"sort"
)

// =============================================================================
// BILLING CYCLE RESOLVER
// =============================================================================

// FirstCompetency returns the statement month a purchase on date is billed in.
func FirstCompetency(date Date, closingDay int) Competency {
	closing := min(max(closingDay, 1), LastDayOfMonth(date.Year, date.Month))
	c := date.Competency()
	if date.Day > closing {
		return c.Add(1)
	}
	return c
}

// CompetencyAt returns the competency of installment index (0-based).
func CompetencyAt(first Competency, index int) Competency {
	return first.Add(index)
}

// DueDate returns the day the bill of competency c is due.
func DueDate(c Competency, dueDay int) Date {
	return Date{Year: c.Year, Month: c.Month, Day: min(max(dueDay, 1), LastDayOfMonth(c.Year, c.Month))}
}

// =============================================================================
// INSTALLMENT PLAN
// =============================================================================

// Installment is one billed part of a purchase. Number starts at 1.
type Installment struct {
	Number     int
	Amount     Money
	Competency Competency
}

// InstallmentPlan is the immutable schedule of a single purchase.
type InstallmentPlan struct {
	PurchaseID   string
	CardID       CardID
	PurchaseDate Date
	Total        Money
	Description  string
	Installments []Installment
}

// PlanInput describes a purchase to be planned.
type PlanInput struct {
	PurchaseID  string
	CardID      CardID
	Date        Date
	Total       Money
	Count       int
	ClosingDay  int
	Description string
}

// BuildPlan splits a purchase across count consecutive competencies.
func BuildPlan(in PlanInput) (InstallmentPlan, error) {
	if in.Total <= 0 {
		return InstallmentPlan{}, &AmountError{Field: "purchase total", Amount: in.Total}
	}
	if in.Count <= 0 {
		return InstallmentPlan{}, fmt.Errorf("purchase %s: %d installments: %w", in.PurchaseID, in.Count, ErrInvalidInstallmentCount)
	}
	if err := in.Date.Validate(); err != nil {
		return InstallmentPlan{}, err
	}

	amounts, err := Split(in.Total, in.Count)
	if err != nil {
		return InstallmentPlan{}, err
	}

	first := FirstCompetency(in.Date, in.ClosingDay)
	plan := InstallmentPlan{
		PurchaseID:   in.PurchaseID,
		CardID:       in.CardID,
		PurchaseDate: in.Date,
		Total:        in.Total,
		Description:  in.Description,
		Installments: make([]Installment, in.Count),
	}
	for i, amount := range amounts {
		plan.Installments[i] = Installment{
			Number:     i + 1,
			Amount:     amount,
			Competency: CompetencyAt(first, i),
		}
	}
	return plan, nil
}

// Sum returns the total of all installments.
func (p InstallmentPlan) Sum() Money {
	var total Money
	for _, inst := range p.Installments {
		total += inst.Amount
	}
	return total
}

// Competencies lists the billed months in order.
func (p InstallmentPlan) Competencies() []Competency {
	out := make([]Competency, len(p.Installments))
	for i, inst := range p.Installments {
		out[i] = inst.Competency
	}
	return out
}

// =============================================================================
// CARD ACCOUNT - Charges and payments per competency
// =============================================================================

// PaidTolerance is the largest remainder still considered paid in full.
const PaidTolerance Money = 1

// CardAccount holds what a card billed and what was paid, per competency.
type CardAccount struct {
	Card     Card
	Charges  map[Competency]Money
	Payments map[Competency]Money
}

// NewCardAccount folds plans and payment entries into per-competency totals.
// Payments are entries whose CardID matches and Statement is set; bill
// entries are projections, not payments.
func NewCardAccount(card Card, plans []InstallmentPlan, payments []Entry) CardAccount {
	acct := CardAccount{
		Card:     card,
		Charges:  make(map[Competency]Money),
		Payments: make(map[Competency]Money),
	}
	for _, p := range plans {
		if p.CardID != "" && p.CardID != card.ID {
			continue
		}
		for _, inst := range p.Installments {
			acct.Charges[inst.Competency] += inst.Amount
		}
	}
	for _, e := range payments {
		if e.CardID != card.ID || e.Statement.IsZero() || e.Kind == KindCardBillDue {
			continue
		}
		acct.Payments[e.Statement] += e.Amount
	}
	return acct
}

// Outstanding is what remains to be paid for competency c.
func (a CardAccount) Outstanding(c Competency) Money {
	return a.Charges[c] - a.Payments[c]
}

// IsPaid reports whether competency c is paid in full within PaidTolerance.
func (a CardAccount) IsPaid(c Competency) bool {
	return a.Outstanding(c) <= PaidTolerance
}

// Competencies returns every competency with charges or payments, in order.
func (a CardAccount) Competencies() []Competency {
	seen := make(map[Competency]bool, len(a.Charges))
	var out []Competency
	for c := range a.Charges {
		seen[c] = true
		out = append(out, c)
	}
	for c := range a.Payments {
		if !seen[c] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
