/*
Package accounts records cash movements on bank, savings, investment and
cash accounts.

PURPOSE:
  Builders for the everyday entries of a personal ledger and a Ledger
  wrapper that enforces account level rules on top of ledger.Book.

ENTRY KINDS:
  Income      inflow            salary, refunds
  Expense     outflow           rent, groceries
  Invest      investment        money moved into assets, leaves the balance
  Transfer    transfer pair     between two own accounts, balance neutral
  Opening     initial_balance   seeds an account on the day it is opened

TRANSFERS:
  A transfer is always written as two legs sharing a pair id:

    <id>-a  transfer_debit   on From
    <id>-b  transfer_credit  on To

  The debit id sorts first, so the aggregator always reads the legs in
  the right order.

SEE ALSO:
  - ledger/aggregate.go: How each kind moves the balance
  - cards/: Card purchases and bill payments
*/
package accounts

import (
	"fmt"

	"github.com/warp/cashflow-engine/ledger"
)

// =============================================================================
// ENTRY BUILDERS
// =============================================================================

// Movement is the common shape of a single-leg entry.
type Movement struct {
	ID          ledger.EntryID
	AccountID   ledger.AccountID
	Date        ledger.Date
	Amount      ledger.Money
	Description string
	Category    string
	Forecast    bool // not yet settled
}

func (m Movement) entry(kind ledger.Kind) ledger.Entry {
	return ledger.Entry{
		ID:          m.ID,
		Date:        m.Date,
		Amount:      m.Amount,
		Kind:        kind,
		AccountID:   m.AccountID,
		Description: m.Description,
		Category:    m.Category,
		Settled:     !m.Forecast,
	}
}

func Income(m Movement) ledger.Entry  { return m.entry(ledger.KindInflow) }
func Expense(m Movement) ledger.Entry { return m.entry(ledger.KindOutflow) }
func Invest(m Movement) ledger.Entry  { return m.entry(ledger.KindInvestment) }

// Opening is the initial_balance entry of an account.
func Opening(account ledger.Account, amount ledger.Money) ledger.Entry {
	return ledger.Entry{
		ID:          OpeningID(account.ID),
		Date:        account.OpenedOn,
		Amount:      amount,
		Kind:        ledger.KindInitialBalance,
		AccountID:   account.ID,
		Description: fmt.Sprintf("%s opening balance", accountName(account)),
		Settled:     true,
	}
}

func OpeningID(id ledger.AccountID) ledger.EntryID {
	return ledger.EntryID(fmt.Sprintf("%s-opening", id))
}

func accountName(a ledger.Account) string {
	if a.Name != "" {
		return a.Name
	}
	return string(a.ID)
}

// =============================================================================
// TRANSFER
// =============================================================================

// Transfer moves money between two accounts.
type Transfer struct {
	ID          string
	From        ledger.AccountID
	To          ledger.AccountID
	Date        ledger.Date
	Amount      ledger.Money
	Description string
	Forecast    bool
}

// Validate checks the transfer is between two distinct accounts.
func (t Transfer) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transfer id required: %w", ledger.ErrInvalidEntry)
	}
	if t.From == "" || t.To == "" || t.From == t.To {
		return fmt.Errorf("transfer %s: from %q to %q: %w", t.ID, t.From, t.To, ledger.ErrInvalidEntry)
	}
	if !t.Amount.IsPositive() {
		return &ledger.AmountError{Field: "transfer", Amount: t.Amount}
	}
	return t.Date.Validate()
}

// Legs returns the debit and credit entries of t.
func (t Transfer) Legs() (debit, credit ledger.Entry) {
	description := t.Description
	if description == "" {
		description = fmt.Sprintf("transfer %s to %s", t.From, t.To)
	}
	debit = ledger.Entry{
		ID:          ledger.EntryID(t.ID + "-a"),
		Date:        t.Date,
		Amount:      t.Amount,
		Kind:        ledger.KindTransferDebit,
		PairID:      t.ID,
		AccountID:   t.From,
		Description: description,
		Category:    "transfer",
		Settled:     !t.Forecast,
	}
	credit = debit
	credit.ID = ledger.EntryID(t.ID + "-b")
	credit.Kind = ledger.KindTransferCredit
	credit.AccountID = t.To
	return debit, credit
}
