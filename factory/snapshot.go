/*
Package factory provides JSON snapshot to ledger conversion.

PURPOSE:
  Converts a JSON snapshot of a household's finances (accounts, cards,
  purchases, entries, recurring movements, a what-if overlay) into a
  seeded ledger.Book and a ledger.ProjectionInput. The CLI projects
  snapshot files, and the API projects snapshots posted by clients
  without touching the server's own data.

JSON SCHEMA:
  {
    "start": "2024-01",
    "months": 24,
    "today": "2024-01-15",
    "anchor": "0.00",
    "visible_accounts": ["checking"],
    "accounts": [
      {"id": "checking", "type": "checking", "opened_on": "2024-01-01", "opening_balance": "1500.00"}
    ],
    "cards": [
      {"id": "visa", "name": "Visa", "closing_day": 25, "due_day": 5, "account_id": "checking"}
    ],
    "purchases": [
      {"id": "tv", "card_id": "visa", "date": "2024-01-31", "total": "1200.00", "installments": 10},
      {"id": "music", "card_id": "visa", "date": "2024-01-10", "total": "9.99", "frequency": "monthly"}
    ],
    "payments": [
      {"card_id": "visa", "statement": "2024-01", "amount": "120.00"}
    ],
    "entries": [
      {"id": "rent", "date": "2024-01-05", "amount": "900.00", "kind": "outflow",
       "account_id": "checking", "frequency": "monthly"}
    ],
    "transfers": [
      {"id": "save", "from": "checking", "to": "savings", "date": "2024-01-28",
       "amount": "200.00", "frequency": "monthly"}
    ],
    "overlay": [
      {"id": "car", "date": "2024-06-01", "amount": "15000.00", "kind": "outflow", "account_id": "checking"}
    ]
  }

AMOUNTS:
  Decimal strings or JSON numbers in major units ("12.34" or 12.34),
  converted to integer cents with ledger.ParseMoney.

USAGE:
  f := factory.NewSnapshotFactory()
  snap, err := f.Parse(data)
  input, err := f.ProjectionInput(ctx, snap)
  result, err := ledger.Project(input)

SEE ALSO:
  - accounts/: Opening balances, movements, transfers
  - cards/: Purchases and payments
  - ledger/ledger.go: Book.ProjectionInput
*/
package factory

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/warp/cashflow-engine/accounts"
	"github.com/warp/cashflow-engine/cards"
	"github.com/warp/cashflow-engine/ledger"
	"github.com/warp/cashflow-engine/ledger/store"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// Amount is a money value written in major units.
type Amount ledger.Money

func (a Amount) Money() ledger.Money { return ledger.Money(a) }

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(ledger.Money(a).String())
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	m, err := ledger.ParseMoney(s)
	if err != nil {
		return err
	}
	*a = Amount(m)
	return nil
}

// Snapshot is the JSON document.
type Snapshot struct {
	Start           ledger.Competency  `json:"start"`
	Months          int                `json:"months,omitempty"`
	Today           ledger.Date        `json:"today,omitempty"`
	Anchor          Amount             `json:"anchor,omitempty"`
	VisibleAccounts []ledger.AccountID `json:"visible_accounts,omitempty"`
	Accounts        []AccountJSON      `json:"accounts,omitempty"`
	Cards           []CardJSON         `json:"cards,omitempty"`
	Purchases       []PurchaseJSON     `json:"purchases,omitempty"`
	Payments        []PaymentJSON      `json:"payments,omitempty"`
	Entries         []EntryJSON        `json:"entries,omitempty"`
	Transfers       []TransferJSON     `json:"transfers,omitempty"`
	Overlay         []EntryJSON        `json:"overlay,omitempty"`
}

type AccountJSON struct {
	ID             ledger.AccountID   `json:"id"`
	Name           string             `json:"name,omitempty"`
	Type           ledger.AccountType `json:"type,omitempty"`
	OpenedOn       ledger.Date        `json:"opened_on,omitempty"`
	OpeningBalance Amount             `json:"opening_balance,omitempty"`
}

type CardJSON struct {
	ID         ledger.CardID    `json:"id"`
	Name       string           `json:"name,omitempty"`
	ClosingDay int              `json:"closing_day"`
	DueDay     int              `json:"due_day"`
	AccountID  ledger.AccountID `json:"account_id,omitempty"`
}

type PurchaseJSON struct {
	ID           string           `json:"id"`
	CardID       ledger.CardID    `json:"card_id"`
	Date         ledger.Date      `json:"date"`
	Total        Amount           `json:"total"`
	Installments int              `json:"installments,omitempty"`
	Description  string           `json:"description,omitempty"`
	Category     string           `json:"category,omitempty"`
	Frequency    ledger.Frequency `json:"frequency,omitempty"` // repeat the purchase
}

type PaymentJSON struct {
	ID        ledger.EntryID    `json:"id,omitempty"`
	CardID    ledger.CardID     `json:"card_id"`
	Statement ledger.Competency `json:"statement"`
	Date      ledger.Date       `json:"date,omitempty"`
	Amount    Amount            `json:"amount"`
	AccountID ledger.AccountID  `json:"account_id,omitempty"`
}

type EntryJSON struct {
	ID           ledger.EntryID    `json:"id"`
	Date         ledger.Date       `json:"date"`
	Amount       Amount            `json:"amount"`
	Kind         ledger.Kind       `json:"kind"`
	PairID       string            `json:"pair_id,omitempty"`
	AccountID    ledger.AccountID  `json:"account_id,omitempty"`
	Description  string            `json:"description,omitempty"`
	Category     string            `json:"category,omitempty"`
	Settled      bool              `json:"settled,omitempty"`
	RecurrenceID string            `json:"recurrence_id,omitempty"`
	CardID       ledger.CardID     `json:"card_id,omitempty"`
	Statement    ledger.Competency `json:"statement,omitempty"`
	Frequency    ledger.Frequency  `json:"frequency,omitempty"`
}

type TransferJSON struct {
	ID          string           `json:"id"`
	From        ledger.AccountID `json:"from"`
	To          ledger.AccountID `json:"to"`
	Date        ledger.Date      `json:"date"`
	Amount      Amount           `json:"amount"`
	Description string           `json:"description,omitempty"`
	Frequency   ledger.Frequency `json:"frequency,omitempty"`
}

// Entry converts ej into a ledger entry.
func (ej EntryJSON) Entry() ledger.Entry {
	return ledger.Entry{
		ID:           ej.ID,
		Date:         ej.Date,
		Amount:       ej.Amount.Money(),
		Kind:         ej.Kind,
		PairID:       ej.PairID,
		AccountID:    ej.AccountID,
		Description:  ej.Description,
		Category:     ej.Category,
		Settled:      ej.Settled,
		RecurrenceID: ej.RecurrenceID,
		CardID:       ej.CardID,
		Statement:    ej.Statement,
	}
}

// EntryToJSON is the inverse of EntryJSON.Entry.
func EntryToJSON(e ledger.Entry) EntryJSON {
	return EntryJSON{
		ID:           e.ID,
		Date:         e.Date,
		Amount:       Amount(e.Amount),
		Kind:         e.Kind,
		PairID:       e.PairID,
		AccountID:    e.AccountID,
		Description:  e.Description,
		Category:     e.Category,
		Settled:      e.Settled,
		RecurrenceID: e.RecurrenceID,
		CardID:       e.CardID,
		Statement:    e.Statement,
	}
}

// =============================================================================
// SNAPSHOT FACTORY
// =============================================================================

// SnapshotFactory converts JSON snapshots to ledger data.
type SnapshotFactory struct{}

func NewSnapshotFactory() *SnapshotFactory {
	return &SnapshotFactory{}
}

// Parse decodes a snapshot document. Unknown fields are rejected.
func (f *SnapshotFactory) Parse(data []byte) (*Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	return &snap, nil
}

// Encode writes snap as indented JSON.
func (f *SnapshotFactory) Encode(snap *Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Seed records everything snap describes into book, in dependency order:
// accounts, cards, entries, transfers, purchases, payments.
func (f *SnapshotFactory) Seed(ctx context.Context, book *ledger.Book, snap *Snapshot) error {
	al := accounts.NewLedger(book)
	cl := cards.NewLedger(book)

	for _, aj := range snap.Accounts {
		account := ledger.Account{ID: aj.ID, Name: aj.Name, Type: aj.Type, OpenedOn: aj.OpenedOn}
		if err := al.OpenAccount(ctx, account, aj.OpeningBalance.Money()); err != nil {
			return fmt.Errorf("account %s: %w", aj.ID, err)
		}
	}
	for _, cj := range snap.Cards {
		card := ledger.Card{ID: cj.ID, Name: cj.Name, ClosingDay: cj.ClosingDay, DueDay: cj.DueDay, AccountID: cj.AccountID}
		if err := cl.OpenCard(ctx, card); err != nil {
			return fmt.Errorf("card %s: %w", cj.ID, err)
		}
	}

	if err := f.seedEntries(ctx, book, snap.Entries); err != nil {
		return err
	}

	for _, tj := range snap.Transfers {
		t := accounts.Transfer{ID: tj.ID, From: tj.From, To: tj.To, Date: tj.Date, Amount: tj.Amount.Money(), Description: tj.Description}
		var err error
		if tj.Frequency != "" {
			_, err = al.RecordRecurringTransfer(ctx, t, tj.Frequency)
		} else {
			_, _, err = al.RecordTransfer(ctx, t)
		}
		if err != nil {
			return fmt.Errorf("transfer %s: %w", tj.ID, err)
		}
	}

	for _, pj := range snap.Purchases {
		p := cards.Purchase{
			ID:           pj.ID,
			CardID:       pj.CardID,
			Date:         pj.Date,
			Total:        pj.Total.Money(),
			Installments: pj.Installments,
			Description:  pj.Description,
			Category:     pj.Category,
		}
		var err error
		if pj.Frequency != "" {
			_, err = cl.RecordRecurringPurchase(ctx, p, pj.Frequency)
		} else {
			_, err = cl.RecordPurchase(ctx, p)
		}
		if err != nil {
			return fmt.Errorf("purchase %s: %w", pj.ID, err)
		}
	}

	for i, pj := range snap.Payments {
		id := pj.ID
		if id == "" {
			id = ledger.EntryID(fmt.Sprintf("pay-%s-%s-%d", pj.CardID, pj.Statement, i))
		}
		_, err := cl.PayBill(ctx, cards.Payment{
			ID:        id,
			CardID:    pj.CardID,
			Statement: pj.Statement,
			Date:      pj.Date,
			Amount:    pj.Amount.Money(),
			AccountID: pj.AccountID,
		})
		if err != nil {
			return fmt.Errorf("payment %s: %w", id, err)
		}
	}
	return nil
}

// seedEntries records one-off entries in a single batch, so explicit
// transfer legs can pair up, and recurring entries as series.
func (f *SnapshotFactory) seedEntries(ctx context.Context, book *ledger.Book, entries []EntryJSON) error {
	var (
		oneOff    []ledger.Entry
		recurring = make(map[string][]ledger.Entry)
		order     []string
		freqs     = make(map[string]ledger.Frequency)
	)
	for _, ej := range entries {
		e := ej.Entry()
		if ej.Frequency == "" {
			oneOff = append(oneOff, e)
			continue
		}
		key := e.RecurrenceID
		if key == "" {
			key = string(e.ID)
		}
		e.RecurrenceID = key
		if _, seen := recurring[key]; !seen {
			order = append(order, key)
			freqs[key] = ej.Frequency
		}
		if freqs[key] != ej.Frequency {
			return fmt.Errorf("entry %s: series %s mixes frequencies: %w", e.ID, key, ledger.ErrInvalidFrequency)
		}
		recurring[key] = append(recurring[key], e)
	}

	if len(oneOff) > 0 {
		if err := book.RecordBatch(ctx, oneOff); err != nil {
			return fmt.Errorf("entries: %w", err)
		}
	}
	for _, key := range order {
		if _, err := book.RecordSeries(ctx, freqs[key], recurring[key]...); err != nil {
			return fmt.Errorf("series %s: %w", key, err)
		}
	}
	return nil
}

// Query returns the projection query snap describes.
func (f *SnapshotFactory) Query(snap *Snapshot) ledger.ProjectionQuery {
	overlay := make([]ledger.Entry, 0, len(snap.Overlay))
	for _, ej := range snap.Overlay {
		e := ej.Entry()
		e.Virtual = true
		overlay = append(overlay, e)
	}
	return ledger.ProjectionQuery{
		Start:   snap.Start,
		Months:  snap.Months,
		Today:   snap.Today,
		Visible: ledger.NewAccountSet(snap.VisibleAccounts...),
		Overlay: overlay,
	}
}

// Book seeds a fresh in-memory book with snap.
func (f *SnapshotFactory) Book(ctx context.Context, snap *Snapshot, engine *ledger.ProjectionEngine) (*ledger.Book, error) {
	book := ledger.NewBook(store.NewMemory(), engine)
	if err := f.Seed(ctx, book, snap); err != nil {
		return nil, err
	}
	return book, nil
}

// ProjectionInput seeds an in-memory book with snap and returns the input
// of its projection. The snapshot's explicit anchor is added to the
// balance accumulated by its history.
func (f *SnapshotFactory) ProjectionInput(ctx context.Context, snap *Snapshot) (ledger.ProjectionInput, error) {
	book, err := f.Book(ctx, snap, nil)
	if err != nil {
		return ledger.ProjectionInput{}, err
	}
	input, err := book.ProjectionInput(ctx, f.Query(snap))
	if err != nil {
		return ledger.ProjectionInput{}, err
	}
	input.Anchor += snap.Anchor.Money()
	return input, nil
}
