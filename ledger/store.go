/*
store.go - Persistence interfaces for entries, accounts, cards and plans

PURPOSE:
  Defines the boundary between the engine and whatever keeps real data.
  The engine itself never calls a Store; Book does, and hands the loaded
  snapshot to the pure projection code.

KEY INTERFACES:
  Store:        Dated entries (append, load, replace a recurrence series)
  CatalogStore: Accounts and cards
  PlanStore:    Installment plans, replaced wholesale per purchase
  Repository:   All of the above

WHOLESALE REPLACEMENT:
  Plans and recurrence series are value objects. Editing the originating
  purchase or transaction recomputes them and replaces the previous version
  in one call (SavePlan, ReplaceSeries). There is no partial update.

VIRTUAL ENTRIES:
  Stores never see simulation entries. Book rejects them before any write.

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory, for tests and the CLI
  - store/sqlite/sqlite.go: SQLite with embedded migrations

SEE ALSO:
  - ledger.go: Book, the read model over a Repository
*/
package ledger

import "context"

// Store persists dated entries.
type Store interface {
	// Append persists an entry. Returns ErrDuplicateEntry if the id exists.
	Append(ctx context.Context, e Entry) error

	// AppendBatch persists entries atomically.
	AppendBatch(ctx context.Context, es []Entry) error

	// Load returns every entry ordered by date, then id.
	Load(ctx context.Context) ([]Entry, error)

	// LoadRange returns entries dated in [from, to].
	LoadRange(ctx context.Context, from, to Date) ([]Entry, error)

	// ReplaceSeries atomically swaps every entry of a recurrence series.
	ReplaceSeries(ctx context.Context, recurrenceID string, es []Entry) error

	// DeleteSeries removes a recurrence series.
	DeleteSeries(ctx context.Context, recurrenceID string) error
}

// CatalogStore persists accounts and cards.
type CatalogStore interface {
	SaveAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id AccountID) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)

	SaveCard(ctx context.Context, c Card) error
	GetCard(ctx context.Context, id CardID) (Card, error)
	ListCards(ctx context.Context) ([]Card, error)
}

// PlanStore persists installment plans.
type PlanStore interface {
	// SavePlan stores plan, replacing any plan with the same PurchaseID.
	SavePlan(ctx context.Context, plan InstallmentPlan) error
	DeletePlan(ctx context.Context, purchaseID string) error
	LoadPlans(ctx context.Context, cardID CardID) ([]InstallmentPlan, error)
}

// Repository is everything Book needs.
type Repository interface {
	Store
	CatalogStore
	PlanStore
}
