/*
ledger.go - Book: the read model over a Repository

PURPOSE:
  Book is the single place where persisted data meets the pure engine. It
  validates writes (no virtual entries, known accounts and cards, complete
  transfer pairs) and assembles ProjectionInput snapshots for reads.

WRITE PATHS:
  Record        - one entry
  RecordBatch   - several entries atomically (transfer pairs)
  RecordSeries  - expand recurrences and replace the series wholesale
  RecordPlan    - store an installment plan, replacing the previous one

READ PATHS:
  Entries       - every persisted entry
  CardAccounts  - charges (plans) and payments (entries) per card
  Projection    - anchor from history + cards + overlay -> ProjectionResult

ANCHOR:
  The anchor of a projection is the balance accumulated by every persisted
  entry dated before the window, settled or forecast. Unpaid card bills
  due before the window are subtracted by Project as CarriedDebt.

SEE ALSO:
  - store.go: Repository interfaces
  - projection.go: Pure projection
  - accounts/, cards/: Domain wrappers around Book
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
)

// Book records and reads ledger data through a Repository.
type Book struct {
	repo   Repository
	engine *ProjectionEngine
}

// NewBook creates a Book. A nil engine uses a default one.
func NewBook(repo Repository, engine *ProjectionEngine) *Book {
	if engine == nil {
		engine = &ProjectionEngine{}
	}
	return &Book{repo: repo, engine: engine}
}

// Repository exposes the underlying repository.
func (b *Book) Repository() Repository { return b.repo }

// =============================================================================
// WRITES
// =============================================================================

// Record persists a single non-transfer entry.
func (b *Book) Record(ctx context.Context, e Entry) error {
	return b.RecordBatch(ctx, []Entry{e})
}

// RecordBatch validates and persists entries atomically. Transfer legs must
// be complete pairs within the batch.
func (b *Book) RecordBatch(ctx context.Context, es []Entry) error {
	if err := b.validate(ctx, es); err != nil {
		return err
	}
	return b.repo.AppendBatch(ctx, es)
}

// RecordSeries expands every base with freq and replaces the series they
// share. Several bases (both legs of a recurring transfer) must carry the
// same RecurrenceID.
func (b *Book) RecordSeries(ctx context.Context, freq Frequency, bases ...Entry) ([]Entry, error) {
	if len(bases) == 0 {
		return nil, fmt.Errorf("record series: no base entry: %w", ErrInvalidEntry)
	}
	recurrenceID := bases[0].RecurrenceID
	if recurrenceID == "" {
		if len(bases) > 1 {
			return nil, fmt.Errorf("record series: %d bases without recurrence id: %w", len(bases), ErrInvalidEntry)
		}
		recurrenceID = string(bases[0].ID)
	}

	var series []Entry
	for _, base := range bases {
		if base.RecurrenceID != "" && base.RecurrenceID != recurrenceID {
			return nil, fmt.Errorf("record series: base %s belongs to %s, not %s: %w", base.ID, base.RecurrenceID, recurrenceID, ErrInvalidEntry)
		}
		base.RecurrenceID = recurrenceID
		expanded, err := Expand(base, freq)
		if err != nil {
			return nil, err
		}
		series = append(series, expanded...)
	}

	if err := b.validate(ctx, series); err != nil {
		return nil, err
	}
	if err := b.repo.ReplaceSeries(ctx, recurrenceID, series); err != nil {
		return nil, fmt.Errorf("replace series %s: %w", recurrenceID, err)
	}
	return series, nil
}

// RecordPlan stores an installment plan for a known card.
func (b *Book) RecordPlan(ctx context.Context, plan InstallmentPlan) error {
	if _, err := b.repo.GetCard(ctx, plan.CardID); err != nil {
		return err
	}
	if plan.Sum() != plan.Total {
		return fmt.Errorf("plan %s: installments sum to %s, total is %s: %w", plan.PurchaseID, plan.Sum(), plan.Total, ErrInvalidAmount)
	}
	return b.repo.SavePlan(ctx, plan)
}

func (b *Book) validate(ctx context.Context, es []Entry) error {
	accounts := make(map[AccountID]bool)
	for _, e := range es {
		if e.Virtual {
			return fmt.Errorf("entry %s: %w", e.ID, ErrVirtualEntry)
		}
		if err := e.Validate(); err != nil {
			return err
		}
		if e.AccountID == "" || accounts[e.AccountID] {
			continue
		}
		if _, err := b.repo.GetAccount(ctx, e.AccountID); err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
		accounts[e.AccountID] = true
	}
	if _, err := resolveTransfers(es); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// Entries returns every persisted entry.
func (b *Book) Entries(ctx context.Context) ([]Entry, error) {
	return b.repo.Load(ctx)
}

// CardAccounts folds each card's plans and payment entries.
func (b *Book) CardAccounts(ctx context.Context, entries []Entry) ([]CardAccount, error) {
	cards, err := b.repo.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CardAccount, 0, len(cards))
	for _, card := range cards {
		plans, err := b.repo.LoadPlans(ctx, card.ID)
		if err != nil {
			return nil, fmt.Errorf("load plans of card %s: %w", card.ID, err)
		}
		out = append(out, NewCardAccount(card, plans, entries))
	}
	return out, nil
}

// CardAccount returns the account of a single card.
func (b *Book) CardAccount(ctx context.Context, id CardID) (CardAccount, error) {
	card, err := b.repo.GetCard(ctx, id)
	if err != nil {
		return CardAccount{}, err
	}
	plans, err := b.repo.LoadPlans(ctx, id)
	if err != nil {
		return CardAccount{}, err
	}
	entries, err := b.repo.Load(ctx)
	if err != nil {
		return CardAccount{}, err
	}
	return NewCardAccount(card, plans, entries), nil
}

// ProjectionQuery selects what Book.Projection projects.
type ProjectionQuery struct {
	Start       Competency
	Months      int
	Today       Date
	Visible     AccountSet
	Overlay     []Entry
	Recurrences []Recurrence
}

// Projection loads the persisted snapshot and projects it.
func (b *Book) Projection(ctx context.Context, q ProjectionQuery) (*ProjectionResult, error) {
	input, err := b.ProjectionInput(ctx, q)
	if err != nil {
		return nil, err
	}
	return b.engine.Project(ctx, input)
}

// ProjectionInput assembles the projection input for q without running it.
func (b *Book) ProjectionInput(ctx context.Context, q ProjectionQuery) (ProjectionInput, error) {
	if err := q.Start.First().Validate(); err != nil {
		return ProjectionInput{}, err
	}
	entries, err := b.repo.Load(ctx)
	if err != nil {
		return ProjectionInput{}, fmt.Errorf("load entries: %w", err)
	}
	anchor, err := BalanceBefore(entries, q.Start.First(), q.Visible)
	if err != nil {
		return ProjectionInput{}, err
	}
	cards, err := b.CardAccounts(ctx, entries)
	if err != nil {
		return ProjectionInput{}, err
	}
	return ProjectionInput{
		Start:       q.Start,
		Months:      q.Months,
		Today:       q.Today,
		Anchor:      anchor,
		Entries:     entries,
		Recurrences: q.Recurrences,
		Cards:       cards,
		Overlay:     q.Overlay,
		Visible:     q.Visible,
	}, nil
}

// IsDuplicate reports whether err is a duplicate id conflict.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}
