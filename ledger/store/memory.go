// Package store provides in-memory Repository implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/cashflow-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	entries  []ledger.Entry // sorted by date, then id
	ids      map[ledger.EntryID]bool
	accounts map[ledger.AccountID]ledger.Account
	cards    map[ledger.CardID]ledger.Card
	plans    map[string]ledger.InstallmentPlan
}

var _ ledger.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		ids:      make(map[ledger.EntryID]bool),
		accounts: make(map[ledger.AccountID]ledger.Account),
		cards:    make(map[ledger.CardID]ledger.Card),
		plans:    make(map[string]ledger.InstallmentPlan),
	}
}

// Append adds a single entry.
func (m *Memory) Append(_ context.Context, e ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids[e.ID] {
		return fmt.Errorf("entry %s: %w", e.ID, ledger.ErrDuplicateEntry)
	}
	m.insertLocked(e)
	return nil
}

// AppendBatch adds multiple entries atomically.
func (m *Memory) AppendBatch(_ context.Context, es []ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all ids first (atomic check)
	seen := make(map[ledger.EntryID]bool, len(es))
	for _, e := range es {
		if m.ids[e.ID] || seen[e.ID] {
			return fmt.Errorf("entry %s: %w", e.ID, ledger.ErrDuplicateEntry)
		}
		seen[e.ID] = true
	}

	for _, e := range es {
		m.insertLocked(e)
	}
	return nil
}

func (m *Memory) insertLocked(e ledger.Entry) {
	// Binary search for insertion point
	i := sort.Search(len(m.entries), func(i int) bool {
		return entryLess(e, m.entries[i])
	})

	m.entries = append(m.entries, ledger.Entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = e
	m.ids[e.ID] = true
}

func entryLess(a, b ledger.Entry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}

func (m *Memory) Load(_ context.Context) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Entry, len(m.entries))
	copy(result, m.entries)
	return result, nil
}

func (m *Memory) LoadRange(_ context.Context, from, to ledger.Date) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Entry
	for _, e := range m.entries {
		if e.Date.Within(from, to) {
			result = append(result, e)
		}
	}
	return result, nil
}

// ReplaceSeries drops the previous series and inserts es.
func (m *Memory) ReplaceSeries(_ context.Context, recurrenceID string, es []ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.withoutSeriesLocked(recurrenceID)
	ids := make(map[ledger.EntryID]bool, len(kept)+len(es))
	for _, e := range kept {
		ids[e.ID] = true
	}
	for _, e := range es {
		if ids[e.ID] {
			return fmt.Errorf("entry %s: %w", e.ID, ledger.ErrDuplicateEntry)
		}
		ids[e.ID] = true
	}

	m.entries = kept
	m.ids = ids
	for _, e := range es {
		m.insertLocked(e)
	}
	return nil
}

func (m *Memory) DeleteSeries(_ context.Context, recurrenceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = m.withoutSeriesLocked(recurrenceID)
	m.ids = make(map[ledger.EntryID]bool, len(m.entries))
	for _, e := range m.entries {
		m.ids[e.ID] = true
	}
	return nil
}

func (m *Memory) withoutSeriesLocked(recurrenceID string) []ledger.Entry {
	kept := make([]ledger.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.RecurrenceID != recurrenceID {
			kept = append(kept, e)
		}
	}
	return kept
}

// =============================================================================
// CATALOG
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id ledger.AccountID) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return ledger.Account{}, fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
	}
	return a, nil
}

func (m *Memory) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveCard(_ context.Context, c ledger.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[c.ID] = c
	return nil
}

func (m *Memory) GetCard(_ context.Context, id ledger.CardID) (ledger.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cards[id]
	if !ok {
		return ledger.Card{}, fmt.Errorf("card %s: %w", id, ledger.ErrCardNotFound)
	}
	return c, nil
}

func (m *Memory) ListCards(_ context.Context) ([]ledger.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Card, 0, len(m.cards))
	for _, c := range m.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// PLANS
// =============================================================================

func (m *Memory) SavePlan(_ context.Context, plan ledger.InstallmentPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan.Installments = append([]ledger.Installment(nil), plan.Installments...)
	m.plans[plan.PurchaseID] = plan
	return nil
}

func (m *Memory) DeletePlan(_ context.Context, purchaseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plans, purchaseID)
	return nil
}

func (m *Memory) LoadPlans(_ context.Context, cardID ledger.CardID) ([]ledger.InstallmentPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.InstallmentPlan
	for _, p := range m.plans {
		if p.CardID == cardID {
			p.Installments = append([]ledger.Installment(nil), p.Installments...)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].PurchaseDate.Before(out[j].PurchaseDate)
		}
		return out[i].PurchaseID < out[j].PurchaseID
	})
	return out, nil
}
