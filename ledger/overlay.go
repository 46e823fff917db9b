/*
overlay.go - Simulation overlays (what-if sessions)

PURPOSE:
  A simulation session holds hypothetical entries the user adds, edits and
  removes freely. The entries live only in process memory, belong to the
  session that created them and vanish when the session is exited.

ISOLATION:
  Overlay entries are always Virtual. They are handed to Project as a
  separate input (ProjectionInput.Overlay) and unioned at read time, so the
  real entry set is never touched. Book refuses to persist Virtual entries.
  An overlay entry may not reuse an id or transfer pair id of the real
  entries it is projected with.

CONCURRENCY:
  Overlay and Sessions are safe for concurrent use; HTTP handlers for the
  same session may run in parallel.

SEE ALSO:
  - projection.go: Overlay union
  - api/sessions.go: Session endpoints
*/
package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// OVERLAY - One session's hypothetical entries
// =============================================================================

type Overlay struct {
	mu      sync.RWMutex
	id      string
	entries map[EntryID]Entry
}

// NewOverlay creates an empty overlay for session id.
func NewOverlay(id string) *Overlay {
	return &Overlay{id: id, entries: make(map[EntryID]Entry)}
}

func (o *Overlay) ID() string { return o.id }

// Add validates e, marks it Virtual and stores it. An empty id is replaced
// by a random one. Transfer legs are added one at a time, so pairing is
// checked at projection time.
func (o *Overlay) Add(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = EntryID("sim-" + uuid.NewString())
	}
	e.Virtual = true
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.entries[e.ID]; exists {
		return Entry{}, fmt.Errorf("overlay %s: entry %s: %w", o.id, e.ID, ErrDuplicateEntry)
	}
	o.entries[e.ID] = e
	return e, nil
}

// Update replaces an existing entry.
func (o *Overlay) Update(e Entry) (Entry, error) {
	e.Virtual = true
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.entries[e.ID]; !exists {
		return Entry{}, fmt.Errorf("overlay %s: entry %s: %w", o.id, e.ID, ErrEntryNotFound)
	}
	o.entries[e.ID] = e
	return e, nil
}

// Remove deletes an entry.
func (o *Overlay) Remove(id EntryID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.entries[id]; !exists {
		return fmt.Errorf("overlay %s: entry %s: %w", o.id, id, ErrEntryNotFound)
	}
	delete(o.entries, id)
	return nil
}

// Entries returns a snapshot ordered by date, then id.
func (o *Overlay) Entries() []Entry {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]Entry, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.entries)
}

// Clear drops every entry.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = make(map[EntryID]Entry)
}

// =============================================================================
// SESSIONS - Registry of live overlays
// =============================================================================

type Sessions struct {
	mu       sync.RWMutex
	overlays map[string]*Overlay
}

func NewSessions() *Sessions {
	return &Sessions{overlays: make(map[string]*Overlay)}
}

// Open starts a new session.
func (s *Sessions) Open() *Overlay {
	o := NewOverlay(uuid.NewString())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays[o.id] = o
	return o
}

// Get returns a live session.
func (s *Sessions) Get(id string) (*Overlay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overlays[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return o, nil
}

// Exit discards a session and all of its entries.
func (s *Sessions) Exit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overlays[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	o.Clear()
	delete(s.overlays, id)
	return nil
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.overlays)
}

// IDs lists live session ids in order.
func (s *Sessions) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.overlays))
	for id := range s.overlays {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// unionOverlay appends overlay entries to base as virtual entries. An
// overlay id already used in base, or an overlay transfer joining a pair
// of base, fails with ErrDuplicateEntry.
func unionOverlay(base, overlay []Entry) ([]Entry, error) {
	if len(overlay) == 0 {
		return base, nil
	}
	ids := make(map[EntryID]bool, len(base)+len(overlay))
	pairs := make(map[string]bool)
	for _, e := range base {
		ids[e.ID] = true
		if e.PairID != "" {
			pairs[e.PairID] = true
		}
	}
	for _, e := range overlay {
		if ids[e.ID] {
			return nil, fmt.Errorf("overlay entry %s: %w", e.ID, ErrDuplicateEntry)
		}
		if e.PairID != "" && pairs[e.PairID] {
			return nil, fmt.Errorf("overlay entry %s: pair %s: %w", e.ID, e.PairID, ErrDuplicateEntry)
		}
		ids[e.ID] = true
		e.Virtual = true
		base = append(base, e)
	}
	return base, nil
}
