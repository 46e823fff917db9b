package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/ledger"
	"github.com/warp/cashflow-engine/logging"
)

// =============================================================================
// SIMULATION SESSIONS
// =============================================================================
//
// A session is an overlay of virtual entries kept in memory. Projections
// blend it with ?session=ID; nothing here reaches the repository.
//
//   POST   /api/sessions                         Open session
//   GET    /api/sessions                         List session ids
//   GET    /api/sessions/{id}                    Session with its entries
//   DELETE /api/sessions/{id}                    Exit and discard
//   POST   /api/sessions/{id}/entries            Add virtual entry
//   PUT    /api/sessions/{id}/entries/{entryID}  Replace virtual entry
//   DELETE /api/sessions/{id}/entries/{entryID}  Remove virtual entry

// OpenSession starts a simulation session.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	o := h.Sessions.Open()
	SetSimulationSessions(h.Sessions.Len())
	h.logger.InfoContext(r.Context(), "simulation opened", slog.String(logging.FieldSession, o.ID()))
	writeJSON(w, http.StatusCreated, toSessionDTO(o))
}

// ListSessions returns live session ids.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Sessions.IDs())
}

// GetSession returns a session and its entries.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	o, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get session", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(o))
}

// ExitSession discards a session and every virtual entry in it.
func (h *Handler) ExitSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Sessions.Exit(id); err != nil {
		h.fail(w, r, "Failed to exit session", err)
		return
	}
	SetSimulationSessions(h.Sessions.Len())
	h.logger.InfoContext(r.Context(), "simulation discarded", slog.String(logging.FieldSession, id))
	w.WriteHeader(http.StatusNoContent)
}

// AddSessionEntry adds a virtual entry. An empty id is generated.
func (h *Handler) AddSessionEntry(w http.ResponseWriter, r *http.Request) {
	o, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get session", err)
		return
	}
	var req factory.EntryJSON
	if !decode(w, r, &req) {
		return
	}
	e, err := o.Add(req.Entry())
	if err != nil {
		h.fail(w, r, "Failed to add entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.EntryToJSON(e))
}

// UpdateSessionEntry replaces a virtual entry.
func (h *Handler) UpdateSessionEntry(w http.ResponseWriter, r *http.Request) {
	o, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get session", err)
		return
	}
	var req factory.EntryJSON
	if !decode(w, r, &req) {
		return
	}
	e := req.Entry()
	e.ID = ledger.EntryID(chi.URLParam(r, "entryID"))
	updated, err := o.Update(e)
	if err != nil {
		h.fail(w, r, "Failed to update entry", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.EntryToJSON(updated))
}

// RemoveSessionEntry removes a virtual entry.
func (h *Handler) RemoveSessionEntry(w http.ResponseWriter, r *http.Request) {
	o, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get session", err)
		return
	}
	if err := o.Remove(ledger.EntryID(chi.URLParam(r, "entryID"))); err != nil {
		h.fail(w, r, "Failed to remove entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
