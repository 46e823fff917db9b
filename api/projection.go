package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/warp/cashflow-engine/export"
	"github.com/warp/cashflow-engine/ledger"
	"github.com/warp/cashflow-engine/logging"
)

// =============================================================================
// PROJECTION ENDPOINTS
// =============================================================================
//
//   GET  /api/projection            Project persisted data
//   GET  /api/projection/export     Same, rendered as xlsx | pdf | md
//   POST /api/snapshots/projection  Project a posted snapshot (no writes)
//   POST /api/snapshots/load        Seed persisted data from a snapshot
//
// Query parameters (GET):
//   start=YYYY-MM      First month (default: current month)
//   months=N           Window length (default: configured)
//   today=YYYY-MM-DD   Reference date for overdue bills (default: now)
//   accounts=a,b       Visible accounts (default: all)
//   session=ID         Blend a simulation session's overlay
//   days=true          Include the day series

// projectionQuery reads the query parameters shared by the projection
// endpoints.
func (h *Handler) projectionQuery(r *http.Request) (ledger.ProjectionQuery, error) {
	params := r.URL.Query()
	q := ledger.ProjectionQuery{
		Start:  h.today().Competency(),
		Months: h.months,
		Today:  h.today(),
	}

	if v := params.Get("start"); v != "" {
		c, err := ledger.ParseCompetency(v)
		if err != nil {
			return q, err
		}
		q.Start = c
	}
	if v := params.Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > ledger.MaxProjectionMonths {
			return q, fmt.Errorf("months %q: %w", v, ledger.ErrInvalidWindow)
		}
		q.Months = n
	}
	if v := params.Get("today"); v != "" {
		d, err := ledger.ParseDate(v)
		if err != nil {
			return q, err
		}
		q.Today = d
	}
	if v := params.Get("accounts"); v != "" {
		var ids []ledger.AccountID
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, ledger.AccountID(id))
			}
		}
		q.Visible = ledger.NewAccountSet(ids...)
	}
	if v := params.Get("session"); v != "" {
		o, err := h.Sessions.Get(v)
		if err != nil {
			return q, err
		}
		q.Overlay = o.Entries()
	}
	return q, nil
}

func (h *Handler) project(r *http.Request) (*ledger.ProjectionResult, error) {
	q, err := h.projectionQuery(r)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	result, err := h.Book.Projection(r.Context(), q)
	ObserveProjection(err, time.Since(start))
	return result, err
}

// GetProjection projects persisted data.
// GET /api/projection
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	result, err := h.project(r)
	if err != nil {
		h.fail(w, r, "Failed to project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(result, r.URL.Query().Get("days") == "true"))
}

// ExportProjection renders the projection as a downloadable document.
// GET /api/projection/export?format=xlsx|pdf|md
func (h *Handler) ExportProjection(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		IncExport(r.URL.Query().Get("format"), err)
		writeError(w, http.StatusBadRequest, "Invalid format (use xlsx, pdf or md)", err)
		return
	}

	result, err := h.project(r)
	if err != nil {
		IncExport(string(format), err)
		h.fail(w, r, "Failed to project", err)
		return
	}

	data, err := export.Render(format, result, export.Options{
		Currency:    h.currency,
		IncludeDays: r.URL.Query().Get("days") == "true",
	})
	IncExport(string(format), err)
	if err != nil {
		h.fail(w, r, "Failed to export", err)
		return
	}

	h.logger.InfoContext(r.Context(), "projection exported",
		slog.String(logging.FieldFormat, string(format)),
		slog.String(logging.FieldWindow, result.Window.String()))

	filename := fmt.Sprintf("projection-%s%s", result.Window.From.Competency(), format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ProjectSnapshot projects a posted snapshot document without touching
// persisted data.
// POST /api/snapshots/projection
func (h *Handler) ProjectSnapshot(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	snap, err := h.Snapshots.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid snapshot", err)
		return
	}

	input, err := h.Snapshots.ProjectionInput(r.Context(), snap)
	if err != nil {
		h.fail(w, r, "Failed to load snapshot", err)
		return
	}

	start := time.Now()
	result, err := h.engine.Project(r.Context(), input)
	ObserveProjection(err, time.Since(start))
	if err != nil {
		h.fail(w, r, "Failed to project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(result, r.URL.Query().Get("days") == "true"))
}

// LoadSnapshot seeds persisted data from a snapshot document. The
// snapshot's window, anchor and overlay are ignored.
// POST /api/snapshots/load
func (h *Handler) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	snap, err := h.Snapshots.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid snapshot", err)
		return
	}
	if err := h.Snapshots.Seed(r.Context(), h.Book, snap); err != nil {
		h.fail(w, r, "Failed to load snapshot", err)
		return
	}

	entries, err := h.Book.Entries(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list entries", err)
		return
	}
	h.logger.InfoContext(r.Context(), "snapshot loaded", slog.Int(logging.FieldEntries, len(entries)))
	writeJSON(w, http.StatusOK, map[string]int{
		"accounts": len(snap.Accounts),
		"cards":    len(snap.Cards),
		"entries":  len(entries),
	})
}
