package api

import (
	"net/http"

	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/ledger"
)

// =============================================================================
// PREVIEWS
// =============================================================================
//
// Stateless calculators. Nothing is validated against stored cards or
// accounts and nothing is written.
//
//   POST /api/plans               Installment schedule of a purchase
//   POST /api/recurrences/expand  Forecast series of a recurring entry

// PlanPreviewRequest describes a purchase on a card cycle.
type PlanPreviewRequest struct {
	Date         ledger.Date    `json:"date"`
	Total        factory.Amount `json:"total"`
	Installments int            `json:"installments"`
	ClosingDay   int            `json:"closing_day"`
	DueDay       int            `json:"due_day"`
}

// PreviewPlan splits a purchase without recording it.
// POST /api/plans
func (h *Handler) PreviewPlan(w http.ResponseWriter, r *http.Request) {
	var req PlanPreviewRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Installments == 0 {
		req.Installments = 1
	}
	card := ledger.Card{ID: "preview", ClosingDay: req.ClosingDay, DueDay: req.DueDay}
	if err := card.Validate(); err != nil {
		h.fail(w, r, "Invalid card cycle", err)
		return
	}

	plan, err := ledger.BuildPlan(ledger.PlanInput{
		PurchaseID: "preview",
		Date:       req.Date,
		Total:      req.Total.Money(),
		Count:      req.Installments,
		ClosingDay: req.ClosingDay,
	})
	if err != nil {
		h.fail(w, r, "Failed to build plan", err)
		return
	}

	dto := toPlanDTO(plan)
	dto.PurchaseID = ""
	dto.CardID = ""
	for i := range dto.Installments {
		dto.Installments[i].Due = ledger.DueDate(dto.Installments[i].Competency, req.DueDay)
	}
	writeJSON(w, http.StatusOK, dto)
}

// PreviewRecurrence expands a recurring entry without recording it. The
// body is an entry with a frequency.
// POST /api/recurrences/expand
func (h *Handler) PreviewRecurrence(w http.ResponseWriter, r *http.Request) {
	var req factory.EntryJSON
	if !decode(w, r, &req) {
		return
	}
	base := req.Entry()
	if base.ID == "" {
		base.ID = "preview"
	}
	if err := base.Validate(); err != nil {
		h.fail(w, r, "Invalid entry", err)
		return
	}

	series, err := ledger.Expand(base, req.Frequency)
	if err != nil {
		h.fail(w, r, "Failed to expand recurrence", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(series))
}
