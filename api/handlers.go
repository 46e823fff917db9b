/*
handlers.go - HTTP API handlers for the cash flow engine

PURPOSE:
  Exposes the ledger, the card and account domains, projections and
  simulation sessions via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                     List accounts
    POST   /api/accounts                     Open account (optional opening balance)
    GET    /api/accounts/{id}                Get account
    GET    /api/accounts/{id}/balance?on=    Balance at end of day

  Entries:
    GET    /api/entries?from=&to=            List persisted entries
    POST   /api/entries                      Record entry (frequency = recurring)
    POST   /api/transfers                    Record transfer (frequency = recurring)
    DELETE /api/series/{id}                  Stop a recurring series

  Cards:
    GET    /api/cards                        List cards
    POST   /api/cards                        Open card
    GET    /api/cards/{id}                   Get card
    GET    /api/cards/{id}/statement         Per-competency statement
    POST   /api/cards/{id}/purchases         Record purchase (installments)
    DELETE /api/cards/{id}/purchases/{pid}   Cancel purchase
    POST   /api/cards/{id}/payments          Pay (part of) a bill

  Projection, simulation and previews: see projection.go, sessions.go
  and preview.go.

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Book: Read model over the repository
  - Accounts / Cards: Domain ledgers writing through the Book
  - Sessions: Live simulation overlays (memory only)
  - Snapshots: JSON snapshot factory

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (accounts, cards, ledger)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Account, card, session or entry not found
  - 409: Duplicate entry id
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/warp/cashflow-engine/accounts"
	"github.com/warp/cashflow-engine/cards"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/ledger"
	"github.com/warp/cashflow-engine/logging"
)

// maxBodyBytes bounds request bodies, snapshots included.
const maxBodyBytes = 4 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options configures a Handler. Zero values fall back to defaults.
type Options struct {
	Logger           *slog.Logger
	Currency         string
	ProjectionMonths int
	Now              func() time.Time
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Repo      ledger.Repository
	Book      *ledger.Book
	Accounts  *accounts.Ledger
	Cards     *cards.Ledger
	Sessions  *ledger.Sessions
	Snapshots *factory.SnapshotFactory

	engine   *ledger.ProjectionEngine
	logger   *slog.Logger
	currency string
	months   int
	now      func() time.Time
}

// NewHandler creates a new handler over repo.
func NewHandler(repo ledger.Repository, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	engine := &ledger.ProjectionEngine{Logger: logging.WithComponent(logger, logging.ComponentProjection)}
	book := ledger.NewBook(repo, engine)

	months := opts.ProjectionMonths
	if months <= 0 {
		months = ledger.ProjectionMonths
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Handler{
		Repo:      repo,
		Book:      book,
		Accounts:  accounts.NewLedger(book),
		Cards:     cards.NewLedger(book),
		Sessions:  ledger.NewSessions(),
		Snapshots: factory.NewSnapshotFactory(),
		engine:    engine,
		logger:    logging.WithComponent(logger, logging.ComponentHTTP),
		currency:  opts.Currency,
		months:    months,
		now:       now,
	}
}

func (h *Handler) today() ledger.Date {
	return ledger.DateOf(h.now())
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts.
// GET /api/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Accounts.Accounts(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(list))
	for i, a := range list {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount opens an account.
// POST /api/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req factory.AccountJSON
	if !decode(w, r, &req) {
		return
	}
	if req.OpenedOn.IsZero() && !req.OpeningBalance.Money().IsZero() {
		req.OpenedOn = h.today()
	}

	account := ledger.Account{ID: req.ID, Name: req.Name, Type: req.Type, OpenedOn: req.OpenedOn}
	if err := h.Accounts.OpenAccount(r.Context(), account, req.OpeningBalance.Money()); err != nil {
		h.fail(w, r, "Failed to open account", err)
		return
	}

	created, err := h.Accounts.Account(r.Context(), req.ID)
	if err != nil {
		h.fail(w, r, "Failed to load account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(created))
}

// GetAccount returns a single account.
// GET /api/accounts/{id}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.Accounts.Account(r.Context(), ledger.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// GetBalance returns an account balance at the end of a day.
// GET /api/accounts/{id}/balance?on=YYYY-MM-DD
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := ledger.AccountID(chi.URLParam(r, "id"))

	if _, err := h.Accounts.Account(ctx, id); err != nil {
		h.fail(w, r, "Failed to get account", err)
		return
	}

	on := h.today()
	if v := r.URL.Query().Get("on"); v != "" {
		d, err := ledger.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid on date (use YYYY-MM-DD)", err)
			return
		}
		on = d
	}

	balance, err := h.Accounts.Balance(ctx, on, id)
	if err != nil {
		h.fail(w, r, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		AccountID: id,
		On:        on,
		Balance:   factory.Amount(balance),
		Display:   balance.Display(h.currency),
	})
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns persisted entries, optionally within [from, to].
// GET /api/entries?from=&to=
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		entries []ledger.Entry
		err     error
	)
	if q.Get("from") != "" || q.Get("to") != "" {
		from, to, perr := parseRange(q.Get("from"), q.Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid range (use YYYY-MM-DD)", perr)
			return
		}
		entries, err = h.Repo.LoadRange(ctx, from, to)
	} else {
		entries, err = h.Book.Entries(ctx)
	}
	if err != nil {
		h.fail(w, r, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryJSON(entries))
}

// CreateEntry records an inflow, outflow, investment or initial balance.
// With a frequency the entry is expanded and stored as a series.
// POST /api/entries
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req factory.EntryJSON
	if !decode(w, r, &req) {
		return
	}
	e := req.Entry()
	if e.ID == "" {
		e.ID = ledger.EntryID(uuid.NewString())
	}

	if req.Frequency != "" {
		series, err := h.Accounts.RecordRecurring(r.Context(), e, req.Frequency)
		if err != nil {
			h.fail(w, r, "Failed to record recurring entry", err)
			return
		}
		writeJSON(w, http.StatusCreated, toEntryJSON(series))
		return
	}

	if err := h.Accounts.Record(r.Context(), e); err != nil {
		h.fail(w, r, "Failed to record entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, []factory.EntryJSON{factory.EntryToJSON(e)})
}

// CreateTransfer records both legs of a transfer.
// POST /api/transfers
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req factory.TransferJSON
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	t := accounts.Transfer{
		ID:          req.ID,
		From:        req.From,
		To:          req.To,
		Date:        req.Date,
		Amount:      req.Amount.Money(),
		Description: req.Description,
	}

	if req.Frequency != "" {
		legs, err := h.Accounts.RecordRecurringTransfer(r.Context(), t, req.Frequency)
		if err != nil {
			h.fail(w, r, "Failed to record recurring transfer", err)
			return
		}
		writeJSON(w, http.StatusCreated, toEntryJSON(legs))
		return
	}

	debit, credit, err := h.Accounts.RecordTransfer(r.Context(), t)
	if err != nil {
		h.fail(w, r, "Failed to record transfer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryJSON([]ledger.Entry{debit, credit}))
}

// DeleteSeries stops a recurring series.
// DELETE /api/series/{id}
func (h *Handler) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.StopRecurring(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "Failed to delete series", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CARD HANDLERS
// =============================================================================

// ListCards returns all cards.
// GET /api/cards
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	list, err := h.Cards.Cards(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list cards", err)
		return
	}
	dtos := make([]CardDTO, len(list))
	for i, c := range list {
		dtos[i] = toCardDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCard opens a card.
// POST /api/cards
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req factory.CardJSON
	if !decode(w, r, &req) {
		return
	}
	card := ledger.Card{ID: req.ID, Name: req.Name, ClosingDay: req.ClosingDay, DueDay: req.DueDay, AccountID: req.AccountID}
	if err := h.Cards.OpenCard(r.Context(), card); err != nil {
		h.fail(w, r, "Failed to open card", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardDTO(card))
}

// GetCard returns a single card.
// GET /api/cards/{id}
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.Cards.Card(r.Context(), ledger.CardID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get card", err)
		return
	}
	writeJSON(w, http.StatusOK, toCardDTO(card))
}

// GetStatement returns charged, paid and outstanding per competency.
// GET /api/cards/{id}/statement
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	st, err := h.Cards.Statement(r.Context(), ledger.CardID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to build statement", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(st))
}

// CreatePurchase records a purchase and its installment plan. With a
// frequency the purchase repeats and one plan is stored per occurrence.
// POST /api/cards/{id}/purchases
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req factory.PurchaseJSON
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	p := cards.Purchase{
		ID:           req.ID,
		CardID:       ledger.CardID(chi.URLParam(r, "id")),
		Date:         req.Date,
		Total:        req.Total.Money(),
		Installments: req.Installments,
		Description:  req.Description,
		Category:     req.Category,
	}

	var plans []ledger.InstallmentPlan
	if req.Frequency != "" {
		var err error
		plans, err = h.Cards.RecordRecurringPurchase(r.Context(), p, req.Frequency)
		if err != nil {
			h.fail(w, r, "Failed to record recurring purchase", err)
			return
		}
	} else {
		plan, err := h.Cards.RecordPurchase(r.Context(), p)
		if err != nil {
			h.fail(w, r, "Failed to record purchase", err)
			return
		}
		plans = []ledger.InstallmentPlan{plan}
	}

	dtos := make([]PlanDTO, len(plans))
	for i, plan := range plans {
		dtos[i] = toPlanDTO(plan)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// CancelPurchase removes a purchase and its installments.
// DELETE /api/cards/{id}/purchases/{purchaseID}
func (h *Handler) CancelPurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.Cards.CancelPurchase(r.Context(), chi.URLParam(r, "purchaseID")); err != nil {
		h.fail(w, r, "Failed to cancel purchase", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayBill records a payment against one statement.
// POST /api/cards/{id}/payments
func (h *Handler) PayBill(w http.ResponseWriter, r *http.Request) {
	var req factory.PaymentJSON
	if !decode(w, r, &req) {
		return
	}
	entry, err := h.Cards.PayBill(r.Context(), cards.Payment{
		ID:        req.ID,
		CardID:    ledger.CardID(chi.URLParam(r, "id")),
		Statement: req.Statement,
		Date:      req.Date,
		Amount:    req.Amount.Money(),
		AccountID: req.AccountID,
	})
	if err != nil {
		h.fail(w, r, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.EntryToJSON(entry))
}

// =============================================================================
// ADMIN
// =============================================================================

type resetter interface {
	Reset(ctx context.Context) error
}

// ResetDatabase deletes all persisted data and every simulation session.
// POST /api/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.Repo.(resetter)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Store does not support reset", nil)
		return
	}
	if err := rs.Reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	for _, id := range h.Sessions.IDs() {
		_ = h.Sessions.Exit(id)
	}
	SetSimulationSessions(h.Sessions.Len())
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps domain errors to a status and logs server-side failures.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), message,
			slog.String(logging.FieldRequestID, middleware.GetReqID(r.Context())),
			slog.Any(logging.FieldError, err))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case ledger.IsDuplicate(err):
		return http.StatusConflict
	case ledger.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func parseRange(from, to string) (ledger.Date, ledger.Date, error) {
	start, end := ledger.MustDate(1, 1, 1), ledger.MustDate(9999, 12, 31)
	var err error
	if from != "" {
		if start, err = ledger.ParseDate(from); err != nil {
			return ledger.Date{}, ledger.Date{}, err
		}
	}
	if to != "" {
		if end, err = ledger.ParseDate(to); err != nil {
			return ledger.Date{}, ledger.Date{}, err
		}
	}
	if end.Before(start) {
		return ledger.Date{}, ledger.Date{}, fmt.Errorf("%s before %s: %w", end, start, ledger.ErrInvalidWindow)
	}
	return start, end, nil
}
