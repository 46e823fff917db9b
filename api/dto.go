/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Request bodies reuse
  the snapshot schema from the factory package, so a client writes an
  account, card, purchase or entry the same way in a snapshot file and in
  a POST body.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - factory.*JSON: Request body types from clients

AMOUNTS:
  Always decimal strings in major units ("1234.56") in responses.
  Requests accept strings or JSON numbers.

TYPES:
  Accounts:   AccountDTO, BalanceDTO
  Cards:      CardDTO, PlanDTO, StatementDTO
  Projection: ProjectionDTO, StatsDTO, MonthDTO, DayDTO
  Sessions:   SessionDTO

SEE ALSO:
  - handlers.go: Uses these types
  - factory/snapshot.go: Request schema
*/
package api

import (
	"github.com/warp/cashflow-engine/cards"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/ledger"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

type AccountDTO struct {
	ID       ledger.AccountID   `json:"id"`
	Name     string             `json:"name"`
	Type     ledger.AccountType `json:"type"`
	OpenedOn ledger.Date        `json:"opened_on"`
}

type BalanceDTO struct {
	AccountID ledger.AccountID `json:"account_id"`
	On        ledger.Date      `json:"on"`
	Balance   factory.Amount   `json:"balance"`
	Display   string           `json:"display"`
}

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{ID: a.ID, Name: a.Name, Type: a.Type, OpenedOn: a.OpenedOn}
}

// =============================================================================
// CARDS
// =============================================================================

type CardDTO struct {
	ID         ledger.CardID    `json:"id"`
	Name       string           `json:"name"`
	ClosingDay int              `json:"closing_day"`
	DueDay     int              `json:"due_day"`
	AccountID  ledger.AccountID `json:"account_id"`
}

type InstallmentDTO struct {
	Number     int               `json:"number"`
	Amount     factory.Amount    `json:"amount"`
	Competency ledger.Competency `json:"competency"`
	Due        ledger.Date       `json:"due,omitempty"`
}

type PlanDTO struct {
	PurchaseID   string           `json:"purchase_id,omitempty"`
	CardID       ledger.CardID    `json:"card_id,omitempty"`
	PurchaseDate ledger.Date      `json:"purchase_date"`
	Total        factory.Amount   `json:"total"`
	Description  string           `json:"description"`
	Installments []InstallmentDTO `json:"installments"`
}

type StatementLineDTO struct {
	Competency  ledger.Competency `json:"competency"`
	Due         ledger.Date       `json:"due"`
	Charged     factory.Amount    `json:"charged"`
	Paid        factory.Amount    `json:"paid"`
	Outstanding factory.Amount    `json:"outstanding"`
	Settled     bool              `json:"settled"`
}

type StatementDTO struct {
	Card        CardDTO            `json:"card"`
	Lines       []StatementLineDTO `json:"lines"`
	Outstanding factory.Amount     `json:"outstanding"`
}

func toCardDTO(c ledger.Card) CardDTO {
	return CardDTO{ID: c.ID, Name: c.Name, ClosingDay: c.ClosingDay, DueDay: c.DueDay, AccountID: c.AccountID}
}

func toPlanDTO(p ledger.InstallmentPlan) PlanDTO {
	dto := PlanDTO{
		PurchaseID:   p.PurchaseID,
		CardID:       p.CardID,
		PurchaseDate: p.PurchaseDate,
		Total:        factory.Amount(p.Total),
		Description:  p.Description,
		Installments: make([]InstallmentDTO, len(p.Installments)),
	}
	for i, inst := range p.Installments {
		dto.Installments[i] = InstallmentDTO{Number: inst.Number, Amount: factory.Amount(inst.Amount), Competency: inst.Competency}
	}
	return dto
}

func toStatementDTO(st cards.Statement) StatementDTO {
	dto := StatementDTO{
		Card:        toCardDTO(st.Card),
		Lines:       make([]StatementLineDTO, len(st.Lines)),
		Outstanding: factory.Amount(st.Outstanding),
	}
	for i, l := range st.Lines {
		dto.Lines[i] = StatementLineDTO{
			Competency:  l.Competency,
			Due:         l.Due,
			Charged:     factory.Amount(l.Charged),
			Paid:        factory.Amount(l.Paid),
			Outstanding: factory.Amount(l.Outstanding),
			Settled:     l.Settled,
		}
	}
	return dto
}

// =============================================================================
// PROJECTION
// =============================================================================

type StatsDTO struct {
	Opening         factory.Amount `json:"opening"`
	Closing         factory.Amount `json:"closing"`
	MinBalance      factory.Amount `json:"min_balance"`
	MinDate         ledger.Date    `json:"min_date"`
	MaxBalance      factory.Amount `json:"max_balance"`
	MaxDate         ledger.Date    `json:"max_date"`
	TotalInflow     factory.Amount `json:"total_inflow"`
	TotalOutflow    factory.Amount `json:"total_outflow"`
	TotalInvestment factory.Amount `json:"total_investment"`
	TotalTransfers  factory.Amount `json:"total_transfers"`
}

type MonthDTO struct {
	Month      ledger.Competency `json:"month"`
	Inflow     factory.Amount    `json:"inflow"`
	Outflow    factory.Amount    `json:"outflow"`
	Investment factory.Amount    `json:"investment"`
	Transfers  factory.Amount    `json:"transfers"`
	Closing    factory.Amount    `json:"closing"`
}

type DayDTO struct {
	Date       ledger.Date         `json:"date"`
	Inflow     factory.Amount      `json:"inflow"`
	Outflow    factory.Amount      `json:"outflow"`
	Investment factory.Amount      `json:"investment"`
	Transfers  factory.Amount      `json:"transfers"`
	Balance    factory.Amount      `json:"balance"`
	Entries    []factory.EntryJSON `json:"entries,omitempty"`
}

type ProjectionDTO struct {
	From        ledger.Date         `json:"from"`
	To          ledger.Date         `json:"to"`
	Opening     factory.Amount      `json:"opening"`
	CarriedDebt factory.Amount      `json:"carried_debt"`
	Stats       StatsDTO            `json:"stats"`
	Months      []MonthDTO          `json:"months"`
	Bills       []factory.EntryJSON `json:"bills"`
	Days        []DayDTO            `json:"days,omitempty"`
}

func toProjectionDTO(r *ledger.ProjectionResult, withDays bool) ProjectionDTO {
	s := r.Stats
	dto := ProjectionDTO{
		From:        r.Window.From,
		To:          r.Window.To,
		Opening:     factory.Amount(r.Opening),
		CarriedDebt: factory.Amount(r.CarriedDebt),
		Stats: StatsDTO{
			Opening:         factory.Amount(s.Opening),
			Closing:         factory.Amount(s.Closing),
			MinBalance:      factory.Amount(s.MinBalance),
			MinDate:         s.MinDate,
			MaxBalance:      factory.Amount(s.MaxBalance),
			MaxDate:         s.MaxDate,
			TotalInflow:     factory.Amount(s.TotalInflow),
			TotalOutflow:    factory.Amount(s.TotalOutflow),
			TotalInvestment: factory.Amount(s.TotalInvestment),
			TotalTransfers:  factory.Amount(s.TotalTransfers),
		},
		Months: make([]MonthDTO, len(r.Months)),
		Bills:  toEntryJSON(r.Bills),
	}
	for i, m := range r.Months {
		dto.Months[i] = MonthDTO{
			Month:      m.Month,
			Inflow:     factory.Amount(m.Inflow),
			Outflow:    factory.Amount(m.Outflow),
			Investment: factory.Amount(m.Investment),
			Transfers:  factory.Amount(m.Transfers),
			Closing:    factory.Amount(m.Closing),
		}
	}
	if withDays {
		dto.Days = make([]DayDTO, len(r.Days))
		for i, d := range r.Days {
			dto.Days[i] = DayDTO{
				Date:       d.Date,
				Inflow:     factory.Amount(d.Inflow),
				Outflow:    factory.Amount(d.Outflow),
				Investment: factory.Amount(d.Investment),
				Transfers:  factory.Amount(d.Transfers),
				Balance:    factory.Amount(d.Balance),
			}
			if len(d.Entries) > 0 {
				dto.Days[i].Entries = toEntryJSON(d.Entries)
			}
		}
	}
	return dto
}

func toEntryJSON(es []ledger.Entry) []factory.EntryJSON {
	out := make([]factory.EntryJSON, len(es))
	for i, e := range es {
		out[i] = factory.EntryToJSON(e)
	}
	return out
}

// =============================================================================
// SESSIONS
// =============================================================================

type SessionDTO struct {
	ID      string              `json:"id"`
	Entries []factory.EntryJSON `json:"entries"`
}

func toSessionDTO(o *ledger.Overlay) SessionDTO {
	return SessionDTO{ID: o.ID(), Entries: toEntryJSON(o.Entries())}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
