package ledger

// =============================================================================
// STATS - Derived scalars over a day series
// =============================================================================

// Stats are the derived scalars a caller renders next to a day series.
type Stats struct {
	Opening Money
	Closing Money

	MinBalance Money
	MinDate    Date
	MaxBalance Money
	MaxDate    Date

	TotalInflow     Money
	TotalOutflow    Money
	TotalInvestment Money
	TotalTransfers  Money
	TotalInitial    Money
}

// NetChange is Closing - Opening.
func (s Stats) NetChange() Money { return s.Closing - s.Opening }

// Summarize computes Stats for days starting from opening. Ties on the
// minimum or maximum keep the earliest date.
func Summarize(opening Money, days []DaySummary) Stats {
	s := Stats{Opening: opening, Closing: opening}
	for i, d := range days {
		if i == 0 || d.Balance < s.MinBalance {
			s.MinBalance, s.MinDate = d.Balance, d.Date
		}
		if i == 0 || d.Balance > s.MaxBalance {
			s.MaxBalance, s.MaxDate = d.Balance, d.Date
		}
		s.TotalInflow += d.Inflow
		s.TotalOutflow += d.Outflow
		s.TotalInvestment += d.Investment
		s.TotalTransfers += d.Transfers
		s.TotalInitial += d.InitialBalance
		s.Closing = d.Balance
	}
	return s
}

// MonthSummary holds per-month KPIs of a day series.
type MonthSummary struct {
	Month      Competency
	Inflow     Money
	Outflow    Money
	Investment Money
	Transfers  Money
	Closing    Money
}

// MonthTotals folds a day series into calendar months, in order.
func MonthTotals(days []DaySummary) []MonthSummary {
	var out []MonthSummary
	for _, d := range days {
		c := d.Date.Competency()
		if len(out) == 0 || out[len(out)-1].Month != c {
			out = append(out, MonthSummary{Month: c})
		}
		m := &out[len(out)-1]
		m.Inflow += d.Inflow
		m.Outflow += d.Outflow
		m.Investment += d.Investment
		m.Transfers += d.Transfers
		m.Closing = d.Balance
	}
	return out
}

// =============================================================================
// BALANCE BEFORE - Anchor from history
// =============================================================================

// BalanceBefore is the balance of the visible accounts accumulated by every
// entry dated strictly before day, settled or forecast. It applies the same
// classification as Aggregate.
func BalanceBefore(entries []Entry, day Date, visible AccountSet) (Money, error) {
	roles, err := resolveTransfers(entries)
	if err != nil {
		return 0, err
	}
	a := Aggregator{Visible: visible}
	var acc DaySummary
	for _, e := range entries {
		if !e.Date.Before(day) {
			continue
		}
		a.classify(&acc, e, roles)
		acc.Entries = acc.Entries[:0]
	}
	return acc.Net(), nil
}
