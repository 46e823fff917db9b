/*
aggregate.go - Per-day aggregation and running balance

PURPOSE:
  Groups dated entries by day inside a window, classifies each one and
  carries a running balance from an anchor. Output has one DaySummary per
  calendar day, including days without movements.

CLASSIFICATION (one switch on Kind):
  inflow                    -> Inflow
  outflow, card_bill_due    -> Outflow
  investment                -> Investment
  initial_balance           -> InitialBalance (seeds the balance once)
  transfer_debit / _credit  -> resolved as a pair, see below

TRANSFER PAIRS:
  Legs are grouped by PairID across the whole input, not only the window.
  A pair must have exactly two legs. The leg with the smaller id is the
  debit, the other the credit, whatever their stored Kind or input order.

    both legs visible, same day       -> one transfer event (Transfers)
    both legs visible, different days -> debit Outflow, credit Inflow
    only debit visible                -> Outflow
    only credit visible               -> Inflow
    no leg visible                    -> ignored

RUNNING BALANCE:
  balance(d) = balance(d-1) + initial(d) + inflow(d) - outflow(d) - investment(d)
  balance(from-1) = Anchor

ORDERING:
  Entries inside a day are sorted by Description, then ID. The sort has no
  effect on any total, so shuffling the input gives identical output.

SEE ALSO:
  - balance.go: Stats over a day series
  - projection.go: Builds the entry union and calls Aggregate
*/
package ledger

import (
	"sort"
)

// DaySummary aggregates one calendar day.
type DaySummary struct {
	Date           Date
	Inflow         Money
	Outflow        Money
	Investment     Money
	Transfers      Money
	InitialBalance Money
	Balance        Money
	Entries        []Entry
}

// Net is the day's balance change.
func (d DaySummary) Net() Money {
	return d.InitialBalance + d.Inflow - d.Outflow - d.Investment
}

// Aggregator computes day series. The zero value aggregates every account
// from a zero anchor.
type Aggregator struct {
	Anchor  Money
	Visible AccountSet
}

// Aggregate summarizes entries day by day over [from, to].
func (a Aggregator) Aggregate(entries []Entry, from, to Date) ([]DaySummary, error) {
	window := Window{From: from, To: to}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	roles, err := resolveTransfers(entries)
	if err != nil {
		return nil, err
	}

	days := make([]DaySummary, window.Days())
	index := make(map[Date]int, len(days))
	for i, d := 0, from; i < len(days); i, d = i+1, d.AddDays(1) {
		days[i].Date = d
		index[d] = i
	}

	for _, e := range entries {
		i, ok := index[e.Date]
		if !ok {
			continue
		}
		a.classify(&days[i], e, roles)
	}

	balance := a.Anchor
	for i := range days {
		balance += days[i].Net()
		days[i].Balance = balance
		sortEntries(days[i].Entries)
	}
	return days, nil
}

func (a Aggregator) classify(day *DaySummary, e Entry, roles map[EntryID]transferRole) {
	switch e.Kind {
	case KindInflow:
		if !a.Visible.Visible(e) {
			return
		}
		day.Inflow += e.Amount
	case KindOutflow, KindCardBillDue:
		if !a.Visible.Visible(e) {
			return
		}
		day.Outflow += e.Amount
	case KindInvestment:
		if !a.Visible.Visible(e) {
			return
		}
		day.Investment += e.Amount
	case KindInitialBalance:
		if !a.Visible.Visible(e) {
			return
		}
		day.InitialBalance += e.Amount
	case KindTransferDebit, KindTransferCredit:
		role := roles[e.ID]
		self := a.Visible.Visible(e)
		other := a.Visible.Visible(role.counterpart)
		switch {
		case !self:
			return
		case other && role.counterpart.Date.Equal(e.Date):
			// Internal transfer: listed once, on the debit leg.
			if !role.debit {
				return
			}
			day.Transfers += e.Amount
		case role.debit:
			day.Outflow += e.Amount
		default:
			day.Inflow += e.Amount
		}
	default:
		return
	}
	day.Entries = append(day.Entries, e)
}

// =============================================================================
// TRANSFER PAIRING
// =============================================================================

type transferRole struct {
	debit       bool
	counterpart Entry
}

// resolveTransfers pairs transfer legs by PairID and assigns debit/credit
// by id order.
func resolveTransfers(entries []Entry) (map[EntryID]transferRole, error) {
	legs := make(map[string][]Entry)
	var pairIDs []string
	for _, e := range entries {
		if !e.Kind.IsTransfer() {
			continue
		}
		if e.PairID == "" {
			return nil, &UnresolvedTransferError{EntryIDs: []EntryID{e.ID}}
		}
		if _, ok := legs[e.PairID]; !ok {
			pairIDs = append(pairIDs, e.PairID)
		}
		legs[e.PairID] = append(legs[e.PairID], e)
	}

	// Deterministic error reporting when several pairs are broken.
	sort.Strings(pairIDs)

	roles := make(map[EntryID]transferRole, 2*len(pairIDs))
	for _, pairID := range pairIDs {
		pair := legs[pairID]
		if len(pair) != 2 {
			ids := make([]EntryID, len(pair))
			for i, e := range pair {
				ids[i] = e.ID
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			return nil, &UnresolvedTransferError{PairID: pairID, EntryIDs: ids}
		}
		debit, credit := pair[0], pair[1]
		if credit.ID < debit.ID {
			debit, credit = credit, debit
		}
		roles[debit.ID] = transferRole{debit: true, counterpart: credit}
		roles[credit.ID] = transferRole{debit: false, counterpart: debit}
	}
	return roles, nil
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Description != entries[j].Description {
			return entries[i].Description < entries[j].Description
		}
		return entries[i].ID < entries[j].ID
	})
}
