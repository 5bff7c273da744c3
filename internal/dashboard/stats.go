package dashboard

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/invoicedesk/invoicedesk/internal/invoices"
)

// RecentLimit is the number of invoices listed on the dashboard.
const RecentLimit = 5

// Tally counts invoices and sums their totals.
type Tally struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

func (t *Tally) add(inv invoices.Invoice) {
	t.Count++
	t.Amount = t.Amount.Add(inv.Total)
}

// Stats are the headline figures of the dashboard.
type Stats struct {
	Total   Tally `json:"total"`
	Pending Tally `json:"pending"`
	Paid    Tally `json:"paid"`
	Overdue Tally `json:"overdue"`
}

// ComputeStats tallies every invoice and the pending, paid and overdue ones.
func ComputeStats(list []invoices.Invoice) Stats {
	s := Stats{
		Total:   Tally{Amount: decimal.Zero},
		Pending: Tally{Amount: decimal.Zero},
		Paid:    Tally{Amount: decimal.Zero},
		Overdue: Tally{Amount: decimal.Zero},
	}
	for _, inv := range list {
		s.Total.add(inv)
		switch inv.Status {
		case invoices.StatusPending:
			s.Pending.add(inv)
		case invoices.StatusPaid:
			s.Paid.add(inv)
		case invoices.StatusOverdue:
			s.Overdue.add(inv)
		}
	}
	return s
}

// Recent returns up to n invoices, newest first.
func Recent(list []invoices.Invoice, n int) []invoices.Invoice {
	out := append([]invoices.Invoice(nil), list...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
