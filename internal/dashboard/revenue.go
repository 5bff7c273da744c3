// Package dashboard summarises an owner's invoices: totals per status, the
// paid revenue chart and the most recent invoices.
package dashboard

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicedesk/invoicedesk/internal/invoices"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

// Period selects the revenue chart granularity.
type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// yearlySpan is the number of years shown by the yearly chart.
const yearlySpan = 5

// Periods lists the chart periods in display order.
var Periods = []Period{PeriodMonthly, PeriodYearly}

// Label is the toggle caption of the period.
func (p Period) Label() string {
	if p == PeriodYearly {
		return "Yearly"
	}
	return "Monthly"
}

// ParsePeriod reads a period query value. Empty means monthly.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodMonthly:
		return PeriodMonthly, nil
	case PeriodYearly:
		return PeriodYearly, nil
	}
	return "", &shared.ValidationError{Fields: shared.FormErrors{"period": "Period must be monthly or yearly"}}
}

// Bucket is one bar of the revenue chart.
type Bucket struct {
	Label   string          `json:"label"`
	Start   time.Time       `json:"start"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Aggregate sums the totals of paid invoices into chart buckets relative to
// now. Monthly gives Jan to Dec of the current year, yearly the current year
// and the four before it. Every bucket is returned even when empty; invoices
// outside the range or without a date are ignored.
func Aggregate(list []invoices.Invoice, period Period, now time.Time) []Bucket {
	year := now.Year()
	loc := now.Location()

	var buckets []Bucket
	index := make(map[int]int)
	if period == PeriodYearly {
		for i := 0; i < yearlySpan; i++ {
			y := year - yearlySpan + 1 + i
			index[y] = i
			buckets = append(buckets, Bucket{
				Label:   strconv.Itoa(y),
				Start:   time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
				Revenue: decimal.Zero,
			})
		}
	} else {
		for m := time.January; m <= time.December; m++ {
			index[int(m)] = int(m) - 1
			buckets = append(buckets, Bucket{
				Label:   m.String()[:3],
				Start:   time.Date(year, m, 1, 0, 0, 0, 0, loc),
				Revenue: decimal.Zero,
			})
		}
	}

	for _, inv := range list {
		if inv.Status != invoices.StatusPaid || inv.InvoiceDate.IsZero() {
			continue
		}
		key := inv.InvoiceDate.Year()
		if period != PeriodYearly {
			if key != year {
				continue
			}
			key = int(inv.InvoiceDate.Month())
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		buckets[i].Revenue = buckets[i].Revenue.Add(inv.Total)
	}
	return buckets
}
