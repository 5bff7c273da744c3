package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicedesk/invoicedesk/internal/invoices"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func paid(date time.Time, total int64) invoices.Invoice {
	return invoices.Invoice{Status: invoices.StatusPaid, InvoiceDate: date, Total: decimal.NewFromInt(total)}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sum(buckets []Bucket) decimal.Decimal {
	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.Revenue)
	}
	return total
}

func TestMonthlyBucketsCoverCurrentYear(t *testing.T) {
	list := []invoices.Invoice{
		paid(day(2024, 1, 3), 100),
		paid(day(2024, 1, 28), 50),
		paid(day(2024, 6, 1), 1100),
		paid(day(2024, 12, 31), 7),
		paid(day(2023, 6, 1), 999),
		paid(day(2025, 1, 1), 999),
		{Status: invoices.StatusPending, InvoiceDate: day(2024, 6, 1), Total: decimal.NewFromInt(500)},
		{Status: invoices.StatusPaid, Total: decimal.NewFromInt(42)},
	}

	buckets := Aggregate(list, PeriodMonthly, now)
	require.Len(t, buckets, 12)
	assert.Equal(t, "Jan", buckets[0].Label)
	assert.Equal(t, "Dec", buckets[11].Label)
	assert.True(t, decimal.NewFromInt(150).Equal(buckets[0].Revenue))
	assert.True(t, decimal.NewFromInt(1100).Equal(buckets[5].Revenue))
	assert.True(t, decimal.NewFromInt(7).Equal(buckets[11].Revenue))
	assert.True(t, decimal.Zero.Equal(buckets[1].Revenue))
	assert.True(t, decimal.NewFromInt(1257).Equal(sum(buckets)), "only paid invoices of the current year count")
}

func TestMonthlySumMatchesPaidTotals(t *testing.T) {
	var list []invoices.Invoice
	expected := decimal.Zero
	for m := time.January; m <= time.December; m++ {
		inv := paid(day(2024, m, int(m)), int64(m)*125)
		list = append(list, inv)
		expected = expected.Add(inv.Total)
	}
	assert.True(t, expected.Equal(sum(Aggregate(list, PeriodMonthly, now))))
}

func TestYearlyBucketsCoverFiveYears(t *testing.T) {
	list := []invoices.Invoice{
		paid(day(2020, 1, 1), 400),
		paid(day(2019, 12, 31), 900),
		paid(day(2024, 3, 5), 1100),
		paid(day(2022, 7, 1), 10),
	}

	buckets := Aggregate(list, PeriodYearly, now)
	require.Len(t, buckets, 5)
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
	}
	assert.Equal(t, []string{"2020", "2021", "2022", "2023", "2024"}, labels)
	assert.True(t, decimal.NewFromInt(400).Equal(buckets[0].Revenue), "currentYear-4 lands in the first bucket")
	assert.True(t, decimal.NewFromInt(10).Equal(buckets[2].Revenue))
	assert.True(t, decimal.NewFromInt(1100).Equal(buckets[4].Revenue))
	assert.True(t, decimal.NewFromInt(1510).Equal(sum(buckets)), "currentYear-5 is dropped")
}

func TestAggregateEmitsEmptyBuckets(t *testing.T) {
	assert.Len(t, Aggregate(nil, PeriodMonthly, now), 12)
	assert.Len(t, Aggregate(nil, PeriodYearly, now), 5)
	assert.True(t, sum(Aggregate(nil, PeriodYearly, now)).IsZero())
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonthly, p)

	p, err = ParsePeriod("yearly")
	require.NoError(t, err)
	assert.Equal(t, PeriodYearly, p)

	_, err = ParsePeriod("weekly")
	fields, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Period must be monthly or yearly", fields["period"])
}
