package invoices

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ItemInput is a line item as typed into the form.
type ItemInput struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// ChargeInput is an additional charge as typed into the form.
type ChargeInput struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// Totals is the result of Calculate.
type Totals struct {
	Items        []decimal.Decimal `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	ChargesTotal decimal.Decimal   `json:"charges_total"`
	Total        decimal.Decimal   `json:"total"`
}

// ParseNumber reads a form number leniently: surrounding space and
// thousands separators are ignored and anything unparsable counts as zero.
func ParseNumber(s string) decimal.Decimal {
	d, ok := parseStrict(s)
	if !ok {
		return decimal.Zero
	}
	return d
}

func parseStrict(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// moneyPlaces is the scale of every stored amount and quantity.
const moneyPlaces = 2

// ItemTotal is quantity times unit price, rounded to cents.
func ItemTotal(it ItemInput) decimal.Decimal {
	return ParseNumber(it.Quantity).Mul(ParseNumber(it.UnitPrice)).Round(moneyPlaces)
}

// ChargeAmount reads a charge amount rounded to cents.
func ChargeAmount(c ChargeInput) decimal.Decimal {
	return ParseNumber(c.Amount).Round(moneyPlaces)
}

func tooPrecise(d decimal.Decimal) bool {
	return !d.Equal(d.Round(moneyPlaces))
}

// Calculate totals items and charges. Every charge amount counts here;
// unlabeled charges are only dropped when the invoice is saved.
func Calculate(items []ItemInput, charges []ChargeInput) Totals {
	t := Totals{
		Items:        make([]decimal.Decimal, len(items)),
		Subtotal:     decimal.Zero,
		ChargesTotal: decimal.Zero,
	}
	for i, it := range items {
		t.Items[i] = ItemTotal(it)
		t.Subtotal = t.Subtotal.Add(t.Items[i])
	}
	for _, c := range charges {
		t.ChargesTotal = t.ChargesTotal.Add(ChargeAmount(c))
	}
	t.Total = t.Subtotal.Add(t.ChargesTotal)
	return t
}

// KeptCharges returns the charges that are saved: those with a label.
func KeptCharges(charges []ChargeInput) []ChargeInput {
	out := make([]ChargeInput, 0, len(charges))
	for _, c := range charges {
		if strings.TrimSpace(c.Label) != "" {
			out = append(out, c)
		}
	}
	return out
}
