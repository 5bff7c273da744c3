// Package money formats decimal amounts for display.
package money

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a profile has no valid currency code.
const DefaultCurrency = "NGN"

var symbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"GHS": "GH₵",
	"KES": "KSh",
	"ZAR": "R",
	"INR": "₹",
	"JPY": "¥",
}

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// Formatter renders amounts in one currency.
type Formatter struct {
	code    string
	symbol  string
	printer *message.Printer
}

// ValidCode reports whether code is a known ISO 4217 currency.
func ValidCode(code string) bool {
	_, err := currency.ParseISO(strings.TrimSpace(code))
	return err == nil
}

// Supported lists the codes offered in the settings form.
func Supported() []string {
	codes := make([]string, 0, len(symbols))
	for code := range symbols {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NewFormatter returns a Formatter for the ISO code, falling back to
// DefaultCurrency for unknown codes.
func NewFormatter(code string) Formatter {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ValidCode(code) {
		code = DefaultCurrency
	}
	symbol, ok := symbols[code]
	if !ok {
		symbol = code + " "
	}
	return Formatter{code: code, symbol: symbol, printer: message.NewPrinter(language.English)}
}

// Code returns the ISO code of the formatter.
func (f Formatter) Code() string { return f.code }

// Symbol returns the display symbol of the formatter.
func (f Formatter) Symbol() string { return f.symbol }

// Format renders whole amounts without decimals and anything else with two,
// e.g. ₦1,100 and ₦1,100.50.
func (f Formatter) Format(amount decimal.Decimal) string {
	return f.format(amount, f.symbol)
}

// FormatCode is Format with the ISO code in place of the symbol, e.g.
// NGN 1,100. Used where the output font has no currency glyphs.
func (f Formatter) FormatCode(amount decimal.Decimal) string {
	return f.format(amount, f.code+" ")
}

func (f Formatter) format(amount decimal.Decimal, unit string) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	rounded := amount.Round(2)
	whole := f.group(rounded.IntPart())
	if rounded.Equal(rounded.Truncate(0)) {
		return sign + unit + whole
	}
	fixed := rounded.StringFixed(2)
	return sign + unit + whole + fixed[strings.IndexByte(fixed, '.'):]
}

// Compact renders large amounts with a K, M or B suffix.
func (f Formatter) Compact(amount decimal.Decimal) string {
	switch {
	case amount.GreaterThanOrEqual(billion):
		return f.symbol + amount.Div(billion).StringFixed(1) + "B"
	case amount.GreaterThanOrEqual(million):
		return f.symbol + amount.Div(million).StringFixed(1) + "M"
	case amount.GreaterThanOrEqual(thousand):
		return f.symbol + amount.Div(thousand).StringFixed(0) + "K"
	default:
		return f.Format(amount)
	}
}

func (f Formatter) group(n int64) string {
	printer := f.printer
	if printer == nil {
		printer = message.NewPrinter(language.English)
	}
	return printer.Sprintf("%d", n)
}
