package document

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyFormat controls how amounts are printed on the document. The zero
// value prints whole units without grouping or suffix.
type MoneyFormat struct {
	Decimals int
	Suffix   string
	// Locale enables digit grouping ("en" -> 1,234,567; "en-IN" -> 12,34,567).
	Locale string
}

// DefaultMoneyFormat matches the classic payslip look: "₹55000/-".
func DefaultMoneyFormat() MoneyFormat {
	return MoneyFormat{Decimals: 0, Suffix: "/-"}
}

// Number prints d without symbol or suffix.
func (f MoneyFormat) Number(d decimal.Decimal) string {
	rounded := d.Round(int32(f.Decimals))
	if strings.TrimSpace(f.Locale) == "" {
		return rounded.StringFixed(int32(f.Decimals))
	}
	tag, err := language.Parse(f.Locale)
	if err != nil {
		return rounded.StringFixed(int32(f.Decimals))
	}
	printer := message.NewPrinter(tag)
	return printer.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(f.Decimals)))
}

// Amount prints d with symbol and suffix. A spaced amount puts a blank
// between symbol and digits, as used in table cells.
func (f MoneyFormat) Amount(symbol string, d decimal.Decimal, spaced bool) string {
	var b strings.Builder
	if symbol != "" {
		b.WriteString(symbol)
		if spaced {
			b.WriteByte(' ')
		}
	}
	b.WriteString(f.Number(d))
	b.WriteString(f.Suffix)
	return b.String()
}
