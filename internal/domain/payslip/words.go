package payslip

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	wordOnes = []string{
		"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen",
	}
	wordTens = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}

	// Descending. The largest scale recurses, so any size is spelled out.
	internationalScales = []struct {
		value *big.Int
		name  string
	}{
		{pow10(33), "Decillion"},
		{pow10(30), "Nonillion"},
		{pow10(27), "Octillion"},
		{pow10(24), "Septillion"},
		{pow10(21), "Sextillion"},
		{pow10(18), "Quintillion"},
		{pow10(15), "Quadrillion"},
		{pow10(12), "Trillion"},
		{pow10(9), "Billion"},
		{pow10(6), "Million"},
		{pow10(3), "Thousand"},
	}

	crore = pow10(7)
)

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// Currencies written with the lakh/crore numbering system.
var indianNumbering = map[string]bool{"INR": true, "NPR": true, "PKR": true}

// ToWords spells out net in English for the given currency code, e.g.
// 866480 INR -> "Eight Lakh Sixty Six Thousand Four Hundred Eighty Only".
// Negative values start with "Minus". Minor units (two places, truncated) are
// appended as "and <n> Paise|Cents".
func ToWords(net decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	indian := indianNumbering[currency]

	abs := net.Abs()
	whole := abs.Truncate(0)
	minor := abs.Sub(whole).Shift(2).Truncate(0)

	var parts []string
	if net.Sign() < 0 && (whole.Sign() > 0 || minor.Sign() > 0) {
		parts = append(parts, "Minus")
	}

	if indian {
		parts = append(parts, indianWords(whole.BigInt()))
	} else {
		parts = append(parts, internationalWords(whole.BigInt()))
	}

	if minor.Sign() > 0 {
		parts = append(parts, "and", belowThousand(minor.BigInt().Uint64()), minorUnitName(currency))
	}
	parts = append(parts, "Only")
	return strings.Join(parts, " ")
}

// WordsLabel is the caption printed before the words line.
func WordsLabel(currency string) string {
	if strings.EqualFold(strings.TrimSpace(currency), "INR") {
		return "Rupees in Words"
	}
	return "Amount in Words"
}

func minorUnitName(currency string) string {
	if indianNumbering[currency] {
		return "Paise"
	}
	return "Cents"
}

func internationalWords(n *big.Int) string {
	if n.Sign() == 0 {
		return wordOnes[0]
	}
	n = new(big.Int).Set(n)
	var parts []string
	for i, scale := range internationalScales {
		if n.Cmp(scale.value) < 0 {
			continue
		}
		q, r := new(big.Int).QuoRem(n, scale.value, new(big.Int))
		if i == 0 {
			parts = append(parts, internationalWords(q), scale.name)
		} else {
			parts = append(parts, belowThousand(q.Uint64()), scale.name)
		}
		n = r
	}
	if n.Sign() > 0 {
		parts = append(parts, belowThousand(n.Uint64()))
	}
	return strings.Join(parts, " ")
}

func indianWords(n *big.Int) string {
	if n.Sign() == 0 {
		return wordOnes[0]
	}
	var parts []string
	if n.Cmp(crore) >= 0 {
		q, r := new(big.Int).QuoRem(n, crore, new(big.Int))
		parts = append(parts, indianWords(q), "Crore")
		n = r
	}
	rest := n.Uint64()
	if rest >= 100_000 {
		parts = append(parts, belowThousand(rest/100_000), "Lakh")
		rest %= 100_000
	}
	if rest >= 1_000 {
		parts = append(parts, belowThousand(rest/1_000), "Thousand")
		rest %= 1_000
	}
	if rest > 0 {
		parts = append(parts, belowThousand(rest))
	}
	return strings.Join(parts, " ")
}

// belowThousand handles 1..999.
func belowThousand(n uint64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, wordOnes[n/100], "Hundred")
		n %= 100
	}
	if n >= 20 {
		parts = append(parts, wordTens[n/10])
		n %= 10
	}
	if n > 0 {
		parts = append(parts, wordOnes[n])
	}
	return strings.Join(parts, " ")
}
