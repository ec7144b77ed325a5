package payslip

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(pairs ...any) []LineItem {
	out := make([]LineItem, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, LineItem{Name: pairs[i].(string), Amount: AmountOf(CoerceAmount(pairs[i+1]))})
	}
	return out
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name       string
		earnings   []LineItem
		deductions []LineItem
		gross      string
		deducted   string
		net        string
	}{
		{
			name:       "basic and hra less tax",
			earnings:   items("Basic", 50000, "HRA", 10000),
			deductions: items("Tax", 5000),
			gross:      "60000",
			deducted:   "5000",
			net:        "55000",
		},
		{
			name:  "empty lists",
			gross: "0", deducted: "0", net: "0",
		},
		{
			name:       "net may go negative",
			earnings:   items("Basic", 100),
			deductions: items("Loan", 250.5),
			gross:      "100",
			deducted:   "250.5",
			net:        "-150.5",
		},
		{
			name:       "numeric strings count",
			earnings:   items("Basic", "1200.25", "Bonus", " 300 "),
			deductions: items("PF", "0.25"),
			gross:      "1500.25",
			deducted:   "0.25",
			net:        "1500",
		},
		{
			name:       "non numeric and missing count as zero",
			earnings:   items("Basic", 1000, "Bogus", "abc", "Missing", nil, "Flag", true),
			deductions: items("Blank", ""),
			gross:      "1000",
			deducted:   "0",
			net:        "1000",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(tc.earnings, tc.deductions)
			assert.Equal(t, tc.gross, got.Gross.String())
			assert.Equal(t, tc.deducted, got.Deductions.String())
			assert.Equal(t, tc.net, got.Net.String())
			assert.True(t, got.Gross.Sub(got.Deductions).Equal(got.Net))
		})
	}
}

func TestComputeTotalsIsIdempotent(t *testing.T) {
	earnings := items("Basic", 0.1, "Allowance", 0.2)
	deductions := items("Tax", 0.3)

	first := ComputeTotals(earnings, deductions)
	second := ComputeTotals(earnings, deductions)

	assert.Equal(t, first, second)
	assert.True(t, first.Net.IsZero(), "decimal sums must not drift: %s", first.Net)
}

func TestComputeTotalsAnyMatchesDecodedRecord(t *testing.T) {
	raw := `{
		"earnings": [{"name":"Basic","amount":"50000"},{"name":"HRA","amount":10000},{"name":"Odd"}],
		"deductions": [{"name":"Tax","amount":5000},{"name":"Junk","amount":"n/a"}]
	}`

	var loose struct {
		Earnings   []map[string]any `json:"earnings"`
		Deductions []map[string]any `json:"deductions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &loose))

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	fromMaps := ComputeTotalsAny(loose.Earnings, loose.Deductions)
	fromRecord := rec.Totals()

	assert.True(t, fromMaps.Net.Equal(decimal.NewFromInt(55000)))
	assert.True(t, fromMaps.Gross.Equal(fromRecord.Gross))
	assert.True(t, fromMaps.Deductions.Equal(fromRecord.Deductions))
	assert.True(t, fromMaps.Net.Equal(fromRecord.Net))
}
