package payslip

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountUnmarshalIsLenient(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `12`, want: "12"},
		{raw: `12.50`, want: "12.5"},
		{raw: `"42"`, want: "42"},
		{raw: `"  7.25 "`, want: "7.25"},
		{raw: `""`, want: "0"},
		{raw: `"abc"`, want: "0"},
		{raw: `null`, want: "0"},
		{raw: `true`, want: "0"},
		{raw: `{"x":1}`, want: "0"},
		{raw: `-3`, want: "-3"},
		{raw: `"1e400000000"`, want: "0"},
		{raw: `1e400000000`, want: "0"},
		{raw: `"1e-400000000"`, want: "0"},
		{raw: `"1234567890123456789012345678901"`, want: "0"},
		{raw: `"123456789012345678901234567890"`, want: "123456789012345678901234567890"},
		{raw: `"1.5e3"`, want: "1500"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			var item LineItem
			require.NoError(t, json.Unmarshal([]byte(`{"name":"x","amount":`+tc.raw+`}`), &item))
			assert.Equal(t, tc.want, item.Amount.String())
		})
	}
}

func TestHugeExponentAmountTotalsQuickly(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"earnings":[{"name":"Basic","amount":"1e400000000"},{"name":"HRA","amount":10}]}`), &rec))

	done := make(chan Totals, 1)
	go func() { done <- rec.Totals() }()
	select {
	case totals := <-done:
		assert.Equal(t, "10", totals.Gross.String())
	case <-time.After(2 * time.Second):
		t.Fatal("totals did not finish")
	}
}

func TestCoerceAmountBounds(t *testing.T) {
	assert.True(t, CoerceAmount(decimal.New(1, 400000000)).IsZero())
	assert.True(t, CoerceAmount(1e300).IsZero())
	assert.Equal(t, "1000000000000000000000", CoerceAmount(1e21).String())
}

func TestAmountMarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(LineItem{Name: "Basic", Amount: NewAmount(50000)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Basic","amount":50000}`, string(out))
}

func TestPayPeriodLabel(t *testing.T) {
	assert.Equal(t, "October 2025", PayPeriodLabel("2025-10"))
	assert.Equal(t, "", PayPeriodLabel(""))
	assert.Equal(t, "sometime", PayPeriodLabel("sometime"))
}
