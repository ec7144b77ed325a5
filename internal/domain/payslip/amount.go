package payslip

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a line-item or total value. Decoding never fails: anything that
// is not a number or a numeric string becomes zero.
type Amount struct {
	decimal.Decimal
}

func NewAmount(v int64) Amount {
	return Amount{decimal.NewFromInt(v)}
}

func AmountOf(d decimal.Decimal) Amount {
	return Amount{d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			a.Decimal = decimal.Zero
			return nil
		}
		a.Decimal = parseAmountString(s)
		return nil
	}
	a.Decimal = parseAmountString(string(data))
	return nil
}

// Amounts outside these bounds are treated as non-numeric. Arithmetic on a
// decimal rescales to the widest exponent, so an unbounded one like "1e400000000"
// would expand to hundreds of millions of digits.
const (
	maxAmountIntegerDigits = 30
	maxAmountScale         = 30
)

func bounded(d decimal.Decimal) decimal.Decimal {
	exp := int(d.Exponent())
	if exp < -maxAmountScale || exp > maxAmountIntegerDigits {
		return decimal.Zero
	}
	if d.Sign() != 0 && d.NumDigits()+exp > maxAmountIntegerDigits {
		return decimal.Zero
	}
	return d
}

// CoerceAmount converts a loosely typed value into a decimal amount. Missing,
// non-numeric and non-finite values count as zero.
func CoerceAmount(v any) decimal.Decimal {
	switch value := v.(type) {
	case nil:
		return decimal.Zero
	case Amount:
		return bounded(value.Decimal)
	case decimal.Decimal:
		return bounded(value)
	case json.Number:
		return parseAmountString(value.String())
	case string:
		return parseAmountString(value)
	case float64:
		return fromFloat(value)
	case float32:
		return fromFloat(float64(value))
	case int:
		return decimal.NewFromInt(int64(value))
	case int32:
		return decimal.NewFromInt32(value)
	case int64:
		return decimal.NewFromInt(value)
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(value)), 0)
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(value), 0)
	case fmt.Stringer:
		return parseAmountString(value.String())
	default:
		return decimal.Zero
	}
}

func parseAmountString(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return bounded(d)
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return bounded(decimal.NewFromFloat(f))
}
