package payslip

import "github.com/shopspring/decimal"

// ComputeTotals is the only place gross, deductions and net are derived. The
// record service and every renderer call it so stored and displayed totals
// cannot drift.
func ComputeTotals(earnings, deductions []LineItem) Totals {
	gross := sumItems(earnings)
	deducted := sumItems(deductions)
	return Totals{
		Gross:      gross,
		Deductions: deducted,
		Net:        gross.Sub(deducted),
	}
}

// ComputeTotalsAny applies ComputeTotals to undecoded JSON line items.
func ComputeTotalsAny(earnings, deductions []map[string]any) Totals {
	return ComputeTotals(itemsFromMaps(earnings), itemsFromMaps(deductions))
}

func (r Record) Totals() Totals {
	return ComputeTotals(r.Earnings, r.Deductions)
}

func sumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(CoerceAmount(item.Amount))
	}
	return total
}

func itemsFromMaps(raw []map[string]any) []LineItem {
	items := make([]LineItem, 0, len(raw))
	for _, entry := range raw {
		name, _ := entry["name"].(string)
		items = append(items, LineItem{Name: name, Amount: AmountOf(CoerceAmount(entry["amount"]))})
	}
	return items
}
