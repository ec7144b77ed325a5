package payslip

import "time"

// NewDraft returns the blank form a user starts from: the current pay period,
// the usual starter rows, and the default currency pair.
func NewDraft(now time.Time, currency, symbol string) Record {
	return Record{
		PayPeriod: now.Format(PayPeriodLayout),
		Earnings: []LineItem{
			{Name: "Basic Pay Cost"},
			{Name: "Rent Allowance"},
		},
		Deductions: []LineItem{
			{Name: "Income Tax"},
			{Name: "PF Amount"},
		},
		Currency:       currency,
		CurrencySymbol: symbol,
		ExtraFields:    []ExtraField{},
	}
}
