package payslip

import (
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	Name   string `json:"name"`
	Amount Amount `json:"amount"`
}

type ExtraField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Empty reports whether both sides of the field are blank.
func (f ExtraField) Empty() bool {
	return f.Label == "" && f.Value == ""
}

// Record is the form data of a payslip as submitted by a client.
type Record struct {
	CompanyName    string `json:"companyName" validate:"required"`
	CompanyAddress string `json:"companyAddress" validate:"required"`
	SecondLine     string `json:"secondLine"`
	CityPin        string `json:"cityPin" validate:"required"`
	Country        string `json:"country"`

	EmployeeName  string `json:"employeeName" validate:"required"`
	EmployeeID    string `json:"employeeId" validate:"required"`
	Contact       string `json:"contact"`
	JoiningDate   string `json:"joiningDate" validate:"required,isodate"`
	PayPeriod     string `json:"payPeriod" validate:"required,yearmonth"`
	PayDate       string `json:"payDate" validate:"omitempty,isodate"`
	PaidDays      int    `json:"paidDays" validate:"required,min=0,max=366"`
	LossOfPayDays int    `json:"lossOfPayDays" validate:"min=0,max=366"`

	Earnings   []LineItem `json:"earnings"`
	Deductions []LineItem `json:"deductions"`

	Currency       string `json:"currency" validate:"required_with=CurrencySymbol"`
	CurrencySymbol string `json:"currencySymbol" validate:"required_with=Currency"`

	ExtraFields []ExtraField `json:"extraFields"`
}

// Payslip is a persisted Record.
type Payslip struct {
	ID string `json:"id"`
	Record
	TotalNetPayable Amount    `json:"totalNetPayable"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Totals struct {
	Gross      decimal.Decimal `json:"gross"`
	Deductions decimal.Decimal `json:"deductions"`
	Net        decimal.Decimal `json:"net"`
}

const PayPeriodLayout = "2006-01"

const DateLayout = "2006-01-02"

// PayPeriodLabel renders "2025-10" as "October 2025". Unparsable input is
// returned unchanged.
func PayPeriodLabel(period string) string {
	if period == "" {
		return ""
	}
	parsed, err := time.Parse(PayPeriodLayout, period)
	if err != nil {
		return period
	}
	return parsed.Format("January 2006")
}
