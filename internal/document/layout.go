package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"payslipgen/internal/domain/payslip"
)

// Page geometry in millimetres on an A4 portrait page.
const (
	marginX       = 10.0
	logoX         = 13.0
	logoY         = 12.0
	logoW         = 30.0
	logoH         = 20.0
	companyX      = 47.0
	monthOffset   = 70.0
	headerRuleY   = 41.0
	metaStartY    = 48.0
	rowStep       = 7.0
	labelX        = 15.0
	colonX        = 58.0
	valueX        = 68.0
	netBoxOffset  = 75.0
	netBoxW       = 65.0
	netBoxH       = 32.0
	netTextOffset = 72.0
	netTextMaxW   = 59.0
	cornerRadius  = 6.0
	earnNameX     = 18.0
	earnAmountX   = 88.0
	dedNameX      = 112.0
	dedAmountX    = 182.0
	summaryW      = 73.0
	summaryH      = 16.0
)

// Fixed document palette. The on-screen theme never reaches the PDF.
var (
	colorBlack      = rgb{0, 0, 0}
	colorRule       = rgb{128, 128, 128}
	colorMonth      = rgb{72, 185, 107}
	colorNetBoxFill = rgb{243, 245, 248}
	colorNetAmount  = rgb{20, 125, 35}
	colorNetCaption = rgb{70, 70, 70}
	colorHeading    = rgb{50, 50, 50}
	colorSummary    = rgb{230, 230, 230}
	colorSummaryTx  = rgb{60, 60, 60}
	colorGross      = rgb{33, 135, 52}
	colorDeduction  = rgb{233, 68, 57}
)

const formulaCaption = "( Total Net Payable = Gross Earnings – Total Deductions )"

type layoutInput struct {
	record payslip.Record
	totals payslip.Totals
	logo   *Logo
	money  MoneyFormat
	symbol string
	// symbolIsCode is set when a currency code stands in for a glyph.
	symbolIsCode bool
}

// layoutResult reports what the page ended up containing.
type layoutResult struct {
	logoErr error
	bottomY float64
}

func drawPayslip(c canvas, in layoutInput) layoutResult {
	var res layoutResult
	rec := in.record
	pageWidth := c.PageWidth()

	if in.logo != nil {
		res.logoErr = c.Image(in.logo, logoX, logoY, logoW, logoH)
	}

	c.SetTextColor(colorBlack)
	c.SetFont(fontSans, "", 13)
	c.Text(companyX, 17, orDash(rec.CompanyName), alignLeft)
	c.SetFont(fontSans, "", 10)
	c.Text(companyX, 23, orDash(rec.CompanyAddress), alignLeft)
	c.Text(companyX, 28, rec.SecondLine, alignLeft)
	c.Text(companyX, 32, orDash(rec.Country), alignLeft)
	c.Text(companyX, 36, orDash(rec.CityPin), alignLeft)

	c.Text(pageWidth-monthOffset, 17, "Payslip for Month", alignLeft)
	c.SetFont(fontSans, "B", 18)
	c.SetTextColor(colorMonth)
	c.Text(pageWidth-monthOffset, 27, orDash(payslip.PayPeriodLabel(rec.PayPeriod)), alignLeft)

	c.SetDrawColor(colorRule)
	c.SetLineWidth(0.4)
	c.Line(marginX, headerRuleY, pageWidth-marginX, headerRuleY)

	c.SetTextColor(colorBlack)
	c.SetFont(fontSans, "", 11)
	y := metaStartY
	for _, row := range metaRows(rec) {
		c.Text(labelX, y, row[0], alignLeft)
		c.Text(colonX, y, ":", alignLeft)
		c.Text(valueX, y, row[1], alignLeft)
		y += rowStep
	}

	drawNetBox(c, in, pageWidth)

	c.SetDrawColor(colorRule)
	c.SetLineWidth(0.2)
	c.Line(marginX, y+10, pageWidth-marginX, y+10)

	c.SetFont(fontSans, "B", 12)
	c.SetTextColor(colorHeading)
	c.Text(labelX, y+18, "Income Details*", alignLeft)
	c.SetFont(fontSans, "B", 11)
	c.Text(earnNameX, y+28, "Earnings", alignLeft)
	c.Text(earnAmountX, y+28, "Amounts", alignRight)
	c.Text(dedNameX, y+28, "Deductions", alignLeft)
	c.Text(dedAmountX, y+28, "Amounts", alignRight)

	rowY := y + 34
	rows := max(len(rec.Earnings), len(rec.Deductions))
	for i := 0; i < rows; i++ {
		if i < len(rec.Earnings) {
			drawLineItem(c, in, rec.Earnings[i], earnNameX, earnAmountX, rowY)
		}
		if i < len(rec.Deductions) {
			drawLineItem(c, in, rec.Deductions[i], dedNameX, dedAmountX, rowY)
		}
		rowY += rowStep
	}

	summaryY := rowY + 5
	drawSummary(c, in, "Gross Earnings", in.totals.Gross, earnNameX, earnAmountX, summaryY, colorGross)
	drawSummary(c, in, "Total Deductions", in.totals.Deductions, dedNameX, dedAmountX, summaryY, colorDeduction)

	netY := summaryY + 25
	c.SetFont(fontMono, "B", 17)
	c.SetTextColor(colorBlack)
	c.Text(pageWidth/2, netY, "Total Net Payable : "+in.money.Amount(in.symbol, in.totals.Net, in.spacedSymbol()), alignCenter)

	c.SetFont(fontSans, "", 10)
	c.SetTextColor(colorSummaryTx)
	netY += 8
	words := payslip.ToWords(in.totals.Net, rec.Currency)
	c.Text(pageWidth/2, netY, payslip.WordsLabel(rec.Currency)+": "+words, alignCenter)
	netY += 7
	c.SetFont(fontSans, "", 8)
	c.Text(pageWidth/2, netY, formulaCaption, alignCenter)

	res.bottomY = netY
	return res
}

func metaRows(rec payslip.Record) [][2]string {
	rows := [][2]string{
		{"Employee Name", rec.EmployeeName},
		{"Employee Id", rec.EmployeeID},
		{"Joining Date", rec.JoiningDate},
		{"Contact", rec.Contact},
		{"Pay Period", payslip.PayPeriodLabel(rec.PayPeriod)},
		{"Pay Date", orDash(rec.PayDate)},
	}
	for _, field := range rec.ExtraFields {
		if field.Empty() {
			continue
		}
		rows = append(rows, [2]string{orDash(field.Label), orDash(field.Value)})
	}
	return rows
}

func drawNetBox(c canvas, in layoutInput, pageWidth float64) {
	rec := in.record
	c.SetFillColor(colorNetBoxFill)
	c.FilledRoundedRect(pageWidth-netBoxOffset, metaStartY, netBoxW, netBoxH, cornerRadius)

	amount := in.money.Amount(in.symbol, in.totals.Net, in.spacedSymbol())
	size := 21.0
	c.SetFont(fontMono, "B", size)
	for size > 10 && c.StringWidth(amount) > netTextMaxW {
		size--
		c.SetFont(fontMono, "B", size)
	}
	c.SetTextColor(colorNetAmount)
	c.Text(pageWidth-netTextOffset, metaStartY+13, amount, alignLeft)

	c.SetTextColor(colorNetCaption)
	c.SetFont(fontSans, "", 9)
	c.Text(pageWidth-netTextOffset, metaStartY+19, "Employee Net Pay", alignLeft)
	c.Text(pageWidth-netTextOffset, metaStartY+27,
		fmt.Sprintf("Paid Days: %s   LOP Days: %s", dayCount(rec.PaidDays), dayCount(rec.LossOfPayDays)), alignLeft)
}

func drawLineItem(c canvas, in layoutInput, item payslip.LineItem, nameX, amountX, y float64) {
	c.SetFont(fontSans, "", 11)
	c.Text(nameX, y, item.Name, alignLeft)
	c.SetFont(fontMono, "", 11)
	c.Text(amountX, y, in.money.Amount(in.symbol, item.Amount.Decimal, true), alignRight)
}

func drawSummary(c canvas, in layoutInput, label string, amount decimal.Decimal, x, amountX, y float64, tone rgb) {
	c.SetFillColor(colorSummary)
	c.FilledRoundedRect(x, y, summaryW, summaryH, cornerRadius)
	c.SetFont(fontSans, "B", 12)
	c.SetTextColor(colorSummaryTx)
	c.Text(x+4, y+10, label, alignLeft)

	c.SetFont(fontMono, "B", 13)
	c.SetTextColor(tone)
	c.Text(amountX-3, y+10, in.money.Amount(in.symbol, amount, true), alignRight)
}

// spacedSymbol keeps a currency code apart from the digits in places where
// a glyph would be printed tight.
func (in layoutInput) spacedSymbol() bool {
	return in.symbolIsCode
}

func dayCount(days int) string {
	if days == 0 {
		return "-"
	}
	return strconv.Itoa(days)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
