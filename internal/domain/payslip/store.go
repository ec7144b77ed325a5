package payslip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const payslipColumns = `
    id::text, company_name, company_address, second_line, city_pin, country,
    employee_name, employee_id, contact, joining_date, pay_period, pay_date,
    paid_days, loss_of_pay_days, earnings, deductions, currency, currency_symbol,
    total_net_payable::text, extra_fields, created_at, updated_at`

func (s *Store) Create(ctx context.Context, p Payslip) (Payslip, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	earnings, err := marshalList(p.Earnings)
	if err != nil {
		return Payslip{}, fmt.Errorf("encode earnings: %w", err)
	}
	deductions, err := marshalList(p.Deductions)
	if err != nil {
		return Payslip{}, fmt.Errorf("encode deductions: %w", err)
	}
	extra, err := marshalList(p.ExtraFields)
	if err != nil {
		return Payslip{}, fmt.Errorf("encode extra fields: %w", err)
	}

	row := s.DB.QueryRow(ctx, `
    INSERT INTO payslips (
      id, company_name, company_address, second_line, city_pin, country,
      employee_name, employee_id, contact, joining_date, pay_period, pay_date,
      paid_days, loss_of_pay_days, earnings, deductions, currency, currency_symbol,
      total_net_payable, extra_fields
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19::numeric,$20)
    RETURNING `+payslipColumns,
		p.ID, p.CompanyName, p.CompanyAddress, p.SecondLine, p.CityPin, p.Country,
		p.EmployeeName, p.EmployeeID, p.Contact, p.JoiningDate, p.PayPeriod, p.PayDate,
		p.PaidDays, p.LossOfPayDays, earnings, deductions, p.Currency, p.CurrencySymbol,
		p.TotalNetPayable.String(), extra,
	)
	return scanPayslip(row)
}

func (s *Store) Get(ctx context.Context, id string) (Payslip, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Payslip{}, ErrNotFound
	}
	row := s.DB.QueryRow(ctx, `SELECT `+payslipColumns+` FROM payslips WHERE id = $1`, id)
	p, err := scanPayslip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payslip{}, ErrNotFound
	}
	return p, err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM payslips`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Payslip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payslipColumns+`
    FROM payslips
    ORDER BY created_at DESC, id
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payslips := make([]Payslip, 0, limit)
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		payslips = append(payslips, p)
	}
	return payslips, rows.Err()
}

func scanPayslip(row pgx.Row) (Payslip, error) {
	var p Payslip
	var earnings, deductions, extra []byte
	var total string
	err := row.Scan(
		&p.ID, &p.CompanyName, &p.CompanyAddress, &p.SecondLine, &p.CityPin, &p.Country,
		&p.EmployeeName, &p.EmployeeID, &p.Contact, &p.JoiningDate, &p.PayPeriod, &p.PayDate,
		&p.PaidDays, &p.LossOfPayDays, &earnings, &deductions, &p.Currency, &p.CurrencySymbol,
		&total, &extra, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Payslip{}, err
	}
	if err := json.Unmarshal(earnings, &p.Earnings); err != nil {
		return Payslip{}, fmt.Errorf("decode earnings: %w", err)
	}
	if err := json.Unmarshal(deductions, &p.Deductions); err != nil {
		return Payslip{}, fmt.Errorf("decode deductions: %w", err)
	}
	if err := json.Unmarshal(extra, &p.ExtraFields); err != nil {
		return Payslip{}, fmt.Errorf("decode extra fields: %w", err)
	}
	p.TotalNetPayable = AmountOf(CoerceAmount(total))
	return p, nil
}

// marshalList keeps nil slices as JSON arrays so the column is never null.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
