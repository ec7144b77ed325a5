package payslip

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Defaults struct {
	Currency       string
	CurrencySymbol string
}

type Service struct {
	store    StoreAPI
	defaults Defaults
	log      *zap.Logger
}

func NewService(store StoreAPI, defaults Defaults, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, defaults: defaults, log: log}
}

// Create validates rec, derives its net payable from the line items and
// persists it. Any totals supplied by the caller are ignored.
func (s *Service) Create(ctx context.Context, rec Record) (Payslip, error) {
	rec = s.applyDefaults(rec)
	if err := Validate(rec); err != nil {
		return Payslip{}, err
	}

	totals := rec.Totals()
	created, err := s.store.Create(ctx, Payslip{
		Record:          rec,
		TotalNetPayable: AmountOf(totals.Net),
	})
	if err != nil {
		return Payslip{}, fmt.Errorf("create payslip: %w", err)
	}
	s.log.Info("payslip created",
		zap.String("payslipId", created.ID),
		zap.String("employeeId", created.EmployeeID),
		zap.String("payPeriod", created.PayPeriod),
		zap.String("net", totals.Net.String()),
	)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (Payslip, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Payslip, int, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count payslips: %w", err)
	}
	items, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payslips: %w", err)
	}
	return items, total, nil
}

func (s *Service) applyDefaults(rec Record) Record {
	if rec.Currency == "" && rec.CurrencySymbol == "" {
		rec.Currency = s.defaults.Currency
		rec.CurrencySymbol = s.defaults.CurrencySymbol
	}
	return rec
}
