package payslip

import "context"

type StoreAPI interface {
	Create(ctx context.Context, p Payslip) (Payslip, error)
	Get(ctx context.Context, id string) (Payslip, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit, offset int) ([]Payslip, error)
}
