package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"payslipgen/internal/document"
	"payslipgen/internal/domain/payslip"
)

const FinishedMessage = "Payslip saved to database and PDF generated!"

type RecordCreator interface {
	Create(ctx context.Context, rec payslip.Record) (payslip.Payslip, error)
}

type Renderer interface {
	Render(ctx context.Context, in document.Input) (document.Document, error)
}

type Request struct {
	Record     payslip.Record
	LogoSource document.LogoSource
	OutDir     string
}

type Result struct {
	Payslip     payslip.Payslip
	Totals      payslip.Totals
	Path        string
	LogoOutcome document.LogoOutcome
}

// Generator runs the submit-then-render flow for one form snapshot.
type Generator struct {
	Records  RecordCreator
	Renderer Renderer
	OnFinish func(Result)
	Log      *zap.Logger
}

// Run validates the snapshot locally, saves it once, renders the document
// from the same snapshot and writes it to OutDir. A validation failure stops
// before any network call. The snapshot is never modified, so a failed run
// can be retried with the same Request.
func (g *Generator) Run(ctx context.Context, req Request) (Result, error) {
	log := g.Log
	if log == nil {
		log = zap.NewNop()
	}

	rec := req.Record
	if err := payslip.Validate(rec); err != nil {
		return Result{}, err
	}

	created, err := g.Records.Create(ctx, rec)
	if err != nil {
		log.Warn("payslip submission failed", zap.Error(err))
		return Result{}, err
	}

	totals := payslip.ComputeTotals(rec.Earnings, rec.Deductions)
	if !totals.Net.Equal(created.TotalNetPayable.Decimal) {
		log.Warn("stored net payable differs from local total",
			zap.String("payslipId", created.ID),
			zap.String("local", totals.Net.String()),
			zap.String("stored", created.TotalNetPayable.String()),
		)
	}

	doc, err := g.Renderer.Render(ctx, document.Input{
		Record:     withServerCurrency(rec, created),
		Totals:     totals,
		LogoSource: req.LogoSource,
		CreatedAt:  created.CreatedAt,
	})
	if err != nil {
		return Result{}, fmt.Errorf("render payslip: %w", err)
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir = "."
	}
	path := filepath.Join(outDir, doc.Filename)
	if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
		return Result{}, fmt.Errorf("write payslip document: %w", err)
	}

	result := Result{
		Payslip:     created,
		Totals:      totals,
		Path:        path,
		LogoOutcome: doc.LogoOutcome,
	}
	log.Info("payslip generated",
		zap.String("payslipId", created.ID),
		zap.String("path", path),
		zap.String("logo", string(doc.LogoOutcome)),
	)
	if g.OnFinish != nil {
		g.OnFinish(result)
	}
	return result, nil
}

// withServerCurrency fills in the currency the service defaulted when the
// snapshot left it blank.
func withServerCurrency(rec payslip.Record, created payslip.Payslip) payslip.Record {
	if rec.Currency == "" && rec.CurrencySymbol == "" {
		rec.Currency = created.Currency
		rec.CurrencySymbol = created.CurrencySymbol
	}
	return rec
}
