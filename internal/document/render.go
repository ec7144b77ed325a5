package document

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"payslipgen/internal/domain/payslip"
)

// Options configures a Renderer.
type Options struct {
	Money MoneyFormat
	// FontPath points at a TrueType font with the glyphs the document needs.
	// Without it the built-in PDF fonts are used.
	FontPath string
	Logos    *LogoLoader
	Logger   *zap.Logger
}

type Renderer struct {
	money MoneyFormat
	font  []byte
	logos *LogoLoader
	log   *zap.Logger
}

func NewRenderer(opts Options) (*Renderer, error) {
	r := &Renderer{
		money: opts.Money,
		logos: opts.Logos,
		log:   opts.Logger,
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.logos == nil {
		r.logos = NewLogoLoader(nil, 5*time.Second, 1<<20)
	}
	if opts.FontPath != "" {
		font, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("read document font: %w", err)
		}
		probe := newPDFCanvas(font, time.Time{})
		if err := probe.err(); err != nil {
			return nil, fmt.Errorf("load document font %s: %w", opts.FontPath, err)
		}
		r.font = font
	}
	return r, nil
}

// Input is one payslip ready for rendering. Totals must already be computed.
// Logo, when set, is used as is; otherwise LogoSource is loaded first.
type Input struct {
	Record     payslip.Record
	Totals     payslip.Totals
	Logo       *Logo
	LogoSource LogoSource
	CreatedAt  time.Time
}

type Document struct {
	Filename    string
	Content     []byte
	LogoOutcome LogoOutcome
}

// Render lays out a single A4 page. The logo load always settles before
// any drawing starts; a logo that fails or times out is left off the page.
func (r *Renderer) Render(ctx context.Context, in Input) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	logo, outcome := in.Logo, LogoAbsent
	if logo != nil {
		outcome = LogoLoaded
	} else if !in.LogoSource.Empty() {
		res := r.logos.Load(ctx, in.LogoSource)
		logo, outcome = res.Logo, res.Outcome
		if res.Err != nil {
			r.log.Warn("logo unavailable, rendering without it",
				zap.String("outcome", string(res.Outcome)),
				zap.Error(res.Err),
			)
		}
	}

	c := newPDFCanvas(r.font, in.CreatedAt)
	symbol, isCode := documentSymbol(in.Record, c.Unicode())
	res := drawPayslip(c, layoutInput{
		record:       in.Record,
		totals:       in.Totals,
		logo:         logo,
		money:        r.money,
		symbol:       symbol,
		symbolIsCode: isCode,
	})
	if res.logoErr != nil {
		outcome = LogoFailed
		r.log.Warn("logo could not be embedded", zap.Error(res.logoErr))
	}

	content, err := c.output()
	if err != nil {
		return Document{}, fmt.Errorf("render payslip: %w", err)
	}
	return Document{
		Filename:    Filename(in.Record.EmployeeName),
		Content:     content,
		LogoOutcome: outcome,
	}, nil
}

// Filename is "{employeeName}_Payslip.pdf", or "Payslip_Payslip.pdf" when
// the name is blank. Path separators and control characters are dropped.
func Filename(employeeName string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(employeeName))
	if name == "" {
		name = "Payslip"
	}
	return name + "_Payslip.pdf"
}

// documentSymbol picks what to print before amounts. The built-in fonts only
// cover Windows-1252, so a symbol outside it is replaced by the currency code.
func documentSymbol(rec payslip.Record, unicodeFont bool) (string, bool) {
	symbol := strings.TrimSpace(rec.CurrencySymbol)
	code := strings.ToUpper(strings.TrimSpace(rec.Currency))
	if symbol == "" {
		return code, code != ""
	}
	if unicodeFont || encodable(symbol) {
		return symbol, false
	}
	if code == "" {
		return "", false
	}
	return code, true
}

func encodable(s string) bool {
	_, err := charmap.Windows1252.NewEncoder().String(s)
	return err == nil
}
