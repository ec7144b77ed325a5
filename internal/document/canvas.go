package document

import (
	"bytes"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type rgb struct{ r, g, b int }

type align int

const (
	alignLeft align = iota
	alignRight
	alignCenter
)

const (
	fontSans = "sans"
	fontMono = "mono"
)

// canvas is the drawing surface the layout writes to. Coordinates are
// millimetres from the top-left corner; y is the text baseline.
type canvas interface {
	PageWidth() float64
	SetFont(family, style string, size float64)
	SetTextColor(c rgb)
	SetFillColor(c rgb)
	SetDrawColor(c rgb)
	SetLineWidth(w float64)
	StringWidth(s string) float64
	Text(x, y float64, s string, a align)
	Line(x1, y1, x2, y2 float64)
	FilledRoundedRect(x, y, w, h, r float64)
	Image(logo *Logo, x, y, w, h float64) error
	// Unicode reports whether arbitrary runes can be drawn.
	Unicode() bool
}

type pdfCanvas struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
	unicode   bool
	families  map[string]string
	images    int
}

func newPDFCanvas(fontBytes []byte, created time.Time) *pdfCanvas {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("payslipgen", true)
	if !created.IsZero() {
		pdf.SetCreationDate(created.UTC())
	}

	c := &pdfCanvas{
		pdf:      pdf,
		families: map[string]string{fontSans: "Helvetica", fontMono: "Courier"},
	}
	if len(fontBytes) > 0 {
		pdf.AddUTF8FontFromBytes("doc", "", fontBytes)
		pdf.AddUTF8FontFromBytes("doc", "B", fontBytes)
		c.families = map[string]string{fontSans: "doc", fontMono: "doc"}
		c.unicode = true
		c.translate = func(s string) string { return s }
	} else {
		c.translate = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()
	return c
}

func (c *pdfCanvas) PageWidth() float64 {
	w, _ := c.pdf.GetPageSize()
	return w
}

func (c *pdfCanvas) SetFont(family, style string, size float64) {
	c.pdf.SetFont(c.families[family], style, size)
}

func (c *pdfCanvas) SetTextColor(col rgb) { c.pdf.SetTextColor(col.r, col.g, col.b) }
func (c *pdfCanvas) SetFillColor(col rgb) { c.pdf.SetFillColor(col.r, col.g, col.b) }
func (c *pdfCanvas) SetDrawColor(col rgb) { c.pdf.SetDrawColor(col.r, col.g, col.b) }
func (c *pdfCanvas) SetLineWidth(w float64) {
	c.pdf.SetLineWidth(w)
}

func (c *pdfCanvas) StringWidth(s string) float64 {
	return c.pdf.GetStringWidth(c.translate(s))
}

func (c *pdfCanvas) Text(x, y float64, s string, a align) {
	encoded := c.translate(s)
	switch a {
	case alignRight:
		x -= c.pdf.GetStringWidth(encoded)
	case alignCenter:
		x -= c.pdf.GetStringWidth(encoded) / 2
	}
	c.pdf.Text(x, y, encoded)
}

func (c *pdfCanvas) Line(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, y1, x2, y2)
}

func (c *pdfCanvas) FilledRoundedRect(x, y, w, h, r float64) {
	c.pdf.RoundedRect(x, y, w, h, r, "1234", "F")
}

// Image places logo inside the w×h box keeping its aspect ratio. A logo
// gofpdf cannot embed is reported and the document error state is reset so
// the rest of the page still renders.
func (c *pdfCanvas) Image(logo *Logo, x, y, w, h float64) error {
	c.images++
	name := "logo" + strconv.Itoa(c.images)
	opts := gofpdf.ImageOptions{ImageType: logo.Type}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(logo.Data))
	if err := c.pdf.Error(); err != nil {
		c.pdf.ClearError()
		return err
	}
	dw, dh := fitBox(float64(logo.Width), float64(logo.Height), w, h)
	c.pdf.ImageOptions(name, x, y+(h-dh)/2, dw, dh, false, opts, 0, "")
	if err := c.pdf.Error(); err != nil {
		c.pdf.ClearError()
		return err
	}
	return nil
}

func (c *pdfCanvas) Unicode() bool {
	return c.unicode
}

func (c *pdfCanvas) err() error {
	return c.pdf.Error()
}

func (c *pdfCanvas) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fitBox(iw, ih, bw, bh float64) (float64, float64) {
	if iw <= 0 || ih <= 0 {
		return bw, bh
	}
	scale := min(bw/iw, bh/ih)
	return iw * scale, ih * scale
}
