package infra

// pdf.go: Kitchen/counter receipt generation using go-pdf/fpdf.
// One receipt is produced per category group of an order, with:
//   - Business name header
//   - Order number and group title
//   - Timestamp in the business timezone
//   - One line per item: "<qty>x <name>" and the line amount
//
// Receipts are rendered in memory; nothing is written to disk.

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReceiptLine is one printable item of a receipt.
type ReceiptLine struct {
	Quantity int
	Name     string
	Price    decimal.Decimal // unit price snapshotted on the order
}

// Receipt is the input of a single rendered PDF.
type Receipt struct {
	OrderNumber int
	Categoria   string
	CreatedAt   time.Time
	Lines       []ReceiptLine
}

// ReceiptRenderer renders receipts with a fixed business header.
type ReceiptRenderer struct {
	businessName string
	loc          *time.Location
}

func NewReceiptRenderer(businessName string, loc *time.Location) *ReceiptRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &ReceiptRenderer{businessName: businessName, loc: loc}
}

// Filename returns the download name for a receipt.
func (r *ReceiptRenderer) Filename(rc Receipt) string {
	return fmt.Sprintf("pedido_%d_%s.pdf", rc.OrderNumber, strings.ToLower(rc.Categoria))
}

// Render returns the PDF bytes of rc.
func (r *ReceiptRenderer) Render(rc Receipt) ([]byte, error) {
	// 80mm thermal roll; height grows with the number of lines
	height := 60.0 + float64(len(rc.Lines))*7
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: height},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 10

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Courier", "B", 12)
	pdf.CellFormat(contentW, 6, tr(r.businessName), "", 1, "C", false, 0, "")
	pdf.Ln(1)

	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(contentW, 7, fmt.Sprintf("PEDIDO #%d", rc.OrderNumber), "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "B", 11)
	pdf.CellFormat(contentW, 6, tr(strings.ToUpper(rc.Categoria)), "", 1, "C", false, 0, "")

	pdf.SetFont("Courier", "", 9)
	fecha := rc.CreatedAt.In(r.loc).Format("02/01/2006 15:04")
	pdf.CellFormat(contentW, 5, "Fecha: "+fecha, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 6, "**********************", "", 1, "C", false, 0, "")

	// ── Items ────────────────────────────────────────────────────────────────
	nameW := contentW * 0.7
	priceW := contentW - nameW
	pdf.SetFont("Courier", "", 10)
	for _, l := range rc.Lines {
		subtotal := l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		pdf.CellFormat(nameW, 6, tr(fmt.Sprintf("%dx %s", l.Quantity, l.Name)), "", 0, "L", false, 0, "")
		pdf.CellFormat(priceW, 6, "$"+FormatMonto(subtotal), "", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: output: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatMonto formats an amount with "." as thousands separator and "," for
// decimals, omitting the decimals for whole amounts (1500 -> "1.500").
func FormatMonto(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	out := b.String()
	if frac != "00" {
		out += "," + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
