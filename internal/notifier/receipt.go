package notifier

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type Receipt struct {
	Number        string
	IssuedAt      time.Time
	TripTitle     string
	TripDate      time.Time
	PayerName     string
	PayerEmail    string
	Participants  []string
	Amount        float64
	AmountPaid    float64
	TotalAmount   float64
	Provider      string
	TransactionID string
}

// RenderReceipt produces a one page PDF. Core fonts cover cp1252 only, so
// characters outside it are dropped by the translator.
func RenderReceipt(r Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Groupy Loopy - Payment Receipt")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Receipt", r.Number},
		{"Issued", r.IssuedAt.Format("2006-01-02 15:04")},
		{"Trip", tr(r.TripTitle)},
		{"Trip date", r.TripDate.Format("2006-01-02")},
		{"Payer", tr(r.PayerName)},
		{"Email", r.PayerEmail},
		{"Method", r.Provider},
		{"Transaction", r.TransactionID},
		{"Amount", fmt.Sprintf("ILS %.2f", r.Amount)},
		{"Paid to date", fmt.Sprintf("ILS %.2f of %.2f", r.AmountPaid, r.TotalAmount)},
	}
	for _, row := range rows {
		pdf.CellFormat(45, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(120, 8, row[1], "1", 1, "L", false, 0, "")
	}

	if len(r.Participants) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Participants")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		for i, name := range r.Participants {
			pdf.Cell(0, 7, fmt.Sprintf("%d. %s", i+1, tr(name)))
			pdf.Ln(7)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
