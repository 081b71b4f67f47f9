package fakeapi

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/takmir/kas/internal/finance"
)

// renderPDF lays out the report as an A4 statement.
func renderPDF(p PeriodReport, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("Laporan Keuangan "+p.Filter.Range.Label()))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, tr("Periode: "+finance.FormatDate(p.Start)+" - "+finance.FormatDate(p.End)))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 10)

	sumW := []float64{45.5, 45.5, 45.5, 45.5}
	pdf.CellFormat(sumW[0], 9, "Saldo Awal", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 9, "Pemasukan", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 9, "Pengeluaran", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[3], 9, "Saldo Akhir", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(sumW[0], 9, finance.FormatRupiah(p.Opening), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 9, finance.FormatRupiah(p.TotalIncome), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 9, finance.FormatRupiah(p.TotalExpense), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[3], 9, finance.FormatRupiah(p.Closing), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	colW := []float64{28, 30, 88, 36}

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(colW[0], 8, "JENIS", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[1], 8, "TANGGAL", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[2], 8, "KETERANGAN", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[3], 8, "NOMINAL", "1", 1, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}

	header()

	rows := append(append([]finance.Transaction{}, p.Incomes...), p.Expenses...)
	sortByDate(rows)

	for _, tx := range rows {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}

		amount := finance.FormatRupiah(tx.Amount)
		if tx.Kind == finance.KindExpense {
			amount = "-" + amount
		}

		pdf.CellFormat(colW[0], 8, strings.ToUpper(tx.Kind.Label()), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[1], 8, tx.Date.Format("02-01-2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[2], 8, tr(trimTo(tx.Name, 60)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[3], 8, amount, "1", 1, "R", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Dibuat "+generated.Format("02-01-2006 15:04"), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}

	return buf.Bytes(), nil
}

// pdfFilename is the server-side attachment name.
func pdfFilename(p PeriodReport) string {
	return fmt.Sprintf("laporan-keuangan-%s-%s-%s.pdf",
		p.Filter.Range, p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
}

func trimTo(s string, limit int) string {
	s = strings.TrimSpace(s)

	r := []rune(s)
	if len(r) <= limit {
		return s
	}

	return string(r[:limit-3]) + "..."
}
