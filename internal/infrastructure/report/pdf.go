package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

// PDFWriter renders summary.pdf with the category and publisher tables.
type PDFWriter struct {
	dir string
}

var _ ports.ReportWriter = (*PDFWriter)(nil)

// NewPDFWriter writes into dir.
func NewPDFWriter(dir string) *PDFWriter {
	return &PDFWriter{dir: dir}
}

func (w *PDFWriter) Write(_ context.Context, report domain.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	st := stats(report)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "PaperScanner run "+report.RunID, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if !report.StartedAt.IsZero() {
		pdf.CellFormat(0, 6, fmt.Sprintf("%s - %s",
			report.StartedAt.Format(time.RFC3339), report.FinishedAt.Format(time.RFC3339)), "", 1, "L", false, 0, "")
	}
	totals := st.Totals()
	pdf.CellFormat(0, 6, fmt.Sprintf("URLs processed: %d   DOIs found: %.1f%%   Abstracts found: %.1f%%",
		totals.Processed, totals.DOIPercent(), totals.AbstractPercent()), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	categories := st.Categories()
	rows := make([][]string, 0, len(categories))
	for _, cs := range categories {
		rows = append(rows, statisticsRecord(cs, percent))
	}
	pdfTable(pdf, "Category statistics", statisticsHeader, rows)

	publishers := st.Publishers()
	rows = rows[:0]
	for _, ps := range publishers {
		rows = append(rows, publisherRecord(ps, percent))
	}
	if len(rows) > 0 {
		pdfTable(pdf, "Publisher performance", publisherHeader, rows)
	}

	path := filepath.Join(w.dir, "summary.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func pdfTable(pdf *gofpdf.Fpdf, title string, header []string, rows [][]string) {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := (pageWidth - left - right) / float64(len(header))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 7)
	for _, h := range header {
		pdf.CellFormat(width, 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, r := range rows {
		for _, v := range r {
			pdf.CellFormat(width, 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}
