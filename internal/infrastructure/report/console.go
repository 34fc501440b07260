package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

// ConsoleWriter prints the summary tables to a terminal.
type ConsoleWriter struct {
	out io.Writer
}

var _ ports.ReportWriter = (*ConsoleWriter)(nil)

// NewConsoleWriter prints to out, or stdout when out is nil.
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleWriter{out: out}
}

func (w *ConsoleWriter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w.out)
	t.SetTitle(title)
	return t
}

func (w *ConsoleWriter) Write(_ context.Context, report domain.Report) error {
	st := stats(report)

	categories := w.newTable("Category statistics")
	categories.AppendHeader(row(statisticsHeader))
	for _, cs := range st.Categories() {
		categories.AppendRow(row(statisticsRecord(cs, percent)))
	}
	categories.Render()

	if pubs := st.Publishers(); len(pubs) > 0 {
		publishers := w.newTable("Publisher performance")
		publishers.AppendHeader(row(publisherHeader))
		for _, ps := range pubs {
			publishers.AppendRow(row(publisherRecord(ps, percent)))
		}
		publishers.Render()
	}

	totals := st.Totals()
	summary := w.newTable("Run " + report.RunID)
	summary.AppendHeader(table.Row{"urls processed", "successful", "doi found", "abstract found"})
	summary.AppendRow(table.Row{
		totals.Processed,
		totals.Successful,
		fmt.Sprintf("%d (%s%%)", totals.DOIs, strconv.FormatFloat(totals.DOIPercent(), 'f', 1, 64)),
		fmt.Sprintf("%d (%s%%)", totals.Abstracts, strconv.FormatFloat(totals.AbstractPercent(), 'f', 1, 64)),
	})
	summary.Render()
	return nil
}

func row(values []string) table.Row {
	out := make(table.Row, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
