package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

// CSVWriter writes the tabular reports into a directory.
type CSVWriter struct {
	dir string
}

var _ ports.ReportWriter = (*CSVWriter)(nil)

// NewCSVWriter creates a writer for dir. The directory is created on first write.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Write emits processed_urls.csv, the per-category result files and the summary tables.
func (w *CSVWriter) Write(_ context.Context, report domain.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	st := stats(report)

	if err := w.results("processed_urls.csv", report.Results); err != nil {
		return err
	}
	for _, c := range domain.FetchCategories {
		if err := w.results(string(c)+"_results.csv", report.ResultsFor(c)); err != nil {
			return err
		}
	}

	categories := st.Categories()
	statistics := make([][]string, 0, len(categories))
	for _, cs := range categories {
		statistics = append(statistics, statisticsRecord(cs, ratio))
	}
	if err := w.table("scraping_statistics.csv", statisticsHeader, statistics); err != nil {
		return err
	}

	publishers := st.Publishers()
	perf := make([][]string, 0, len(publishers))
	for _, ps := range publishers {
		perf = append(perf, publisherRecord(ps, ratio))
	}
	if err := w.table("publisher_performance.csv", publisherHeader, perf); err != nil {
		return err
	}

	labels := st.Labels()
	labelRows := make([][]string, 0, len(labels))
	for _, l := range labels {
		labelRows = append(labelRows, labelRecord(l))
	}
	return w.table("category_labels.csv", labelHeader, labelRows)
}

func (w *CSVWriter) results(name string, results []domain.FetchResult) error {
	records := make([][]string, 0, len(results))
	for _, r := range results {
		records = append(records, resultRecord(r))
	}
	return w.table(name, resultHeader, records)
}

func (w *CSVWriter) table(name string, header []string, records [][]string) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := cw.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
