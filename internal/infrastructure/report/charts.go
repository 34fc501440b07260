package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

// HTMLWriter renders report.html with rate and label charts.
type HTMLWriter struct {
	dir string
}

var _ ports.ReportWriter = (*HTMLWriter)(nil)

// NewHTMLWriter writes into dir.
func NewHTMLWriter(dir string) *HTMLWriter {
	return &HTMLWriter{dir: dir}
}

func (w *HTMLWriter) Write(_ context.Context, report domain.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	st := stats(report)

	page := components.NewPage()
	page.AddCharts(categoryRates(st), labelPie(st))
	if len(st.Publishers()) > 0 {
		page.AddCharts(publisherRates(st))
	}

	path := filepath.Join(w.dir, "report.html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := page.Render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func categoryRates(st *domain.RunStats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Extraction rates by category", Subtitle: "percent"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)

	var (
		names    []string
		success  []opts.BarData
		doi      []opts.BarData
		abstract []opts.BarData
	)
	for _, cs := range st.Categories() {
		names = append(names, string(cs.Category))
		success = append(success, opts.BarData{Value: pct(cs.SuccessRate())})
		doi = append(doi, opts.BarData{Value: pct(cs.DOIRate())})
		abstract = append(abstract, opts.BarData{Value: pct(cs.AbstractRate())})
	}
	bar.SetXAxis(names).
		AddSeries("success", success).
		AddSeries("doi", doi).
		AddSeries("abstract", abstract)
	return bar
}

func labelPie(st *domain.RunStats) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Input rows by category"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)

	var items []opts.PieData
	for _, l := range st.Labels() {
		items = append(items, opts.PieData{Name: string(l.Category), Value: l.Rows})
	}
	pie.AddSeries("rows", items)
	return pie
}

func publisherRates(st *domain.RunStats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Publisher performance", Subtitle: "percent of attempts"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)

	var (
		names    []string
		doi      []opts.BarData
		abstract []opts.BarData
	)
	for _, ps := range st.Publishers() {
		names = append(names, ps.Publisher)
		doi = append(doi, opts.BarData{Value: pct(ps.DOIRate())})
		abstract = append(abstract, opts.BarData{Value: pct(ps.AbstractRate())})
	}
	bar.SetXAxis(names).
		AddSeries("doi", doi).
		AddSeries("abstract", abstract)
	return bar
}

func pct(v float64) float64 {
	return float64(int(v*1000+0.5)) / 10
}
