package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"PaperScanner/internal/categorize"
	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

const defaultProgressEvery = 25

// AnalysisOptions bound the cost of a run. They never change what is extracted.
type AnalysisOptions struct {
	Testing        bool
	SampleInterval int
	TopN           int
	Workers        int
	ProgressEvery  int
}

// PipelineDeps wires all driven adapters into the analysis pipeline.
type PipelineDeps struct {
	Source      ports.RowSource
	Categorizer *categorize.Categorizer
	Processor   Processor
	Writers     []ports.ReportWriter
	Logger      *slog.Logger
	Options     AnalysisOptions
	Now         func() time.Time
}

// Pipeline implements the batch analysis workflow.
type Pipeline struct {
	source      ports.RowSource
	categorizer *categorize.Categorizer
	processor   Processor
	writers     []ports.ReportWriter
	logger      *slog.Logger
	opts        AnalysisOptions
	now         func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	categorizer := deps.Categorizer
	if categorizer == nil {
		categorizer = categorize.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	opts := deps.Options
	if opts.SampleInterval < 1 {
		opts.SampleInterval = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ProgressEvery < 1 {
		opts.ProgressEvery = defaultProgressEvery
	}

	return &Pipeline{
		source:      deps.Source,
		categorizer: categorizer,
		processor:   deps.Processor,
		writers:     deps.Writers,
		logger:      logger,
		opts:        opts,
		now:         now,
	}
}

// Run loads the input rows, analyzes them and hands the report to every writer.
// Failing to read the input or to write a report aborts the run.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	if p.source == nil {
		return domain.Report{}, errors.New("no row source configured")
	}

	rows, err := p.source.Rows(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("load rows: %w", err)
	}
	p.logger.Info("rows loaded", "rows", len(rows))

	report, err := p.Analyze(ctx, rows)
	if err != nil {
		return report, err
	}

	for _, w := range p.writers {
		if err := w.Write(ctx, report); err != nil {
			return report, fmt.Errorf("write report: %w", err)
		}
	}

	totals := report.Stats.Totals()
	p.logger.Info("run finished",
		"run_id", report.RunID,
		"processed", totals.Processed,
		"doi_pct", fmt.Sprintf("%.1f", totals.DOIPercent()),
		"abstract_pct", fmt.Sprintf("%.1f", totals.AbstractPercent()),
		"elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
	return report, nil
}

// Analyze labels every row, selects the rows worth fetching and processes them.
// On cancellation the partial report is returned together with the context error.
func (p *Pipeline) Analyze(ctx context.Context, rows []domain.Row) (domain.Report, error) {
	if p.processor == nil {
		return domain.Report{}, errors.New("no processor configured")
	}

	report := domain.Report{RunID: uuid.NewString(), StartedAt: p.now()}
	stats := domain.NewRunStats()

	labelled := make([]domain.Row, len(rows))
	for i, row := range rows {
		if row.Domain == "" {
			row.Domain = categorize.DomainFromURL(row.URL)
		}
		row.Category = p.categorizer.Categorize(row.Domain)
		stats.Label(row.Category)
		labelled[i] = row
	}

	selected := p.selectRows(labelled)
	results, processed, err := p.process(ctx, selected)
	stats.Merge(processed)

	report.Results = results
	report.Stats = stats
	report.FinishedAt = p.now()
	return report, err
}

// selectRows keeps the rows of the fetched categories whose domain is among the top N,
// then thins them out in testing mode. Row order is preserved within each category.
func (p *Pipeline) selectRows(rows []domain.Row) []domain.Row {
	var out []domain.Row
	for _, category := range domain.FetchCategories {
		var inCategory []domain.Row
		for _, row := range rows {
			if row.Category == category {
				inCategory = append(inCategory, row)
			}
		}

		keep := topDomains(inCategory, p.opts.TopN)
		var kept []domain.Row
		for _, row := range inCategory {
			if keep[row.Domain] {
				kept = append(kept, row)
			}
		}
		if p.opts.Testing {
			kept = sample(kept, p.opts.SampleInterval)
		}

		p.logger.Info("processing category", "category", category, "urls", len(kept))
		out = append(out, kept...)
	}
	return out
}

// topDomains returns the n most frequent domains. Ties keep the domain seen first.
// n <= 0 keeps every domain.
func topDomains(rows []domain.Row, n int) map[string]bool {
	counts := map[string]int{}
	var order []string
	for _, row := range rows {
		if _, ok := counts[row.Domain]; !ok {
			order = append(order, row.Domain)
		}
		counts[row.Domain]++
	}

	ranked := append([]string(nil), order...)
	sort.SliceStable(ranked, func(i, j int) bool { return counts[ranked[i]] > counts[ranked[j]] })
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	keep := make(map[string]bool, len(ranked))
	for _, d := range ranked {
		keep[d] = true
	}
	return keep
}

func sample(rows []domain.Row, every int) []domain.Row {
	if every <= 1 {
		return rows
	}
	out := make([]domain.Row, 0, len(rows)/every+1)
	for i := 0; i < len(rows); i += every {
		out = append(out, rows[i])
	}
	return out
}

// process runs the selected rows through the processor on opts.Workers goroutines.
// Each worker folds into its own accumulator; they are merged once all workers stop.
func (p *Pipeline) process(ctx context.Context, rows []domain.Row) ([]domain.FetchResult, *domain.RunStats, error) {
	results := make([]domain.FetchResult, len(rows))
	done := make([]bool, len(rows))
	perWorker := make([]*domain.RunStats, p.opts.Workers)

	jobs := make(chan int)
	var completed atomic.Int64
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range rows {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := range perWorker {
		stats := domain.NewRunStats()
		perWorker[w] = stats
		g.Go(func() error {
			for i := range jobs {
				row := rows[i]
				result := p.processor.Process(gctx, row.URL, row.Category, row.Comment).WithRow(row.Category, row.Domain)
				stats.Fold(result)

				mu.Lock()
				results[i] = result
				done[i] = true
				mu.Unlock()

				if n := completed.Add(1); n%int64(p.opts.ProgressEvery) == 0 || int(n) == len(rows) {
					p.logger.Info("progress", "done", n, "total", len(rows))
				}
				if result.Error != "" {
					p.logger.Debug("row failed", "url", row.URL, "kind", result.ErrorKind, "error", result.Error)
				}
			}
			return nil
		})
	}

	err := g.Wait()

	merged := domain.NewRunStats()
	for _, stats := range perWorker {
		merged.Merge(stats)
	}

	out := make([]domain.FetchResult, 0, len(rows))
	for i, ok := range done {
		if ok {
			out = append(out, results[i])
		}
	}
	if err != nil {
		p.logger.Warn("analysis interrupted", "done", len(out), "total", len(rows), "error", err)
		return out, merged, fmt.Errorf("analysis interrupted: %w", err)
	}
	return out, merged, nil
}
