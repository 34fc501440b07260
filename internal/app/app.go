package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"PaperScanner/internal/categorize"
	"PaperScanner/internal/config"
	"PaperScanner/internal/domain"
	"PaperScanner/internal/infrastructure/httpfetch"
	"PaperScanner/internal/infrastructure/ingest"
	"PaperScanner/internal/infrastructure/ncbi"
	"PaperScanner/internal/infrastructure/report"
	"PaperScanner/internal/infrastructure/semanticscholar"
	"PaperScanner/internal/infrastructure/storage"
	"PaperScanner/internal/logging"
	"PaperScanner/internal/ports"
	"PaperScanner/internal/publisher"
	"PaperScanner/internal/usecase"
)

// ErrNoDatabase is returned by operations that need the result store when none is configured.
var ErrNoDatabase = errors.New("no database configured")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	categorizer  *categorize.Categorizer
	orchestrator *usecase.Orchestrator
	pipeline     *usecase.Pipeline
	repository   *storage.SQLRepository
}

// Options carries the pieces a caller may swap out, mostly for tests.
type Options struct {
	Logger    *slog.Logger
	Fetcher   ports.Fetcher
	Converter ports.IDConverter
	Console   io.Writer
}

// New builds the application from configuration.
func New(ctx context.Context, cfg config.Config, opts Options) (*Application, error) {
	baseLogger := opts.Logger
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	rules := categorize.DefaultRules()
	if cfg.CategoriesFile != "" {
		loaded, err := categorize.LoadRules(cfg.CategoriesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	categorizer := categorize.New(rules)

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = httpfetch.New(httpfetch.Options{
			UserAgent:        cfg.Fetch.UserAgent,
			Timeout:          cfg.Fetch.Timeout,
			MaxRedirects:     cfg.Fetch.MaxRedirects,
			MinInterval:      cfg.Fetch.RateInterval,
			CacheSize:        cfg.Fetch.CacheSize,
			CacheTTL:         cfg.Fetch.CacheTTL,
			BypassCloudflare: cfg.Fetch.BypassCloudflare,
		}, baseLogger.With("component", "fetch"))
	}

	var enricher ports.PaperEnricher
	if cfg.Enrichment.SemanticScholar {
		enricher = semanticscholar.New(cfg.Enrichment.Endpoint, cfg.Fetch.UserAgent,
			cfg.Fetch.Timeout, cfg.Enrichment.RateInterval)
	}

	converter := opts.Converter
	if converter == nil && !cfg.Enrichment.DisableIDConv {
		converter = ncbi.New(cfg.Enrichment.IDConvEndpoint, cfg.Fetch.UserAgent,
			cfg.Fetch.Timeout, cfg.Enrichment.RateInterval)
	}

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Fetcher:   fetcher,
		Registry:  publisher.DefaultRegistry(),
		Enricher:  enricher,
		Converter: converter,
		Logger:    baseLogger.With("component", "orchestrator"),
	})

	writers := []ports.ReportWriter{report.NewCSVWriter(cfg.Output.Dir)}
	if cfg.Output.Enabled(config.FormatConsole) {
		writers = append(writers, report.NewConsoleWriter(opts.Console))
	}
	if cfg.Output.Enabled(config.FormatHTML) {
		writers = append(writers, report.NewHTMLWriter(cfg.Output.Dir))
	}
	if cfg.Output.Enabled(config.FormatPDF) {
		writers = append(writers, report.NewPDFWriter(cfg.Output.Dir))
	}

	var repository *storage.SQLRepository
	if cfg.Database.DSN != "" {
		repo, err := storage.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		repository = repo
		writers = append(writers, repo)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      ingest.NewCSVSource(cfg.Input.Path, baseLogger.With("component", "ingest")),
		Categorizer: categorizer,
		Processor:   orchestrator,
		Writers:     writers,
		Logger:      baseLogger.With("component", "pipeline"),
		Options: usecase.AnalysisOptions{
			Testing:        cfg.Analysis.Testing,
			SampleInterval: cfg.Analysis.SampleInterval,
			TopN:           cfg.Analysis.TopN,
			Workers:        cfg.Analysis.Workers,
		},
	})

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		categorizer:  categorizer,
		orchestrator: orchestrator,
		pipeline:     pipeline,
		repository:   repository,
	}, nil
}

// Run performs a single pipeline execution over the configured input.
func (a *Application) Run(ctx context.Context) (domain.Report, error) {
	a.logger.Info("run started",
		"input", a.cfg.Input.Path,
		"output", a.cfg.Output.Dir,
		"testing", a.cfg.Analysis.Testing,
		"top_n", a.cfg.Analysis.TopN,
	)
	return a.pipeline.Run(ctx)
}

// Extract processes a single URL the same way a pipeline row would be processed.
func (a *Application) Extract(ctx context.Context, rawURL, comment string) domain.FetchResult {
	d := categorize.DomainFromURL(rawURL)
	category := a.categorizer.Categorize(d)
	return a.orchestrator.Process(ctx, rawURL, category, comment).WithRow(category, d)
}

// Categorize labels each domain.
func (a *Application) Categorize(domains ...string) []domain.Category {
	out := make([]domain.Category, len(domains))
	for i, d := range domains {
		out[i] = a.categorizer.Categorize(d)
	}
	return out
}

// Runs lists the stored runs, newest first.
func (a *Application) Runs(ctx context.Context) ([]ports.RunSummary, error) {
	if a.repository == nil {
		return nil, ErrNoDatabase
	}
	return a.repository.Runs(ctx)
}

// Results returns the stored results of one run.
func (a *Application) Results(ctx context.Context, runID string) ([]domain.FetchResult, error) {
	if a.repository == nil {
		return nil, ErrNoDatabase
	}
	results, err := a.repository.Results(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return results, nil
}

// Close releases the result store.
func (a *Application) Close() error {
	if a.repository == nil {
		return nil
	}
	return a.repository.Close()
}
