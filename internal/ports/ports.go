package ports

import (
	"context"

	"PaperScanner/internal/domain"
)

// Response is a successful fetch after redirects were followed.
type Response struct {
	StatusCode int
	Body       []byte
	FinalURL   string
}

// Fetcher downloads a page. Failures are returned as *domain.TransportError.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Response, error)
}

// RowSource supplies the input rows of a run.
type RowSource interface {
	Rows(ctx context.Context) ([]domain.Row, error)
}

// ReportWriter persists or renders the outcome of a run.
type ReportWriter interface {
	Write(ctx context.Context, report domain.Report) error
}

// RunSummary is a stored run as listed by a ResultRepository.
type RunSummary struct {
	RunID      string
	StartedAt  string
	FinishedAt string
	Totals     domain.Totals
}

// ResultRepository keeps results of past runs.
type ResultRepository interface {
	ReportWriter
	Runs(ctx context.Context) ([]RunSummary, error)
	Results(ctx context.Context, runID string) ([]domain.FetchResult, error)
}

// PaperEnricher looks up a paper's title and abstract by DOI in an external index.
// An unknown DOI is not an error and yields an empty Paper.
type PaperEnricher interface {
	PaperByDOI(ctx context.Context, doi string) (domain.Paper, error)
}

// IDConverter maps a PMID or PMCID to the article's other identifiers.
// An unknown identifier is not an error and yields an empty Conversion.
type IDConverter interface {
	Convert(ctx context.Context, id string) (domain.Conversion, error)
}
