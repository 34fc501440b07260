package usecase

import (
	"context"
	"log/slog"
	"strings"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/htmlutil"
	"PaperScanner/internal/patterns"
	"PaperScanner/internal/ports"
	"PaperScanner/internal/publisher"
)

// Processor turns one input row into a result. It never returns an error; failures
// are recorded on the result.
type Processor interface {
	Process(ctx context.Context, rawURL string, category domain.Category, comment string) domain.FetchResult
}

// OrchestratorDeps wires the collaborators of the fetch orchestrator.
type OrchestratorDeps struct {
	Fetcher   ports.Fetcher
	Registry  *publisher.Registry
	Converter ports.IDConverter
	Enricher  ports.PaperEnricher
	Logger    *slog.Logger
}

// Orchestrator fetches a row's comment URL or main URL and runs the matching handler.
type Orchestrator struct {
	fetcher   ports.Fetcher
	registry  *publisher.Registry
	converter ports.IDConverter
	enricher  ports.PaperEnricher
	logger    *slog.Logger
}

var _ Processor = (*Orchestrator)(nil)

// NewOrchestrator constructs the orchestrator. A nil registry means the builtin one.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	registry := deps.Registry
	if registry == nil {
		registry = publisher.DefaultRegistry()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		fetcher:   deps.Fetcher,
		registry:  registry,
		converter: deps.Converter,
		enricher:  deps.Enricher,
		logger:    logger,
	}
}

// Process tries the URL embedded in comment first and returns as soon as it yields a DOI
// or an abstract. Otherwise the main URL decides the result.
func (o *Orchestrator) Process(ctx context.Context, rawURL string, category domain.Category, comment string) domain.FetchResult {
	if candidate, ok := patterns.ExtractURL(comment); ok {
		result := o.attempt(ctx, candidate, domain.SourceCommentURL)
		if result.Success && (result.DOIFound || result.AbstractFound) {
			result.Category = category
			return o.enrich(ctx, result)
		}
		o.logger.Debug("comment url not usable", "url", candidate, "error", result.Error)
	}

	result := o.attempt(ctx, rawURL, domain.SourceMainURL)
	result.Category = category
	return o.enrich(ctx, result)
}

func (o *Orchestrator) attempt(ctx context.Context, target string, source domain.Source) domain.FetchResult {
	target = strings.TrimSpace(target)
	result := domain.FetchResult{URL: target, RequestedURL: target, Source: source}

	if target == "" {
		return failed(result, &domain.TransportError{Kind: domain.ErrorKindInvalidURL, URL: target})
	}
	if o.fetcher == nil {
		return failed(result, &domain.TransportError{Kind: domain.ErrorKindConnection, URL: target})
	}

	resp, err := o.fetcher.Fetch(ctx, target)
	if err != nil {
		return failed(result, err)
	}
	if resp.FinalURL != "" {
		result.URL = resp.FinalURL
	}

	doc, err := htmlutil.Parse(resp.Body)
	if err != nil {
		return failed(result, &domain.ExtractionError{URL: result.URL, Err: err})
	}

	handler := o.registry.ResolveURL(result.URL)
	extracted, err := handler.Extract(doc, result.URL)
	if err != nil {
		return failed(result, err)
	}

	if extracted.PaperURL != "" && !extracted.Complete() {
		extracted = o.followPaper(ctx, extracted)
	}
	extracted = o.convertIDs(ctx, extracted)

	result.Success = true
	result.DOI = extracted.DOI
	result.Abstract = extracted.Abstract
	result.Title = extracted.Title
	result.PMID = extracted.IDs.PMID
	result.PMCID = extracted.IDs.PMCID
	result.PaperURL = extracted.PaperURL
	result.DOIFound = extracted.HasDOI()
	result.AbstractFound = extracted.HasAbstract()
	result.ExtractionMethod = extracted.Method
	result.Pattern = extracted.Pattern
	return result
}

// followPaper reads the paper a report page links to and fills what the report lacks.
// The paper's own title replaces the story headline. Failures leave ex unchanged.
func (o *Orchestrator) followPaper(ctx context.Context, ex domain.ExtractionResult) domain.ExtractionResult {
	resp, err := o.fetcher.Fetch(ctx, ex.PaperURL)
	if err != nil {
		o.logger.Debug("paper page not reachable", "url", ex.PaperURL, "error", err)
		return ex
	}
	doc, err := htmlutil.Parse(resp.Body)
	if err != nil {
		o.logger.Debug("paper page not usable", "url", ex.PaperURL, "error", err)
		return ex
	}
	final := resp.FinalURL
	if final == "" {
		final = ex.PaperURL
	}
	paper, err := o.registry.ResolveURL(final).Extract(doc, final)
	if err != nil {
		return ex
	}

	if !ex.HasDOI() && paper.HasDOI() {
		ex.DOI = paper.DOI
		ex.Pattern = "paper-page:" + paper.Pattern
	}
	if !ex.HasAbstract() {
		ex.Abstract = paper.Abstract
	}
	if paper.Title != "" {
		ex.Title = paper.Title
	}
	if ex.IDs.Empty() {
		ex.IDs = paper.IDs
	}
	ex.PaperURL = final
	return ex
}

// convertIDs asks the ID converter for the DOI behind a PMID or PMCID. The converted DOI
// ranks as a computed identifier, so it only replaces DOIs found at weaker locations.
func (o *Orchestrator) convertIDs(ctx context.Context, ex domain.ExtractionResult) domain.ExtractionResult {
	if o.converter == nil || ex.IDs.Empty() || (ex.HasDOI() && publisher.OutranksComputed(ex.Pattern)) {
		return ex
	}

	id := ex.IDs.PMID
	if id == "" {
		id = ex.IDs.PMCID
	}
	conv, err := o.converter.Convert(ctx, id)
	if err != nil {
		o.logger.Warn("id conversion failed", "id", id, "error", err)
		return ex
	}

	if ex.IDs.PMID == "" {
		ex.IDs.PMID = conv.PMID
	}
	if ex.IDs.PMCID == "" {
		ex.IDs.PMCID = conv.PMCID
	}
	if doi := patterns.CleanDOI(conv.DOI); doi != "" {
		ex.DOI = doi
		ex.Pattern = "computed:idconv"
	}
	return ex
}

// enrich fills a missing abstract or title from the paper index.
func (o *Orchestrator) enrich(ctx context.Context, result domain.FetchResult) domain.FetchResult {
	if o.enricher == nil || !result.Success || !result.DOIFound {
		return result
	}
	if result.AbstractFound && result.Title != "" {
		return result
	}

	paper, err := o.enricher.PaperByDOI(ctx, result.DOI)
	if err != nil {
		o.logger.Warn("paper enrichment failed", "doi", result.DOI, "error", err)
		return result
	}
	if abstract := htmlutil.Normalize(paper.Abstract); abstract != "" && !result.AbstractFound {
		result.Abstract = abstract
		result.AbstractFound = true
		result.Enriched = true
	}
	if title := htmlutil.Normalize(paper.Title); title != "" && result.Title == "" {
		result.Title = title
		result.Enriched = true
	}
	return result
}

func failed(result domain.FetchResult, err error) domain.FetchResult {
	result.Success = false
	result.Error = err.Error()
	result.ErrorKind = domain.KindOf(err)
	return result
}
