// Package report renders a finished run as CSV files, console tables, an HTML dashboard
// and a PDF summary.
package report

import (
	"strconv"

	"PaperScanner/internal/domain"
)

var resultHeader = []string{
	"url", "requested_url", "success", "doi_found", "abstract_found", "doi", "abstract",
	"extraction_method", "pattern", "enriched", "error", "error_kind", "source", "category", "domain",
	"title", "pmid", "pmcid", "paper_url",
}

func resultRecord(r domain.FetchResult) []string {
	return []string{
		r.URL,
		r.RequestedURL,
		strconv.FormatBool(r.Success),
		strconv.FormatBool(r.DOIFound),
		strconv.FormatBool(r.AbstractFound),
		r.DOI,
		r.Abstract,
		r.ExtractionMethod,
		r.Pattern,
		strconv.FormatBool(r.Enriched),
		r.Error,
		string(r.ErrorKind),
		string(r.Source),
		string(r.Category),
		r.Domain,
		r.Title,
		r.PMID,
		r.PMCID,
		r.PaperURL,
	}
}

var statisticsHeader = []string{
	"category", "total_urls", "successful_scrapes", "doi_found", "abstract_found", "comment_urls_used",
	"success_rate", "doi_rate", "abstract_rate", "most_common_error", "top_publisher",
}

func statisticsRecord(s domain.CategoryStats, format func(float64) string) []string {
	return []string{
		string(s.Category),
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Successful),
		strconv.Itoa(s.DOIFound),
		strconv.Itoa(s.AbstractFound),
		strconv.Itoa(s.CommentURLsUsed),
		format(s.SuccessRate()),
		format(s.DOIRate()),
		format(s.AbstractRate()),
		s.MostCommonError(),
		s.TopPublisher(),
	}
}

var publisherHeader = []string{
	"publisher", "total_attempts", "successful_dois", "successful_abstracts",
	"doi_success_rate", "abstract_success_rate",
}

func publisherRecord(p domain.PublisherStats, format func(float64) string) []string {
	return []string{
		p.Publisher,
		strconv.Itoa(p.Attempts),
		strconv.Itoa(p.DOIs),
		strconv.Itoa(p.Abstracts),
		format(p.DOIRate()),
		format(p.AbstractRate()),
	}
}

var labelHeader = []string{"category", "rows"}

func labelRecord(l domain.LabelCount) []string {
	return []string{string(l.Category), strconv.Itoa(l.Rows)}
}

func ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func percent(v float64) string {
	return strconv.FormatFloat(100*v, 'f', 1, 64) + "%"
}

func stats(report domain.Report) *domain.RunStats {
	if report.Stats == nil {
		return domain.NewRunStats()
	}
	return report.Stats
}
