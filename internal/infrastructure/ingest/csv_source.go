// Package ingest reads the input table of URLs.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"PaperScanner/internal/categorize"
	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

// CSVSource loads rows from a delimited file with a header naming url, domain and comment.
type CSVSource struct {
	path   string
	logger *slog.Logger
}

var _ ports.RowSource = (*CSVSource)(nil)

// NewCSVSource wires a file-backed row source.
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CSVSource{path: path, logger: logger}
}

// Rows reads and decodes the whole file. Malformed records are skipped.
func (s *CSVSource) Rows(ctx context.Context) ([]domain.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", s.path, err)
	}

	text, enc, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode input %s: %w", s.path, err)
	}

	rows, skipped, err := ParseRows(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse input %s: %w", s.path, err)
	}
	s.logger.Info("input decoded", "path", s.path, "encoding", enc, "rows", len(rows), "skipped", skipped)
	return rows, nil
}

type columns struct {
	url, domain, comment int
}

// ParseRows reads CSV records. The header is matched case-insensitively; only url is
// required. A missing domain is derived from the url.
func ParseRows(r io.Reader) ([]domain.Row, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, errors.New("input is empty")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols, err := headerColumns(header)
	if err != nil {
		return nil, 0, err
	}

	var (
		rows    []domain.Row
		skipped int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, skipped, err
		}

		row := domain.Row{
			Index:   len(rows),
			URL:     field(record, cols.url),
			Domain:  strings.ToLower(field(record, cols.domain)),
			Comment: field(record, cols.comment),
		}
		if row.URL == "" && row.Domain == "" {
			skipped++
			continue
		}
		if row.Domain == "" {
			row.Domain = categorize.DomainFromURL(row.URL)
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func headerColumns(header []string) (columns, error) {
	cols := columns{url: -1, domain: -1, comment: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "url":
			cols.url = i
		case "domain":
			cols.domain = i
		case "comment", "comments":
			cols.comment = i
		}
	}
	if cols.url < 0 {
		return cols, fmt.Errorf("header %v has no url column", header)
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
