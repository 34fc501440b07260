// Package storage keeps finished runs in a SQL database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

const insertBatch = 100

var schema = []string{
	`CREATE TABLE IF NOT EXISTS scrape_runs (
		run_id      TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		processed   INTEGER NOT NULL,
		successful  INTEGER NOT NULL,
		dois        INTEGER NOT NULL,
		abstracts   INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scrape_results (
		run_id            TEXT NOT NULL REFERENCES scrape_runs (run_id),
		position          INTEGER NOT NULL,
		url               TEXT NOT NULL,
		requested_url     TEXT NOT NULL,
		success           BOOLEAN NOT NULL,
		doi_found         BOOLEAN NOT NULL,
		abstract_found    BOOLEAN NOT NULL,
		doi               TEXT NOT NULL,
		abstract          TEXT NOT NULL,
		extraction_method TEXT NOT NULL,
		pattern           TEXT NOT NULL,
		enriched          BOOLEAN NOT NULL,
		error             TEXT NOT NULL,
		error_kind        TEXT NOT NULL,
		source            TEXT NOT NULL,
		category          TEXT NOT NULL,
		domain            TEXT NOT NULL,
		title             TEXT NOT NULL,
		pmid              TEXT NOT NULL,
		pmcid             TEXT NOT NULL,
		paper_url         TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
}

var resultColumns = []string{
	"run_id", "position", "url", "requested_url", "success", "doi_found", "abstract_found", "doi",
	"abstract", "extraction_method", "pattern", "enriched", "error", "error_kind", "source",
	"category", "domain", "title", "pmid", "pmcid", "paper_url",
}

// SQLRepository keeps run summaries and per-row results in Postgres or SQLite.
type SQLRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.ResultRepository = (*SQLRepository)(nil)

// Open connects to dsn. postgres:// and postgresql:// URLs use lib/pq; anything else is
// treated as a SQLite database path.
func Open(dsn string) (*SQLRepository, error) {
	driver := "sqlite"
	var placeholder sq.PlaceholderFormat = sq.Question
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, placeholder = "postgres", sq.Dollar
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return NewSQLRepository(db, placeholder), nil
}

// NewSQLRepository wires a sql.DB implementation.
func NewSQLRepository(db *sql.DB, placeholder sq.PlaceholderFormat) *SQLRepository {
	return &SQLRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// Migrate creates the tables when they do not exist yet.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// Write stores the run summary and all of its results in one transaction.
func (r *SQLRepository) Write(ctx context.Context, report domain.Report) error {
	totals := domain.Totals{}
	if report.Stats != nil {
		totals = report.Stats.Totals()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.sb.Insert("scrape_runs").
		Columns("run_id", "started_at", "finished_at", "processed", "successful", "dois", "abstracts").
		Values(report.RunID, formatTime(report.StartedAt), formatTime(report.FinishedAt),
			totals.Processed, totals.Successful, totals.DOIs, totals.Abstracts).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	for start := 0; start < len(report.Results); start += insertBatch {
		end := min(start+insertBatch, len(report.Results))

		insert := r.sb.Insert("scrape_results").Columns(resultColumns...)
		for i, res := range report.Results[start:end] {
			insert = insert.Values(
				report.RunID, start+i, res.URL, res.RequestedURL, res.Success, res.DOIFound,
				res.AbstractFound, res.DOI, res.Abstract, res.ExtractionMethod, res.Pattern,
				res.Enriched, res.Error, string(res.ErrorKind), string(res.Source),
				string(res.Category), res.Domain, res.Title, res.PMID, res.PMCID, res.PaperURL,
			)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build result insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert results of %s: %w", report.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", report.RunID, err)
	}
	return nil
}

// Runs lists stored runs, newest first.
func (r *SQLRepository) Runs(ctx context.Context) ([]ports.RunSummary, error) {
	query, args, err := r.sb.
		Select("run_id", "started_at", "finished_at", "processed", "successful", "dois", "abstracts").
		From("scrape_runs").
		OrderBy("started_at DESC", "run_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []ports.RunSummary
	for rows.Next() {
		var s ports.RunSummary
		if err := rows.Scan(&s.RunID, &s.StartedAt, &s.FinishedAt,
			&s.Totals.Processed, &s.Totals.Successful, &s.Totals.DOIs, &s.Totals.Abstracts); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// Results returns the stored results of one run in processing order.
func (r *SQLRepository) Results(ctx context.Context, runID string) ([]domain.FetchResult, error) {
	query, args, err := r.sb.
		Select(resultColumns[2:]...).
		From("scrape_results").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build results query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []domain.FetchResult
	for rows.Next() {
		var (
			res                    domain.FetchResult
			kind, source, category string
		)
		if err := rows.Scan(&res.URL, &res.RequestedURL, &res.Success, &res.DOIFound, &res.AbstractFound,
			&res.DOI, &res.Abstract, &res.ExtractionMethod, &res.Pattern, &res.Enriched, &res.Error,
			&kind, &source, &category, &res.Domain, &res.Title, &res.PMID, &res.PMCID, &res.PaperURL); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.ErrorKind = domain.ErrorKind(kind)
		res.Source = domain.Source(source)
		res.Category = domain.Category(category)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
