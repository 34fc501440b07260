// Package semanticscholar looks up paper titles and abstracts by DOI in the Semantic Scholar graph API.
package semanticscholar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

// DefaultEndpoint is the public graph API.
const DefaultEndpoint = "https://api.semanticscholar.org/graph/v1"

// Client is a PaperEnricher backed by the graph API.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

var _ ports.PaperEnricher = (*Client)(nil)

type paper struct {
	PaperID  string `json:"paperId"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

// New builds a client. The public API throttles unauthenticated callers, so requests are
// spaced by minInterval.
func New(endpoint, userAgent string, timeout, minInterval time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}

	return &Client{http: client, limiter: rate.NewLimiter(limit, 1)}
}

// PaperByDOI returns the indexed title and abstract. Unknown papers yield an empty Paper.
func (c *Client) PaperByDOI(ctx context.Context, doi string) (domain.Paper, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return domain.Paper{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Paper{}, err
	}

	var out paper
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "title,abstract").
		SetResult(&out).
		Get("/paper/DOI:" + doi)
	if err != nil {
		return domain.Paper{}, fmt.Errorf("semantic scholar lookup %s: %w", doi, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return domain.Paper{}, nil
	case !resp.IsSuccess():
		return domain.Paper{}, fmt.Errorf("semantic scholar lookup %s: unexpected status %d", doi, resp.StatusCode())
	}
	return domain.Paper{
		Title:    strings.TrimSpace(out.Title),
		Abstract: strings.TrimSpace(out.Abstract),
	}, nil
}
