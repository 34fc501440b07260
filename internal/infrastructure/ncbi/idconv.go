// Package ncbi converts PubMed and PubMed Central identifiers to DOIs with the NCBI ID
// converter service.
package ncbi

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

// DefaultEndpoint is the public ID converter API.
const DefaultEndpoint = "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/"

// Client is an IDConverter backed by the idconv API.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

var _ ports.IDConverter = (*Client)(nil)

type response struct {
	Status  string   `json:"status"`
	Records []record `json:"records"`
}

type record struct {
	DOI    string  `json:"doi"`
	PMID   idValue `json:"pmid"`
	PMCID  string  `json:"pmcid"`
	Status string  `json:"status"`
}

// idValue accepts identifiers sent as JSON strings or numbers.
type idValue string

func (v *idValue) UnmarshalJSON(raw []byte) error {
	*v = idValue(strings.Trim(string(bytes.TrimSpace(raw)), `"`))
	if *v == "null" {
		*v = ""
	}
	return nil
}

// New builds a client spacing requests by minInterval.
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
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}

	return &Client{http: client, limiter: rate.NewLimiter(limit, 1)}
}

// Convert looks up one PMID or PMCID.
func (c *Client) Convert(ctx context.Context, id string) (domain.Conversion, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Conversion{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Conversion{}, err
	}

	var out response
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"ids": id, "format": "json", "tool": "paperscanner"}).
		SetResult(&out).
		Get("")
	if err != nil {
		return domain.Conversion{}, fmt.Errorf("idconv %s: %w", id, err)
	}
	if !resp.IsSuccess() {
		return domain.Conversion{}, fmt.Errorf("idconv %s: unexpected status %d", id, resp.StatusCode())
	}
	if len(out.Records) == 0 || out.Records[0].Status == "error" {
		return domain.Conversion{}, nil
	}

	rec := out.Records[0]
	return domain.Conversion{
		DOI:   strings.TrimSpace(rec.DOI),
		PMID:  strings.TrimSpace(string(rec.PMID)),
		PMCID: strings.TrimSpace(rec.PMCID),
	}, nil
}
