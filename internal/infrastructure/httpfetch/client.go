// Package httpfetch is the transport used to download pages: a resty client with a
// shared rate limiter and a short-lived response cache.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/purell"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/ports"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; ResearchScraper/1.0)"
	defaultAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

var errTooManyRedirects = errors.New("too many redirects")

// Options configure the client. Zero values fall back to sensible defaults.
type Options struct {
	UserAgent        string
	Timeout          time.Duration
	MaxRedirects     int
	MinInterval      time.Duration
	CacheSize        int
	CacheTTL         time.Duration
	BypassCloudflare bool
}

// Client fetches pages and reports failures as *domain.TransportError.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	cache   *expirable.LRU[string, ports.Response]
	logger  *slog.Logger
}

var _ ports.Fetcher = (*Client)(nil)

// New builds a client. A nil logger disables debug output.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 5
	}

	client := resty.New()
	if opts.BypassCloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept", defaultAccept)
	client.SetRedirectPolicy(maxRedirects(opts.MaxRedirects))

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	c := &Client{
		http:    client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
	if opts.CacheSize > 0 {
		c.cache = expirable.NewLRU[string, ports.Response](opts.CacheSize, nil, opts.CacheTTL)
	}
	return c
}

// Fetch downloads rawURL, waiting on the rate limiter before every network request.
func (c *Client) Fetch(ctx context.Context, rawURL string) (ports.Response, error) {
	target, err := validate(rawURL)
	if err != nil {
		return ports.Response{}, &domain.TransportError{Kind: domain.ErrorKindInvalidURL, URL: rawURL, Err: err}
	}

	key := cacheKey(target)
	if c.cache != nil {
		if resp, ok := c.cache.Get(key); ok {
			c.debug("cache hit", "url", target)
			return resp, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return ports.Response{}, &domain.TransportError{Kind: classify(err), URL: target, Err: err}
	}

	c.debug("fetch", "url", target)
	resp, err := c.http.R().SetContext(ctx).Get(target)
	if err != nil {
		return ports.Response{}, &domain.TransportError{Kind: classify(err), URL: target, Err: err}
	}

	if !resp.IsSuccess() {
		return ports.Response{}, &domain.TransportError{
			Kind:       domain.ErrorKindHTTPStatus,
			URL:        target,
			StatusCode: resp.StatusCode(),
		}
	}

	out := ports.Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		FinalURL:   finalURL(resp, target),
	}
	if c.cache != nil {
		c.cache.Add(key, out)
	}
	return out, nil
}

func validate(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	return u.String(), nil
}

func cacheKey(target string) string {
	normalized, err := purell.NormalizeURLString(target,
		purell.FlagsSafe|purell.FlagRemoveFragment|purell.FlagSortQuery)
	if err != nil {
		return target
	}
	return normalized
}

func finalURL(resp *resty.Response, fallback string) string {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL.String()
	}
	return fallback
}

func maxRedirects(limit int) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(_ *http.Request, via []*http.Request) error {
		if len(via) >= limit {
			return fmt.Errorf("stopped after %d redirects: %w", limit, errTooManyRedirects)
		}
		return nil
	})
}

func classify(err error) domain.ErrorKind {
	var netErr net.Error
	switch {
	case errors.Is(err, errTooManyRedirects):
		return domain.ErrorKindRedirect
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrorKindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return domain.ErrorKindTimeout
	case strings.Contains(err.Error(), "redirects"):
		return domain.ErrorKindRedirect
	default:
		return domain.ErrorKindConnection
	}
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
