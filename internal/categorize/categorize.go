// Package categorize labels URL domains with a coarse origin category.
package categorize

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"PaperScanner/internal/domain"
)

// Rule is the token list of one category.
type Rule struct {
	Category domain.Category
	Tokens   []string
}

// DefaultRules is the built-in category table.
func DefaultRules() []Rule {
	return []Rule{
		{Category: domain.CategoryRepo, Tokens: []string{
			"arxiv.org", "doi.org", "pubmed.gov", "ncbi.nlm.nih.gov", "researchgate.net",
			"academia.edu", "sciencedirect.com", "springer.com", "wiley.com", "bioarxiv.org",
			"medrxiv.org", "ssrn.com", "nature.com/articles", "science.org/doi", "pnas.org",
			"cell.com", "academic.oup.com", "jamanetwork.com", "mdpi.com", "thelancet.com",
			"frontiersin.org", "tandfonline.com", "pubs.acs.org", "nejm.org",
		}},
		{Category: domain.CategoryScientific, Tokens: []string{
			"science", "nature.com", "scientific", "edu", "acs.org", "ieee.org", "cell.com",
			"pnas.org", "frontiersin.org", "plos.org", "royalsociety.org", "academic.oup.com", "mdpi.com",
		}},
		{Category: domain.CategoryNews, Tokens: []string{
			"news", "times", "bbc", "cnn", "reuters", "ap.org", "bloomberg.com", "nytimes.com",
			"washingtonpost.com", "theguardian.com", "sciencenews.org", "scientificamerican.com",
		}},
		{Category: domain.CategorySocialMedia, Tokens: []string{
			"youtube.com", "youtu.be", "twitter.com", "x.com", "facebook.com", "fb.com",
			"instagram.com", "pinterest.com", "reddit.com", "linkedin.com", "tiktok.com",
		}},
		{Category: domain.CategoryScam, Tokens: []string{
			"bit.ly", "goo.gl", "tinyurl.com", "ow.ly", "t.co", "tr.im", "is.gd", "cli.gs", "yourls.org",
		}},
	}
}

// Categorizer matches domains against rules in category priority order.
type Categorizer struct {
	rules []Rule
}

// New orders rules by category priority; categories outside the priority list are ignored.
func New(rules []Rule) *Categorizer {
	byCategory := make(map[domain.Category][]string, len(rules))
	for _, r := range rules {
		tokens := make([]string, 0, len(r.Tokens))
		for _, tok := range r.Tokens {
			if tok = strings.ToLower(strings.TrimSpace(tok)); tok != "" {
				tokens = append(tokens, tok)
			}
		}
		byCategory[r.Category] = tokens
	}

	ordered := make([]Rule, 0, len(domain.CategoryPriority))
	for _, c := range domain.CategoryPriority {
		if tokens, ok := byCategory[c]; ok {
			ordered = append(ordered, Rule{Category: c, Tokens: tokens})
		}
	}
	return &Categorizer{rules: ordered}
}

// Default returns a categorizer over DefaultRules.
func Default() *Categorizer {
	return New(DefaultRules())
}

// Categorize returns the first category with a token contained in d, or unknown.
func (c *Categorizer) Categorize(d string) domain.Category {
	d = strings.ToLower(strings.TrimSpace(d))
	if d == "" {
		return domain.CategoryUnknown
	}
	for _, r := range c.rules {
		for _, tok := range r.Tokens {
			if strings.Contains(d, tok) {
				return r.Category
			}
		}
	}
	return domain.CategoryUnknown
}

// Rules returns the effective rules in evaluation order.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// LoadRules reads category overrides from a YAML mapping of category name to tokens.
// Listed categories replace the default tokens; the evaluation order never changes.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category rules: %w", err)
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse category rules %s: %w", path, err)
	}
	return MergeRules(DefaultRules(), overrides)
}

// MergeRules replaces the tokens of the categories named in overrides.
func MergeRules(base []Rule, overrides map[string][]string) ([]Rule, error) {
	out := make([]Rule, len(base))
	copy(out, base)
	for name, tokens := range overrides {
		category := domain.ParseCategory(name)
		if category == domain.CategoryUnknown {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		replaced := false
		for i := range out {
			if out[i].Category == category {
				out[i].Tokens = tokens
				replaced = true
			}
		}
		if !replaced {
			out = append(out, Rule{Category: category, Tokens: tokens})
		}
	}
	return out, nil
}

// DomainFromURL returns the lowercase host of raw without a leading www.
func DomainFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
