// Package publisher implements per-publisher DOI and abstract extraction as a table of
// handler variants, each carrying its own ordered rule lists.
package publisher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/patterns"
)

// Kind identifies a handler variant.
type Kind string

const (
	KindGeneric       Kind = "generic"
	KindNature        Kind = "nature"
	KindWiley         Kind = "wiley"
	KindPubMed        Kind = "pubmed"
	KindPLOS          Kind = "plos"
	KindCell          Kind = "cell"
	KindScience       Kind = "science"
	KindOxford        Kind = "oxford"
	KindJAMA          Kind = "jama"
	KindScienceDirect Kind = "science_direct"
	KindPNAS          Kind = "pnas"
	KindSpringer      Kind = "springer"
	KindSAGE          Kind = "sage"
	KindResearchGate  Kind = "researchgate"
	KindMDPI          Kind = "mdpi"
	KindLancet        Kind = "lancet"
	KindFrontiers     Kind = "frontiers"
	KindTaylorFrancis Kind = "taylor_francis"
	KindACS           Kind = "acs"
	KindNEJM          Kind = "nejm"
	KindArxiv         Kind = "arxiv"
	KindScienceAlert  Kind = "sciencealert"
)

type doiRule struct {
	label string
	find  func(doc *goquery.Document, page *url.URL) string
}

type abstractRule struct {
	label string
	find  func(doc *goquery.Document) string
}

type titleRule func(doc *goquery.Document) string

type idRule func(doc *goquery.Document, page *url.URL) domain.ArticleIDs

// Handler is a stateless extraction strategy for one publisher.
type Handler struct {
	Kind    Kind
	Name    string
	Aliases []string

	doiRules      []doiRule
	abstractRules []abstractRule
	titleRules    []titleRule
	idRules       []idRule
	paperLinks    []string
}

// Extract returns the DOI found at the strongest location and the first clean abstract.
// Missing data is not an error; only an unusable document is.
func (h *Handler) Extract(doc *goquery.Document, resolvedURL string) (domain.ExtractionResult, error) {
	if doc == nil || doc.Selection == nil || len(doc.Nodes) == 0 {
		return domain.ExtractionResult{}, &domain.ExtractionError{URL: resolvedURL, Err: domain.ErrUnusableDocument}
	}

	page, err := url.Parse(resolvedURL)
	if err != nil {
		page = nil
	}

	result := domain.ExtractionResult{Method: h.Name}
	for _, rule := range h.doiRules {
		if doi := patterns.CleanDOI(rule.find(doc, page)); doi != "" {
			result.DOI = doi
			result.Pattern = rule.label
			break
		}
	}

	for _, rule := range h.abstractRules {
		if abstract := rule.find(doc); abstract != "" {
			result.Abstract = abstract
			break
		}
	}

	for _, rule := range h.titleRules {
		if title := rule(doc); title != "" {
			result.Title = title
			break
		}
	}

	for _, rule := range h.idRules {
		ids := rule(doc, page)
		if result.IDs.PMID == "" {
			result.IDs.PMID = ids.PMID
		}
		if result.IDs.PMCID == "" {
			result.IDs.PMCID = ids.PMCID
		}
	}

	for _, sel := range h.paperLinks {
		if link := lastLink(doc.Find(sel).First(), page); link != "" {
			result.PaperURL = link
			break
		}
	}

	return result, nil
}

// OutranksComputed reports whether a DOI found by the rule labelled pattern is stronger
// than one computed from a proprietary identifier.
func OutranksComputed(pattern string) bool {
	for _, prefix := range []string{"element:", "last-link:", "meta:", "computed:"} {
		if strings.HasPrefix(pattern, prefix) {
			return true
		}
	}
	return false
}

// profile is the declarative description a handler is built from.
type profile struct {
	kind    Kind
	name    string
	aliases []string

	// elements are publisher-specific structured DOI locations.
	elements []doiRule
	// computed derive a DOI from a proprietary identifier.
	computed []doiRule
	// urlPatterns run against the resolved URL before the generic DOI patterns.
	urlPatterns []patterns.Pattern
	abstracts   []abstractRule
	titles      []titleRule
	ids         []idRule
	// paperLinks hold the cited paper as their last link. Pages with paper links report
	// on a paper, so their own description tags are not used as its abstract.
	paperLinks []string
}

func (p profile) build() *Handler {
	doi := make([]doiRule, 0, len(p.elements)+len(p.computed)+len(patterns.DOIMetaNames)+3)
	doi = append(doi, p.elements...)
	doi = append(doi, metaDOIRules()...)
	doi = append(doi, p.computed...)
	doi = append(doi, containerDOI(), textDOI(), urlDOI(p.urlPatterns))

	abstracts := make([]abstractRule, 0, len(p.abstracts)+3)
	abstracts = append(abstracts, p.abstracts...)
	if len(p.paperLinks) == 0 {
		abstracts = append(abstracts,
			genericAbstractContainer(),
			metaAbstract("meta", patterns.AbstractMetaNames...),
			metaAbstract("fallback", patterns.AbstractFallbackMetaNames...),
		)
	}

	titles := append(append([]titleRule{}, p.titles...), genericTitleRules()...)
	ids := append([]idRule{metaIDs}, p.ids...)

	return &Handler{
		Kind:          p.kind,
		Name:          p.name,
		Aliases:       p.aliases,
		doiRules:      doi,
		abstractRules: abstracts,
		titleRules:    titles,
		idRules:       ids,
		paperLinks:    p.paperLinks,
	}
}
