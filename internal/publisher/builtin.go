package publisher

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/patterns"
)

var (
	piiInPath     = regexp.MustCompile(`(?i)/pii/([A-Z0-9]+)`)
	lancetPIIPath = regexp.MustCompile(`(?i)/article/PII(S[\dX\-()]+)`)
	arxivNewID    = regexp.MustCompile(`(\d{4}\.\d{4,5})(?:v\d+)?`)
	arxivLegacyID = regexp.MustCompile(`([a-z\-]+(?:\.[A-Z]{2})?/\d{7})(?:v\d+)?`)
	fourDigitDOI  = patterns.New("four-digit", `10\.\d{4}/[-._;()/:\w]+`, false)
	pubmedIDPath  = regexp.MustCompile(`(?:pubmed\.ncbi\.nlm\.nih\.gov|/pubmed)/(\d+)`)
	pmcIDPath     = regexp.MustCompile(`(?i)/articles/(PMC\d+)`)
)

// doiPathPattern matches the /doi/{full,abs,pdf}/10.x/y URL layout used by Atypon-based sites.
var doiPathPattern = patterns.New("doi-path", `doi/(?:full/|abs/|pdf/|epdf/|epub/)?(10\.\d{4,9}/[^?#\s]+)`, true)

// Generic is the fallback handler used when no publisher alias matches.
func Generic() *Handler {
	return profile{kind: KindGeneric, name: "Generic"}.build()
}

// Builtin returns the publisher handlers in registry order.
func Builtin() []*Handler {
	profiles := []profile{
		{
			kind:    KindNature,
			name:    "Nature",
			aliases: []string{"nature.com"},
			elements: []doiRule{
				elementDOI(`li.c-bibliographic-information__list-item--doi`),
				elementDOI(`li.c-bibliographic-information__list-item--full-width`),
				elementDOI(`div#citeas`),
				elementDOI(`em`, patterns.DOIPatterns[1]),
			},
			urlPatterns: []patterns.Pattern{
				patterns.New("nature-doi", `doi/(?:full/|abs/)?(\d+\.\d+/[^/\s?#]+)`, true),
				patterns.New("nature-articles", `articles/(\d+\.\d+/[^/\s?#]+)`, true),
			},
			abstracts: []abstractRule{
				abstractIn(`div#Abs1-content`, paragraphs("p")),
				abstractIn(`section[data-title="Abstract"] div[id$="-content"]`, paragraphs("p")),
			},
		},
		{
			kind:    KindWiley,
			name:    "Wiley",
			aliases: []string{"onlinelibrary.wiley.com"},
			elements: []doiRule{
				elementDOI(`.doi-access`, fourDigitDOI),
				elementDOI(`a.epub-doi`),
			},
			urlPatterns: []patterns.Pattern{doiPathPattern},
			abstracts: []abstractRule{
				abstractIn(`section.article-section__abstract`, paragraphs("p")),
				abstractIn(`div.abstract-group`, paragraphs("p")),
				abstractIn(`div.article-section__content`),
			},
		},
		{
			kind:    KindPubMed,
			name:    "PubMed",
			aliases: []string{"pubmed.ncbi.nlm.nih.gov", "ncbi.nlm.nih.gov", "pubmed.gov"},
			elements: []doiRule{
				elementDOI(`span.identifier.doi`),
				elementDOI(`span.citation-doi`),
				elementDOI(`div.cite-this`),
			},
			ids: []idRule{pubmedIDs},
			abstracts: []abstractRule{
				abstractIn(`div#abstract div.abstract-content`, paragraphs("p")),
				abstractIn(`div.abstract`, paragraphs("p")),
				abstractIn(`section.abstract`, paragraphs("p")),
			},
		},
		{
			kind:     KindPLOS,
			name:     "PLOS",
			aliases:  []string{"journals.plos.org", "plos.org"},
			elements: []doiRule{elementDOI(`div.articleinfo`), elementDOI(`li#artDoi`)},
			abstracts: []abstractRule{
				abstractIn(`div.abstract-content`, without("strong")),
				abstractIn(`div#abstract`, without("strong")),
				abstractIn(`div.abstract`, without("strong")),
			},
		},
		{
			kind:     KindCell,
			name:     "Cell",
			aliases:  []string{"cell.com"},
			elements: []doiRule{elementDOI(`div.doi`), elementDOI(`.article-header__doi`)},
			abstracts: []abstractRule{
				abstractIn(`div.abstract`, without("div.highlights")),
				abstractIn(`section.abstract`, without("div.highlights")),
				abstractIn(`div#abstracts`, without("div.highlights")),
			},
		},
		{
			kind:    KindScience,
			name:    "Science",
			aliases: []string{"science.sciencemag.org", "science.org", "advances.sciencemag.org", "sciencemag.org"},
			elements: []doiRule{
				elementDOI(`div.article__info`),
				elementDOI(`div.self-citation`),
			},
			urlPatterns: []patterns.Pattern{doiPathPattern},
			abstracts: []abstractRule{
				abstractIn(`section#abstract`, paragraphs(`div[role="paragraph"], p`), without("div.article-impact")),
				abstractIn(`div.abstract`, without("div.article-impact")),
				abstractIn(`section.abstract`, without("div.article-impact")),
			},
		},
		{
			kind:    KindOxford,
			name:    "Oxford",
			aliases: []string{"academic.oup.com"},
			elements: []doiRule{
				elementDOI(`div.ww-citation-primary`),
				elementDOI(`div.citation-doi`),
				elementDOI(`header.article-header`),
			},
			abstracts: []abstractRule{
				abstractIn(`section.abstract`, paragraphs("p")),
				abstractIn(`div.abstract`),
				abstractIn(`div.article-abstract`),
			},
		},
		{
			kind:     KindJAMA,
			name:     "JAMA",
			aliases:  []string{"jamanetwork.com"},
			elements: []doiRule{elementDOI(`div.citation-doi`), elementDOI(`div.meta-citation`)},
			abstracts: []abstractRule{
				abstractIn(`div.abstract-content`),
				abstractIn(`div.abstract`),
			},
		},
		{
			kind:     KindScienceDirect,
			name:     "ScienceDirect",
			aliases:  []string{"sciencedirect.com"},
			elements: []doiRule{elementDOI(`a.doi`)},
			computed: []doiRule{computedDOI("pii", sciencedirectPII)},
			abstracts: []abstractRule{
				abstractIn(`div.abstract.author`),
				abstractIn(`div#abs0010`),
				abstractIn(`section.abstract`),
				abstractIn(`div.abstract`),
			},
		},
		{
			kind:     KindPNAS,
			name:     "PNAS",
			aliases:  []string{"pnas.org"},
			elements: []doiRule{elementDOI(`a.doi`, fourDigitDOI)},
			urlPatterns: []patterns.Pattern{
				doiPathPattern,
			},
			abstracts: []abstractRule{
				abstractIn(`div#abstract`, paragraphs(`div[role="paragraph"]`)),
				abstractIn(`#executive-summary-abstract`, paragraphs(`div[role="paragraph"]`)),
				abstractIn(`section#abstract`, paragraphs(`div[role="paragraph"], p`)),
			},
		},
		{
			kind:    KindSpringer,
			name:    "Springer",
			aliases: []string{"link.springer.com", "springer.com"},
			elements: []doiRule{
				elementDOI(`li.c-bibliographic-information__list-item--chapter-doi`),
				elementDOI(`li.c-bibliographic-information__list-item--doi`),
				elementDOI(`span.bibliographic-information__value`),
			},
			urlPatterns: []patterns.Pattern{
				patterns.New("springer-path", `/(?:article|chapter|book|referenceworkentry)/(10\.\d{4,9}/[^?#\s]+)`, true),
			},
			abstracts: []abstractRule{
				abstractIn(`section[data-title="Abstract"]`, paragraphs("p")),
				abstractIn(`div#Abs1-content`, paragraphs("p")),
				abstractIn(`section.Abstract`, paragraphs("p")),
			},
		},
		{
			kind:        KindSAGE,
			name:        "SAGE",
			aliases:     []string{"journals.sagepub.com"},
			elements:    []doiRule{elementDOI(`div.core-self-citation`), elementDOI(`div.doi-link`)},
			urlPatterns: []patterns.Pattern{doiPathPattern},
			abstracts: []abstractRule{
				abstractIn(`section#abstract`, paragraphs(`div[role="paragraph"], p`)),
				abstractIn(`div.abstractSection`, paragraphs("p")),
			},
		},
		{
			kind:     KindResearchGate,
			name:     "ResearchGate",
			aliases:  []string{"researchgate.net"},
			elements: []doiRule{elementDOI(`div.research-detail-header-section__metadata`)},
			abstracts: []abstractRule{
				abstractIn(`div.research-detail-middle-section__abstract`),
				abstractIn(`div[itemprop="description"]`),
			},
		},
		{
			kind:     KindMDPI,
			name:     "MDPI",
			aliases:  []string{"mdpi.com"},
			elements: []doiRule{elementDOI(`div.bib-identity`)},
			abstracts: []abstractRule{
				abstractIn(`section.html-abstract div.html-p`),
				abstractIn(`div.art-abstract`),
			},
		},
		{
			kind:     KindLancet,
			name:     "Lancet",
			aliases:  []string{"thelancet.com"},
			elements: []doiRule{elementDOI(`div.article-header__doi`), elementDOI(`li.article-header__doi`)},
			computed: []doiRule{computedDOI("pii", lancetPII)},
			abstracts: []abstractRule{
				abstractIn(`div#abstracts`, paragraphs(`div.section-paragraph, p`)),
				abstractIn(`section.abstract`),
			},
		},
		{
			kind:     KindFrontiers,
			name:     "Frontiers",
			aliases:  []string{"frontiersin.org"},
			elements: []doiRule{elementDOI(`div.article-header-container`), elementDOI(`div.header-bar-three`)},
			urlPatterns: []patterns.Pattern{
				patterns.New("frontiers-path", `articles/(10\.\d{4,9}/[^/?#\s]+)`, true),
			},
			abstracts: []abstractRule{
				abstractIn(`div.JournalAbstract`, paragraphs("p")),
				abstractIn(`div.abstract-container`, paragraphs("p")),
			},
		},
		{
			kind:        KindTaylorFrancis,
			name:        "TaylorFrancis",
			aliases:     []string{"tandfonline.com"},
			elements:    []doiRule{elementDOI(`li.dx-doi`)},
			urlPatterns: []patterns.Pattern{doiPathPattern},
			abstracts: []abstractRule{
				abstractIn(`div.abstractSection`, paragraphs("p")),
				abstractIn(`div.hlFld-Abstract`),
			},
		},
		{
			kind:        KindACS,
			name:        "ACS",
			aliases:     []string{"pubs.acs.org"},
			elements:    []doiRule{elementDOI(`div.article_header-doiurl`)},
			urlPatterns: []patterns.Pattern{doiPathPattern},
			abstracts: []abstractRule{
				abstractIn(`p.articleBody_abstractText`),
				abstractIn(`div#abstractBox`),
			},
		},
		{
			kind:        KindNEJM,
			name:        "NEJM",
			aliases:     []string{"nejm.org"},
			elements:    []doiRule{elementDOI(`div.m-article-header__doi`), elementDOI(`span.core-doi`)},
			urlPatterns: []patterns.Pattern{doiPathPattern},
			abstracts: []abstractRule{
				abstractIn(`section#article_Abstract`),
				abstractIn(`div#article_abstract`),
			},
		},
		{
			kind:    KindArxiv,
			name:    "arXiv",
			aliases: []string{"arxiv.org"},
			elements: []doiRule{
				elementDOI(`td.tablecell.doi`),
				elementDOI(`td.tablecell.arxivdoi`),
			},
			computed: []doiRule{computedDOI("arxiv-id", arxivDOI)},
			abstracts: []abstractRule{
				abstractIn(`blockquote.abstract`, without("span.descriptor")),
			},
		},
		{
			kind:     KindScienceAlert,
			name:     "ScienceAlert",
			aliases:  []string{"sciencealert.com"},
			elements:   []doiRule{lastLinkDOI(`div.post-content`), lastLinkDOI(`div.article-content`)},
			paperLinks: []string{`div.post-content`, `div.article-content`},
		},
	}

	handlers := make([]*Handler, 0, len(profiles))
	for _, p := range profiles {
		handlers = append(handlers, p.build())
	}
	return handlers
}

// sciencedirectPII derives an Elsevier DOI from the publisher item identifier.
func sciencedirectPII(doc *goquery.Document, page *url.URL) string {
	pii := ""
	if contents := metaContents(doc, "citation_pii"); len(contents) > 0 {
		pii = contents[0]
	}
	if pii == "" && page != nil {
		if m := piiInPath.FindStringSubmatch(page.Path); m != nil {
			pii = m[1]
		}
	}
	pii = strings.TrimSpace(pii)
	if pii == "" {
		return ""
	}
	return "10.1016/" + pii
}

// lancetPII derives the DOI from the PII embedded in Lancet article paths.
func lancetPII(_ *goquery.Document, page *url.URL) string {
	if page == nil {
		return ""
	}
	m := lancetPIIPath.FindStringSubmatch(page.Path)
	if m == nil {
		return ""
	}
	return "10.1016/" + strings.ToUpper(m[1])
}

// arxivDOI builds the DataCite DOI arXiv assigns to every submission.
func arxivDOI(doc *goquery.Document, page *url.URL) string {
	id := ""
	if contents := metaContents(doc, "citation_arxiv_id"); len(contents) > 0 {
		id = contents[0]
	}
	if id == "" && page != nil {
		idx := strings.Index(page.Path, "/abs/")
		if idx < 0 {
			return ""
		}
		path := page.Path[idx+len("/abs/"):]
		if m := arxivNewID.FindStringSubmatch(path); m != nil {
			id = m[1]
		} else if m := arxivLegacyID.FindStringSubmatch(path); m != nil {
			id = m[1]
		}
	}
	if id == "" {
		return ""
	}
	return "10.48550/arXiv." + id
}

// pubmedIDs reads the PMID or PMCID from PubMed and PubMed Central article URLs.
func pubmedIDs(_ *goquery.Document, page *url.URL) domain.ArticleIDs {
	var ids domain.ArticleIDs
	if page == nil {
		return ids
	}
	if m := pubmedIDPath.FindStringSubmatch(page.Host + page.Path); m != nil {
		ids.PMID = m[1]
	}
	if m := pmcIDPath.FindStringSubmatch(page.Path); m != nil {
		ids.PMCID = strings.ToUpper(m[1])
	}
	return ids
}
