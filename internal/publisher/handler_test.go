package publisher

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"PaperScanner/internal/domain"
)

func newDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func TestNatureArticle(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, `<html><head>
		<meta name="citation_doi" content="10.1038/s41586-020-1234-5">
		</head><body>
		<div id="Abs1-content"><p>We show X.</p></div>
		</body></html>`)

	h := DefaultRegistry().Resolve("www.nature.com")
	got, err := h.Extract(doc, "https://www.nature.com/articles/s41586-020-1234-5")
	require.NoError(t, err)
	require.Equal(t, domain.ExtractionResult{
		DOI:      "10.1038/s41586-020-1234-5",
		Abstract: "We show X.",
		Method:   "Nature",
		Pattern:  "meta:citation_doi",
	}, got)
}

func TestDOILocationPriority(t *testing.T) {
	t.Parallel()

	const (
		element   = `<li class="c-bibliographic-information__list-item--doi">https://doi.org/10.1111/element</li>`
		meta      = `<meta name="citation_doi" content="doi:10.2222/meta">`
		container = `<span class="article-doi">10.3333/container</span>`
		text      = `<p>Also published as 10.4444/text in print.</p>`
	)
	nature := DefaultRegistry().Resolve("nature.com")
	pageURL := "https://www.nature.com/doi/10.5555/fromurl"

	cases := []struct {
		name    string
		head    string
		body    string
		want    string
		pattern string
	}{
		{name: "element beats all", head: meta, body: element + container + text, want: "10.1111/element", pattern: "element:li.c-bibliographic-information__list-item--doi"},
		{name: "meta beats container and text", head: meta, body: container + text, want: "10.2222/meta", pattern: "meta:citation_doi"},
		{name: "container beats text", body: text + container, want: "10.3333/container", pattern: "container"},
		{name: "text beats url", body: text, want: "10.4444/text", pattern: "text"},
		{name: "url last", body: `<p>nothing</p>`, want: "10.5555/fromurl", pattern: "url"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			doc := newDocument(t, "<html><head>"+tc.head+"</head><body>"+tc.body+"</body></html>")
			got, err := nature.Extract(doc, pageURL)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.DOI)
			require.Equal(t, tc.pattern, got.Pattern)
		})
	}
}

func TestMetaNamesAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, `<html><head><meta name="DC.Identifier" content="https://doi.org/10.1093/brain/awaa001"></head><body></body></html>`)
	got, err := Generic().Extract(doc, "https://example.org/paper")
	require.NoError(t, err)
	require.Equal(t, "10.1093/brain/awaa001", got.DOI)
	require.Equal(t, "meta:dc.identifier", got.Pattern)
}

func TestAbstractNoiseIsStripped(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	cases := []struct {
		name string
		host string
		html string
		want string
	}{
		{
			name: "cell highlights and headers",
			host: "www.cell.com",
			html: `<div class="abstract"><h2>Summary</h2><div class="highlights"><ul><li>Highlight one</li></ul></div><p>Cells divide.</p></div>`,
			want: "Cells divide.",
		},
		{
			name: "sciencedirect label text",
			host: "www.sciencedirect.com",
			html: `<div id="abs0010">Abstract: Reactions were measured.</div>`,
			want: "Reactions were measured.",
		},
		{
			name: "plos strong labels",
			host: "journals.plos.org",
			html: `<div class="abstract-content"><p><strong>Background</strong> We did a survey.</p></div>`,
			want: "We did a survey.",
		},
		{
			name: "science impact box",
			host: "www.science.org",
			html: `<div class="abstract"><div class="article-impact">Editor summary</div><p>Stars form.</p></div>`,
			want: "Stars form.",
		},
		{
			name: "label with colon",
			host: "example.org",
			html: `<div class="abstract">ABSTRACT: Plants grow.</div>`,
			want: "Plants grow.",
		},
		{
			name: "label alone",
			host: "example.org",
			html: `<div class="abstract">Abstract</div><meta name="description" content="From meta.">`,
			want: "From meta.",
		},
		{
			name: "abstract as first word of prose",
			host: "example.org",
			html: `<div class="abstract">Abstract reasoning is a core skill.</div>`,
			want: "Abstract reasoning is a core skill.",
		},
		{
			name: "pubmed paragraphs joined",
			host: "pubmed.ncbi.nlm.nih.gov",
			html: `<div id="abstract"><h2>Abstract</h2><div class="abstract-content"><p>First part.</p><p>Second part.</p></div></div>`,
			want: "First part. Second part.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			doc := newDocument(t, "<html><body>"+tc.html+"</body></html>")
			got, err := reg.Resolve(tc.host).Extract(doc, "https://"+tc.host+"/article")
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Abstract)
		})
	}
}

func TestGenericAbstractOrder(t *testing.T) {
	t.Parallel()

	generic := Generic()

	doc := newDocument(t, `<html><head><meta name="description" content="Meta text."><meta property="og:description" content="Social text."></head>
		<body><div class="article-abstract">Container text.</div></body></html>`)
	got, err := generic.Extract(doc, "https://example.org/a")
	require.NoError(t, err)
	require.Equal(t, "Container text.", got.Abstract)

	doc = newDocument(t, `<html><head><meta name="description" content="Meta text."><meta property="og:description" content="Social text."></head><body></body></html>`)
	got, err = generic.Extract(doc, "https://example.org/a")
	require.NoError(t, err)
	require.Equal(t, "Meta text.", got.Abstract)

	doc = newDocument(t, `<html><head><meta property="og:description" content="Social text."></head><body></body></html>`)
	got, err = generic.Extract(doc, "https://example.org/a")
	require.NoError(t, err)
	require.Equal(t, "Social text.", got.Abstract)
}

func TestMissingDataIsNotAnError(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, `<html><body><p>Just a blog post.</p></body></html>`)
	got, err := Generic().Extract(doc, "https://example.org/post")
	require.NoError(t, err)
	require.Equal(t, domain.ExtractionResult{Method: "Generic"}, got)
}

func TestUnusableDocument(t *testing.T) {
	t.Parallel()

	for _, doc := range []*goquery.Document{nil, {}} {
		_, err := Generic().Extract(doc, "https://example.org")
		var extractionErr *domain.ExtractionError
		require.True(t, errors.As(err, &extractionErr))
		require.True(t, errors.Is(err, domain.ErrUnusableDocument))
	}
}

func TestExtractDoesNotMutateDocument(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, `<html><body><div class="abstract"><h3>Highlights</h3><div class="highlights">x</div><p>Body.</p></div></body></html>`)
	before, err := goquery.OuterHtml(doc.Selection)
	require.NoError(t, err)

	h := DefaultRegistry().Resolve("cell.com")
	first, err := h.Extract(doc, "https://www.cell.com/a")
	require.NoError(t, err)
	second, err := h.Extract(doc, "https://www.cell.com/a")
	require.NoError(t, err)

	after, err := goquery.OuterHtml(doc.Selection)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, before, after)
}

func TestComputedIdentifiers(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	cases := []struct {
		name    string
		url     string
		html    string
		want    string
		pattern string
	}{
		{
			name:    "sciencedirect pii meta",
			url:     "https://www.sciencedirect.com/science/article/abs/pii/S0092867420300011",
			html:    `<html><head><meta name="citation_pii" content="S0092867420300011"></head><body></body></html>`,
			want:    "10.1016/S0092867420300011",
			pattern: "computed:pii",
		},
		{
			name:    "sciencedirect pii path",
			url:     "https://www.sciencedirect.com/science/article/pii/S0140673620301835",
			html:    `<html><body></body></html>`,
			want:    "10.1016/S0140673620301835",
			pattern: "computed:pii",
		},
		{
			name:    "lancet pii path",
			url:     "https://www.thelancet.com/journals/lancet/article/PIIS0140-6736(20)30183-5/fulltext",
			html:    `<html><body></body></html>`,
			want:    "10.1016/S0140-6736(20)30183-5",
			pattern: "computed:pii",
		},
		{
			name:    "arxiv identifier",
			url:     "https://arxiv.org/abs/2101.00001v2",
			html:    `<html><body></body></html>`,
			want:    "10.48550/arXiv.2101.00001",
			pattern: "computed:arxiv-id",
		},
		{
			name:    "meta wins over computed",
			url:     "https://www.sciencedirect.com/science/article/pii/S0140673620301835",
			html:    `<html><head><meta name="citation_doi" content="10.1016/S0140-6736(20)30183-5"></head><body></body></html>`,
			want:    "10.1016/S0140-6736(20)30183-5",
			pattern: "meta:citation_doi",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := reg.ResolveURL(tc.url).Extract(newDocument(t, tc.html), tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.DOI)
			require.Equal(t, tc.pattern, got.Pattern)
		})
	}
}

func TestArxivAbstract(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, `<html><body><blockquote class="abstract mathjax"><span class="descriptor">Abstract:</span> We study things.</blockquote></body></html>`)
	got, err := DefaultRegistry().Resolve("arxiv.org").Extract(doc, "https://arxiv.org/abs/2101.00001")
	require.NoError(t, err)
	require.Equal(t, "We study things.", got.Abstract)
	require.Equal(t, "arXiv", got.Method)
}

func TestScienceAlertUsesLastLink(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, `<html><body><div class="post-content">
		<p>Read <a href="https://example.org/other">this</a> first.</p>
		<p>The research was published in <a href="https://doi.org/10.1126/science.abc1234">Science</a>.</p>
	</div></body></html>`)
	got, err := DefaultRegistry().Resolve("www.sciencealert.com").Extract(doc, "https://www.sciencealert.com/some-story")
	require.NoError(t, err)
	require.Equal(t, "10.1126/science.abc1234", got.DOI)
	require.Equal(t, "last-link:div.post-content", got.Pattern)
}

func TestTextDOIInParentheses(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, `<html><body><p>Published in Nature (https://doi.org/10.1038/nature12373).</p></body></html>`)
	got, err := Generic().Extract(doc, "https://example.org/story")
	require.NoError(t, err)
	require.Equal(t, "10.1038/nature12373", got.DOI)
	require.Equal(t, "text", got.Pattern)
}

func TestTitleOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		html string
		want string
	}{
		{
			name: "citation title first",
			html: `<head><meta name="citation_title" content=" Meta  title "><meta property="og:title" content="Social"></head><body><h1 class="c-article-title">Heading</h1></body>`,
			want: "Meta title",
		},
		{
			name: "article heading before plain h1",
			html: `<body><h1>Site name</h1><h1 class="c-article-title">Article heading</h1></body>`,
			want: "Article heading",
		},
		{
			name: "plain h1",
			html: `<body><h1>Only <em>heading</em></h1></body>`,
			want: "Only heading",
		},
		{
			name: "social fallback",
			html: `<head><meta property="og:title" content="Social title"></head><body></body>`,
			want: "Social title",
		},
		{
			name: "none",
			html: `<body><p>text</p></body>`,
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Generic().Extract(newDocument(t, "<html>"+tc.html+"</html>"), "https://example.org/a")
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Title)
		})
	}
}

func TestPubMedIdentifiers(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	cases := []struct {
		url  string
		html string
		want domain.ArticleIDs
	}{
		{url: "https://pubmed.ncbi.nlm.nih.gov/32015507/", html: `<html><body></body></html>`, want: domain.ArticleIDs{PMID: "32015507"}},
		{url: "https://www.ncbi.nlm.nih.gov/pubmed/32015507", html: `<html><body></body></html>`, want: domain.ArticleIDs{PMID: "32015507"}},
		{url: "https://www.ncbi.nlm.nih.gov/pmc/articles/pmc7095418/", html: `<html><body></body></html>`, want: domain.ArticleIDs{PMCID: "PMC7095418"}},
		{url: "https://pmc.ncbi.nlm.nih.gov/articles/PMC7095418/", html: `<html><head><meta name="citation_pmid" content="32015507"></head><body></body></html>`, want: domain.ArticleIDs{PMID: "32015507", PMCID: "PMC7095418"}},
		{url: "https://example.org/paper", html: `<html><head><meta name="citation_pmid" content="111"></head><body></body></html>`, want: domain.ArticleIDs{PMID: "111"}},
		{url: "https://example.org/pubmed-review", html: `<html><body></body></html>`},
	}

	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			t.Parallel()
			got, err := reg.ResolveURL(tc.url).Extract(newDocument(t, tc.html), tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.IDs)
			require.Empty(t, got.DOI)
		})
	}
}

func TestOutranksComputed(t *testing.T) {
	t.Parallel()

	for _, pattern := range []string{"element:div#citeas", "last-link:div.post-content", "meta:citation_doi", "computed:pii"} {
		require.True(t, OutranksComputed(pattern), pattern)
	}
	for _, pattern := range []string{"container", "text", "url", "paper-page:meta:citation_doi", ""} {
		require.False(t, OutranksComputed(pattern), pattern)
	}
}

func TestScienceAlertPaperLink(t *testing.T) {
	t.Parallel()

	doc := newDocument(t, `<html><head><meta name="description" content="Story teaser."></head><body>
		<div class="post-content"><p>See <a href="/other-story">this</a> and <a href="../papers/study">the study</a>.</p></div>
	</body></html>`)
	got, err := DefaultRegistry().Resolve("www.sciencealert.com").Extract(doc, "https://www.sciencealert.com/news/story")
	require.NoError(t, err)
	require.Equal(t, "https://www.sciencealert.com/papers/study", got.PaperURL)
	require.Empty(t, got.Abstract)

	doc = newDocument(t, `<html><body><div class="post-content"><a href="mailto:desk@example.org">mail</a></div></body></html>`)
	got, err = DefaultRegistry().Resolve("www.sciencealert.com").Extract(doc, "https://www.sciencealert.com/news/story")
	require.NoError(t, err)
	require.Empty(t, got.PaperURL)
}
