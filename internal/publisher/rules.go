package publisher

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PaperScanner/internal/domain"
	"PaperScanner/internal/htmlutil"
	"PaperScanner/internal/patterns"
)

// abstractLabel matches a leading "Abstract" label followed by punctuation or nothing else.
var abstractLabel = regexp.MustCompile(`(?i)^abstract(?:\s*[:.\-\x{2013}\x{2014}]+\s*|\s*$)`)

// elementDOI searches the text and links of elements matching sel.
func elementDOI(sel string, pats ...patterns.Pattern) doiRule {
	if len(pats) == 0 {
		pats = patterns.DOIPatterns
	}
	return doiRule{
		label: "element:" + sel,
		find: func(doc *goquery.Document, _ *url.URL) string {
			return firstDOIIn(doc.Find(sel), pats)
		},
	}
}

// lastLink returns the absolute target of the last http(s) link inside sel.
func lastLink(sel *goquery.Selection, page *url.URL) string {
	href, ok := sel.Find("a[href]").Last().Attr("href")
	if !ok {
		return ""
	}
	target, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if page != nil {
		target = page.ResolveReference(target)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return ""
	}
	return target.String()
}

// lastLinkDOI reads the DOI from the last link inside sel, where news sites cite the paper.
func lastLinkDOI(sel string) doiRule {
	return doiRule{
		label: "last-link:" + sel,
		find: func(doc *goquery.Document, _ *url.URL) string {
			href, _ := doc.Find(sel).First().Find("a[href]").Last().Attr("href")
			if unescaped, err := url.PathUnescape(href); err == nil {
				href = unescaped
			}
			doi, _ := patterns.FindDOI(href, patterns.DOIPatterns)
			return doi
		},
	}
}

func metaDOIRules() []doiRule {
	rules := make([]doiRule, 0, len(patterns.DOIMetaNames))
	for _, name := range patterns.DOIMetaNames {
		rules = append(rules, doiRule{
			label: "meta:" + name,
			find: func(doc *goquery.Document, _ *url.URL) string {
				for _, content := range metaContents(doc, name) {
					if doi, ok := patterns.FindDOI(content, patterns.DOIPatterns); ok {
						return doi
					}
				}
				return ""
			},
		})
	}
	return rules
}

func computedDOI(label string, fn func(doc *goquery.Document, page *url.URL) string) doiRule {
	return doiRule{label: "computed:" + label, find: fn}
}

func containerDOI() doiRule {
	return doiRule{
		label: "container",
		find: func(doc *goquery.Document, _ *url.URL) string {
			for _, sel := range patterns.DOIContainerSelectors {
				if doi := firstDOIIn(doc.Find(sel), patterns.DOIPatterns); doi != "" {
					return doi
				}
			}
			return ""
		},
	}
}

func textDOI() doiRule {
	return doiRule{
		label: "text",
		find: func(doc *goquery.Document, _ *url.URL) string {
			doi, _ := patterns.FindDOI(htmlutil.Text(doc.Nodes...), patterns.DOIPatterns)
			return doi
		},
	}
}

func urlDOI(specific []patterns.Pattern) doiRule {
	ordered := append(append([]patterns.Pattern{}, specific...), patterns.DOIPatterns...)
	return doiRule{
		label: "url",
		find: func(_ *goquery.Document, page *url.URL) string {
			if page == nil {
				return ""
			}
			target := page.String()
			if unescaped, err := url.PathUnescape(target); err == nil {
				target = unescaped
			}
			m, ok := patterns.Find(target, ordered)
			if !ok {
				return ""
			}
			doi, _ := patterns.FindDOI(m.Value, patterns.DOIPatterns)
			return doi
		},
	}
}

func firstDOIIn(sel *goquery.Selection, pats []patterns.Pattern) string {
	found := ""
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if doi, ok := patterns.FindDOI(htmlutil.SelectionText(s), pats); ok {
			found = doi
			return false
		}
		links := s.Find("a[href]").AddSelection(s.Filter("a[href]"))
		links.EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if doi, ok := patterns.FindDOI(href, pats); ok {
				found = doi
				return false
			}
			return true
		})
		return found == ""
	})
	return found
}

// metaContents returns the content of meta tags whose name or property equals name,
// ignoring case, in document order.
func metaContents(doc *goquery.Document, name string) []string {
	var out []string
	doc.Find("meta").Each(func(_ int, m *goquery.Selection) {
		key := m.AttrOr("name", m.AttrOr("property", ""))
		if !strings.EqualFold(key, name) {
			return
		}
		if content := strings.TrimSpace(m.AttrOr("content", "")); content != "" {
			out = append(out, content)
		}
	})
	return out
}

type containerRule struct {
	sel        string
	paragraphs string
	noise      []string
}

type containerOpt func(*containerRule)

// paragraphs joins the text of matching children instead of reading the whole container.
func paragraphs(sel string) containerOpt {
	return func(r *containerRule) { r.paragraphs = sel }
}

// without strips publisher-specific noise in addition to the shared noise selectors.
func without(sel string) containerOpt {
	return func(r *containerRule) { r.noise = append(r.noise, sel) }
}

// abstractIn reads an abstract from the first element matching sel. The element is
// cloned before noise is removed so the document stays untouched.
func abstractIn(sel string, opts ...containerOpt) abstractRule {
	rule := containerRule{sel: sel, noise: []string{patterns.AbstractNoiseSelectors}}
	for _, opt := range opts {
		opt(&rule)
	}
	return abstractRule{
		label: "container:" + sel,
		find: func(doc *goquery.Document) string {
			return rule.read(doc.Find(rule.sel).First())
		},
	}
}

func (r containerRule) read(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	clean := sel.Clone()
	for _, noise := range r.noise {
		clean.Find(noise).Remove()
	}

	var text string
	if r.paragraphs != "" {
		var parts []string
		clean.Find(r.paragraphs).Each(func(_ int, p *goquery.Selection) {
			if t := htmlutil.SelectionText(p); t != "" {
				parts = append(parts, t)
			}
		})
		text = strings.Join(parts, " ")
	}
	if text == "" {
		text = htmlutil.SelectionText(clean)
	}
	return cleanAbstract(text)
}

func genericAbstractContainer() abstractRule {
	rules := make([]abstractRule, 0, len(patterns.AbstractContainerSelectors))
	for _, sel := range patterns.AbstractContainerSelectors {
		rules = append(rules, abstractIn(sel))
	}
	return abstractRule{
		label: "container",
		find: func(doc *goquery.Document) string {
			for _, r := range rules {
				if text := r.find(doc); text != "" {
					return text
				}
			}
			return ""
		},
	}
}

func metaAbstract(label string, names ...string) abstractRule {
	return abstractRule{
		label: label,
		find: func(doc *goquery.Document) string {
			for _, name := range names {
				for _, content := range metaContents(doc, name) {
					if text := cleanAbstract(content); text != "" {
						return text
					}
				}
			}
			return ""
		},
	}
}

func cleanAbstract(text string) string {
	text = htmlutil.Normalize(text)
	text = abstractLabel.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func genericTitleRules() []titleRule {
	rules := []titleRule{metaTitle(patterns.TitleMetaNames...)}
	for _, sel := range patterns.TitleSelectors {
		rules = append(rules, titleIn(sel))
	}
	return append(rules, metaTitle(patterns.TitleFallbackMetaNames...))
}

func titleIn(sel string) titleRule {
	return func(doc *goquery.Document) string {
		return htmlutil.SelectionText(doc.Find(sel).First())
	}
}

func metaTitle(names ...string) titleRule {
	return func(doc *goquery.Document) string {
		for _, name := range names {
			for _, content := range metaContents(doc, name) {
				if title := htmlutil.Normalize(content); title != "" {
					return title
				}
			}
		}
		return ""
	}
}

// metaIDs reads PubMed identifiers from the citation tags many publishers emit.
func metaIDs(doc *goquery.Document, _ *url.URL) domain.ArticleIDs {
	var ids domain.ArticleIDs
	if contents := metaContents(doc, "citation_pmid"); len(contents) > 0 {
		ids.PMID = contents[0]
	}
	if contents := metaContents(doc, "citation_pmcid"); len(contents) > 0 {
		ids.PMCID = strings.ToUpper(contents[0])
	}
	return ids
}
