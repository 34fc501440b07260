// Package patterns holds the ordered regular expressions and selector tables shared by
// publisher handlers and the orchestrator.
package patterns

import (
	"regexp"
	"strings"
)

// Pattern is one regular expression in an ordered list. When Group is set the first
// capture group is the value, otherwise the whole match.
type Pattern struct {
	Name  string
	Expr  *regexp.Regexp
	Group bool
}

// New compiles a pattern and panics on invalid expressions, like regexp.MustCompile.
func New(name, expr string, group bool) Pattern {
	return Pattern{Name: name, Expr: regexp.MustCompile(expr), Group: group}
}

// Match is a successful pattern application.
type Match struct {
	Value   string
	Pattern string
}

// Find applies patterns in order and stops at the first one that matches.
func Find(text string, patterns []Pattern) (Match, bool) {
	if text == "" {
		return Match{}, false
	}
	for _, p := range patterns {
		sub := p.Expr.FindStringSubmatch(text)
		if sub == nil {
			continue
		}
		value := sub[0]
		if p.Group && len(sub) > 1 {
			value = sub[1]
		}
		return Match{Value: value, Pattern: p.Name}, true
	}
	return Match{}, false
}

// FindDOI returns the first DOI found in text by the ordered patterns.
func FindDOI(text string, patterns []Pattern) (string, bool) {
	m, ok := Find(text, patterns)
	if !ok {
		return "", false
	}
	doi := CleanDOI(m.Value)
	return doi, doi != ""
}

const doiSuffix = `[-._;()/:\w]+`

// DOIPatterns is the canonical precedence: bare DOI, doi: prefix, doi.org prefix.
var DOIPatterns = []Pattern{
	New("bare", `10\.\d{4,9}/`+doiSuffix, false),
	New("doi-prefix", `(?i)doi:\s*(10\.\d{4,9}/`+doiSuffix+`)`, true),
	New("doi-org", `(?i)doi\.org/(10\.\d{4,9}/`+doiSuffix+`)`, true),
}

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// CleanDOI strips resolver prefixes and trailing punctuation. A closing parenthesis is
// only kept when it closes one opened inside the DOI.
func CleanDOI(value string) string {
	value = strings.TrimSpace(value)
	for {
		trimmed := false
		lower := strings.ToLower(value)
		for _, prefix := range doiPrefixes {
			if strings.HasPrefix(lower, prefix) {
				value = strings.TrimSpace(value[len(prefix):])
				trimmed = true
				break
			}
		}
		if !trimmed {
			break
		}
	}
	for {
		value = strings.TrimRight(value, "/.,;")
		if !strings.HasSuffix(value, ")") || strings.Count(value, "(") >= strings.Count(value, ")") {
			return value
		}
		value = value[:len(value)-1]
	}
}

// CommentURLPatterns locate a URL inside a free-text comment, most general first.
var CommentURLPatterns = []Pattern{
	New("http", `https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`, false),
	New("doi.org", `doi\.org/[^\s<>"]+`, false),
	New("arxiv.org", `arxiv\.org/[^\s<>"]+`, false),
	New("pubmed.gov", `pubmed\.gov/[^\s<>"]+`, false),
}

// ExtractURL returns the first URL embedded in comment. Bare host matches get an https scheme.
func ExtractURL(comment string) (string, bool) {
	m, ok := Find(strings.TrimSpace(comment), CommentURLPatterns)
	if !ok {
		return "", false
	}
	u := strings.TrimRight(m.Value, ".,;!?")
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u, true
}
