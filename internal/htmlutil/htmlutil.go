// Package htmlutil turns fetched bodies into goquery documents and reads clean text out of them.
package htmlutil

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"PaperScanner/internal/domain"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "li": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"td": true, "th": true, "tr": true, "dt": true, "dd": true, "blockquote": true,
}

// Parse builds a document from a fetched body. Empty or binary bodies are unusable.
func Parse(body []byte) (*goquery.Document, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body: %w", domain.ErrUnusableDocument)
	}
	if bytes.HasPrefix(trimmed, []byte("%PDF-")) {
		return nil, fmt.Errorf("pdf body: %w", domain.ErrUnusableDocument)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Text returns the rendered text of the nodes with scripts and styles skipped and
// whitespace collapsed.
func Text(nodes ...*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		collectText(&b, n)
	}
	return Normalize(b.String())
}

// SelectionText is Text over every node of a selection.
func SelectionText(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	return Text(sel.Nodes...)
}

// Normalize drops non-printable runes and collapses whitespace runs into single spaces.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsPrint(r):
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(b.String(), " "))
}

func collectText(b *strings.Builder, n *html.Node) {
	if n == nil {
		return
	}
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedTags[strings.ToLower(n.Data)] {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	block := n.Type == html.ElementNode && blockTags[strings.ToLower(n.Data)]
	if block {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if block {
		b.WriteByte(' ')
	}
}
