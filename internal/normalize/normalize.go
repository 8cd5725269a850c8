// Package normalize implements the HTML-to-text pipeline shared by every
// HTML-producing strategy, so outcomes are comparable no matter which
// strategy produced them.
package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockTags is the allow-list of block-level elements whose text is kept.
const blockTags = "p, h1, h2, h3, h4, h5"

// CommentClass is the CSS class marking comment bodies on the one
// discussion-thread layout the scraper special-cases.
const CommentClass = "usertext-body"

var multiSpace = regexp.MustCompile(` {2,}`)

// FromHTML parses markup, drops script and style elements, and extracts
// normalized text.
func FromHTML(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style").Remove()
	return Document(doc), nil
}

// Document extracts text from the allow-listed block tags in document order,
// one newline per element, then applies the whitespace pass.
func Document(doc *goquery.Document) string {
	var raw strings.Builder
	doc.Find(blockTags).Each(func(_ int, sel *goquery.Selection) {
		raw.WriteString(sel.Text())
		raw.WriteString("\n")
	})
	return Text(raw.String())
}

// Text applies the whitespace pass: split into lines, trim each, split lines
// on runs of two or more spaces, trim the fragments, drop empties, and rejoin
// with single newlines. Running Text over its own output returns the input
// unchanged.
func Text(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var fragments []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		for _, fragment := range multiSpace.Split(line, -1) {
			fragment = strings.TrimSpace(fragment)
			if fragment != "" {
				fragments = append(fragments, fragment)
			}
		}
	}
	return strings.Join(fragments, "\n")
}

// CommentThread extracts elements carrying the given CSS class and formats
// them as sequentially numbered comment blocks starting at 1. It is only
// used when a caller explicitly asks for discussion-thread parsing; nothing
// selects it automatically.
func CommentThread(doc *goquery.Document, class string) string {
	if class == "" {
		class = CommentClass
	}
	var out strings.Builder
	n := 0
	doc.Find("." + class).Each(func(_ int, sel *goquery.Selection) {
		text := sel.Text()
		if strings.TrimSpace(text) == "" {
			return
		}
		n++
		fmt.Fprintf(&out, "Comment %d:\n%s\n", n, text)
	})
	return out.String()
}

// Title returns the trimmed document title, or "" when absent.
func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// ImageURLs collects img sources in document order, resolved against base,
// keeping only absolute http(s) URLs and dropping duplicates.
func ImageURLs(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	urls := make([]string, 0)
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			return
		}
		ref, err := url.Parse(src)
		if err != nil {
			return
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return
		}
		resolved := ref.String()
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		urls = append(urls, resolved)
	})
	return urls
}
