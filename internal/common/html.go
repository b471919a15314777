package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelectors end a line of text; keyword phrases never span them.
const blockSelectors = "p, li, br, div, section, article, tr, td, th, dt, dd, h1, h2, h3, h4, h5, h6, blockquote, pre"

// ExtractHTMLText returns the visible text of an HTML document with one
// line per block element.
func ExtractHTMLText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, template, nav, footer").Remove()
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return cleanLines(root.Text()), nil
}

// cleanLines trims every line, collapses inner whitespace and drops blank lines.
func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
