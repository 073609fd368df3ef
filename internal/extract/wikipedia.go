package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// WikipediaExtractor reads the article body of Wikipedia pages, the source
// SQuAD contexts were taken from
type WikipediaExtractor struct{}

// NewWikipediaExtractor creates a new Wikipedia extractor
func NewWikipediaExtractor() *WikipediaExtractor {
	return &WikipediaExtractor{}
}

// Name returns the extractor name
func (e *WikipediaExtractor) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (e *WikipediaExtractor) CanHandle(source string) bool {
	return strings.Contains(source, "wikipedia.org")
}

// Paragraphs returns the paragraphs of the main content area, skipping
// infoboxes, navigation boxes, tables and citation markers such as "[1]"
func (e *WikipediaExtractor) Paragraphs(doc *html.Node) []string {
	content := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" &&
			(hasClass(n, "mw-parser-output") || attr(n, "id") == "mw-content-text")
	})
	if content == nil {
		content = doc
	}

	return collectParagraphs(content, func(n *html.Node) bool {
		if n.Data == "table" {
			return false
		}
		if n.Data == "sup" && hasClass(n, "reference") {
			return false
		}
		for _, class := range []string{"infobox", "navbox", "reflist", "mw-editsection", "hatnote", "noprint"} {
			if hasClass(n, class) {
				return false
			}
		}
		return true
	})
}
