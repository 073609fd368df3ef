package extract

import "golang.org/x/net/html"

// GenericExtractor is the fallback for unknown sites: every <p> outside
// page chrome
type GenericExtractor struct{}

// NewGenericExtractor creates a new generic extractor
func NewGenericExtractor() *GenericExtractor {
	return &GenericExtractor{}
}

// Name returns the extractor name
func (e *GenericExtractor) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback extractor)
func (e *GenericExtractor) CanHandle(source string) bool {
	return true
}

// Paragraphs returns the text of every <p> outside nav, header, footer and aside
func (e *GenericExtractor) Paragraphs(doc *html.Node) []string {
	return collectParagraphs(doc, func(n *html.Node) bool {
		switch n.Data {
		case "nav", "header", "footer", "aside":
			return false
		}
		return true
	})
}
