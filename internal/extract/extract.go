// Package extract pulls paragraph text out of HTML pages so that a page and
// a list of questions can be turned into a dataset.
package extract

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Extractor pulls the body paragraphs out of one kind of page
type Extractor interface {
	// Name returns the extractor name
	Name() string

	// CanHandle checks if this extractor understands pages from source
	// (a URL or file name)
	CanHandle(source string) bool

	// Paragraphs returns the text of every body paragraph in reading order
	Paragraphs(doc *html.Node) []string
}

// Registry picks an extractor per page
type Registry struct {
	extractors []Extractor
	generic    Extractor
}

// NewRegistry creates a registry with the built-in extractors
func NewRegistry() *Registry {
	registry := &Registry{}
	registry.Register(NewWikipediaExtractor())
	registry.generic = NewGenericExtractor()
	return registry
}

// Register adds an extractor ahead of the generic fallback
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Find returns the first extractor that handles source, or the generic one
func (r *Registry) Find(source string) Extractor {
	for _, e := range r.extractors {
		if e.CanHandle(source) {
			return e
		}
	}
	return r.generic
}

// Paragraphs parses r and extracts its paragraphs with the extractor
// matching source
func (r *Registry) Paragraphs(in io.Reader, source string) ([]string, error) {
	doc, err := html.Parse(in)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return r.Find(source).Paragraphs(doc), nil
}

// Paragraphs extracts paragraphs from an HTML string with the generic extractor
func Paragraphs(htmlContent string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}
	return NewGenericExtractor().Paragraphs(doc), nil
}

// skipped elements never contribute text
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true, "template": true,
}

// collectParagraphs walks n and returns the text of every <p> for which keep
// returns true; subtrees rejected by descend are not visited
func collectParagraphs(n *html.Node, descend func(*html.Node) bool) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if skipped[node.Data] || !descend(node) {
				return
			}
			if node.Data == "p" {
				if t := paragraphText(node, descend); t != "" {
					out = append(out, t)
				}
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// paragraphText concatenates the text under n with whitespace collapsed
func paragraphText(n *html.Node, descend func(*html.Node) bool) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			return
		case html.ElementNode:
			if skipped[node.Data] || !descend(node) {
				return
			}
			if node.Data == "br" {
				buf.WriteString(" ")
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func hasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(attr(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}
