package ingestion

import (
	"context"
	"os"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/resume-parser/internal/types"
)

// blockSelectors end a line of text in the rendered output
const blockSelectors = "p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, address, dd, dt, blockquote, pre, table"

// HTMLExtractor reads the visible text of HTML resumes
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTMLExtractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Supports reports whether path has an .html or .htm extension
func (x *HTMLExtractor) Supports(path string) bool {
	return hasExtension(path, ".html", ".htm")
}

// Extract returns the body text with block elements on their own lines.
// Scripts, styles and other non-visible content are dropped.
func (x *HTMLExtractor) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &types.ParseError{Path: path, Message: "failed to open HTML file", Cause: err}
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", &types.ParseError{Path: path, Message: "failed to parse HTML", Cause: err}
	}

	doc.Find("script, style, noscript, template, head, svg").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("td, th").AppendHtml(" ")
	doc.Find(blockSelectors).AppendHtml("\n")

	return finish(path, doc.Find("body").Text())
}
