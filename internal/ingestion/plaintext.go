package ingestion

import (
	"context"
	"os"
	"unicode/utf8"

	"github.com/jonathan/resume-parser/internal/types"
)

// PlainTextExtractor reads UTF-8 text and Markdown files
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a PlainTextExtractor
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Supports reports whether path has a .txt or .md extension
func (x *PlainTextExtractor) Supports(path string) bool {
	return hasExtension(path, ".txt", ".md")
}

// Extract returns the file's text. Input that is not valid UTF-8 is a parse error.
func (x *PlainTextExtractor) Extract(_ context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", &types.ParseError{Path: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(content) {
		return "", &types.ParseError{Path: path, Message: "file is not valid UTF-8 text"}
	}
	return finish(path, string(content))
}
