package ingestion

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/jonathan/resume-parser/internal/types"
)

// TextExtractor turns one document format into plain text.
// Implementations never modify the source file.
type TextExtractor interface {
	Supports(path string) bool
	Extract(ctx context.Context, path string) (string, error)
}

// Extension returns the lowercased extension of path including the dot,
// or "" when there is none.
func Extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// hasExtension reports whether path ends in one of exts (lowercase, dotted)
func hasExtension(path string, exts ...string) bool {
	ext := Extension(path)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// finish cleans raw extractor output and rejects documents with no text
func finish(path, raw string) (string, error) {
	text := CleanText(raw)
	if text == "" {
		return "", &types.ParseError{Path: path, Message: "no extractable text"}
	}
	return text, nil
}
