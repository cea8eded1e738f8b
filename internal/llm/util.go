// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response holds no JSON value of the requested kind
var ErrNoJSON = errors.New("no JSON value in response")

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.ContainsAny(firstLine, "{[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// ExtractJSONSpan returns the substring from the first open delimiter ('[' or '{')
// through the last matching close delimiter, after stripping markdown fences.
// Surrounding prose is discarded. The span is not validated as JSON.
func ExtractJSONSpan(text string, open byte) (string, error) {
	var closeCh byte
	switch open {
	case '[':
		closeCh = ']'
	case '{':
		closeCh = '}'
	default:
		return "", fmt.Errorf("unsupported JSON delimiter %q", open)
	}

	text = CleanJSONBlock(text)
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, closeCh)
	if start < 0 || end < 0 || end < start {
		return "", fmt.Errorf("%w: expected %c...%c", ErrNoJSON, open, closeCh)
	}
	return text[start : end+1], nil
}

// Truncate shortens text to at most limit runes. limit <= 0 means no limit.
func Truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
