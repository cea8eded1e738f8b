// Package fields provides per-field extractors that turn resume text into
// structured values. Each extractor picks its own strategy: local pattern
// matching or a delegated LLM call.
package fields

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// MinTextLength is the shortest trimmed text worth extracting from
const MinTextLength = 10

// Extractor produces one named field's value from plain text.
//
// Extract returns (nil, nil) when the field is simply not present in the text.
// A non-nil error means the extraction mechanism itself failed.
type Extractor interface {
	FieldName() string
	ValidateInput(text string) string
	Extract(ctx context.Context, text string) (any, error)
	PostProcess(value any) any
}

// ValidateText returns a description of why text cannot be extracted from,
// or "" when it is usable.
func ValidateText(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "text is empty"
	}
	if n := utf8.RuneCountInString(trimmed); n < MinTextLength {
		return fmt.Sprintf("text too short: %d characters, minimum is %d", n, MinTextLength)
	}
	return ""
}

// Base supplies the default ValidateInput and PostProcess behavior.
// Embed it and implement FieldName and Extract.
type Base struct{}

// ValidateInput applies ValidateText
func (Base) ValidateInput(text string) string {
	return ValidateText(text)
}

// PostProcess returns value unchanged
func (Base) PostProcess(value any) any {
	return value
}

// Set maps field names to extractors
type Set map[string]Extractor

// NewSet builds a Set keyed by each extractor's FieldName. Later extractors
// replace earlier ones with the same field name.
func NewSet(extractors ...Extractor) Set {
	s := make(Set, len(extractors))
	for _, x := range extractors {
		s.Add(x)
	}
	return s
}

// Add registers x under its field name, replacing any existing extractor
func (s Set) Add(x Extractor) {
	s[x.FieldName()] = x
}

// Names returns the registered field names, sorted
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new Set with the entries of other layered over s
func (s Set) Merge(other Set) Set {
	out := make(Set, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
