package fields

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/resume-parser/internal/types"
)

// nameSearchLines is how many leading lines are searched for a name
const nameSearchLines = 10

// Patterns are tried in order against each leading line.
var namePatterns = []*regexp.Regexp{
	// A line holding only a capitalized name
	regexp.MustCompile(`^[ \t]*([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){1,3})[ \t]*$`),
	// A name followed by contact details on the same line
	regexp.MustCompile(`^[ \t]*([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+)[ \t]*(?:Email|Phone|Tel|\d|[|,•·])`),
	// An all-caps name on its own line
	regexp.MustCompile(`^[ \t]*([A-Z]{2,}(?:[ \t]+[A-Z]{2,}){1,3})[ \t]*$`),
	// Two or three capitalized words opening a line
	regexp.MustCompile(`^[ \t]*([A-Z][a-z]+[ \t]+[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?)\b`),
}

// Words that mark a heading rather than a person
var nameStopWords = []string{
	"resume", "curriculum", "vitae", "profile", "summary", "objective",
	"experience", "education", "skills", "contact",
}

// NameExtractor finds the candidate's name near the top of the text
type NameExtractor struct {
	Base
}

// NewNameExtractor creates a NameExtractor
func NewNameExtractor() *NameExtractor {
	return &NameExtractor{}
}

// FieldName returns "name"
func (e *NameExtractor) FieldName() string {
	return types.FieldName
}

// Extract returns the first plausible name, or nil. Earlier lines win over
// later ones.
func (e *NameExtractor) Extract(_ context.Context, text string) (any, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > nameSearchLines {
		lines = lines[:nameSearchLines]
	}

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		for _, pattern := range namePatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := normalizeNameCase(strings.Join(strings.Fields(m[1]), " "))
			if isValidName(name) {
				return name, nil
			}
		}
	}
	head := strings.Join(lines, "\n")

	// Fallback: first two capitalized alphabetic words among the first five
	var picked []string
	words := strings.Fields(head)
	for i := 0; i < len(words) && i < 5; i++ {
		w := words[i]
		if isCapitalizedWord(w) {
			picked = append(picked, w)
			if len(picked) == 2 {
				name := strings.Join(picked, " ")
				if isValidName(name) {
					return name, nil
				}
				break
			}
		}
	}

	return nil, nil
}

func isValidName(name string) bool {
	if len(name) < 3 {
		return false
	}

	lower := strings.ToLower(name)
	for _, kw := range nameStopWords {
		if strings.Contains(lower, kw) {
			return false
		}
	}

	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if !unicode.IsUpper([]rune(w)[0]) {
			return false
		}
	}
	return true
}

func isCapitalizedWord(w string) bool {
	runes := []rune(w)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// normalizeNameCase turns "ANN LEE" into "Ann Lee" and leaves mixed case alone.
func normalizeNameCase(name string) string {
	if name != strings.ToUpper(name) {
		return name
	}
	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
