package fields

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-parser/internal/types"
)

const (
	minEmailLength = 6
	maxEmailLength = 254
)

var (
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	emailValidate = validator.New()
)

// EmailExtractor finds the first well-formed email address
type EmailExtractor struct {
	Base
}

// NewEmailExtractor creates an EmailExtractor
func NewEmailExtractor() *EmailExtractor {
	return &EmailExtractor{}
}

// FieldName returns "email"
func (e *EmailExtractor) FieldName() string {
	return types.FieldEmail
}

// Extract returns the first candidate address that passes validation, lowercased.
// Candidates the record validator would reject are skipped.
func (e *EmailExtractor) Extract(_ context.Context, text string) (any, error) {
	for _, candidate := range emailPattern.FindAllString(text, -1) {
		if len(candidate) < minEmailLength || len(candidate) > maxEmailLength {
			continue
		}
		if strings.Count(candidate, "@") != 1 {
			continue
		}
		candidate = strings.ToLower(candidate)
		if emailValidate.Var(candidate, "email") != nil {
			continue
		}
		return candidate, nil
	}
	return nil, nil
}
