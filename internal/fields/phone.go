package fields

import (
	"context"
	"regexp"

	"github.com/jonathan/resume-parser/internal/types"
)

var phonePattern = regexp.MustCompile(`\+?\(?\d[\d \t().-]{7,}\d`)

// PhonePatternExtractor finds a phone number without a model call.
// It is the phone strategy when no LLM provider is configured.
type PhonePatternExtractor struct {
	Base
}

// NewPhonePatternExtractor creates a PhonePatternExtractor
func NewPhonePatternExtractor() *PhonePatternExtractor {
	return &PhonePatternExtractor{}
}

// FieldName returns "phone"
func (e *PhonePatternExtractor) FieldName() string {
	return types.FieldPhone
}

// Extract returns the first candidate with at least types.MinPhoneDigits digits
func (e *PhonePatternExtractor) Extract(_ context.Context, text string) (any, error) {
	for _, m := range phonePattern.FindAllString(text, -1) {
		if phone := types.NormalizePhone(m); phone != "" {
			return phone, nil
		}
	}
	return nil, nil
}
