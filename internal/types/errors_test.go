package types

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "validation with path",
			err:      &ValidationError{Kind: KindFileSize, Path: "/tmp/cv.pdf", Message: "too large"},
			contains: []string{"file_size", "/tmp/cv.pdf", "too large"},
		},
		{
			name:     "unsupported format",
			err:      &UnsupportedFormatError{Path: "cv.odt", Extension: ".odt", Registered: []string{".docx", ".pdf"}},
			contains: []string{".odt", ".docx, .pdf"},
		},
		{
			name:     "unsupported format without extension",
			err:      &UnsupportedFormatError{Path: "README", Registered: []string{".pdf"}},
			contains: []string{"(none)"},
		},
		{
			name:     "parse",
			err:      &ParseError{Path: "cv.pdf", Message: "no extractable text"},
			contains: []string{"parse error", "no extractable text"},
		},
		{
			name:     "timeout",
			err:      &TimeoutError{Operation: "text_extraction", Path: "cv.pdf", Timeout: 2 * time.Second, Elapsed: 2 * time.Second},
			contains: []string{"text_extraction", "limit 2s", "cv.pdf"},
		},
		{
			name:     "extraction",
			err:      &ExtractionError{Field: "skills", Message: "no JSON array in response"},
			contains: []string{"skills", "no JSON array"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, tt.err.Error(), want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fs.ErrNotExist

	assert.True(t, errors.Is(&ValidationError{Kind: KindPath, Cause: cause}, fs.ErrNotExist))
	assert.True(t, errors.Is(&ParseError{Cause: cause}, fs.ErrNotExist))
	assert.True(t, errors.Is(&ExtractionError{Cause: cause}, fs.ErrNotExist))
	assert.Nil(t, (&ParseError{}).Unwrap())
}
