// Package validation checks input files before any parsing work starts and
// screens extracted text before it is sent to a model.
package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jonathan/resume-parser/internal/config"
	"github.com/jonathan/resume-parser/internal/types"
)

// FileValidator rejects files that are missing, too large or of a disallowed type
type FileValidator struct {
	// MaxSize is the largest accepted file in bytes; zero or less disables the check
	MaxSize int64
	// AllowedTypes lists accepted MIME types; empty accepts any type
	AllowedTypes []string
}

// NewFileValidator creates a FileValidator from file limits
func NewFileValidator(cfg config.FilesConfig) *FileValidator {
	return &FileValidator{
		MaxSize:      cfg.MaxSize,
		AllowedTypes: append([]string(nil), cfg.AllowedTypes...),
	}
}

// DefaultFileValidator accepts PDF and DOCX files up to the default size limit
func DefaultFileValidator() *FileValidator {
	return NewFileValidator(config.Default().Files)
}

// Validate checks path. The returned error is always a *types.ValidationError.
func (v *FileValidator) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		msg := "cannot access file"
		if errors.Is(err, fs.ErrNotExist) {
			msg = "file not found"
		}
		return &types.ValidationError{Kind: types.KindPath, Path: path, Message: msg, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return &types.ValidationError{Kind: types.KindPath, Path: path, Message: "not a regular file"}
	}

	if info.Size() == 0 {
		return &types.ValidationError{Kind: types.KindFileSize, Path: path, Message: "file is empty"}
	}
	if v.MaxSize > 0 && info.Size() > v.MaxSize {
		return &types.ValidationError{
			Kind:    types.KindFileSize,
			Path:    path,
			Message: fmt.Sprintf("file size %d bytes exceeds limit of %d bytes", info.Size(), v.MaxSize),
		}
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return &types.ValidationError{Kind: types.KindPath, Path: path, Message: "file is not readable", Cause: err}
	}

	if len(v.AllowedTypes) == 0 || v.allowed(detected) {
		return nil
	}
	return &types.ValidationError{
		Kind:    types.KindMimeType,
		Path:    path,
		Message: fmt.Sprintf("file type %s is not allowed (allowed: %s)", detected.String(), strings.Join(v.AllowedTypes, ", ")),
	}
}

// allowed walks the detected type and its parents, so an allow-listed
// application/zip also admits DOCX while an allow-listed DOCX does not admit
// arbitrary zip archives.
func (v *FileValidator) allowed(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, a := range v.AllowedTypes {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}
