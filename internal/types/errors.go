package types

import (
	"fmt"
	"strings"
	"time"
)

// ValidationKind tags what part of the input failed validation
type ValidationKind string

const (
	// KindPath means the file is missing, unreadable or not a regular file
	KindPath ValidationKind = "path"
	// KindFileSize means the file is empty or above the size ceiling
	KindFileSize ValidationKind = "file_size"
	// KindMimeType means the detected content type is not allowed
	KindMimeType ValidationKind = "mime_type"
	// KindEmail means the record's email is not a valid address
	KindEmail ValidationKind = "email"
)

// ValidationError represents a rejected input file or record value
type ValidationError struct {
	Kind    ValidationKind
	Path    string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error (%s): %s", e.Kind, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("validation error (%s) for %s: %s", e.Kind, e.Path, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// UnsupportedFormatError means no text extractor is registered for a file extension
type UnsupportedFormatError struct {
	Path       string
	Extension  string
	Registered []string
}

func (e *UnsupportedFormatError) Error() string {
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported format %s for %s (registered: %s)",
		ext, e.Path, strings.Join(e.Registered, ", "))
}

// ParseError represents a failure to turn a file into text
type ParseError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// TimeoutError means a stage exceeded its deadline
type TimeoutError struct {
	Operation string
	Path      string
	Timeout   time.Duration
	Elapsed   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v (limit %v): %s", e.Operation, e.Elapsed.Round(time.Millisecond), e.Timeout, e.Path)
}

// ExtractionError represents a failed field extraction mechanism.
// It never leaves the extraction coordinator.
type ExtractionError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction of %s failed: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction of %s failed: %s", e.Field, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
