package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonathan/resume-parser/internal/types"
)

// Error kinds reported in the "error" field of failure responses
const (
	KindInvalidRequest    = "invalid_request"
	KindValidation        = "validation_error"
	KindUnsupportedFormat = "unsupported_format"
	KindParse             = "parse_error"
	KindTimeout           = "timeout"
	KindInternal          = "internal_error"
	KindRateLimited       = "rate_limit_exceeded"
)

const internalErrorMessage = "An unexpected error occurred while parsing the resume"

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// requestError is a client mistake detected before parsing starts
type requestError struct {
	message string
	details map[string]any
}

func (e *requestError) Error() string {
	return e.message
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		reqErr     *requestError
		valErr     *types.ValidationError
		formatErr  *types.UnsupportedFormatError
		timeoutErr *types.TimeoutError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &valErr), errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse maps err to its wire form. Internal errors get a generic
// message so that nothing about the host leaks to the client.
func NewErrorResponse(err error, filename string) ErrorResponse {
	resp := ErrorResponse{Success: false, Details: map[string]any{}}
	if filename != "" {
		resp.Details["filename"] = filename
	}

	var (
		reqErr     *requestError
		valErr     *types.ValidationError
		formatErr  *types.UnsupportedFormatError
		timeoutErr *types.TimeoutError
		parseErr   *types.ParseError
	)
	switch {
	case errors.As(err, &reqErr):
		resp.Error = KindInvalidRequest
		resp.Message = reqErr.message
		for k, v := range reqErr.details {
			resp.Details[k] = v
		}
	case errors.As(err, &valErr):
		resp.Error = KindValidation
		resp.Message = valErr.Message
		resp.Details["kind"] = string(valErr.Kind)
	case errors.As(err, &formatErr):
		resp.Error = KindUnsupportedFormat
		resp.Message = "unsupported file format"
		resp.Details["received"] = formatErr.Extension
		resp.Details["allowed"] = formatErr.Registered
	case errors.As(err, &timeoutErr):
		resp.Error = KindTimeout
		resp.Message = timeoutErr.Operation + " timed out"
		resp.Details["timeout_seconds"] = timeoutErr.Timeout.Seconds()
	case errors.Is(err, context.DeadlineExceeded):
		resp.Error = KindTimeout
		resp.Message = "request timed out"
	case errors.As(err, &parseErr):
		resp.Error = KindParse
		resp.Message = parseErr.Message
	default:
		resp.Error = KindInternal
		resp.Message = internalErrorMessage
	}

	if len(resp.Details) == 0 {
		resp.Details = nil
	}
	return resp
}
