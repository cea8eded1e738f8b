package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"github.com/jonathan/resume-parser/internal/ingestion"
	"github.com/jonathan/resume-parser/internal/logger"
	"github.com/jonathan/resume-parser/internal/pipeline"
	"github.com/jonathan/resume-parser/internal/types"
)

// uploadField is the multipart form field holding the resume
const uploadField = "file"

// multipartOverhead allows for form boundaries and headers around the file part
const multipartOverhead = 1 << 20

// ParseResponse is the body of a successful parse
type ParseResponse struct {
	Success  bool          `json:"success"`
	Data     *types.Record `json:"data"`
	Filename string        `json:"filename"`
	Message  string        `json:"message"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, r, http.StatusOK, map[string]any{
		"message": "Resume Parser API",
		"version": s.version,
		"endpoints": map[string]string{
			"parse":        "POST /parse-resume - Upload and parse a resume",
			"parse_stream": "POST /parse-resume/stream - Parse with server-sent progress events",
			"health":       "GET /health - Health check endpoint",
		},
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"version": s.version,
	})
}

// handleParseResume accepts a multipart upload and returns the parsed Record
func (s *Server) handleParseResume(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	path, filename, cleanup, err := s.stageUpload(w, r)
	if err != nil {
		s.errorResponse(w, r, err, filename)
		return
	}
	defer cleanup()

	log.Info().Str("filename", filename).Msg("parsing uploaded resume")
	record, err := s.parser.Parse(r.Context(), path)
	if err != nil {
		s.errorResponse(w, r, err, filename)
		return
	}

	log.Info().
		Str("filename", filename).
		Bool("name", record.Name != "").
		Bool("email", record.Email != "").
		Int("skills", len(record.Skills)).
		Msg("resume parsed successfully")

	s.jsonResponse(w, r, http.StatusOK, ParseResponse{
		Success:  true,
		Data:     record,
		Filename: filename,
		Message:  "Resume parsed successfully",
	})
}

// handleParseResumeStream is handleParseResume reporting stage transitions as
// server-sent events before the final result.
func (s *Server) handleParseResumeStream(w http.ResponseWriter, r *http.Request) {
	path, filename, cleanup, err := s.stageUpload(w, r)
	if err != nil {
		s.errorResponse(w, r, err, filename)
		return
	}
	defer cleanup()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, err, filename)
		return
	}

	ctx := pipeline.ContextWithProgress(r.Context(), func(e pipeline.ProgressEvent) {
		if e.Stage == pipeline.StageFailed {
			return
		}
		sse.WriteProgress(e)
	})

	record, err := s.parser.Parse(ctx, path)
	if err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Str("filename", filename).Msg("streamed parse failed")
		sse.WriteError(NewErrorResponse(err, filename))
		return
	}
	sse.WriteResult(ParseResponse{
		Success:  true,
		Data:     record,
		Filename: filename,
		Message:  "Resume parsed successfully",
	})
}

// stageUpload copies the uploaded file to a uniquely named temp file keeping
// the original extension. cleanup removes it and must always be called on success.
func (s *Server) stageUpload(w http.ResponseWriter, r *http.Request) (path, filename string, cleanup func(), err error) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", "", nil, s.tooLarge(-1)
		}
		return "", "", nil, &requestError{message: fmt.Sprintf("multipart field %q with a file is required", uploadField)}
	}
	defer file.Close()

	filename = filepath.Base(header.Filename)
	if s.maxUpload > 0 && header.Size > s.maxUpload {
		return "", filename, nil, s.tooLarge(header.Size)
	}

	ext := ingestion.Extension(filename)
	if supported := s.parser.Extensions(); !slices.Contains(supported, ext) {
		return "", filename, nil, &types.UnsupportedFormatError{Path: filename, Extension: ext, Registered: supported}
	}

	tmp, err := os.Create(filepath.Join(s.uploadDir(), "upload-"+uuid.NewString()+ext))
	if err != nil {
		return "", filename, nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup = func() {
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Ctx(r.Context()).Warn().Err(rmErr).Str("temp_path", tmp.Name()).Msg("failed to clean up temporary file")
		}
	}

	n, err := io.Copy(tmp, file)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", filename, nil, fmt.Errorf("failed to store upload: %w", err)
	}

	logger.Ctx(r.Context()).Debug().Str("temp_path", tmp.Name()).Int64("size_bytes", n).Msg("saved upload")
	return tmp.Name(), filename, cleanup, nil
}

func (s *Server) uploadDir() string {
	if s.tempDir != "" {
		return s.tempDir
	}
	return os.TempDir()
}

func (s *Server) tooLarge(size int64) error {
	msg := fmt.Sprintf("file exceeds limit of %d bytes", s.maxUpload)
	if size >= 0 {
		msg = fmt.Sprintf("file size %d bytes exceeds limit of %d bytes", size, s.maxUpload)
	}
	return &types.ValidationError{Kind: types.KindFileSize, Message: msg}
}

// errorResponse writes err as an ErrorResponse with its mapped status
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error, filename string) {
	status := HTTPStatus(err)
	event := logger.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("filename", filename).Msg("request failed")

	s.jsonResponse(w, r, status, NewErrorResponse(err, filename))
}
