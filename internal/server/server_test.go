package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-parser/internal/config"
	"github.com/jonathan/resume-parser/internal/pipeline"
	"github.com/jonathan/resume-parser/internal/server/middleware"
	"github.com/jonathan/resume-parser/internal/types"
	"github.com/jonathan/resume-parser/internal/validation"
)

const resumeText = `Ann Lee
ann@lee.dev | +1 (555) 123-4567
github.com/annlee

Experience
Acme Corp, Senior Engineer, 2020 - Present`

// stubParser returns a fixed outcome and records the staged path
type stubParser struct {
	record *types.Record
	err    error
	seen   string
}

func (p *stubParser) Parse(_ context.Context, path string) (*types.Record, error) {
	p.seen = path
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, statErr
	}
	return p.record, p.err
}

func (p *stubParser) Extensions() []string { return []string{".docx", ".pdf", ".txt"} }

func textParser() *pipeline.Pipeline {
	return pipeline.New(
		pipeline.WithValidator(&validation.FileValidator{MaxSize: 1 << 20, AllowedTypes: []string{"text/plain"}}),
		pipeline.WithLogger(zerolog.Nop()),
	)
}

func newTestServer(t *testing.T, parser Parser, mutate ...func(*Config)) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		Addr:          "127.0.0.1:0",
		Version:       "test",
		MaxUploadSize: 1 << 20,
		TempDir:       dir,
		RateLimit:     config.RateLimitConfig{Enabled: false},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	s := New(cfg, parser)
	t.Cleanup(s.Close)
	return s, dir
}

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile(uploadField, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &stubParser{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, ServiceName, resp["service"])
	assert.Equal(t, "test", resp["version"])
}

func TestIndexEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &stubParser{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "POST /parse-resume")

	w = serve(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, &stubParser{})

	w := serve(s, httptest.NewRequest(http.MethodOptions, "/parse-resume", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseResume_TextUpload(t *testing.T) {
	s, dir := newTestServer(t, textParser())

	w := serve(s, uploadRequest(t, "/parse-resume", "ann.txt", resumeText))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ann.txt", resp.Filename)
	assert.Equal(t, "Resume parsed successfully", resp.Message)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "Ann Lee", resp.Data.Name)
	assert.Equal(t, "ann@lee.dev", resp.Data.Email)
	assert.Equal(t, "https://github.com/annlee", resp.Data.GitHubURL)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged upload is removed")
}

func TestParseResume_StagedNameKeepsExtension(t *testing.T) {
	p := &stubParser{record: &types.Record{Name: "Ann Lee"}}
	s, _ := newTestServer(t, p)

	w := serve(s, uploadRequest(t, "/parse-resume", "../../etc/Resume.PDF", "%PDF-1.4"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasSuffix(p.seen, ".pdf"))
	assert.Contains(t, p.seen, "upload-")

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Resume.PDF", resp.Filename)
}

func TestParseResume_RequestErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		kind     string
	}{
		{name: "missing file field", kind: KindInvalidRequest},
		{name: "unsupported extension", filename: "resume.exe", content: "MZ", kind: KindUnsupportedFormat},
		{name: "no extension", filename: "resume", content: "text", kind: KindUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubParser{}
			s, _ := newTestServer(t, p)

			w := serve(s, uploadRequest(t, "/parse-resume", tt.filename, tt.content))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.kind, resp.Error)
			assert.Empty(t, p.seen, "parser is not called")
		})
	}
}

func TestParseResume_UnsupportedListsAllowed(t *testing.T) {
	s, _ := newTestServer(t, &stubParser{})

	resp := decodeError(t, serve(s, uploadRequest(t, "/parse-resume", "resume.rtf", "{\\rtf1}")))
	assert.Equal(t, ".rtf", resp.Details["received"])
	assert.Equal(t, []any{".docx", ".pdf", ".txt"}, resp.Details["allowed"])
	assert.Equal(t, "resume.rtf", resp.Details["filename"])
}

func TestParseResume_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, &stubParser{}, func(c *Config) { c.MaxUploadSize = 16 })

	w := serve(s, uploadRequest(t, "/parse-resume", "resume.txt", strings.Repeat("a", 64)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, KindValidation, resp.Error)
	assert.Equal(t, string(types.KindFileSize), resp.Details["kind"])
}

func TestParseResume_ParserErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        &types.ValidationError{Kind: types.KindMimeType, Message: "file type text/html is not allowed"},
			wantStatus: http.StatusBadRequest,
			wantKind:   KindValidation,
			wantMsg:    "file type text/html is not allowed",
		},
		{
			name:       "parse",
			err:        &types.ParseError{Path: "/tmp/x.pdf", Message: "no extractable text"},
			wantStatus: http.StatusInternalServerError,
			wantKind:   KindParse,
			wantMsg:    "no extractable text",
		},
		{
			name:       "timeout",
			err:        &types.TimeoutError{Operation: "text_extraction", Timeout: time.Second},
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   KindTimeout,
			wantMsg:    "text_extraction timed out",
		},
		{
			name:       "unexpected",
			err:        errors.New("disk on fire at /var/secret"),
			wantStatus: http.StatusInternalServerError,
			wantKind:   KindInternal,
			wantMsg:    internalErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dir := newTestServer(t, &stubParser{err: tt.err})

			w := serve(s, uploadRequest(t, "/parse-resume", "resume.pdf", "%PDF-1.4"))
			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantKind, resp.Error)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Equal(t, "resume.pdf", resp.Details["filename"])

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "staged upload is removed on failure")
		})
	}
}

func TestParseResume_RateLimited(t *testing.T) {
	s, _ := newTestServer(t, &stubParser{record: &types.Record{}}, func(c *Config) {
		c.RateLimit = config.RateLimitConfig{Enabled: true, Limit: 1, Window: config.Duration(time.Hour), Burst: 1}
	})

	w := serve(s, uploadRequest(t, "/parse-resume", "resume.pdf", "%PDF-1.4"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = serve(s, uploadRequest(t, "/parse-resume", "resume.pdf", "%PDF-1.4"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, KindRateLimited, decodeError(t, w).Error)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "health is never limited")
}

func readEvents(t *testing.T, body string) []string {
	t.Helper()
	var events []string
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			events = append(events, name)
		}
	}
	return events
}

func TestParseResumeStream(t *testing.T) {
	s, _ := newTestServer(t, textParser())

	w := serve(s, uploadRequest(t, "/parse-resume/stream", "ann.txt", resumeText))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := readEvents(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, EventResult, events[len(events)-1])
	assert.Contains(t, events, EventProgress)
	assert.Contains(t, w.Body.String(), `"stage":"parsing_text"`)
	assert.Contains(t, w.Body.String(), `"name":"Ann Lee"`)
}

func TestParseResumeStream_Error(t *testing.T) {
	s, _ := newTestServer(t, textParser())

	w := serve(s, uploadRequest(t, "/parse-resume/stream", "empty.txt", "   \n  "))
	require.Equal(t, http.StatusOK, w.Code)

	events := readEvents(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, EventError, events[len(events)-1])
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, &stubParser{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:gosec,noctx
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Default()
	sc := ConfigFrom(&cfg, "1.2.3")

	assert.Equal(t, "0.0.0.0:8000", sc.Addr)
	assert.Equal(t, "1.2.3", sc.Version)
	assert.Equal(t, cfg.Files.MaxSize, sc.MaxUploadSize)
	assert.Equal(t, 90*time.Second, sc.ParseTimeout)
	assert.True(t, sc.RateLimit.Enabled)
}
