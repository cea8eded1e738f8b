package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-parser/internal/config"
	"github.com/jonathan/resume-parser/internal/extraction"
	"github.com/jonathan/resume-parser/internal/llm"
	"github.com/jonathan/resume-parser/internal/types"
	"github.com/jonathan/resume-parser/internal/validation"
)

const resumeText = `Ann Lee
ann@lee.dev | +1 (555) 123-4567
linkedin.com/in/ann-lee

Experience
Acme Corp, Senior Engineer, 2020 - Present`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writePDF builds a single-page PDF with one line of text per entry
func writePDF(t *testing.T, lines ...string) string {
	t.Helper()

	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf 72 720 Td 14 TL\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj T*\n", line)
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func textPipeline(opts ...Option) *Pipeline {
	base := []Option{
		WithValidator(&validation.FileValidator{MaxSize: 1 << 20, AllowedTypes: []string{"text/plain"}}),
		WithLogger(zerolog.Nop()),
	}
	return New(append(base, opts...)...)
}

type sleepyExtractor struct{ delay time.Duration }

func (s sleepyExtractor) Supports(string) bool { return true }

func (s sleepyExtractor) Extract(context.Context, string) (string, error) {
	time.Sleep(s.delay)
	return "too late", nil
}

type staticExtractor struct{ text string }

func (s staticExtractor) Supports(string) bool { return true }

func (s staticExtractor) Extract(context.Context, string) (string, error) { return s.text, nil }

func TestParse_PDFEndToEnd(t *testing.T) {
	path := writePDF(t, "Ann Lee", "ann@lee.dev", "github.com/annlee")

	record, err := New(WithLogger(zerolog.Nop())).Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", record.Name)
	assert.Equal(t, "ann@lee.dev", record.Email)
	assert.Equal(t, "https://github.com/annlee", record.GitHubURL)
}

func TestParse_TextResume(t *testing.T) {
	path := writeFile(t, "resume.txt", resumeText)

	record, err := textPipeline().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", record.Name)
	assert.Equal(t, "ann@lee.dev", record.Email)
	assert.Equal(t, "+15551234567", record.Phone)
	assert.Equal(t, "https://linkedin.com/in/ann-lee", record.LinkedInURL)
}

func TestParse_ErrorsPropagateUnchanged(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		_, err := New(WithLogger(zerolog.Nop())).Parse(context.Background(), writeFile(t, "resume.pdf", resumeText))
		var vErr *types.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, types.KindMimeType, vErr.Kind)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := textPipeline().Parse(context.Background(), writeFile(t, "resume.rtf", resumeText))
		var uErr *types.UnsupportedFormatError
		require.True(t, errors.As(err, &uErr))
		assert.Equal(t, ".rtf", uErr.Extension)
	})

	t.Run("parse", func(t *testing.T) {
		_, err := textPipeline().Parse(context.Background(), writeFile(t, "resume.html", "<html><body><script>x</script></body></html>"))
		var pErr *types.ParseError
		require.True(t, errors.As(err, &pErr))
		assert.Equal(t, "no extractable text", pErr.Message)
	})

	t.Run("timeout", func(t *testing.T) {
		p := textPipeline(WithParseTimeout(20 * time.Millisecond))
		p.Register("txt", sleepyExtractor{delay: time.Second})

		_, err := p.Parse(context.Background(), writeFile(t, "resume.txt", resumeText))
		var tErr *types.TimeoutError
		require.True(t, errors.As(err, &tErr))
		assert.Equal(t, "text_extraction", tErr.Operation)
	})
}

func TestParse_StageTransitions(t *testing.T) {
	var mu sync.Mutex
	var stages []string
	record := func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		stages = append(stages, e.Stage.String())
	}

	p := textPipeline(WithProgress(record))
	_, err := p.Parse(context.Background(), writeFile(t, "resume.txt", resumeText))
	require.NoError(t, err)
	assert.Equal(t, []string{"validating", "routing", "parsing_text", "extracting_fields", "done"}, stages)

	stages = nil
	_, err = p.Parse(context.Background(), writeFile(t, "resume.rtf", resumeText))
	require.Error(t, err)
	assert.Equal(t, []string{"validating", "routing", "failed"}, stages)
}

func TestParse_ContextProgress(t *testing.T) {
	var pipelineWide, perCall []Stage
	p := textPipeline(WithProgress(func(e ProgressEvent) { pipelineWide = append(pipelineWide, e.Stage) }))

	ctx := ContextWithProgress(context.Background(), func(e ProgressEvent) { perCall = append(perCall, e.Stage) })
	_, err := p.Parse(ctx, writeFile(t, "resume.txt", resumeText))
	require.NoError(t, err)

	want := []Stage{StageValidating, StageRouting, StageParsingText, StageExtractingFields, StageDone}
	assert.Equal(t, want, pipelineWide)
	assert.Equal(t, want, perCall)

	perCall = nil
	_, err = p.Parse(context.Background(), writeFile(t, "resume.txt", resumeText))
	require.NoError(t, err)
	assert.Empty(t, perCall)
}

func TestParse_FailureLogsStage(t *testing.T) {
	var buf bytes.Buffer
	p := textPipeline(WithLogger(zerolog.New(&buf)))

	_, err := p.Parse(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"stage":"validating"`)
	assert.Contains(t, buf.String(), "resume parsing failed")
	assert.Contains(t, buf.String(), `"elapsed"`)
}

func TestParseWith_BypassesRouting(t *testing.T) {
	path := writeFile(t, "resume.rtf", "placeholder text that is long enough")

	record, err := textPipeline().ParseWith(context.Background(), path, staticExtractor{text: resumeText})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", record.Name)

	_, err = textPipeline().Parse(context.Background(), path)
	assert.Error(t, err, "routing is unchanged for later calls")
}

func TestRegister_PerInstance(t *testing.T) {
	a := textPipeline()
	b := textPipeline()
	a.Register(".rtf", staticExtractor{text: resumeText})

	assert.Contains(t, a.Extensions(), ".rtf")
	assert.NotContains(t, b.Extensions(), ".rtf")
}

func TestAnalyze_ReportsResults(t *testing.T) {
	path := writeFile(t, "resume.txt", resumeText)

	report, err := textPipeline().Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", report.Record.Name)
	r, ok := report.Results.Get(types.FieldWebsiteURL)
	require.True(t, ok)
	assert.Equal(t, extraction.StatusAbsent, r.Status)
	assert.Equal(t, ".txt", report.Metadata.Extension)
	assert.Len(t, report.Metadata.Hash, 64)
}

func TestExtractText(t *testing.T) {
	path := writeFile(t, "resume.txt", "Ann   Lee\r\nEngineer")

	text, meta, err := textPipeline().ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee\nEngineer", text)
	assert.Equal(t, 2, meta.Lines)
}

// fakeClient answers every prompt with a fixed payload chosen by marker
type fakeClient struct{}

func (fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	switch {
	case strings.Contains(prompt, "phone number of the candidate"):
		return `{"phone": "+1 555 987 6543"}`, nil
	case strings.Contains(prompt, "Extract ALL professional skills"):
		return `["golang", "Kubernetes", "k8s"]`, nil
	case strings.Contains(prompt, "education entries"):
		return `[{"institution": "MIT", "degree": "BSc", "field": "CS", "end_year": 2019}]`, nil
	case strings.Contains(prompt, "work experience entries"):
		return "```json\n[{\"company\": \"Acme Corp\", \"position\": \"Senior Engineer\"}]\n```", nil
	}
	return "", errors.New("unexpected prompt")
}

func (f fakeClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateContent(ctx, prompt, tier)
}

func (fakeClient) GetModel(llm.ModelTier) string { return "fake" }

func (fakeClient) Close() error { return nil }

func TestNewFromConfig_WithModel(t *testing.T) {
	cfg := config.Default()
	cfg.Files.AllowedTypes = []string{"text/plain"}

	p := NewFromConfig(&cfg, fakeClient{}, WithLogger(zerolog.Nop()))
	record, err := p.Parse(context.Background(), writeFile(t, "resume.txt", resumeText))
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", record.Name)
	assert.Equal(t, "+15559876543", record.Phone)
	assert.Equal(t, []string{"Go", "Kubernetes"}, record.Skills)
	assert.Equal(t, []types.Education{{Institution: "MIT", Degree: "BSc", FieldOfStudy: "CS", GraduationDate: "2019"}}, record.Education)
	assert.Equal(t, []types.Experience{{Company: "Acme Corp", Title: "Senior Engineer"}}, record.Experience)
}

func TestNewFromConfig_TextFormatsNeedAllowList(t *testing.T) {
	files := map[string]string{
		"resume.txt":  resumeText,
		"resume.html": "<html><body><p>Ann Lee</p><p>ann@lee.dev</p></body></html>",
	}

	cfg := config.Default()
	strict := NewFromConfig(&cfg, nil, WithLogger(zerolog.Nop()))
	assert.Contains(t, strict.Extensions(), ".txt")

	open := config.Default()
	open.Files.AllowedTypes = append(open.Files.AllowedTypes, config.MimeText, config.MimeHTML)
	relaxed := NewFromConfig(&open, nil, WithLogger(zerolog.Nop()))

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, content)

			_, err := strict.Parse(context.Background(), path)
			var vErr *types.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, types.KindMimeType, vErr.Kind)

			record, err := relaxed.Parse(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, "ann@lee.dev", record.Email)
		})
	}
}

func TestNewFromConfig_WithoutModel(t *testing.T) {
	cfg := config.Default()
	cfg.Files.AllowedTypes = []string{"text/plain"}

	p := NewFromConfig(&cfg, nil, WithLogger(zerolog.Nop()))
	record, err := p.Parse(context.Background(), writeFile(t, "resume.txt", resumeText))
	require.NoError(t, err)

	assert.Equal(t, "+15551234567", record.Phone)
	assert.Empty(t, record.Skills)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "extracting_fields", StageExtractingFields.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
