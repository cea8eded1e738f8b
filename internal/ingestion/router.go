package ingestion

import (
	"sort"
	"strings"
	"sync"

	"github.com/jonathan/resume-parser/internal/types"
)

// Router maps file extensions to text extractors
type Router struct {
	mu         sync.RWMutex
	extractors map[string]TextExtractor
}

// NewRouter creates a Router with no registrations
func NewRouter() *Router {
	return &Router{extractors: make(map[string]TextExtractor)}
}

// NewDefaultRouter creates a Router with the built-in extractors:
// .pdf, .docx, .html, .htm, .txt and .md. The default file validator only
// admits PDF and DOCX; the text formats also need their MIME types allow-listed.
func NewDefaultRouter() *Router {
	r := NewRouter()
	r.Register(".pdf", NewPDFExtractor())
	r.Register(".docx", NewDOCXExtractor())
	html := NewHTMLExtractor()
	r.Register(".html", html)
	r.Register(".htm", html)
	text := NewPlainTextExtractor()
	r.Register(".txt", text)
	r.Register(".md", text)
	return r
}

// Register binds ext to x. The extension is matched case-insensitively and a
// leading dot is optional. A later registration replaces an earlier one.
func (r *Router) Register(ext string, x TextExtractor) {
	ext = normalizeExt(ext)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[ext] = x
}

// Resolve returns the extractor registered for path's extension
func (r *Router) Resolve(path string) (TextExtractor, error) {
	ext := Extension(path)

	r.mu.RLock()
	x, ok := r.extractors[ext]
	r.mu.RUnlock()

	if !ok || ext == "" {
		return nil, &types.UnsupportedFormatError{
			Path:       path,
			Extension:  ext,
			Registered: r.Extensions(),
		}
	}
	return x, nil
}

// Extensions returns the registered extensions, sorted
func (r *Router) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
