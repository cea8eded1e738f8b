package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jonathan/resume-parser/internal/logger"
	"github.com/jonathan/resume-parser/internal/types"
)

// PDFExtractor reads the text layer of PDF documents page by page
type PDFExtractor struct{}

// NewPDFExtractor creates a PDFExtractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Supports reports whether path has a .pdf extension
func (x *PDFExtractor) Supports(path string) bool {
	return hasExtension(path, ".pdf")
}

// Extract concatenates the text of every readable page. A page that fails to
// decode is skipped; the document fails only when no page yields text.
func (x *PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &types.ParseError{Path: path, Message: "failed to read PDF", Cause: fmt.Errorf("%v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", &types.ParseError{Path: path, Message: "failed to open PDF", Cause: err}
	}
	defer func() { _ = f.Close() }()

	log := logger.Ctx(ctx)
	var sb strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		pageText, err := readPage(reader, i)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Int("page", i).Msg("skipping unreadable PDF page")
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
	}

	return finish(path, sb.String())
}

func readPage(reader *pdf.Reader, index int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", index, r)
		}
	}()

	page := reader.Page(index)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
