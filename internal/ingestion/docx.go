package ingestion

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/jonathan/resume-parser/internal/types"
)

const docxBodyPart = "word/document.xml"

// DOCXExtractor reads paragraph and table text from Office Open XML documents
type DOCXExtractor struct{}

// NewDOCXExtractor creates a DOCXExtractor
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

// Supports reports whether path has a .docx extension
func (x *DOCXExtractor) Supports(path string) bool {
	return hasExtension(path, ".docx")
}

// Extract returns body paragraphs in document order followed by the text of
// table cells, one paragraph per line.
func (x *DOCXExtractor) Extract(ctx context.Context, path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", &types.ParseError{Path: path, Message: "failed to open DOCX archive", Cause: err}
	}
	defer func() { _ = archive.Close() }()

	var body *zip.File
	for _, f := range archive.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return "", &types.ParseError{Path: path, Message: "not a DOCX document: " + docxBodyPart + " missing"}
	}

	rc, err := body.Open()
	if err != nil {
		return "", &types.ParseError{Path: path, Message: "failed to read " + docxBodyPart, Cause: err}
	}
	defer func() { _ = rc.Close() }()

	paragraphs, cells, err := readDocumentXML(ctx, rc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &types.ParseError{Path: path, Message: "malformed document XML", Cause: err}
	}

	return finish(path, strings.Join(append(paragraphs, cells...), "\n"))
}

// readDocumentXML walks a WordprocessingML body. Paragraphs inside tables are
// returned separately from top-level paragraphs. A paragraph nested in a text
// box is emitted on its own line and leaves its enclosing paragraph intact.
// mc:Fallback subtrees repeat their mc:Choice sibling and are skipped.
func readDocumentXML(ctx context.Context, r io.Reader) (paragraphs, cells []string, err error) {
	dec := xml.NewDecoder(r)

	var (
		tableDepth    int
		runDepth      int
		fallbackDepth int
		inText        bool
		open          []*strings.Builder
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if fallbackDepth > 0 || t.Name.Local == "Fallback" {
				fallbackDepth++
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "p":
				open = append(open, &strings.Builder{})
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				if runDepth > 0 && len(open) > 0 {
					open[len(open)-1].WriteByte('\t')
				}
			case "br", "cr":
				if runDepth > 0 && len(open) > 0 {
					open[len(open)-1].WriteByte('\n')
				}
			}
		case xml.EndElement:
			if fallbackDepth > 0 {
				fallbackDepth--
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "r":
				runDepth--
			case "t":
				inText = false
			case "p":
				if len(open) == 0 {
					continue
				}
				line := strings.TrimSpace(open[len(open)-1].String())
				open = open[:len(open)-1]
				if line == "" {
					continue
				}
				if tableDepth > 0 {
					cells = append(cells, line)
				} else {
					paragraphs = append(paragraphs, line)
				}
			}
		case xml.CharData:
			if inText && fallbackDepth == 0 && len(open) > 0 {
				open[len(open)-1].Write(t)
			}
		}
	}

	return paragraphs, cells, nil
}
