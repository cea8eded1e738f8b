// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/resume-parser/internal/extraction"
	"github.com/jonathan/resume-parser/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // verbose output goes to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintResults outputs one row per field extraction with its status and timing.
func (p *Printer) PrintResults(results extraction.Results) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-16s %-8s %8s\n", "FIELD", "STATUS", "ELAPSED"))
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("%-16s %-8s %8s\n", r.Field, r.Status, r.Elapsed.Round(time.Millisecond)))
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("  ! %s\n", r.Err))
		}
	}

	counts := results.Counts()
	sb.WriteString(fmt.Sprintf("\nok: %d  absent: %d  failed: %d",
		counts[extraction.StatusOK], counts[extraction.StatusAbsent], counts[extraction.StatusFailed]))

	p.printBox("FIELD EXTRACTION", sb.String())
}

// PrintRecord outputs a human-readable summary of a parsed record.
func (p *Printer) PrintRecord(rec *types.Record) {
	if rec == nil {
		return
	}

	var sb strings.Builder
	writeField(&sb, "Name", rec.Name)
	writeField(&sb, "Email", rec.Email)
	writeField(&sb, "Phone", rec.Phone)
	writeField(&sb, "Location", rec.Location)

	if len(rec.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills:    %s\n", joinLimited(rec.Skills)))
	}

	if len(rec.Experience) > 0 {
		sb.WriteString(fmt.Sprintf("\nExperience (%d):\n", len(rec.Experience)))
		count := min(len(rec.Experience), maxItemsToShow)
		for _, e := range rec.Experience[:count] {
			sb.WriteString(fmt.Sprintf("  • %s\n", joinNonEmpty(" @ ", e.Title, e.Company)))
		}
	}

	if len(rec.Education) > 0 {
		sb.WriteString(fmt.Sprintf("\nEducation (%d):\n", len(rec.Education)))
		count := min(len(rec.Education), maxItemsToShow)
		for _, e := range rec.Education[:count] {
			sb.WriteString(fmt.Sprintf("  • %s\n", joinNonEmpty(", ", e.Degree, e.Institution)))
		}
	}

	content := strings.TrimSuffix(sb.String(), "\n")
	if content == "" {
		content = "(no fields extracted)"
	}
	p.printBox("PARSED RECORD", content)
}

func writeField(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	sb.WriteString(fmt.Sprintf("%-10s %s\n", label+":", value))
}

// joinLimited joins the first maxItemsToShow items and notes how many were left out
func joinLimited(items []string) string {
	if len(items) <= maxItemsToShow {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(items[:maxItemsToShow], ", "), len(items)-maxItemsToShow)
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, s := range parts {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sep)
}

// truncate shortens s to at most width runes
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
