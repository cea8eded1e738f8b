package fields

import (
	"context"
	"regexp"
	"strings"

	"github.com/jonathan/resume-parser/internal/types"
)

// LinkKind selects which profile link a LinkExtractor looks for
type LinkKind string

// Supported link kinds
const (
	LinkLinkedIn LinkKind = types.FieldLinkedInURL
	LinkGitHub   LinkKind = types.FieldGitHubURL
	LinkWebsite  LinkKind = types.FieldWebsiteURL
)

var (
	linkedInPattern = regexp.MustCompile(`(?i)\b(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/(?:in|pub)/[A-Za-z0-9_%-]+`)
	gitHubPattern   = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?github\.com/[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})`)
	websitePattern  = regexp.MustCompile(`(?i)\bhttps?://[^\s,;<>()"']+`)
)

// LinkExtractor finds a profile URL of one kind
type LinkExtractor struct {
	Base
	kind LinkKind
}

// NewLinkExtractor creates a LinkExtractor for kind
func NewLinkExtractor(kind LinkKind) *LinkExtractor {
	return &LinkExtractor{kind: kind}
}

// FieldName returns the record field the link fills
func (e *LinkExtractor) FieldName() string {
	return string(e.kind)
}

// Extract returns the first matching URL normalized to https, or nil.
// Website links skip LinkedIn and GitHub URLs.
func (e *LinkExtractor) Extract(_ context.Context, text string) (any, error) {
	switch e.kind {
	case LinkLinkedIn:
		if m := linkedInPattern.FindString(text); m != "" {
			return normalizeURL(m), nil
		}
	case LinkGitHub:
		if m := gitHubPattern.FindString(text); m != "" {
			return normalizeURL(m), nil
		}
	case LinkWebsite:
		for _, m := range websitePattern.FindAllString(text, -1) {
			lower := strings.ToLower(m)
			if strings.Contains(lower, "linkedin.com") || strings.Contains(lower, "github.com") {
				continue
			}
			return normalizeURL(m), nil
		}
	}
	return nil, nil
}

func normalizeURL(raw string) string {
	u := strings.TrimRight(raw, "./")
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "https://"):
		return u
	case strings.HasPrefix(lower, "http://"):
		return "https://" + u[len("http://"):]
	default:
		return "https://" + u
	}
}
