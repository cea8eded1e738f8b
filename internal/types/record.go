// Package types provides type definitions for structured data used throughout the resume-parser system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MinPhoneDigits is the smallest digit count a phone number may have to be kept.
const MinPhoneDigits = 10

// Field keys used to aggregate per-field extraction results.
const (
	FieldName           = "name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldLocation       = "location"
	FieldSummary        = "summary"
	FieldLinkedInURL    = "linkedin_url"
	FieldGitHubURL      = "github_url"
	FieldWebsiteURL     = "website_url"
	FieldSkills         = "skills"
	FieldExperience     = "experience"
	FieldEducation      = "education"
	FieldCertifications = "certifications"
	FieldLanguages      = "languages"
)

var validate = validator.New()

// Record is the validated structured output of one resume.
// Absent fields hold their zero value and are omitted from JSON.
type Record struct {
	Name           string       `json:"name,omitempty"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Location       string       `json:"location,omitempty"`
	Summary        string       `json:"summary,omitempty"`
	LinkedInURL    string       `json:"linkedin_url,omitempty"`
	GitHubURL      string       `json:"github_url,omitempty"`
	WebsiteURL     string       `json:"website_url,omitempty"`
	Skills         []string     `json:"skills,omitempty"`
	Experience     []Experience `json:"experience,omitempty"`
	Education      []Education  `json:"education,omitempty"`
	Certifications []string     `json:"certifications,omitempty"`
	Languages      []string     `json:"languages,omitempty"`
	ParsedAt       time.Time    `json:"parsed_at"`
}

// Experience is one work history entry
type Experience struct {
	Company          string   `json:"company,omitempty"`
	Title            string   `json:"title,omitempty"`
	Location         string   `json:"location,omitempty"`
	StartDate        string   `json:"start_date,omitempty"`
	EndDate          string   `json:"end_date,omitempty"`
	Description      string   `json:"description,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

// Education is one education history entry
type Education struct {
	Institution    string `json:"institution,omitempty"`
	Degree         string `json:"degree,omitempty"`
	FieldOfStudy   string `json:"field_of_study,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	GraduationDate string `json:"graduation_date,omitempty"`
	GPA            string `json:"gpa,omitempty"`
}

// Fields holds raw per-field values before NewRecord normalizes them.
type Fields struct {
	Name           string
	Email          string
	Phone          string
	Location       string
	Summary        string
	LinkedInURL    string
	GitHubURL      string
	WebsiteURL     string
	Skills         []string
	Experience     []Experience
	Education      []Education
	Certifications []string
	Languages      []string

	// ParsedAt overrides the construction timestamp when non-zero.
	ParsedAt time.Time
}

// NewRecord builds a Record from raw field values.
//
// Skills, certifications and languages are deduplicated case-insensitively keeping the
// first-seen form. A phone with fewer than MinPhoneDigits digits is dropped. A non-empty
// email that is not a valid address fails construction with a *ValidationError.
func NewRecord(f Fields) (*Record, error) {
	email := strings.TrimSpace(f.Email)
	if email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return nil, &ValidationError{
				Kind:    KindEmail,
				Message: "invalid email address: " + email,
				Cause:   err,
			}
		}
	}

	parsedAt := f.ParsedAt
	if parsedAt.IsZero() {
		parsedAt = time.Now().UTC()
	}

	return &Record{
		Name:           strings.TrimSpace(f.Name),
		Email:          email,
		Phone:          NormalizePhone(f.Phone),
		Location:       strings.TrimSpace(f.Location),
		Summary:        strings.TrimSpace(f.Summary),
		LinkedInURL:    strings.TrimSpace(f.LinkedInURL),
		GitHubURL:      strings.TrimSpace(f.GitHubURL),
		WebsiteURL:     strings.TrimSpace(f.WebsiteURL),
		Skills:         DedupeFold(f.Skills),
		Experience:     cleanExperience(f.Experience),
		Education:      cleanEducation(f.Education),
		Certifications: DedupeFold(f.Certifications),
		Languages:      DedupeFold(f.Languages),
		ParsedAt:       parsedAt,
	}, nil
}

// IsEmpty reports whether every extracted field is absent. ParsedAt is ignored.
func (r *Record) IsEmpty() bool {
	return r.Name == "" && r.Email == "" && r.Phone == "" && r.Location == "" &&
		r.Summary == "" && r.LinkedInURL == "" && r.GitHubURL == "" && r.WebsiteURL == "" &&
		len(r.Skills) == 0 && len(r.Experience) == 0 && len(r.Education) == 0 &&
		len(r.Certifications) == 0 && len(r.Languages) == 0
}

// NormalizePhone keeps digits and a leading '+'. Returns "" when fewer than
// MinPhoneDigits digits remain.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	var sb strings.Builder
	if strings.HasPrefix(phone, "+") {
		sb.WriteByte('+')
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
			digits++
		}
	}

	if digits < MinPhoneDigits {
		return ""
	}
	return sb.String()
}

// DedupeFold removes blank entries and case-insensitive duplicates, preserving
// the order and casing of the first occurrence. Returns nil for an empty result.
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func cleanExperience(entries []Experience) []Experience {
	var out []Experience
	for _, e := range entries {
		e.Company = strings.TrimSpace(e.Company)
		e.Title = strings.TrimSpace(e.Title)
		e.Location = strings.TrimSpace(e.Location)
		e.StartDate = strings.TrimSpace(e.StartDate)
		e.EndDate = strings.TrimSpace(e.EndDate)
		e.Description = strings.TrimSpace(e.Description)
		e.Responsibilities = trimAll(e.Responsibilities)
		if e.Company == "" && e.Title == "" && e.Location == "" && e.StartDate == "" &&
			e.EndDate == "" && e.Description == "" && len(e.Responsibilities) == 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}

func cleanEducation(entries []Education) []Education {
	var out []Education
	for _, e := range entries {
		e.Institution = strings.TrimSpace(e.Institution)
		e.Degree = strings.TrimSpace(e.Degree)
		e.FieldOfStudy = strings.TrimSpace(e.FieldOfStudy)
		e.StartDate = strings.TrimSpace(e.StartDate)
		e.GraduationDate = strings.TrimSpace(e.GraduationDate)
		e.GPA = strings.TrimSpace(e.GPA)
		if e.Institution == "" && e.Degree == "" && e.FieldOfStudy == "" &&
			e.StartDate == "" && e.GraduationDate == "" && e.GPA == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// trimAll trims each entry and drops blanks, keeping order and duplicates.
func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
