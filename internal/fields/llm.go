package fields

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/resume-parser/internal/llm"
	"github.com/jonathan/resume-parser/internal/logger"
	"github.com/jonathan/resume-parser/internal/prompts"
	"github.com/jonathan/resume-parser/internal/types"
	"github.com/jonathan/resume-parser/internal/validation"
)

// Options tunes the LLM-backed extractors
type Options struct {
	// Tier overrides each extractor's default model tier when set
	Tier llm.ModelTier
	// Timeout bounds each model request; zero leaves only the caller's deadline
	Timeout time.Duration
	// Truncation caps the resume text sent per field, in runes; zero is unbounded
	Truncation map[string]int
}

// delegate runs one prompt against the model and returns the raw JSON span
type delegate struct {
	client    llm.Client
	field     string
	promptKey string
	tier      llm.ModelTier
	limit     int
	timeout   time.Duration
}

func newDelegate(client llm.Client, field, promptKey string, tier llm.ModelTier, opts Options) delegate {
	if opts.Tier != "" {
		tier = opts.Tier
	}
	return delegate{
		client:    client,
		field:     field,
		promptKey: promptKey,
		tier:      tier,
		limit:     opts.Truncation[field],
		timeout:   opts.Timeout,
	}
}

func (d delegate) ask(ctx context.Context, text string, open byte) (string, error) {
	prompt, err := prompts.Render(prompts.ResumeFile, d.promptKey, map[string]string{
		"ResumeText": validation.QuoteExternalContentWithLabel(llm.Truncate(text, d.limit), "resume text"),
	})
	if err != nil {
		return "", &types.ExtractionError{Field: d.field, Message: "failed to render prompt", Cause: err}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := d.client.GenerateJSON(ctx, prompt, d.tier)
	logger.Ctx(ctx).Debug().
		Str("field", d.field).
		Str("model", d.client.GetModel(d.tier)).
		Dur("elapsed", time.Since(start)).
		Bool("ok", err == nil).
		Msg("model request finished")
	if err != nil {
		return "", &types.ExtractionError{Field: d.field, Message: "model request failed", Cause: err}
	}

	span, err := llm.ExtractJSONSpan(raw, open)
	if err != nil {
		return "", &types.ExtractionError{Field: d.field, Message: "response holds no JSON", Cause: err}
	}
	return span, nil
}

func (d delegate) decode(span string, v any) error {
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return &types.ExtractionError{Field: d.field, Message: "malformed JSON in response", Cause: err}
	}
	return nil
}

// PhoneExtractor asks the model for the candidate's phone number
type PhoneExtractor struct {
	Base
	d delegate
}

// NewPhoneExtractor creates a PhoneExtractor
func NewPhoneExtractor(client llm.Client, opts Options) *PhoneExtractor {
	return &PhoneExtractor{d: newDelegate(client, types.FieldPhone, "extract-phone", llm.TierLite, opts)}
}

// FieldName returns "phone"
func (e *PhoneExtractor) FieldName() string {
	return types.FieldPhone
}

// Extract returns the phone string, or nil when the model reports none
func (e *PhoneExtractor) Extract(ctx context.Context, text string) (any, error) {
	span, err := e.d.ask(ctx, text, '{')
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := e.d.decode(span, &payload); err != nil {
		return nil, err
	}

	phone := scalarString(payload["phone"])
	if phone == "" {
		return nil, nil
	}
	return phone, nil
}

// PostProcess normalizes the number; too few digits means absent
func (e *PhoneExtractor) PostProcess(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	if phone := types.NormalizePhone(s); phone != "" {
		return phone
	}
	return nil
}

// SkillsExtractor asks the model for a list of skills
type SkillsExtractor struct {
	Base
	d delegate
}

// NewSkillsExtractor creates a SkillsExtractor
func NewSkillsExtractor(client llm.Client, opts Options) *SkillsExtractor {
	return &SkillsExtractor{d: newDelegate(client, types.FieldSkills, "extract-skills", llm.TierStandard, opts)}
}

// FieldName returns "skills"
func (e *SkillsExtractor) FieldName() string {
	return types.FieldSkills
}

// Extract returns the skill names as []string, or nil for an empty list.
// Entries that are objects contribute their "name" member.
func (e *SkillsExtractor) Extract(ctx context.Context, text string) (any, error) {
	span, err := e.d.ask(ctx, text, '[')
	if err != nil {
		return nil, err
	}

	var items []any
	if err := e.d.decode(span, &items); err != nil {
		return nil, err
	}

	var skills []string
	for _, item := range items {
		switch v := item.(type) {
		case string:
			skills = append(skills, v)
		case map[string]any:
			skills = append(skills, scalarString(v["name"]))
		}
	}
	if len(skills) == 0 {
		return nil, nil
	}
	return skills, nil
}

// PostProcess canonicalizes names and removes case-insensitive duplicates
func (e *SkillsExtractor) PostProcess(value any) any {
	skills, ok := value.([]string)
	if !ok {
		return value
	}
	out := types.DedupeFold(NormalizeSkills(skills))
	if len(out) == 0 {
		return nil
	}
	return out
}

// EducationExtractor asks the model for education history
type EducationExtractor struct {
	Base
	d delegate
}

// NewEducationExtractor creates an EducationExtractor
func NewEducationExtractor(client llm.Client, opts Options) *EducationExtractor {
	return &EducationExtractor{d: newDelegate(client, types.FieldEducation, "extract-education", llm.TierStandard, opts)}
}

// FieldName returns "education"
func (e *EducationExtractor) FieldName() string {
	return types.FieldEducation
}

// Extract returns []types.Education, or nil for an empty list
func (e *EducationExtractor) Extract(ctx context.Context, text string) (any, error) {
	span, err := e.d.ask(ctx, text, '[')
	if err != nil {
		return nil, err
	}

	var items []any
	if err := e.d.decode(span, &items); err != nil {
		return nil, err
	}

	var out []types.Education
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, types.Education{
			Institution:    pick(m, "institution", "school", "university"),
			Degree:         pick(m, "degree"),
			FieldOfStudy:   pick(m, "field", "field_of_study", "major"),
			StartDate:      pick(m, "start_year", "start_date"),
			GraduationDate: pick(m, "end_year", "graduation_date", "end_date"),
			GPA:            pick(m, "gpa"),
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// ExperienceExtractor asks the model for work history
type ExperienceExtractor struct {
	Base
	d delegate
}

// NewExperienceExtractor creates an ExperienceExtractor
func NewExperienceExtractor(client llm.Client, opts Options) *ExperienceExtractor {
	return &ExperienceExtractor{d: newDelegate(client, types.FieldExperience, "extract-experience", llm.TierStandard, opts)}
}

// FieldName returns "experience"
func (e *ExperienceExtractor) FieldName() string {
	return types.FieldExperience
}

// Extract returns []types.Experience, or nil for an empty list
func (e *ExperienceExtractor) Extract(ctx context.Context, text string) (any, error) {
	span, err := e.d.ask(ctx, text, '[')
	if err != nil {
		return nil, err
	}

	var items []any
	if err := e.d.decode(span, &items); err != nil {
		return nil, err
	}

	var out []types.Experience
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, types.Experience{
			Company:          pick(m, "company", "employer", "organization"),
			Title:            pick(m, "position", "title", "role"),
			Location:         pick(m, "location"),
			StartDate:        pick(m, "start_date", "start"),
			EndDate:          pick(m, "end_date", "end"),
			Description:      pick(m, "description", "summary"),
			Responsibilities: pickList(m, "responsibilities", "highlights"),
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// pick returns the first non-empty scalar among keys
func pick(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func pickList(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			var out []string
			for _, item := range v {
				if s := scalarString(item); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return []string{s}
			}
		}
	}
	return nil
}

// scalarString renders JSON strings, numbers and booleans; null and containers give "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
