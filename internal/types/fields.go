package types

import (
	"fmt"
	"sort"
)

// Set assigns a per-field extraction value by field key.
// A nil value leaves the field absent.
func (f *Fields) Set(field string, value any) error {
	if value == nil {
		return nil
	}

	switch field {
	case FieldName:
		return setString(&f.Name, field, value)
	case FieldEmail:
		return setString(&f.Email, field, value)
	case FieldPhone:
		return setString(&f.Phone, field, value)
	case FieldLocation:
		return setString(&f.Location, field, value)
	case FieldSummary:
		return setString(&f.Summary, field, value)
	case FieldLinkedInURL:
		return setString(&f.LinkedInURL, field, value)
	case FieldGitHubURL:
		return setString(&f.GitHubURL, field, value)
	case FieldWebsiteURL:
		return setString(&f.WebsiteURL, field, value)
	case FieldSkills:
		return setStrings(&f.Skills, field, value)
	case FieldCertifications:
		return setStrings(&f.Certifications, field, value)
	case FieldLanguages:
		return setStrings(&f.Languages, field, value)
	case FieldExperience:
		v, ok := value.([]Experience)
		if !ok {
			return typeMismatch(field, "[]Experience", value)
		}
		f.Experience = v
		return nil
	case FieldEducation:
		v, ok := value.([]Education)
		if !ok {
			return typeMismatch(field, "[]Education", value)
		}
		f.Education = v
		return nil
	default:
		return fmt.Errorf("unknown field %q", field)
	}
}

// KnownFields returns the sorted list of field keys accepted by Fields.Set.
func KnownFields() []string {
	keys := []string{
		FieldName, FieldEmail, FieldPhone, FieldLocation, FieldSummary,
		FieldLinkedInURL, FieldGitHubURL, FieldWebsiteURL, FieldSkills,
		FieldExperience, FieldEducation, FieldCertifications, FieldLanguages,
	}
	sort.Strings(keys)
	return keys
}

func setString(dst *string, field string, value any) error {
	v, ok := value.(string)
	if !ok {
		return typeMismatch(field, "string", value)
	}
	*dst = v
	return nil
}

func setStrings(dst *[]string, field string, value any) error {
	v, ok := value.([]string)
	if !ok {
		return typeMismatch(field, "[]string", value)
	}
	*dst = v
	return nil
}

func typeMismatch(field, want string, got any) error {
	return fmt.Errorf("field %q expects %s, got %T", field, want, got)
}
