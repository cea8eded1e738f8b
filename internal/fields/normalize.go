package fields

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"mongo":      "MongoDB",
	"mongodb":    "MongoDB",
	"c#":         "C#",
	"c++":        "C++",
}

// maxAcronymLength is the longest all-caps word kept as an acronym
const maxAcronymLength = 4

// NormalizeSkillName normalizes a skill name to its canonical form
func NormalizeSkillName(skillName string) string {
	normalized := strings.Join(strings.Fields(skillName), " ")
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}

	upper := strings.ToUpper(normalized)
	switch {
	case normalized == upper && normalized != lower:
		// SQL, AWS stay; PYTHON becomes Python
		if strings.Contains(normalized, " ") || len(normalized) <= maxAcronymLength {
			return normalized
		}
		return capitalize(lower)
	case normalized == lower && !strings.Contains(normalized, " "):
		return capitalize(normalized)
	default:
		return normalized
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// NormalizeSkills canonicalizes each name and drops empty entries
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if n := NormalizeSkillName(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
