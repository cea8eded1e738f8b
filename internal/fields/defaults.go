package fields

import (
	"github.com/jonathan/resume-parser/internal/llm"
)

// Local returns the extractors that run without a model: name, email,
// the three profile links and a pattern-based phone.
func Local() Set {
	return NewSet(
		NewNameExtractor(),
		NewEmailExtractor(),
		NewLinkExtractor(LinkLinkedIn),
		NewLinkExtractor(LinkGitHub),
		NewLinkExtractor(LinkWebsite),
		NewPhonePatternExtractor(),
	)
}

// Defaults returns the full extractor set. With a nil client only Local is returned.
func Defaults(client llm.Client, opts Options) Set {
	set := Local()
	if client == nil {
		return set
	}
	set.Add(NewPhoneExtractor(client, opts))
	set.Add(NewSkillsExtractor(client, opts))
	set.Add(NewEducationExtractor(client, opts))
	set.Add(NewExperienceExtractor(client, opts))
	return set
}
