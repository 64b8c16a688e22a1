package collectors

import (
	"context"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// LinkedInProfile is the pre-fetched public LinkedIn data.
type LinkedInProfile struct {
	Headline        string   `mapstructure:"headline"`
	Skills          []string `mapstructure:"skills"`
	Recommendations int      `mapstructure:"recommendations"`
}

// LinkedInSummary is the artifact derived from LinkedIn data.
type LinkedInSummary struct {
	Headline        string   `json:"headline"`
	Skills          []string `json:"skills"`
	Recommendations int      `json:"recommendations"`
	SkillDensity    float64  `json:"skill_density"`
}

// LinkedInCollector enriches already-fetched LinkedIn data. It makes no
// network calls.
type LinkedInCollector struct{}

// NewLinkedInCollector creates a LinkedInCollector.
func NewLinkedInCollector() *LinkedInCollector {
	return &LinkedInCollector{}
}

// Source implements Collector.
func (c *LinkedInCollector) Source() Source {
	return SourceLinkedIn
}

// Collect implements Collector. Input is expected to have passed the
// linkedin_data schema; a decode failure is still reported as *Error.
func (c *LinkedInCollector) Collect(_ context.Context, data map[string]any) (any, error) {
	var profile LinkedInProfile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &profile,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, &Error{Source: SourceLinkedIn, Message: "Unable to read LinkedIn data", Cause: err}
	}
	if err := decoder.Decode(data); err != nil {
		return nil, &Error{Source: SourceLinkedIn, Message: "Unable to read LinkedIn data", Cause: err}
	}

	return EnrichLinkedInProfile(profile), nil
}

// EnrichLinkedInProfile computes skill density and passes the rest through.
func EnrichLinkedInProfile(profile LinkedInProfile) LinkedInSummary {
	skills := profile.Skills
	if skills == nil {
		skills = []string{}
	}

	density := 0.0
	if profile.Headline != "" {
		words := len(strings.Fields(profile.Headline))
		density = round2(float64(len(skills)) / float64(max(words, 1)))
	}

	return LinkedInSummary{
		Headline:        profile.Headline,
		Skills:          skills,
		Recommendations: profile.Recommendations,
		SkillDensity:    density,
	}
}
