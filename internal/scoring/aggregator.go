// Package scoring turns raw category ratings into weighted score components
// and derives feedback from them.
package scoring

import (
	"math"
	"strings"
)

// Category identifies one of the fixed rating categories.
type Category string

// Fixed rating categories
const (
	CategoryAcademic     Category = "academic"
	CategoryTechnical    Category = "technical"
	CategorySoftSkills   Category = "soft_skills"
	CategoryExperience   Category = "experience"
	CategoryIntegrations Category = "integrations"
)

// Categories returns the categories in canonical order. Components are always
// built, stored, and returned in this order.
func Categories() []Category {
	return []Category{
		CategoryAcademic,
		CategoryTechnical,
		CategorySoftSkills,
		CategoryExperience,
		CategoryIntegrations,
	}
}

// Label returns the display name of the category ("soft_skills" -> "Soft Skills").
func (c Category) Label() string {
	words := strings.Fields(strings.ReplaceAll(string(c), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Weights holds the weight of each category.
type Weights struct {
	Academic     float64 `json:"academic" mapstructure:"academic"`
	Technical    float64 `json:"technical" mapstructure:"technical"`
	SoftSkills   float64 `json:"soft_skills" mapstructure:"soft_skills"`
	Experience   float64 `json:"experience" mapstructure:"experience"`
	Integrations float64 `json:"integrations" mapstructure:"integrations"`
}

// DefaultWeights returns the default weight table. The weights sum to 1.0.
func DefaultWeights() Weights {
	return Weights{
		Academic:     0.25,
		Technical:    0.35,
		SoftSkills:   0.20,
		Experience:   0.10,
		Integrations: 0.10,
	}
}

// For returns the weight of a category.
func (w Weights) For(c Category) float64 {
	switch c {
	case CategoryAcademic:
		return w.Academic
	case CategoryTechnical:
		return w.Technical
	case CategorySoftSkills:
		return w.SoftSkills
	case CategoryExperience:
		return w.Experience
	case CategoryIntegrations:
		return w.Integrations
	default:
		return 0
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Academic + w.Technical + w.SoftSkills + w.Experience + w.Integrations
}

// Inputs holds the raw self-reported rating for each category.
type Inputs struct {
	Academic     float64 `json:"academic"`
	Technical    float64 `json:"technical"`
	SoftSkills   float64 `json:"soft_skills"`
	Experience   float64 `json:"experience"`
	Integrations float64 `json:"integrations"`
}

// For returns the raw rating of a category.
func (in Inputs) For(c Category) float64 {
	switch c {
	case CategoryAcademic:
		return in.Academic
	case CategoryTechnical:
		return in.Technical
	case CategorySoftSkills:
		return in.SoftSkills
	case CategoryExperience:
		return in.Experience
	case CategoryIntegrations:
		return in.Integrations
	default:
		return 0
	}
}

// Component is one weighted category measurement.
type Component struct {
	Name    string         `json:"name"`
	Weight  float64        `json:"weight"`
	Score   float64        `json:"score"`
	Details map[string]any `json:"details,omitempty"`
}

// BuildComponents produces exactly one component per category, in canonical
// order. Scores are clamped to [0,100]; details keep the unclamped raw value.
func BuildComponents(inputs Inputs, weights Weights) []Component {
	categories := Categories()
	components := make([]Component, 0, len(categories))
	for _, c := range categories {
		raw := inputs.For(c)
		components = append(components, Component{
			Name:    c.Label(),
			Weight:  weights.For(c),
			Score:   Clamp(raw, 0, 100),
			Details: map[string]any{"raw": raw},
		})
	}
	return components
}

// ComputeWeightedScore returns the weighted mean of the component scores
// rounded to two decimals, or 0 when there is nothing to weigh.
func ComputeWeightedScore(components []Component) float64 {
	if len(components) == 0 {
		return 0.0
	}

	var weightSum, cumulative float64
	for _, c := range components {
		weightSum += c.Weight
		cumulative += c.Score * c.Weight
	}
	if weightSum <= 0 {
		return 0.0
	}

	return Round2(cumulative / weightSum)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
