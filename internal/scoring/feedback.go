package scoring

import (
	"fmt"
	"strings"
)

// Score band thresholds (inclusive lower bounds)
const (
	StrengthThreshold = 80.0
	GrowthThreshold   = 60.0
)

// Feedback is a qualitative note derived from one component.
type Feedback struct {
	Category    string `json:"category"`
	Message     string `json:"message"`
	ActionItems string `json:"action_items,omitempty"`
}

// GenerateFeedback returns one entry per component, in the same order.
func GenerateFeedback(components []Component) []Feedback {
	entries := make([]Feedback, 0, len(components))
	for _, c := range components {
		entries = append(entries, feedbackFor(c))
	}
	return entries
}

func feedbackFor(c Component) Feedback {
	var message, action string
	switch {
	case c.Score >= StrengthThreshold:
		message = fmt.Sprintf("Great job! Your %s skills are a clear strength.", c.Name)
		action = "Continue refining your skills and mentor peers to reinforce your expertise."
	case c.Score >= GrowthThreshold:
		message = fmt.Sprintf("Solid %s performance with room to grow.", c.Name)
		action = "Identify one advanced project or certification to boost this area over the next month."
	default:
		message = fmt.Sprintf("Focus on improving your %s competencies.", strings.ToLower(c.Name))
		action = "Create a targeted improvement plan with measurable weekly goals."
	}

	return Feedback{
		Category:    c.Name,
		Message:     message,
		ActionItems: action,
	}
}
