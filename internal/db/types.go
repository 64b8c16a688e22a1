package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Profile is a candidate profile. CurrentAssessmentID points at the
// profile's most recently committed assessment.
type Profile struct {
	ID                  uuid.UUID  `json:"id"`
	UserID              uuid.UUID  `json:"user_id"`
	TargetRole          *string    `json:"target_role,omitempty"`
	HighestEducation    *string    `json:"highest_education,omitempty"`
	YearsExperience     float64    `json:"years_experience"`
	CurrentAssessmentID *uuid.UUID `json:"current_score_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// OwnedBy reports whether the profile belongs to userID.
func (p *Profile) OwnedBy(userID uuid.UUID) bool {
	return p != nil && p.UserID == userID
}

// Assessment is one committed evaluation of a profile.
type Assessment struct {
	ID             uuid.UUID      `json:"id"`
	ProfileID      uuid.UUID      `json:"profile_id"`
	TotalScore     float64        `json:"total_score"`
	CompletionTime *time.Time     `json:"completion_time"`
	Insights       map[string]any `json:"insights"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ScoreComponent is one weighted category score of an assessment.
type ScoreComponent struct {
	ID           uuid.UUID      `json:"id"`
	AssessmentID uuid.UUID      `json:"-"`
	Name         string         `json:"name"`
	Weight       float64        `json:"weight"`
	Score        float64        `json:"score"`
	Details      map[string]any `json:"details,omitempty"`
	Position     int            `json:"-"`
}

// Feedback is a derived note attached to an assessment.
type Feedback struct {
	ID           uuid.UUID `json:"id"`
	AssessmentID uuid.UUID `json:"-"`
	Category     string    `json:"category"`
	Message      string    `json:"message"`
	ActionItems  *string   `json:"action_items"`
	Position     int       `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// AssessmentDetail is an assessment with its owned rows attached, in
// canonical order.
type AssessmentDetail struct {
	Assessment
	Components      []ScoreComponent `json:"components"`
	FeedbackEntries []Feedback       `json:"feedback_entries"`
}

// IntegrationArtifact is normalized enrichment data owned by a profile.
type IntegrationArtifact struct {
	ID        uuid.UUID       `json:"id"`
	ProfileID uuid.UUID       `json:"profile_id"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ArtifactFilters holds optional filters for listing artifacts
type ArtifactFilters struct {
	ProfileID uuid.UUID
	Source    string
}

// marshalNullable returns nil for a nil map so the column stays NULL.
func marshalNullable(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// unmarshalNullable decodes a nullable JSON column.
func unmarshalNullable(data []byte) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
