package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFeedback_Bands(t *testing.T) {
	tests := []struct {
		name        string
		score       float64
		wantMessage string
		wantAction  string
	}{
		{
			name:        "strength at 80",
			score:       80.0,
			wantMessage: "Great job! Your Soft Skills skills are a clear strength.",
			wantAction:  "Continue refining your skills and mentor peers to reinforce your expertise.",
		},
		{
			name:        "growth just below 80",
			score:       79.99,
			wantMessage: "Solid Soft Skills performance with room to grow.",
			wantAction:  "Identify one advanced project or certification to boost this area over the next month.",
		},
		{
			name:        "growth at 60",
			score:       60.0,
			wantMessage: "Solid Soft Skills performance with room to grow.",
			wantAction:  "Identify one advanced project or certification to boost this area over the next month.",
		},
		{
			name:        "improvement just below 60",
			score:       59.99,
			wantMessage: "Focus on improving your soft skills competencies.",
			wantAction:  "Create a targeted improvement plan with measurable weekly goals.",
		},
		{
			name:        "improvement at 0",
			score:       0,
			wantMessage: "Focus on improving your soft skills competencies.",
			wantAction:  "Create a targeted improvement plan with measurable weekly goals.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := GenerateFeedback([]Component{{Name: "Soft Skills", Weight: 0.2, Score: tt.score}})
			require.Len(t, entries, 1)
			assert.Equal(t, "Soft Skills", entries[0].Category)
			assert.Equal(t, tt.wantMessage, entries[0].Message)
			assert.Equal(t, tt.wantAction, entries[0].ActionItems)
		})
	}
}

func TestGenerateFeedback_PreservesOrder(t *testing.T) {
	components := BuildComponents(Inputs{
		Academic:     80,
		Technical:    90,
		SoftSkills:   75,
		Experience:   60,
		Integrations: 70,
	}, DefaultWeights())

	entries := GenerateFeedback(components)
	require.Len(t, entries, len(components))
	for i := range components {
		assert.Equal(t, components[i].Name, entries[i].Category)
	}

	assert.Contains(t, entries[0].Message, "clear strength")
	assert.Contains(t, entries[1].Message, "clear strength")
	assert.Contains(t, entries[2].Message, "room to grow")
	assert.Contains(t, entries[3].Message, "room to grow")
	assert.Contains(t, entries[4].Message, "room to grow")
}

func TestGenerateFeedback_Empty(t *testing.T) {
	entries := GenerateFeedback(nil)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
