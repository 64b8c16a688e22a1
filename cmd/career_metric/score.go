package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/career-metric/internal/scoring"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score category ratings offline",
	Long:  `Run the weighted aggregation and feedback rules on the given ratings with the configured weights and print the result as JSON. Nothing is stored.`,
	RunE:  runScore,
}

var scoreInputs scoring.Inputs

// ScoreOutput is the JSON printed by the score command.
type ScoreOutput struct {
	TotalScore float64             `json:"total_score"`
	Weights    scoring.Weights     `json:"weights"`
	Components []scoring.Component `json:"components"`
	Feedback   []scoring.Feedback  `json:"feedback"`
}

func init() {
	scoreCmd.Flags().Float64Var(&scoreInputs.Academic, "academic", 0, "Academic rating")
	scoreCmd.Flags().Float64Var(&scoreInputs.Technical, "technical", 0, "Technical rating")
	scoreCmd.Flags().Float64Var(&scoreInputs.SoftSkills, "soft-skills", 0, "Soft skills rating")
	scoreCmd.Flags().Float64Var(&scoreInputs.Experience, "experience", 0, "Experience rating")
	scoreCmd.Flags().Float64Var(&scoreInputs.Integrations, "integrations", 0, "Integrations rating")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	components := scoring.BuildComponents(scoreInputs, cfg.Weights)
	out := ScoreOutput{
		TotalScore: scoring.ComputeWeightedScore(components),
		Weights:    cfg.Weights,
		Components: components,
		Feedback:   scoring.GenerateFeedback(components),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write score: %w", err)
	}
	return nil
}
