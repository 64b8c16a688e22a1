package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/career-metric/internal/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var profileCmd = &cobra.Command{
	Use:   "create-profile",
	Short: "Create a candidate profile",
	Long:  `Insert a candidate profile owned by the given user and print it as JSON. Profiles are normally created upstream; this seeds local databases.`,
	RunE:  runCreateProfile,
}

var (
	profileUserID    string
	profileRole      string
	profileEducation string
	profileYears     float64
)

func init() {
	profileCmd.Flags().StringVarP(&profileUserID, "user-id", "u", "", "Owning user ID (required)")
	profileCmd.Flags().StringVar(&profileRole, "target-role", "", "Target role")
	profileCmd.Flags().StringVar(&profileEducation, "education", "", "Highest education")
	profileCmd.Flags().Float64Var(&profileYears, "years", 0, "Years of experience")
	if err := profileCmd.MarkFlagRequired("user-id"); err != nil {
		panic(fmt.Sprintf("failed to mark user-id flag as required: %v", err))
	}
	rootCmd.AddCommand(profileCmd)
}

func runCreateProfile(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(profileUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	if profileYears < 0 {
		return fmt.Errorf("years must be non-negative, got %v", profileYears)
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	profile := &db.Profile{UserID: userID, YearsExperience: profileYears}
	if profileRole != "" {
		profile.TargetRole = &profileRole
	}
	if profileEducation != "" {
		profile.HighestEducation = &profileEducation
	}
	if err := database.CreateProfile(ctx, profile); err != nil {
		return err
	}
	log.Info("profile created", zap.String("profile_id", profile.ID.String()))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(profile)
}
