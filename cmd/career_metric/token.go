package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/career-metric/internal/server"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	Long:  `Sign a JWT for the given user ID with JWT_SECRET. Intended for operators and local testing.`,
	RunE:  runToken,
}

var tokenUserID string

func init() {
	tokenCmd.Flags().StringVarP(&tokenUserID, "user-id", "u", "", "User ID (required)")
	if err := tokenCmd.MarkFlagRequired("user-id"); err != nil {
		panic(fmt.Sprintf("failed to mark user-id flag as required: %v", err))
	}
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(tokenUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	cfg, _, err := setup()
	if err != nil {
		return err
	}
	jwtConfig, err := cfg.RequireJWT()
	if err != nil {
		return err
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(userID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
