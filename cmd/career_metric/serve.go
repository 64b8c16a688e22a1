package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/career-metric/internal/collectors"
	"github.com/jonathan/career-metric/internal/config"
	"github.com/jonathan/career-metric/internal/db"
	"github.com/jonathan/career-metric/internal/evaluation"
	"github.com/jonathan/career-metric/internal/server"
	"github.com/jonathan/career-metric/internal/server/ratelimit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that evaluates candidate profiles and serves stored assessments.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	if err := v.BindPFlag("port", serveCmd.Flags().Lookup("port")); err != nil {
		panic(fmt.Sprintf("failed to bind port flag: %v", err))
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	jwtConfig, err := cfg.RequireJWT()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := db.ConnectWithOptions(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	engine := evaluation.New(database, evaluation.Config{
		Weights: cfg.Weights,
		GitHub: collectors.NewGitHubCollector(collectors.GitHubOptions{
			BaseURL: cfg.GitHub.BaseURL,
			Timeout: cfg.GitHub.Timeout,
			Token:   cfg.GitHub.Token,
		}),
		Logger: log.Named("evaluation"),
	})

	srv := server.New(server.Config{
		Port:      cfg.Port,
		RateLimit: rateLimitConfig(cfg.RateLimit),
		Logger:    log.Named("http"),
	}, database, engine, server.NewJWTService(jwtConfig).AsTokenValidator())

	log.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("github_base_url", cfg.GitHub.BaseURL),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled))
	return srv.Start()
}

// rateLimitConfig applies the configured defaults on top of the built-in
// endpoint tiers.
func rateLimitConfig(rc config.RateLimitConfig) *ratelimit.Config {
	out := ratelimit.DefaultConfig()
	out.Enabled = rc.Enabled
	out.DefaultLimit = rc.DefaultLimit
	out.DefaultWindow = rc.DefaultWindow
	out.Whitelist = ratelimit.ListSet(rc.Whitelist)
	out.Blacklist = ratelimit.ListSet(rc.Blacklist)
	return out
}
