package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/roadmap-agent/internal/agents"
	"github.com/jonathan/roadmap-agent/internal/config"
	"github.com/jonathan/roadmap-agent/internal/db"
	"github.com/jonathan/roadmap-agent/internal/llm"
	"github.com/jonathan/roadmap-agent/internal/pipeline"
	"github.com/jonathan/roadmap-agent/internal/resources"
	"github.com/jonathan/roadmap-agent/internal/server"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the roadmap creation pipeline: start a run, answer interview questions, follow generation over SSE, review, and save.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a JSON config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	client, err := llm.NewClient(ctx, nil, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}
	defer client.Close()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	set := agents.New(client, resources.NewProber(logger), logger, agents.Options{
		MaxRetries:  cfg.StageMaxRetries,
		CallTimeout: cfg.StageCallTimeout,
	})
	registry := pipeline.NewRegistry(cfg.RunTTL, logger)
	defer registry.Close()
	service := pipeline.NewService(set, database, registry, logger, cfg.ResearchWorkers)

	srv := server.New(server.Config{Port: cfg.Port}, service, database, logger)
	return srv.Start()
}
