// Tadabbur discovery server — runs the multi-agent Quranic discovery
// pipeline behind an HTTP API and a background exploration schedule.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/quranlabs/tadabbur/pkg/api"
	"github.com/quranlabs/tadabbur/pkg/config"
	"github.com/quranlabs/tadabbur/pkg/database"
	"github.com/quranlabs/tadabbur/pkg/orchestrator"
	"github.com/quranlabs/tadabbur/pkg/scheduler"
	"github.com/quranlabs/tadabbur/pkg/services"
	"github.com/quranlabs/tadabbur/pkg/session"
	"github.com/quranlabs/tadabbur/pkg/version"
)

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, continuing with existing environment", "error", err)
	}

	slog.Info("Starting tadabbur", "version", version.Version, "commit", version.GitCommit)

	ctx := context.Background()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Connect to PostgreSQL (optional; absence degrades to mock retrieval)
	svcs := services.Set{}
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Warn("Database unavailable, corpus and store run as null adapters", "error", err)
		} else {
			defer pool.Close()
			svcs.Corpus = services.NewPGCorpus(pool)
			svcs.Store = services.NewPGStore(pool)
			slog.Info("Connected to PostgreSQL database")
		}
	}

	// 3. LLM adapter (optional)
	if cfg.AnthropicAPIKey != "" {
		svcs.LLM = services.NewAnthropicLLM(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		slog.Info("Anthropic LLM adapter initialized")
	}

	// 4. Embeddings adapter (optional), with Redis cache when configured
	if cfg.OpenAIAPIKey != "" {
		var embeddings services.Embeddings = services.NewOpenAIEmbeddings(
			cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
		if cfg.RedisURL != "" {
			opts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Warn("Invalid REDIS_URL, embedding cache disabled", "error", err)
			} else {
				embeddings = services.NewCachedEmbeddings(embeddings, redis.NewClient(opts))
				slog.Info("Embedding cache enabled")
			}
		}
		svcs.Embeddings = embeddings
		slog.Info("OpenAI embeddings adapter initialized")
	}

	// 5. Build orchestrator
	checkpoints := session.NewCheckpointer(cfg.CheckpointCapacity)
	orch := orchestrator.New(svcs, checkpoints)
	slog.Info("Orchestrator initialized", "checkpoint_capacity", cfg.CheckpointCapacity)

	// 6. Start background scheduler
	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(orch)
		if err := sched.Start(); err != nil {
			slog.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
	}

	// 7. Start HTTP server (non-blocking)
	server := api.NewServer(orch, svcs.Store, cfg.SessionTimeout)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Port)
		if err := server.Start(cfg.Port); err != nil {
			errCh <- err
		}
	}()

	// 8. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	exitCode := 0
	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
		exitCode = 1
	}

	// 9. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
		slog.Info("Scheduler stopped")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
		exitCode = 1
	} else {
		slog.Info("HTTP server stopped")
	}

	os.Exit(exitCode)
}
