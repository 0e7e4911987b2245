package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "lumen/internal/adapters/http"
	"lumen/internal/adapters/openai"
	pg "lumen/internal/adapters/postgres"
	"lumen/internal/adapters/rediscache"
	"lumen/internal/config"
	"lumen/internal/platform/logger"
	"lumen/internal/ports"
	questionsvc "lumen/internal/services/questions"
	reportsvc "lumen/internal/services/reports"
	scoringsvc "lumen/internal/services/scoring"
	"lumen/internal/workflow"
)

func main() {
	cfg, cfgErr := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()
	if cfgErr != nil {
		log.Warn("config incomplete", "error", cfgErr)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pg.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal("migrations failed", "error", err)
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db connect failed", "error", err)
	}
	defer db.Close()

	// The gateway is optional: without a key the question generator and
	// scorer run on their deterministic fallbacks.
	var gateway ports.TextGateway
	if cfg.OpenAIAPIKey != "" {
		client, err := openai.NewClient(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Timeout:    time.Duration(cfg.OpenAITimeoutSeconds) * time.Second,
			MaxRetries: cfg.OpenAIMaxRetries,
		}, log)
		if err != nil {
			log.Fatal("openai client init failed", "error", err)
		}
		gateway = client
	} else {
		log.Warn("OPENAI_API_KEY not set, running on deterministic fallbacks")
		gateway = openai.Disabled()
	}

	var cache ports.ReportCache
	if cfg.RedisURL != "" {
		rc, err := rediscache.New(cfg.RedisURL, time.Duration(cfg.ReportCacheTTLSeconds)*time.Second)
		if err != nil {
			log.Fatal("redis init failed", "error", err)
		}
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, report caching disabled", "error", err)
		} else {
			cache = rc
			defer rc.Close()
		}
	}

	questions := questionsvc.New(gateway, log)
	scoring := scoringsvc.New(gateway, log)
	reports := reportsvc.New(db, db, db)
	coordinator := workflow.NewCoordinator(db, db, questions, scoring, reports, log)

	srv := httpadapter.New(db, db, questions, scoring, reports, coordinator, cache, log)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	log.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		log.Fatal("server error", "error", err)
	}
}
