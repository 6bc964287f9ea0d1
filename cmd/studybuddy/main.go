package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rachitsh/studybuddy/internal/config"
	"github.com/rachitsh/studybuddy/internal/engine"
	"github.com/rachitsh/studybuddy/internal/history"
	"github.com/rachitsh/studybuddy/internal/httpapi"
	"github.com/rachitsh/studybuddy/internal/logging"
	"github.com/rachitsh/studybuddy/internal/observability"
	"github.com/rachitsh/studybuddy/internal/tutor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger configuration lives in cfg, so this one goes to stderr raw.
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New("studybuddy", cfg.LogLevel, cfg.LogPretty)
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	historyStore, err := history.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("history store init failed")
	}
	defer historyStore.Close()
	if cfg.DatabaseURL == "" {
		log.Info().Msg("no DATABASE_URL set, history kept in memory")
	}

	tutorClient := tutor.NewClient(tutor.GeminiConfig{
		APIKey:       cfg.GeminiAPIKey,
		BaseURL:      cfg.GeminiBaseURL,
		Model:        cfg.GeminiModel,
		MaxRetries:   cfg.TutorRetries,
		RetryBackoff: cfg.TutorBackoff,
	})
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("no GEMINI_API_KEY set, using the mock tutor")
	}

	sessions := engine.NewManager(engine.ManagerConfig{
		Tutor:             tutorClient,
		History:           historyStore,
		Metrics:           metrics,
		Logger:            log,
		InactivityTimeout: cfg.SessionInactivityTimeout,
		ClearOnLogout:     cfg.ClearOnLogout,
	})

	api := httpapi.New(cfg, sessions, historyStore, metrics, log)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 30*time.Second)

	go func() {
		log.Info().Str("addr", cfg.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	log.Info().Msg("shutdown complete")
}
