package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/auth"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/config"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/database"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/fitbit"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/llm"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/logging"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/metrics"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/notify"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/pantry"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/planner"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/preferences"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/server"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrapLogger := logging.New(logging.Config{Level: "info", Format: "console"}, os.Stderr)
		bootstrapLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(cfg.Log, os.Stderr)
	ctx := context.Background()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	gemini, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create gemini client")
	}
	defer gemini.Close()

	userRepo := auth.NewUserRepository(db.SQL)
	sessionRepo := auth.NewSessionRepository(db.SQL)
	authService := auth.NewService(userRepo, sessionRepo, cfg.Session.Secret, cfg.Session.TTL)

	prefsRepo := preferences.NewRepository(db.SQL)
	pantryRepo := pantry.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	fitbitClient := fitbit.NewClient(cfg.Fitbit.BaseURL, cfg.Fitbit.Timeout)
	extractor := vision.NewService(gemini)

	telegramNotifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram notifications unavailable")
	}
	var notifier planner.Notifier
	if telegramNotifier != nil {
		notifier = telegramNotifier
	}

	menuPlanner := planner.NewPlanner(
		prefsRepo,
		pantryRepo,
		fitbitClient,
		gemini,
		metricsStore,
		notifier,
		logger,
	)

	handler := server.NewHandler(
		authService,
		menuPlanner,
		extractor,
		pantryRepo,
		prefsRepo,
		metricsStore,
		metricsStore,
		filepath.Dir(cfg.Database.Path),
		logger,
	)
	srv := server.New(cfg.Server, handler, logger)

	go sessionJanitor(ctx, sessionRepo, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server exiting")
}

// sessionJanitor sweeps expired sessions periodically. Expiry is already
// enforced on every read; this only keeps the table from growing.
func sessionJanitor(ctx context.Context, sessions *auth.SessionRepository, logger zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessions.CleanupExpired(ctx, time.Now()); err != nil {
				logger.Warn().Err(err).Msg("session cleanup failed")
			}
		}
	}
}
