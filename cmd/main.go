package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/club-scoring/brackets"
	"github.com/Dosada05/club-scoring/config"
	"github.com/Dosada05/club-scoring/db"
	"github.com/Dosada05/club-scoring/handlers"
	"github.com/Dosada05/club-scoring/repositories"
	api "github.com/Dosada05/club-scoring/routes"
	"github.com/Dosada05/club-scoring/services"
	"github.com/Dosada05/club-scoring/storage"
)

// @title Club Scoring API
// @version 1.0
// @description Match scoring, group standings, player ratings and knockout brackets for club tournaments.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("strict_set_rules", cfg.StrictSetRules),
		slog.Float64("rating_multiplier", cfg.RatingMultiplier),
	)

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.EnsureSchema(schemaCtx, dbConn)
	cancelSchema()
	if err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")

	var snapshots services.SnapshotPublisher
	r2 := storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2.Enabled() {
		store, err := storage.NewR2Store(context.Background(), r2)
		if err != nil {
			logger.Error("failed to initialize R2 snapshot store", slog.Any("error", err))
			os.Exit(1)
		}
		snapshots = storage.NewSnapshotPublisher(store, logger)
		logger.Info("R2 snapshot publishing enabled", slog.String("bucket", r2.BucketName))
	} else {
		logger.Info("R2 credentials not set, snapshot publishing disabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()

	txManager := repositories.NewPostgresTxManager(dbConn, logger)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	deltaRepo := repositories.NewPostgresRatingDeltaRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)

	standingsService := services.NewStandingsService(services.StandingsServiceDeps{
		Tx:        txManager,
		Matches:   matchRepo,
		Teams:     teamRepo,
		Deltas:    deltaRepo,
		Standings: standingRepo,
		Notifier:  wsHub,
		Snapshots: snapshots,
	}, services.StandingsConfig{
		Points:        cfg.Points,
		DefaultRating: cfg.DefaultRating,
	}, logger)

	bracketService := services.NewBracketService(services.BracketServiceDeps{
		Tx:        txManager,
		Matches:   matchRepo,
		Teams:     teamRepo,
		Standings: standingsService,
		Notifier:  wsHub,
		Snapshots: snapshots,
	}, logger)

	matchService := services.NewMatchService(services.MatchServiceDeps{
		Tx:        txManager,
		Matches:   matchRepo,
		Teams:     teamRepo,
		Deltas:    deltaRepo,
		Standings: standingsService,
		Brackets:  bracketService,
		Notifier:  wsHub,
	}, services.MatchServiceConfig{
		StrictSetRules:   cfg.StrictSetRules,
		DefaultRating:    cfg.DefaultRating,
		RatingMultiplier: cfg.RatingMultiplier,
	}, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Config{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, api.Handlers{
		Match:     handlers.NewMatchHandler(matchService),
		Team:      handlers.NewTeamHandler(services.NewTeamService(teamRepo, cfg.DefaultRating, logger)),
		Standings: handlers.NewStandingsHandler(standingsService),
		Bracket:   handlers.NewBracketHandler(bracketService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, bracketService, cfg.CORSAllowedOrigins, logger),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
