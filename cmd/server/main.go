package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/iudanet/livedesk/internal/server/ai"
	"github.com/iudanet/livedesk/internal/server/handlers"
	"github.com/iudanet/livedesk/internal/server/hub"
	"github.com/iudanet/livedesk/internal/server/middleware"
	"github.com/iudanet/livedesk/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", envOr("ADDRESS", "localhost:8080"), "address to listen on")
	dbPath := flag.String("db", envOr("DATABASE_PATH", "livedesk.db"), "path to sqlite database")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	if err := run(logger, *addr, *dbPath); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(jwtSecret),
		AccessTokenTTL:  accessTokenTTL,
		RefreshTokenTTL: refreshTokenTTL,
	}

	logger.Info("opening database", slog.String("path", dbPath))
	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() { _ = rdb.Close() }()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", redisAddr, err)
	}
	logger.Info("connected to redis", slog.String("addr", redisAddr))

	roomHub := hub.New(logger, rdb, store, store, store, hub.Config{})

	notesClient := ai.NewClient(ai.Config{
		APIKey:  os.Getenv("OPENROUTER_API_KEY"),
		BaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		Model:   os.Getenv("OPENROUTER_MODEL"),
	}, logger)

	healthHandler := handlers.NewHealthHandler(logger, Version)
	authHandler := handlers.NewAuthHandler(logger, store, store, jwtConfig)
	subHandler := handlers.NewSubscriptionHandler(logger, store, store)
	aiHandler := handlers.NewAIHandler(logger, notesClient, store, store, store)

	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingWithSkip(logger, []string{"/api/v1/health"}))
	router.Use(middleware.RateLimitByPathMiddleware([]middleware.PathRateLimit{
		{Path: "/api/v1/auth/register", Rate: 5, Window: time.Minute},
		{Path: "/api/v1/auth/login", Rate: 10, Window: time.Minute},
		{Path: "/api/v1/ai/notes", Rate: 30, Window: time.Minute},
	}, 300, time.Minute, logger))

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/salt/{username}", authHandler.GetSalt).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	protected := api.PathPrefix("/").Subrouter()
	protected.Use(middleware.AuthMiddleware(logger, jwtConfig))
	protected.HandleFunc("/subscription", subHandler.GetSubscription).Methods(http.MethodGet)
	protected.HandleFunc("/ai/notes", aiHandler.GenerateNotes).Methods(http.MethodPost)
	protected.HandleFunc("/rooms/{room}/ws", roomHub.ServeRoom).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-exit:
		logger.Info("signal caught, shutting down", slog.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("server listen failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", slog.Any("error", err))
	}

	// Закрываем комнаты после остановки HTTP, чтобы не принимать
	// новые websocket соединения во время сохранения снимков
	if err := roomHub.Close(); err != nil {
		logger.Warn("hub shutdown failed", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printVersion() {
	fmt.Printf("Livedesk Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
