package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/abdolrhman-mo/focusmetricapi/internal/auth"
	"github.com/abdolrhman-mo/focusmetricapi/internal/config"
	"github.com/abdolrhman-mo/focusmetricapi/internal/database"
	"github.com/abdolrhman-mo/focusmetricapi/internal/entry"
	"github.com/abdolrhman-mo/focusmetricapi/internal/feedback"
	"github.com/abdolrhman-mo/focusmetricapi/internal/goal"
	httpServer "github.com/abdolrhman-mo/focusmetricapi/internal/http"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
	"github.com/abdolrhman-mo/focusmetricapi/internal/ratelimit"
	"github.com/abdolrhman-mo/focusmetricapi/internal/reason"
	"github.com/abdolrhman-mo/focusmetricapi/internal/stats"
	"github.com/abdolrhman-mo/focusmetricapi/internal/user"
)

// @title           FocusMetric API
// @version         1.0
// @description     A personal focus-tracking REST API with Google sign-in, daily entries, reasons, goals, and statistics.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Token" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	sessionRepo := auth.NewRedisSessionRepository(redisClient)
	goalRepo := goal.NewRepository(db)
	reasonRepo := reason.NewRepository(db)
	entryRepo := entry.NewRepository(db)
	statsRepo := stats.NewRepository(db)
	feedbackRepo := feedback.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize Google token verifier
	verifier := auth.NewGoogleVerifier(cfg.Auth.GoogleClientID)

	// Initialize services
	authService := auth.NewService(
		userRepo,
		sessionRepo,
		goalRepo,
		verifier,
		logger,
		cfg.Auth.SessionTokenDuration,
	)
	entryService := entry.NewService(entryRepo)
	statsService := stats.NewService(statsRepo)

	// Initialize HTTP handlers
	handlers := httpServer.Handlers{
		Auth:     auth.NewHandler(authService, rateLimiter, logger),
		Reason:   reason.NewHandler(reasonRepo),
		Entry:    entry.NewHandler(entryService),
		Goal:     goal.NewHandler(goalRepo),
		Stats:    stats.NewHandler(statsService),
		Feedback: feedback.NewHandler(feedbackRepo, rateLimiter),
	}
	authMiddleware := auth.NewMiddleware(sessionRepo)

	// Initialize router
	router := httpServer.NewRouter(cfg, handlers, authMiddleware, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
