package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/api"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/config"
	"github.com/isdelr/finance-tracker-be/internal/database"
	"github.com/isdelr/finance-tracker-be/internal/logger"
	"github.com/isdelr/finance-tracker-be/internal/messaging"
	"github.com/isdelr/finance-tracker-be/internal/monitoring"
	"github.com/isdelr/finance-tracker-be/internal/ratelimit"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/isdelr/finance-tracker-be/internal/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Set up database
	if err := database.Migrate(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}
	db, err := database.New(cfg.DatabasePath, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.SeedCategories(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed categories")
	}

	// Set up WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	publishers := []services.Publisher{hub}
	var amqp *messaging.Publisher
	if cfg.AMQPURL != "" {
		amqp, err = messaging.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to message broker")
		}
		publishers = append(publishers, amqp)
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("Publishing events to message broker")
	}

	// Set up services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	eventService := services.NewEventService(db, publishers...)
	userService := services.NewUserService(db, cfg.BcryptCost, eventService)
	authService := services.NewAuthService(userService, tokens)
	transactionService := services.NewTransactionService(db, eventService)
	analyticsService := services.NewAnalyticsService(db)
	categoryService := services.NewCategoryService(db)

	limiters := api.Limiters{
		Auth: ratelimit.NewLimiter(ratelimit.Config{
			Name:     "auth",
			Requests: cfg.AuthRateLimit.Requests,
			Window:   cfg.AuthRateLimit.Window,
			Message:  "Too many authentication attempts, try again later",
		}),
		Transactions: ratelimit.NewLimiter(ratelimit.Config{
			Name:     "transactions",
			Requests: cfg.TransactionRateLimit.Requests,
			Window:   cfg.TransactionRateLimit.Window,
			Message:  "Too many transactions requests, try again later",
		}),
		Analytics: ratelimit.NewLimiter(ratelimit.Config{
			Name:     "analytics",
			Requests: cfg.AnalyticsRateLimit.Requests,
			Window:   cfg.AnalyticsRateLimit.Window,
			Message:  "Too many analytics requests, try again later",
		}),
	}

	// Set up and run the background scheduler
	scheduler := monitoring.NewScheduler(eventService, cfg.EventRetention, limiters.Auth, limiters.Transactions, limiters.Analytics)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	headers := api.DefaultHeadersConfig()
	if !cfg.IsProduction() {
		headers.HSTSMaxAge = 0
	}

	// Set up router
	router := api.NewRouter(api.RouterConfig{
		Services: api.Services{
			Auth:         authService,
			Users:        userService,
			Transactions: transactionService,
			Analytics:    analyticsService,
			Categories:   categoryService,
			Events:       eventService,
		},
		Tokens:         tokens,
		Hub:            hub,
		Limiters:       limiters,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Headers:        headers,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	stopHub()
	if amqp != nil {
		if err := amqp.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close message broker connection")
		}
	}

	log.Info().Msg("Server exiting")
}
