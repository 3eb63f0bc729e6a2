package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/finance-tracker-be/internal/api/handlers"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/ratelimit"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/isdelr/finance-tracker-be/internal/websocket"
)

// Services groups the business services the routes delegate to.
type Services struct {
	Auth         services.AuthServiceProvider
	Users        services.UserServiceProvider
	Transactions services.TransactionServiceProvider
	Analytics    services.AnalyticsServiceProvider
	Categories   services.CategoryServiceProvider
	Events       services.EventServiceProvider
}

// Limiters holds one rate limiter per route group. A nil limiter disables limiting for its group.
type Limiters struct {
	Auth         *ratelimit.Limiter
	Transactions *ratelimit.Limiter
	Analytics    *ratelimit.Limiter
}

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Services       Services
	Tokens         *auth.TokenIssuer
	Hub            *websocket.Hub
	Limiters       Limiters
	AllowedOrigins []string
	// Headers defaults to DefaultHeadersConfig when left zero.
	Headers        HeadersConfig
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	headers := cfg.Headers
	if headers == (HeadersConfig{}) {
		headers = DefaultHeadersConfig()
	}
	r.Use(SecurityHeaders(headers))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "X-Requested-With", "Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.Services.Auth)
	userHandler := handlers.NewUserHandler(cfg.Services.Users)
	transactionHandler := handlers.NewTransactionHandler(cfg.Services.Transactions)
	analyticsHandler := handlers.NewAnalyticsHandler(cfg.Services.Analytics)
	categoryHandler := handlers.NewCategoryHandler(cfg.Services.Categories)
	eventHandler := handlers.NewEventHandler(cfg.Services.Events)
	wsHandler := handlers.NewWebSocketHandler(cfg.Hub, cfg.Tokens)

	authenticate := auth.Authenticate(cfg.Tokens)
	adminOnly := auth.RequireRoles(models.RoleAdmin)
	canWrite := auth.RequireRoles(models.RoleAdmin, models.RoleUser)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Personal Finance Tracker API"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limit(cfg.Limiters.Auth)).Post("/register", authHandler.Register)
			r.With(limit(cfg.Limiters.Auth)).Post("/login", authHandler.Login)
			r.With(authenticate).Get("/me", authHandler.Me)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Use(authenticate, limit(cfg.Limiters.Transactions))
			r.Get("/", transactionHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(canWrite)
				r.Post("/", transactionHandler.Create)
				r.Patch("/{id}", transactionHandler.Update)
				r.Delete("/{id}", transactionHandler.Delete)
			})
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(authenticate, limit(cfg.Limiters.Analytics))
			r.Get("/monthly", analyticsHandler.Monthly)
			r.Get("/category", analyticsHandler.Category)
			r.Get("/category/chart.png", analyticsHandler.CategoryChart)
			r.Get("/trends", analyticsHandler.Trends)
			r.Get("/trends/chart.png", analyticsHandler.TrendsChart)
			r.Get("/summary", analyticsHandler.Summary)
		})

		r.With(authenticate).Get("/categories", categoryHandler.List)

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate, adminOnly)
			r.Get("/profile", userHandler.List)
			r.Put("/profile/{id}", userHandler.UpdateRole)
		})

		r.With(authenticate, adminOnly).Get("/events", eventHandler.GetRecent)

		// WebSocket connection endpoint; authenticates from the token query parameter.
		r.Get("/ws", wsHandler.Serve)
	})

	return r
}

// limit returns l's middleware, or a pass-through when l is nil.
func limit(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware
}
