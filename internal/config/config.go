package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	Env        string
	ServerPort int

	// Database
	DatabasePath      string
	DBMaxOpenConns    int
	DBConnMaxIdleTime time.Duration

	// Auth
	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	// HTTP
	CORSAllowedOrigins   []string
	AuthRateLimit        RateLimit
	TransactionRateLimit RateLimit
	AnalyticsRateLimit   RateLimit

	// Messaging (optional)
	AMQPURL      string
	AMQPExchange string

	EventRetention time.Duration

	LogLevel  string
	LogFormat string
}

// RateLimit is a fixed-window request budget.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "5000")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	return &Config{
		Env:        getEnv("APP_ENV", "development"),
		ServerPort: port,

		DatabasePath:      getEnv("DATABASE_PATH", "./finance.db"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 20),
		DBConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		BcryptCost:   getEnvInt("BCRYPT_COST", 10),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AuthRateLimit: RateLimit{
			Requests: getEnvInt("AUTH_RATE_LIMIT", 5),
			Window:   getEnvDuration("AUTH_RATE_WINDOW", 15*time.Minute),
		},
		TransactionRateLimit: RateLimit{
			Requests: getEnvInt("TRANSACTION_RATE_LIMIT", 100),
			Window:   getEnvDuration("TRANSACTION_RATE_WINDOW", time.Hour),
		},
		AnalyticsRateLimit: RateLimit{
			Requests: getEnvInt("ANALYTICS_RATE_LIMIT", 50),
			Window:   getEnvDuration("ANALYTICS_RATE_WINDOW", time.Hour),
		},

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finance.events"),

		EventRetention: getEnvDuration("EVENT_RETENTION", 90*24*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}, nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.ServerPort))
	}
	if c.DatabasePath == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if c.DBMaxOpenConns < 1 {
		problems = append(problems, fmt.Sprintf("invalid DB_MAX_OPEN_CONNS %d: must be at least 1", c.DBMaxOpenConns))
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET must be set")
	}
	if c.JWTExpiresIn <= 0 {
		problems = append(problems, fmt.Sprintf("invalid JWT_EXPIRES_IN %v: must be positive", c.JWTExpiresIn))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("invalid BCRYPT_COST %d: must be between 4 and 31", c.BcryptCost))
	}

	limits := map[string]RateLimit{
		"auth":        c.AuthRateLimit,
		"transaction": c.TransactionRateLimit,
		"analytics":   c.AnalyticsRateLimit,
	}
	for _, name := range []string{"auth", "transaction", "analytics"} {
		l := limits[name]
		if l.Requests < 1 || l.Window <= 0 {
			problems = append(problems, fmt.Sprintf("invalid %s rate limit %d/%v: requests and window must be positive", name, l.Requests, l.Window))
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
