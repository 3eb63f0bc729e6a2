package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Limiter is a fixed-window request counter keyed by client address.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window

	name    string
	limit   int
	period  time.Duration
	message string
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

// Config holds rate limiter configuration.
type Config struct {
	Name     string // used in logs
	Requests int
	Window   time.Duration
	Message  string // body of the 429 response
}

// NewLimiter creates a new rate limiter.
func NewLimiter(config Config) *Limiter {
	if config.Requests <= 0 {
		config.Requests = 60
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.Message == "" {
		config.Message = "Too many requests, try again later"
	}
	return &Limiter{
		clients: make(map[string]*window),
		name:    config.Name,
		limit:   config.Requests,
		period:  config.Window,
		message: config.Message,
		now:     time.Now,
	}
}

// Allow counts a request from key and reports whether it fits in the current window,
// along with the requests left and the time until the window resets.
func (l *Limiter) Allow(key string) (allowed bool, remaining int, reset time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.clients[key] = w
	}
	w.count++

	reset = w.start.Add(l.period).Sub(now)
	return w.count <= l.limit, max(l.limit-w.count, 0), reset
}

// Sweep forgets clients whose window has expired and returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.clients {
		if now.Sub(w.start) >= l.period {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of currently tracked clients.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Name returns the limiter's label.
func (l *Limiter) Name() string {
	return l.name
}

// ClientIP returns the address part of r.RemoteAddr. Run chi's RealIP middleware first
// when the service sits behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the limit with 429 and a JSON message.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		allowed, remaining, reset := l.Allow(ip)

		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(l.limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(seconds(reset)))

		if !allowed {
			log.Warn().Str("limiter", l.name).Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			h.Set("Retry-After", strconv.Itoa(seconds(reset)))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"message": l.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
