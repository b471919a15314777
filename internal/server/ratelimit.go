package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key (IP or API key).
// Buckets idle for longer than the eviction age are dropped.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry

	limit  rate.Limit
	burst  int
	window time.Duration

	done   chan struct{}
	once   sync.Once
	logger *errors.Logger
}

// NewRateLimiter allows cfg.RequestsPerMin requests per cfg.Window (one
// minute when unset) per key, with bursts of up to cfg.BurstCapacity.
func NewRateLimiter(cfg config.RateLimitConfig, logger *errors.Logger) *RateLimiter {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	var limit rate.Limit
	if cfg.RequestsPerMin > 0 {
		limit = rate.Every(window / time.Duration(cfg.RequestsPerMin))
	}

	m := &RateLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		burst:   cfg.BurstCapacity,
		window:  window,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go m.evictLoop(10 * window)
	return m
}

// Allow reports whether a request for key may proceed and, if not, how long
// the client should wait. It never blocks.
func (m *RateLimiter) Allow(key string) (bool, time.Duration) {
	limiter := m.limiterFor(key)
	if limiter.Allow() {
		return true, 0
	}
	reservation := limiter.Reserve()
	defer reservation.Cancel()
	if !reservation.OK() {
		return false, m.window
	}
	return false, reservation.Delay()
}

func (m *RateLimiter) limiterFor(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// GetStats returns current rate limiter statistics
func (m *RateLimiter) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.entries),
		"rate_per_second": float64(m.limit),
		"window":          m.window.String(),
		"burst_capacity":  m.burst,
	}
}

func (m *RateLimiter) evictLoop(maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			m.evictIdle(now, maxIdle)
		case <-m.done:
			return
		}
	}
}

// evictIdle drops the buckets not used since now-maxIdle.
func (m *RateLimiter) evictIdle(now time.Time, maxIdle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if now.Sub(entry.lastSeen) > maxIdle {
			delete(m.entries, key)
		}
	}
	m.logger.Debug("Rate limiter eviction completed", "remaining_limiters", len(m.entries))
}

// Close stops the eviction goroutine. Safe to call more than once.
func (m *RateLimiter) Close() {
	m.once.Do(func() { close(m.done) })
}

// retryAfterSeconds rounds d up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(d.Seconds()))))
}

// rateLimitMiddleware rejects requests over the per-key budget with 429
func (s *Server) rateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			allowed, retryAfter := s.RateLimiter.Allow(key)
			if !allowed {
				limitType, _, _ := strings.Cut(key, ":")
				om.RecordRateLimitHit(r.Context(), limitType)
				s.Logger.Info("Rate limit exceeded",
					"key_type", limitType,
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r),
					"retry_after", retryAfter,
					"request_id", requestIDFrom(r.Context()))
				w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))
				writeErrorResponse(w, r, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if apiKey := extractAPIKey(r); apiKey != "" {
			return "api:" + apiKey
		}
	}

	if byIP {
		return "ip:" + getClientIP(r)
	}

	return ""
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first valid IP from a comma-separated list
func parseFirstIP(ips string) string {
	for ip := range strings.SplitSeq(ips, ",") {
		ip = strings.TrimSpace(ip)
		if parsed := net.ParseIP(ip); parsed != nil {
			return ip
		}
	}
	return ""
}
