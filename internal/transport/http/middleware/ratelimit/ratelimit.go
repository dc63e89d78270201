// Package ratelimit provides per-client fixed-window rate limiting.
package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mandalnilabja/grokway/internal/metrics"
	"github.com/mandalnilabja/grokway/internal/types"
)

// window counts requests for one client within the current period.
type window struct {
	mu    sync.Mutex
	start time.Time
	count int
	dead  bool // set once swept; callers must load a fresh window
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// RetryAfterSeconds rounds ResetIn up to whole seconds, never below one.
func (d Decision) RetryAfterSeconds() int {
	secs := int(math.Ceil(d.ResetIn.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter tracks a fixed window per client key.
type Limiter struct {
	limit   int
	period  time.Duration
	windows sync.Map // map[key]*window
	now     func() time.Time
}

// New creates a limiter admitting limit requests per period per key.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		period: period,
		now:    time.Now,
	}
}

// Period returns the window length.
func (l *Limiter) Period() time.Duration {
	return l.period
}

// Allow counts a request for key and reports whether it is admitted.
func (l *Limiter) Allow(key string) Decision {
	for {
		now := l.now()
		val, _ := l.windows.LoadOrStore(key, &window{start: now})
		w := val.(*window)

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		if now.Sub(w.start) >= l.period {
			w.start = now
			w.count = 0
		}

		d := Decision{
			Limit:   l.limit,
			ResetIn: w.start.Add(l.period).Sub(now),
		}
		if w.count < l.limit {
			w.count++
			d.Allowed = true
			d.Remaining = l.limit - w.count
		}
		w.mu.Unlock()
		return d
	}
}

// Sweep drops windows that have expired and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()
	removed := 0
	l.windows.Range(func(key, val any) bool {
		w := val.(*window)
		w.mu.Lock()
		if now.Sub(w.start) >= l.period {
			w.dead = true
			l.windows.CompareAndDelete(key, w)
			removed++
		}
		w.mu.Unlock()
		return true
	})
	return removed
}

// ClientIP identifies the caller: the first X-Forwarded-For entry if
// present, else the host part of the peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware enforces the limiter keyed by ClientIP. Rejected requests get
// a 429 error envelope and never reach next.
func Middleware(limiter *Limiter, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			d := limiter.Allow(ip)
			retryAfter := d.RetryAfterSeconds()

			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(retryAfter))

			if !d.Allowed {
				logger.Info("rate limit reached", "client_ip", ip, "retry_after", retryAfter)
				m.IncRateLimited()
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				msg := fmt.Sprintf("Rate limit exceeded. Please try again in %d seconds.", retryAfter)
				types.WriteError(w, http.StatusTooManyRequests, types.ErrInvalidRequest(msg))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
