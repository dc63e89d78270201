package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mandalnilabja/grokway/internal/types"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(limit int, period time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(limit, period)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_FixedWindow(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	for i := 1; i <= 5; i++ {
		d := l.Allow("1.2.3.4")
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if d.Remaining != 5-i {
			t.Errorf("request %d remaining = %d, want %d", i, d.Remaining, 5-i)
		}
	}

	clock.Advance(20 * time.Second)
	d := l.Allow("1.2.3.4")
	if d.Allowed {
		t.Fatal("6th request should be rejected")
	}
	if d.ResetIn != 40*time.Second || d.RetryAfterSeconds() != 40 {
		t.Errorf("ResetIn = %v, RetryAfter = %d, want 40s", d.ResetIn, d.RetryAfterSeconds())
	}

	if !l.Allow("5.6.7.8").Allowed {
		t.Error("other clients must have their own window")
	}

	clock.Advance(40 * time.Second)
	if !l.Allow("1.2.3.4").Allowed {
		t.Error("request after the window should be allowed")
	}
}

func TestDecision_RetryAfterSeconds(t *testing.T) {
	tests := []struct {
		resetIn time.Duration
		want    int
	}{
		{resetIn: 0, want: 1},
		{resetIn: 10 * time.Millisecond, want: 1},
		{resetIn: 1500 * time.Millisecond, want: 2},
		{resetIn: 60 * time.Second, want: 60},
	}
	for _, tt := range tests {
		if got := (Decision{ResetIn: tt.resetIn}).RetryAfterSeconds(); got != tt.want {
			t.Errorf("RetryAfterSeconds(%v) = %d, want %d", tt.resetIn, got, tt.want)
		}
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)

	l.Allow("a")
	clock.Advance(30 * time.Second)
	l.Allow("b")
	clock.Advance(31 * time.Second)

	if removed := l.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if _, ok := l.windows.Load("a"); ok {
		t.Error("expired window should be removed")
	}
	if _, ok := l.windows.Load("b"); !ok {
		t.Error("live window should be kept")
	}
	if !l.Allow("a").Allowed {
		t.Error("swept client should start a fresh window")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(50, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
			if i%10 == 0 {
				l.Sweep()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want exactly 50", allowed)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{name: "forwarded single", xff: "9.9.9.9", remoteAddr: "10.0.0.1:1234", want: "9.9.9.9"},
		{name: "forwarded chain", xff: " 9.9.9.9 , 8.8.8.8", remoteAddr: "10.0.0.1:1234", want: "9.9.9.9"},
		{name: "peer address", remoteAddr: "10.0.0.1:1234", want: "10.0.0.1"},
		{name: "ipv6 peer", remoteAddr: "[::1]:8080", want: "::1"},
		{name: "peer without port", remoteAddr: "10.0.0.1", want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/chat/completions", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware_SixthRequestRejected(t *testing.T) {
	limiter := New(5, time.Minute)
	calls := 0
	handler := Middleware(limiter, slog.New(slog.DiscardHandler), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	var rec *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/chat/completions", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i < 5 && rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i+1, rec.Code)
		}
	}

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("6th request: status %d, want 429", rec.Code)
	}
	if calls != 5 {
		t.Errorf("handler called %d times, want 5", calls)
	}

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 || retryAfter > 60 {
		t.Errorf("Retry-After = %q, want integer in [1,60]", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("RateLimit-Remaining") != "0" {
		t.Errorf("RateLimit-Remaining = %q, want 0", rec.Header().Get("RateLimit-Remaining"))
	}

	var body types.APIError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	want := "Rate limit exceeded. Please try again in " + strconv.Itoa(retryAfter) + " seconds."
	if body.Error.Message != want || body.Error.Type != types.ErrorTypeInvalidRequest {
		t.Errorf("unexpected error body %+v", body.Error)
	}
}
