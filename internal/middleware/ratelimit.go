package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// limiter is a token bucket per client. Each client may burst up to limit
// requests and regains limit tokens per window.
type limiter struct {
	mu      sync.Mutex
	limit   float64
	rate    float64 // tokens per second
	idle    time.Duration
	now     func() time.Time
	clients map[string]*visitor
	sweep   time.Time
}

type visitor struct {
	tokens float64
	last   time.Time
}

func newLimiter(limit int, per time.Duration) *limiter {
	return &limiter{
		limit:   float64(limit),
		rate:    float64(limit) / per.Seconds(),
		idle:    per,
		now:     time.Now,
		clients: make(map[string]*visitor),
	}
}

// allow takes a token for key. When none is left it returns the wait until
// the next one.
func (l *limiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.sweep) > l.idle {
		for k, v := range l.clients {
			if now.Sub(v.last) > l.idle {
				delete(l.clients, k)
			}
		}
		l.sweep = now
	}

	v, ok := l.clients[key]
	if !ok {
		v = &visitor{tokens: l.limit, last: now}
		l.clients[key] = v
	}
	v.tokens = math.Min(l.limit, v.tokens+now.Sub(v.last).Seconds()*l.rate)
	v.last = now
	if v.tokens < 1 {
		return false, time.Duration((1 - v.tokens) / l.rate * float64(time.Second))
	}
	v.tokens--
	return true, 0
}

// RateLimit allows each client IP limit requests per window, with bursts of
// up to limit.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(limit, per)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.allow(ClientIP(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","message":"too many requests, slow down"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first valid address in X-Forwarded-For, else the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
