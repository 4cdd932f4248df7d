package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"postergen/internal/domain"
	"postergen/internal/http/handlers"
	"postergen/internal/session"
)

type stubSessions struct{ locale string }

func (s *stubSessions) Generate(_ context.Context, in session.Input) (*domain.Document, error) {
	s.locale = in.Locale
	return &domain.Document{StructuredContent: domain.StructuredContent{Title: "t"}}, nil
}

func (s *stubSessions) GenerateVideo(context.Context, *domain.Document) (*domain.VideoAsset, error) {
	return &domain.VideoAsset{Data: []byte("v"), MIME: "video/mp4"}, nil
}

func newTestRouter(sessions *stubSessions, limit int) http.Handler {
	return NewRouter(handlers.NewApp(sessions), Options{
		Logger:          zerolog.Nop(),
		DefaultLocale:   "pt-BR",
		CORSOrigins:     []string{"*"},
		RateLimitPerMin: limit,
	})
}

func TestRouterServesPublicRoutes(t *testing.T) {
	r := newTestRouter(&stubSessions{}, 10)
	for _, path := range []string{"/v1/healthz", "/v1/styles", "/v1/openapi.json", "/v1/docs", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("GET %s: missing request id", path)
		}
	}
}

func TestRouterNegotiatesLocaleForPosters(t *testing.T) {
	sessions := &stubSessions{}
	r := newTestRouter(sessions, 10)
	req := httptest.NewRequest(http.MethodPost, "/v1/posters", strings.NewReader(`{"text":"promo"}`))
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if sessions.locale != "en" {
		t.Fatalf("locale = %q, want en", sessions.locale)
	}
}

func TestRouterRateLimitsGeneration(t *testing.T) {
	r := newTestRouter(&stubSessions{}, 1)
	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/posters", strings.NewReader(`{"text":"promo"}`))
		req.RemoteAddr = "203.0.113.50:4000"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.RemoteAddr = "203.0.113.50:4000"
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health should not be rate limited, got %d", rec.Code)
	}
}
