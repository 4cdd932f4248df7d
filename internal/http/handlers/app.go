package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"postergen/internal/domain"
	"postergen/internal/failure"
	"postergen/internal/session"
)

// Generator is implemented by *session.Session.
type Generator interface {
	Generate(ctx context.Context, in session.Input) (*domain.Document, error)
	GenerateVideo(ctx context.Context, doc *domain.Document) (*domain.VideoAsset, error)
}

type App struct {
	Sessions Generator
}

func NewApp(sessions Generator) *App {
	return &App{Sessions: sessions}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errCode, Message: message})
}

// fail maps a pipeline error onto the HTTP contract.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, errCode := statusFor(err)
	event := zerolog.Ctx(r.Context()).Warn()
	if code >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("kind", failure.KindOf(err).String()).Msg("generation failed")
	a.error(w, code, errCode, err.Error())
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrDocumentIncomplete):
		return http.StatusBadRequest, "bad_request"
	}
	switch failure.KindOf(err) {
	case failure.QuotaExhausted:
		return http.StatusTooManyRequests, "quota_exhausted"
	case failure.TransientServer:
		return http.StatusServiceUnavailable, "upstream_unavailable"
	default:
		return http.StatusUnprocessableEntity, "generation_failed"
	}
}
