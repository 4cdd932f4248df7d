package handlers

import (
	"net/http"

	"postergen/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Styles lists the poster themes a client can render.
func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"styles":      domain.AllStyles(),
		"accentColor": domain.DefaultAccentColor,
	})
}
