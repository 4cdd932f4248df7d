package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"postergen/internal/domain"
	"postergen/internal/domain/jsoncfg"
	"postergen/internal/middleware"
	"postergen/internal/session"
)

type posterResponse struct {
	Version        string `json:"version"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Description    string `json:"description"`
	CallToAction   string `json:"callToAction"`
	Contact        string `json:"contact,omitempty"`
	Link           string `json:"link,omitempty"`
	AccentColor    string `json:"accentColor"`
	Image          string `json:"image,omitempty"`
	ImageGenerated bool   `json:"imageGenerated"`
	Locale         string `json:"locale"`
}

// PostersGenerate refines the text and returns the poster document. The
// background image is best-effort: its absence is not an error.
func (a *App) PostersGenerate(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.PosterJSON
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Normalize(middleware.LocaleFromContext(r.Context()))
	if err := req.Validate(); err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			a.error(w, http.StatusBadRequest, "bad_request", "text is required")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	in := session.Input{
		RawText:     req.Text,
		Contact:     req.Contact,
		Link:        req.Link,
		AccentColor: req.AccentColor,
		Locale:      req.Locale,
	}
	if req.Image != "" {
		img, _ := domain.ParseDataURL(req.Image)
		in.Image = &img
	}

	doc, err := a.Sessions.Generate(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := posterResponse{
		Version:        req.Version,
		Title:          doc.Title,
		Subtitle:       doc.Subtitle,
		Description:    doc.Description,
		CallToAction:   doc.CallToAction,
		Contact:        doc.Contact,
		Link:           doc.Link,
		AccentColor:    doc.AccentColor,
		ImageGenerated: doc.ImageGenerated,
		Locale:         req.Locale,
	}
	if doc.Image != nil && !doc.Image.Empty() {
		resp.Image = doc.Image.DataURL()
	}
	a.json(w, http.StatusOK, resp)
}
