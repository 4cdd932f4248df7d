package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"postergen/internal/domain"
	"postergen/internal/domain/jsoncfg"
)

// maxBodyBytes leaves room for a data-URL encoded reference image.
const maxBodyBytes = 16 << 20

// VideosGenerate blocks until the video is ready and streams the file back.
// Expect several minutes per call.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.VideoJSON
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "title and description are required")
		return
	}
	doc := &domain.Document{
		StructuredContent: domain.StructuredContent{Title: req.Title, Description: req.Description},
	}
	if req.Image != "" {
		// A broken reference image is dropped, not rejected.
		if img, err := domain.ParseDataURL(req.Image); err == nil {
			doc.Image = &img
		}
	}
	// The server-wide write timeout is sized for poster calls. The orchestrator
	// bounds this request through its own poll budget.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		a.fail(w, r, err)
		return
	}
	video, err := a.Sessions.GenerateVideo(r.Context(), doc)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", video.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(video.Data)))
	w.Header().Set("Content-Disposition", `attachment; filename="poster-video.mp4"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(video.Data)
}
