package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"postergen/internal/http/handlers"
	"postergen/internal/infra/geoip"
	"postergen/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	DefaultLocale   string
	CORSOrigins     []string
	RateLimitPerMin int
	// Countries, when set, picks the copy language for callers that send no
	// language preference.
	Countries geoip.CountryResolver
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.I18NWithCountries(opts.DefaultLocale, opts.Countries),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/styles", app.Styles)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Use(middleware.APIKeyOverride)
		r.Post("/v1/posters", app.PostersGenerate)
		r.Post("/v1/videos", app.VideosGenerate)
	})

	return r
}
