package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"studio/internal/http/handlers"
	"studio/internal/middleware"
)

type Options struct {
	Logger             zerolog.Logger
	CORSAllowedOrigins []string
	// RateLimitPerMin caps requests per client IP on /v1; zero disables it.
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))

		r.Route("/v1/assets", func(r chi.Router) {
			r.Get("/", app.ListAssets)
			r.Post("/", app.UploadAsset)
		})

		r.Route("/v1/profiles", func(r chi.Router) {
			r.Get("/", app.ListProfiles)
			r.Post("/", app.CreateProfile)
			r.Get("/{id}", app.GetProfile)
			r.Post("/{id}/analyze", app.AnalyzeProfile)
		})

		r.Route("/v1/renders", func(r chi.Router) {
			r.Post("/", app.CreateRender)
			r.Get("/archive", app.ArchiveRenders)
			r.Get("/{id}", app.GetRender)
		})

		r.Route("/v1/jobs", func(r chi.Router) {
			r.Post("/", app.EnqueueJob)
			r.Get("/{id}", app.GetJob)
		})
	})

	return r
}
