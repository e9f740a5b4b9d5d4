package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
	)
	if app.Config != nil {
		r.Use(middleware.CORS(app.Config.AllowedOrigins))
	}
	if app.Config != nil && app.Config.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/v1/stats/summary", app.StatsSummary)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.JWTSecret))

		r.Get("/v1/me", app.Me)
		r.Get("/v1/tokens/balance", app.TokenBalance)

		r.Route("/v1/reports", func(r chi.Router) {
			r.Post("/", app.ReportsCreate)
			r.Get("/", app.ReportsList)
			r.Get("/{job_id}", app.ReportStatus)
			r.Get("/{job_id}/download", app.ReportDownload)
			r.Get("/{job_id}/bundle", app.ReportBundle)
		})
	})

	return r
}
