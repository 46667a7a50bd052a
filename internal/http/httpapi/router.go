package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tryon/internal/http/handlers"
	"tryon/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(app.Logger),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/tryon", func(r chi.Router) {
		r.Post("/", app.TryOnSubmit)
		r.Get("/{job_id}", app.TryOnStatus)
		r.Get("/{job_id}/result", app.TryOnResult)
	})

	return r
}
