// Package transport assembles the HTTP surface: middleware chain, health
// and metrics endpoints, and the per-entity routers.
package transport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accounthandler "appaccounts/internal/account/handler"
	"appaccounts/internal/platform/config"
	"appaccounts/internal/platform/middleware"
	producthandler "appaccounts/internal/product/handler"
	servicetypehandler "appaccounts/internal/servicetype/handler"
)

// Handlers groups the per-entity HTTP handlers the router mounts.
type Handlers struct {
	Accounts     *accounthandler.Handler
	ServiceTypes *servicetypehandler.Handler
	Products     *producthandler.Handler
}

// NewRouter builds the full router. Everything under /api/v1 requires a
// valid bearer token; health and metrics stay open.
func NewRouter(h Handlers, validator middleware.JWTValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(config.RequestTimeout))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.RequireAuth(validator, logger))
		api.Mount("/app-accounts", h.Accounts.Routes())
		api.Mount("/service-types", h.ServiceTypes.Routes())
		api.Mount("/products", h.Products.Routes())
	})

	return r
}
