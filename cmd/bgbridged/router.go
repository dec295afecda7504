package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fieldline/bgbridge/internal/api"
	apimiddleware "github.com/fieldline/bgbridge/internal/api/middleware"
	"github.com/fieldline/bgbridge/internal/config"
	"github.com/fieldline/bgbridge/internal/coordinator"
	"github.com/fieldline/bgbridge/internal/registry"
)

// newRouter builds the admin API router.
func newRouter(
	cfg *config.Config,
	reg *registry.Registry,
	coord *coordinator.Coordinator,
	log *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	admin := api.NewAdminHandler(reg, coord, log)

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth.AdminTokenSecret != "" {
			r.Use(apimiddleware.NewAuthMiddleware(cfg.Auth.AdminTokenSecret).Authenticate)
		}
		r.Get("/tasks", admin.ListTasks)
		r.Get("/grants", admin.ListGrants)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
