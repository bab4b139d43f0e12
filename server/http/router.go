package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/muaazl/product-matcher/internal/config"
	"github.com/muaazl/product-matcher/internal/match/handler"
	"github.com/muaazl/product-matcher/internal/middleware"
	"github.com/muaazl/product-matcher/server/http/handlers"
)

func NewRouter(cfg config.Config, deps handler.Deps, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health(deps.Embedder))
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/match", handler.Match(deps))
	r.Post("/match/json", handler.MatchJSON(deps))

	return r
}
