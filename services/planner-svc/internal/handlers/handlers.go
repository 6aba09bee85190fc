// services/planner-svc/internal/handlers/handlers.go

// Package handlers реализует HTTP API планировщика поверх chi.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"transit/gen/openapi"
	"transit/pkg/audit"
	"transit/pkg/config"
	"transit/pkg/metrics"
	"transit/pkg/passhash"
	"transit/pkg/ratelimit"
	"transit/pkg/swagger"
	"transit/pkg/telemetry"
	"transit/services/planner-svc/internal/service"
)

// Handler HTTP-обработчики планировщика
type Handler struct {
	svc     *service.PlannerService
	cfg     *config.Config
	jwt     *passhash.JWTManager
	limiter ratelimit.Limiter
	keyFn   ratelimit.KeyExtractor
	auditor audit.Logger
}

// Options дополнительные зависимости обработчиков
type Options struct {
	RateLimiter  ratelimit.Limiter
	KeyExtractor ratelimit.KeyExtractor
	Auditor      audit.Logger
}

// New создаёт обработчики поверх сервиса планировщика
func New(svc *service.PlannerService, cfg *config.Config, opts *Options) *Handler {
	if opts == nil {
		opts = &Options{}
	}

	h := &Handler{
		svc:     svc,
		cfg:     cfg,
		limiter: opts.RateLimiter,
		keyFn:   opts.KeyExtractor,
		auditor: opts.Auditor,
	}

	if h.keyFn == nil {
		h.keyFn = ratelimit.ExtractorByName(cfg.RateLimit.KeyFunc)
	}
	if h.auditor == nil {
		h.auditor = &audit.NoopLogger{}
	}

	if cfg.Auth.Enabled {
		h.jwt = passhash.NewJWTManager(&passhash.JWTConfig{
			SecretKey:          cfg.Auth.JWTSecret,
			AccessTokenExpiry:  cfg.Auth.AccessTokenTTL,
			RefreshTokenExpiry: cfg.Auth.RefreshTokenTTL,
			Issuer:             cfg.Auth.Issuer,
		})
	}

	return h
}

// Routes собирает маршрутизатор API
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(h.requestLogger)
	r.Use(h.httpMetrics)

	if h.cfg.HTTP.CORS.Enabled {
		r.Use(h.cors())
	}

	if h.cfg.Tracing.Enabled {
		r.Use(telemetry.Middleware())
	}

	if h.limiter != nil {
		r.Use(h.rateLimit)
	}

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.health)

	if h.cfg.Metrics.Enabled {
		r.Handle(h.cfg.Metrics.Path, metrics.Handler())
	}

	r.Mount("/swagger", swagger.NewHandler(nil, openapi.MustGetSpec()))

	r.Route("/v1", func(r chi.Router) {
		r.Use(h.auditTrail)

		r.Post("/auth/token", h.issueToken)

		// Чтение
		r.Get("/networks/{networkID}", h.getNetwork)
		r.Get("/networks/{networkID}/maxflow", h.maxFlow)
		r.Get("/networks/{networkID}/best-network", h.bestNetwork)
		r.Get("/networks/{networkID}/history", h.history)
		r.Get("/networks/{networkID}/report", h.report)
		r.Get("/passengers", h.searchPassengers)

		// Изменение состояния требует токена, когда аутентификация включена
		r.Group(func(r chi.Router) {
			if h.cfg.Auth.Enabled {
				r.Use(h.authenticate)
			}

			r.Post("/networks", h.createNetwork)
			r.Delete("/networks/{networkID}", h.deleteNetwork)
			r.Post("/passengers", h.addPassenger)
			r.Post("/checkers/schedule", h.scheduleCheckers)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": h.cfg.App.Name,
		"version": h.svc.Version(),
	})
}
