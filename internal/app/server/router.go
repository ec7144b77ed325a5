package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payslipgen/internal/platform/config"
	"payslipgen/internal/platform/metrics"
	"payslipgen/internal/transport/http/api"
	audithandler "payslipgen/internal/transport/http/handlers/audit"
	authhandler "payslipgen/internal/transport/http/handlers/auth"
	paysliphandler "payslipgen/internal/transport/http/handlers/payslip"
	"payslipgen/internal/transport/http/middleware"
)

// AuditLog records payslip activity and serves it back to operators.
type AuditLog interface {
	paysliphandler.AuditRecorder
	audithandler.Service
}

// Deps is everything the HTTP surface needs. Ready reports whether backing
// services answer; nil means always ready.
type Deps struct {
	Config      config.Config
	Log         *zap.Logger
	Metrics     *metrics.Collector
	Payslips    paysliphandler.Service
	Renderer    paysliphandler.Renderer
	Issuer      authhandler.TokenIssuer
	Audit       AuditLog
	Idempotency *middleware.IdempotencyStore
	Ready       func(ctx context.Context) error
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log, deps.Metrics))
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				log.Warn("readiness check failed", zap.Error(err))
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && deps.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, deps.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, middleware.WithRateLimitLogger(log)))

		if deps.Issuer != nil {
			authhandler.NewHandler(deps.Issuer, log).RegisterRoutes(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret != ""))
			r.Use(middleware.Idempotency(deps.Idempotency, deps.Metrics, log))
			var recorder paysliphandler.AuditRecorder
			if deps.Audit != nil {
				recorder = deps.Audit
				audithandler.NewHandler(deps.Audit, log).RegisterRoutes(r)
			}
			paysliphandler.NewHandler(deps.Payslips, deps.Renderer, recorder, deps.Metrics, log).RegisterRoutes(r)
		})
	})

	return router
}
