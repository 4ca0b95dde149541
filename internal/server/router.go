package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vowline/vowline/internal/auth"
	"github.com/vowline/vowline/internal/config"
	"github.com/vowline/vowline/internal/handler"
	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/middleware"
	"github.com/vowline/vowline/internal/service"
)

// Store is the persistence surface of the API. Satisfied by
// *repository.Repository and by the in-memory test store.
type Store interface {
	service.AuthStore
	service.CoupleStore
	service.CeremonyStore
	service.InvoiceStore
	service.LegalFormStore
	service.CommunicationStore
	service.TaskStore
	service.EmailTemplateStore
	service.DashboardStore
}

// Denylist records and reports revoked access tokens.
type Denylist interface {
	DenyToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenDenied(ctx context.Context, tokenID string) (bool, error)
}

// Deps are the collaborators the router is assembled from.
type Deps struct {
	Store    Store
	Denylist Denylist
	Limiter  middleware.RateLimiter // nil disables rate limiting

	// Readiness probes. Nil reports "not configured".
	DB    handler.HealthChecker
	Cache handler.HealthChecker

	Clock    service.Clock
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter builds the services and handlers and mounts every route.
func NewRouter(cfg *config.Config, deps Deps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	jwt := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	clock := deps.Clock

	// Services
	authService := service.NewAuthService(deps.Store, jwt, deps.Denylist, service.AuthConfig{
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		MaxAttempts:     cfg.LoginMaxAttempts,
		LockoutWindow:   cfg.LoginLockoutWindow,
	}, clock, recorder, logger)
	coupleService := service.NewCoupleService(deps.Store, clock, recorder, logger)
	ceremonyService := service.NewCeremonyService(deps.Store, clock, recorder, logger)
	invoiceService := service.NewInvoiceService(deps.Store, clock, recorder, logger)
	legalFormService := service.NewLegalFormService(deps.Store, clock, cfg.ComplianceExpiryWindowDays, recorder, logger)
	communicationService := service.NewCommunicationService(deps.Store, clock, recorder, logger)
	taskService := service.NewTaskService(deps.Store, clock, recorder, logger)
	templateService := service.NewEmailTemplateService(deps.Store, clock, recorder, logger)
	dashboardService := service.NewDashboardService(deps.Store, clock, cfg.ComplianceExpiryWindowDays, recorder, logger)

	// Handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Cache, logger)
	authHandler := handler.NewAuthHandler(authService, logger)
	coupleHandler := handler.NewCoupleHandler(coupleService, legalFormService, communicationService, logger)
	ceremonyHandler := handler.NewCeremonyHandler(ceremonyService, logger)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, logger)
	legalFormHandler := handler.NewLegalFormHandler(legalFormService, logger)
	communicationHandler := handler.NewCommunicationHandler(communicationService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	templateHandler := handler.NewEmailTemplateHandler(templateService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)

	r := chi.NewRouter()

	// Global middleware
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(middleware.Metrics(recorder))

	// Health and info endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Method(http.MethodGet, "/metrics", handler.NewMetricsHandler(deps.Gatherer))
	r.Get("/", h.Hello)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: deps.Limiter,
		Metrics: recorder,
		Enabled: cfg.RateLimitEnabled && deps.Limiter != nil,
		RPM:     cfg.RateLimitRPM,
		Burst:   cfg.RateLimitBurst,
	}
	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger:   logger,
		Tokens:   jwt,
		Denylist: deps.Denylist,
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		// Public auth endpoints, limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(rateLimitCfg))
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/refresh", authHandler.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RateLimitUser(rateLimitCfg))

			r.Post("/auth/logout", authHandler.Logout)
			r.Post("/auth/logout-all", authHandler.LogoutAll)
			r.Get("/auth/me", authHandler.Me)

			r.Route("/couples", func(r chi.Router) {
				r.Get("/", coupleHandler.List)
				r.Post("/", coupleHandler.Create)
				r.Get("/{id}", coupleHandler.Get)
				r.Patch("/{id}", coupleHandler.Update)
				r.Delete("/{id}", coupleHandler.Delete)
				r.Get("/{id}/compliance", coupleHandler.Compliance)
				r.Get("/{id}/communications", coupleHandler.ListCommunications)
				r.Post("/{id}/communications", coupleHandler.CreateCommunication)
			})

			r.Route("/ceremonies", func(r chi.Router) {
				r.Get("/", ceremonyHandler.List)
				r.Post("/", ceremonyHandler.Create)
				r.Get("/{id}", ceremonyHandler.Get)
				r.Patch("/{id}", ceremonyHandler.Update)
				r.Delete("/{id}", ceremonyHandler.Delete)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", invoiceHandler.List)
				r.Post("/", invoiceHandler.Create)
				r.Post("/mark-overdue", invoiceHandler.MarkOverdue)
				r.Get("/{id}", invoiceHandler.Get)
				r.Patch("/{id}", invoiceHandler.Update)
				r.Delete("/{id}", invoiceHandler.Delete)
			})

			r.Route("/legal-forms", func(r chi.Router) {
				r.Get("/", legalFormHandler.List)
				r.Post("/", legalFormHandler.Create)
				r.Get("/alerts", legalFormHandler.Alerts)
				r.Get("/{id}", legalFormHandler.Get)
				r.Patch("/{id}", legalFormHandler.Update)
				r.Delete("/{id}", legalFormHandler.Delete)
			})

			r.Delete("/communications/{id}", communicationHandler.Delete)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/{id}", taskHandler.Get)
				r.Patch("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
			})

			r.Route("/email-templates", func(r chi.Router) {
				r.Get("/", templateHandler.List)
				r.Post("/", templateHandler.Create)
				r.Get("/{id}", templateHandler.Get)
				r.Patch("/{id}", templateHandler.Update)
				r.Delete("/{id}", templateHandler.Delete)
				r.Post("/{id}/render", templateHandler.Render)
			})

			r.Get("/dashboard/metrics", dashboardHandler.Metrics)
			r.Get("/dashboard/upcoming", dashboardHandler.Upcoming)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
