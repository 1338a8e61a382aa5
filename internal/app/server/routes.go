package server

import (
	"context"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"crm/internal/platform/metrics"
	"crm/internal/transport/http/api"
	attendancehandler "crm/internal/transport/http/handlers/attendance"
	audithandler "crm/internal/transport/http/handlers/audit"
	authhandler "crm/internal/transport/http/handlers/auth"
	invoiceshandler "crm/internal/transport/http/handlers/invoices"
	leadshandler "crm/internal/transport/http/handlers/leads"
	leavehandler "crm/internal/transport/http/handlers/leave"
	notificationshandler "crm/internal/transport/http/handlers/notifications"
	projectshandler "crm/internal/transport/http/handlers/projects"
	realtimehandler "crm/internal/transport/http/handlers/realtime"
	reportshandler "crm/internal/transport/http/handlers/reports"
	"crm/internal/transport/http/middleware"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	JWTSecret          string
	IsProduction       bool
	AllowedOrigins     []string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
	TrustedProxies     []netip.Prefix
}

type Handlers struct {
	Auth          *authhandler.Handler
	Leads         *leadshandler.Handler
	Projects      *projectshandler.Handler
	Attendance    *attendancehandler.Handler
	Leave         *leavehandler.Handler
	Invoices      *invoiceshandler.Handler
	Notifications *notificationshandler.Handler
	Audit         *audithandler.Handler
	Reports       *reportshandler.Handler
	Realtime      *realtimehandler.Handler
}

func NewRouter(cfg RouterConfig, h Handlers, db Pinger, collector *metrics.Collector) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientIP(cfg.TrustedProxies))
	router.Use(middleware.Logger(collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "X-Unread-Count", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && collector != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	if h.Realtime != nil {
		router.Get("/ws", h.Realtime.HandleConnect)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		r.Post("/auth/login", h.Auth.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			h.Auth.RegisterRoutes(r)
			h.Leads.RegisterRoutes(r)
			h.Projects.RegisterRoutes(r)
			h.Attendance.RegisterRoutes(r)
			h.Leave.RegisterRoutes(r)
			h.Invoices.RegisterRoutes(r)
			h.Notifications.RegisterRoutes(r)
			h.Audit.RegisterRoutes(r)
			h.Reports.RegisterRoutes(r)
		})
	})

	return router
}
