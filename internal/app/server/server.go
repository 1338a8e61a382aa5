package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crm/internal/domain/attendance"
	"crm/internal/domain/audit"
	"crm/internal/domain/auth"
	"crm/internal/domain/invoices"
	"crm/internal/domain/leads"
	"crm/internal/domain/leave"
	"crm/internal/domain/notifications"
	"crm/internal/domain/projects"
	"crm/internal/domain/reports"
	"crm/internal/platform/config"
	"crm/internal/platform/db"
	"crm/internal/platform/email"
	"crm/internal/platform/jobs"
	"crm/internal/platform/metrics"
	"crm/internal/platform/realtime"
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
	"crm/internal/transport/http/shared"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Hub     *realtime.Hub
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Router  http.Handler

	bus *realtime.RedisBus
}

// New wires every service onto pool. The returned App owns the Redis bus,
// if one is configured, but not the pool.
func New(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (*App, error) {
	shared.ExposeInternalErrors(!cfg.IsProduction())
	collector := metrics.New()
	proxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	var (
		bus      realtime.Bus
		redisBus *realtime.RedisBus
	)
	if cfg.RedisURL != "" {
		rb, err := realtime.NewRedisBus(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		redisBus, bus = rb, rb
	}
	hub := realtime.NewHub(bus)

	notifier := notifications.New(notifications.NewStore(pool), hub, email.New(cfg), cfg.NotificationTTL)
	notifier.Metrics = collector
	notifier.DefaultFrom = cfg.EmailFrom

	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.JWTTTL)
	projectStore := projects.NewStore(pool)
	converter := projects.NewConverter(projectStore, notifier, collector)
	leadService := leads.NewService(leads.NewStore(pool), converter, authService, notifier)
	projectService := projects.NewService(projectStore, notifier)
	attendanceService := attendance.NewService(attendance.NewStore(pool), notifier, cfg.Location())
	leaveService := leave.NewService(leave.NewStore(pool), notifier)
	invoiceService := invoices.NewService(invoices.NewStore(pool), notifier)
	auditService := audit.New(pool)
	reportService := reports.NewService(reports.NewStore(pool))
	idem := middleware.NewIdempotencyStore(pool)

	jobService := jobs.New(pool)
	jobService.ScheduleConversionReconcile(leadService, cfg.ConversionReconcileInterval)
	jobService.ScheduleNotificationPurge(notifier, cfg.NotificationPurgeInterval)

	handlers := Handlers{
		Auth:          authhandler.NewHandler(authService, auditService),
		Leads:         leadshandler.NewHandler(leadService, auditService, idem),
		Projects:      projectshandler.NewHandler(projectService, auditService),
		Attendance:    attendancehandler.NewHandler(attendanceService, auditService),
		Leave:         leavehandler.NewHandler(leaveService, auditService),
		Invoices:      invoiceshandler.NewHandler(invoiceService, auditService, idem),
		Notifications: notificationshandler.NewHandler(notifier),
		Audit:         audithandler.NewHandler(auditService),
		Reports:       reportshandler.NewHandler(reportService),
		Realtime:      realtimehandler.NewHandler(hub, realtime.NewUpgrader(cfg.CORSAllowedOrigins), cfg.JWTSecret),
	}

	router := NewRouter(RouterConfig{
		JWTSecret:          cfg.JWTSecret,
		IsProduction:       cfg.IsProduction(),
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MetricsEnabled:     cfg.MetricsEnabled,
		TrustedProxies:     proxies,
	}, handlers, pool, collector)

	return &App{
		Config:  cfg,
		DB:      pool,
		Hub:     hub,
		Jobs:    jobService,
		Metrics: collector,
		Router:  router,
		bus:     redisBus,
	}, nil
}

// Serve runs the hub relay, background jobs and the HTTP listener until ctx
// is cancelled, then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	go func() {
		if err := a.Hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("realtime relay stopped", "err", err)
		}
	}()
	a.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown failed", "err", err)
		}
	}()

	slog.Info("CRM server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			slog.Warn("redis bus close failed", "err", err)
		}
	}
}

// Run connects to the database, applies migrations and seed data when
// configured, and serves until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
	}

	app, err := New(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Serve(ctx)
}
