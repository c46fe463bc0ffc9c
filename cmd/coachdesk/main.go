package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/coachdesk/coachdesk/internal/activities"
	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/app"
	"github.com/coachdesk/coachdesk/internal/assessments"
	"github.com/coachdesk/coachdesk/internal/attendance"
	"github.com/coachdesk/coachdesk/internal/auth"
	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/dashboard"
	"github.com/coachdesk/coachdesk/internal/enquiries"
	"github.com/coachdesk/coachdesk/internal/expenses"
	"github.com/coachdesk/coachdesk/internal/fees"
	"github.com/coachdesk/coachdesk/internal/notifications"
	"github.com/coachdesk/coachdesk/internal/observability"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/platform/cache"
	"github.com/coachdesk/coachdesk/internal/rbac"
	"github.com/coachdesk/coachdesk/internal/shared"
	"github.com/coachdesk/coachdesk/internal/students"
	"github.com/coachdesk/coachdesk/internal/teachers"
	"github.com/coachdesk/coachdesk/internal/view"
	"github.com/coachdesk/coachdesk/jobs"
	"github.com/coachdesk/coachdesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, apiclient.WithObserver(metrics))

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	activeSessions := shared.NewActiveSessions(redisClient)
	submissions := shared.NewIdempotencyStore(redisClient, cfg.SubmissionTTL)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	registry := collection.NewRegistry(cfg.ViewIdleTTL)
	go registry.Run(ctx, time.Minute)

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(api, dashboardCache, logger)

	base := pages.NewBase(logger, templates, csrfManager, registry, api, submissions, dashboardService)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	receipts := report.NewClient(cfg.GotenbergURL, cfg.APITimeout)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,

		AuthHandler:          auth.NewHandler(base, auth.NewService(api), sessionManager, activeSessions, jobClient),
		DashboardHandler:     dashboard.NewHandler(base, dashboardService),
		StudentsHandler:      students.NewHandler(base, rbacMiddleware),
		TeachersHandler:      teachers.NewHandler(base, rbacMiddleware),
		AttendanceHandler:    attendance.NewHandler(base, rbacMiddleware),
		FeesHandler:          fees.NewHandler(base, rbacMiddleware, receipts),
		ExpensesHandler:      expenses.NewHandler(base, rbacMiddleware),
		EnquiriesHandler:     enquiries.NewHandler(base, rbacMiddleware),
		AssessmentsHandler:   assessments.NewHandler(base, rbacMiddleware),
		ActivitiesHandler:    activities.NewHandler(base, rbacMiddleware),
		NotificationsHandler: notifications.NewHandler(base, rbacMiddleware),

		ReportHandler: report.NewHandler(receipts, logger),
		JobHandler:    jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("api", cfg.APIBaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
