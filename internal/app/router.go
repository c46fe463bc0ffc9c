package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/coachdesk/coachdesk/internal/activities"
	"github.com/coachdesk/coachdesk/internal/assessments"
	"github.com/coachdesk/coachdesk/internal/attendance"
	"github.com/coachdesk/coachdesk/internal/auth"
	"github.com/coachdesk/coachdesk/internal/dashboard"
	"github.com/coachdesk/coachdesk/internal/enquiries"
	"github.com/coachdesk/coachdesk/internal/expenses"
	"github.com/coachdesk/coachdesk/internal/fees"
	"github.com/coachdesk/coachdesk/internal/notifications"
	"github.com/coachdesk/coachdesk/internal/observability"
	"github.com/coachdesk/coachdesk/internal/platform/httpx"
	"github.com/coachdesk/coachdesk/internal/rbac"
	"github.com/coachdesk/coachdesk/internal/shared"
	"github.com/coachdesk/coachdesk/internal/students"
	"github.com/coachdesk/coachdesk/internal/teachers"
	"github.com/coachdesk/coachdesk/jobs"
	"github.com/coachdesk/coachdesk/report"
	"github.com/coachdesk/coachdesk/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics

	AuthHandler          *auth.Handler
	DashboardHandler     *dashboard.Handler
	StudentsHandler      *students.Handler
	TeachersHandler      *teachers.Handler
	AttendanceHandler    *attendance.Handler
	FeesHandler          *fees.Handler
	ExpensesHandler      *expenses.Handler
	EnquiriesHandler     *enquiries.Handler
	AssessmentsHandler   *assessments.Handler
	ActivitiesHandler    *activities.Handler
	NotificationsHandler *notifications.Handler

	ReportHandler *report.Handler
	JobHandler    *jobs.Handler
}

// NewRouter constructs the chi.Router with coachdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if _, ok := sess.AuthUser(); !ok {
			http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, auth.HomePath, http.StatusSeeOther)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.RBACMiddleware.RequireSignIn)

		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		r.Route("/students", params.StudentsHandler.MountRoutes)
		r.Route("/teachers", params.TeachersHandler.MountRoutes)
		r.Route("/attendance", params.AttendanceHandler.MountRoutes)
		r.Route("/fees", params.FeesHandler.MountRoutes)
		r.Route("/expenses", params.ExpensesHandler.MountRoutes)
		r.Route("/enquiries", params.EnquiriesHandler.MountRoutes)
		r.Route("/assessments", params.AssessmentsHandler.MountRoutes)
		r.Route("/activities", params.ActivitiesHandler.MountRoutes)
		r.Route("/notifications", params.NotificationsHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireRole(shared.RoleAdmin))
			if params.ReportHandler != nil {
				r.Route("/report", params.ReportHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers keep embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
