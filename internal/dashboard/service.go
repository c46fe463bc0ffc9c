// Package dashboard assembles the role-specific statistics shown on the home page.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/coachdesk/coachdesk/internal/activities"
	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/fees"
	"github.com/coachdesk/coachdesk/internal/notifications"
	"github.com/coachdesk/coachdesk/internal/shared"
)

// StatsEndpoint serves the role-specific counters.
const StatsEndpoint = "/dashboard/stats"

// sectionSize bounds the short lists shown next to the counters.
const sectionSize = 5

// Overview holds the counters of /dashboard/stats. The API fills the fields relevant to the
// caller's role and leaves the rest zero.
type Overview struct {
	TotalStudents       int     `json:"total_students"`
	ActiveStudents      int     `json:"active_students"`
	TotalTeachers       int     `json:"total_teachers"`
	AttendanceToday     float64 `json:"attendance_today"`
	FeesCollected       float64 `json:"fees_collected"`
	FeesPending         float64 `json:"fees_pending"`
	ExpensesThisMonth   float64 `json:"expenses_this_month"`
	OpenEnquiries       int     `json:"open_enquiries"`
	PendingApprovals    int     `json:"pending_approvals"`
	ClassesToday        int     `json:"classes_today"`
	PendingAssessments  int     `json:"pending_assessments"`
	AttendanceRate      float64 `json:"attendance_rate"`
	FeesDue             float64 `json:"fees_due"`
	UpcomingAssessments int     `json:"upcoming_assessments"`
}

// Net is the month's collections less its expenses.
func (o Overview) Net() float64 { return o.FeesCollected - o.ExpensesThisMonth }

// Stats is one snapshot of the dashboard for a user.
type Stats struct {
	Role                string                       `json:"role"`
	GeneratedAt         time.Time                    `json:"generated_at"`
	Overview            Overview                     `json:"overview"`
	PendingActivities   []activities.Activity        `json:"pending_activities,omitempty"`
	PendingFees         []fees.Fee                   `json:"pending_fees,omitempty"`
	FailedNotifications []notifications.Notification `json:"failed_notifications,omitempty"`
	LatestNotifications []notifications.Notification `json:"latest_notifications,omitempty"`
}

// Service loads dashboard statistics through the API, caching snapshots per user.
type Service struct {
	api    collection.API
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(api collection.API, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, cache: cache, logger: logger, now: time.Now}
}

// Load returns the user's statistics, from cache when a current snapshot exists. Concurrent
// loads of the same snapshot share one set of upstream calls.
func (s *Service) Load(ctx context.Context, cred apiclient.Credential, user shared.AuthUser) (Stats, error) {
	if !cred.Valid() || cred.Expired(s.now()) {
		return Stats{}, collection.ErrSignInRequired
	}
	key, err := s.cache.BuildKey(ctx, user.InstituteID, "stats", user.Role, strconv.FormatInt(user.ID, 10))
	if err != nil {
		s.logger.Warn("dashboard cache key", slog.Any("error", err))
		return s.fetch(ctx, cred, user)
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var stats Stats
		err := s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
			return s.fetch(ctx, cred, user)
		})
		return stats, err
	})
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return Stats{}, fmt.Errorf("%w: %v", collection.ErrSignInRequired, err)
		}
		return Stats{}, err
	}
	return v.(Stats), nil
}

// Invalidate drops every cached snapshot of the user's institute. It implements
// pages.Invalidator, so any successful write refreshes the dashboard.
func (s *Service) Invalidate(ctx context.Context, user shared.AuthUser) {
	if err := s.cache.Bump(ctx, user.InstituteID); err != nil {
		s.logger.Warn("dashboard cache bump", slog.Int64("institute_id", user.InstituteID), slog.Any("error", err))
	}
}

func (s *Service) fetch(ctx context.Context, cred apiclient.Credential, user shared.AuthUser) (Stats, error) {
	stats := Stats{Role: user.Role, GeneratedAt: s.now().UTC()}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.api.Do(ctx, cred, apiclient.Request{Method: http.MethodGet, Path: StatsEndpoint}, &stats.Overview)
	})
	switch {
	case user.HasRole(shared.RoleAdmin):
		g.Go(func() error {
			return s.list(ctx, cred, activities.ListConfig.Endpoint, url.Values{"approval": {"pending"}}, &struct {
				Items *[]activities.Activity `json:"activities" validate:"dive"`
			}{&stats.PendingActivities})
		})
		g.Go(func() error {
			return s.list(ctx, cred, fees.ListConfig.Endpoint, url.Values{"status": {"pending"}, "month": {s.now().Format(fees.MonthLayout)}}, &struct {
				Items *[]fees.Fee `json:"fees" validate:"dive"`
			}{&stats.PendingFees})
		})
		g.Go(func() error {
			return s.list(ctx, cred, notifications.ListConfig.Endpoint, url.Values{"status": {"failed"}}, &struct {
				Items *[]notifications.Notification `json:"notifications" validate:"dive"`
			}{&stats.FailedNotifications})
		})
	case user.HasRole(shared.RoleTeacher):
		g.Go(func() error {
			return s.list(ctx, cred, activities.ListConfig.Endpoint, url.Values{"approval": {"pending"}}, &struct {
				Items *[]activities.Activity `json:"activities" validate:"dive"`
			}{&stats.PendingActivities})
		})
	default:
		g.Go(func() error {
			return s.list(ctx, cred, fees.ListConfig.Endpoint, url.Values{"status": {"pending"}}, &struct {
				Items *[]fees.Fee `json:"fees" validate:"dive"`
			}{&stats.PendingFees})
		})
		g.Go(func() error {
			return s.list(ctx, cred, notifications.ListConfig.Endpoint, nil, &struct {
				Items *[]notifications.Notification `json:"notifications" validate:"dive"`
			}{&stats.LatestNotifications})
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *Service) list(ctx context.Context, cred apiclient.Credential, endpoint string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("page", "1")
	query.Set("per_page", strconv.Itoa(sectionSize))
	return s.api.Do(ctx, cred, apiclient.Request{Method: http.MethodGet, Path: endpoint, Query: query}, out)
}
