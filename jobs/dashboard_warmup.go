package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/dashboard"
	jobmetrics "github.com/coachdesk/coachdesk/internal/jobs"
	"github.com/coachdesk/coachdesk/internal/shared"
)

// DefaultLookback bounds how far back the cron warmup looks for sign-ins.
const DefaultLookback = 2 * time.Hour

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// StatsLoader loads, and thereby caches, one user's dashboard.
type StatsLoader interface {
	Load(ctx context.Context, cred apiclient.Credential, user shared.AuthUser) (dashboard.Stats, error)
}

// SessionStore reads stored sessions by id.
type SessionStore interface {
	Lookup(ctx context.Context, id string) (*shared.Session, error)
}

// DashboardWarmupJob fills the dashboard cache for recently signed-in sessions so the first
// page view after a write or a cache expiry is served from Redis.
type DashboardWarmupJob struct {
	Stats    StatsLoader
	Sessions SessionStore
	Active   *shared.ActiveSessions
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Lookback time.Duration
	clock    func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(stats StatsLoader, sessions SessionStore, active *shared.ActiveSessions, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Stats:    stats,
		Sessions: sessions,
		Active:   active,
		Logger:   logger,
		Metrics:  metrics,
		Lookback: DefaultLookback,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Stats == nil || j.Sessions == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	now := j.now()
	ids := []string{payload.SessionID}
	if payload.SessionID == "" {
		var err error
		if ids, err = j.Active.Since(ctx, now.Add(-j.lookback())); err != nil {
			resultErr = err
			j.logger().Error("list active sessions", slog.Any("error", err))
			return resultErr
		}
	}

	warmed := 0
	for _, id := range ids {
		ok, err := j.warmSession(ctx, id, now)
		if err != nil {
			// One stale session must not starve the rest; the last error marks the run failed.
			resultErr = err
			j.logger().Warn("warm session", slog.String("session_id", id), slog.Any("error", err))
			continue
		}
		if ok {
			warmed++
		}
	}
	j.logger().Info("completed dashboard warmup", slog.Int("sessions", len(ids)), slog.Int("warmed", warmed), slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *DashboardWarmupJob) warmSession(ctx context.Context, id string, now time.Time) (bool, error) {
	sess, err := j.Sessions.Lookup(ctx, id)
	if err != nil {
		return false, err
	}
	if sess == nil {
		j.forget(ctx, id)
		return false, nil
	}
	cred := sess.Credential()
	user, ok := sess.AuthUser()
	if !ok || !cred.Valid() || cred.Expired(now) {
		j.forget(ctx, id)
		return false, nil
	}

	scoped, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if _, err := j.Stats.Load(scoped, cred, user); err != nil {
		if errors.Is(err, collection.ErrSignInRequired) {
			j.forget(ctx, id)
			return false, nil
		}
		return false, err
	}
	j.metrics().AddWarmed(user.Role)
	return true, nil
}

// forget drops id from the active set. A failure only means the id is retried next run.
func (j *DashboardWarmupJob) forget(ctx context.Context, id string) {
	if err := j.Active.Forget(ctx, id); err != nil {
		j.logger().Warn("forget session", slog.String("session_id", id), slog.Any("error", err))
	}
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) lookback() time.Duration {
	if j.Lookback > 0 {
		return j.Lookback
	}
	return DefaultLookback
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
