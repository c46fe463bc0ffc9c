package shared

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeSessionsKey = "coachdesk:sessions:active"

// ActiveSessions remembers which sessions signed in recently, scored by sign-in time. The
// dashboard warmup walks it to precompute statistics for people likely to come back.
type ActiveSessions struct {
	client *redis.Client
}

// NewActiveSessions constructs the tracker.
func NewActiveSessions(client *redis.Client) *ActiveSessions {
	return &ActiveSessions{client: client}
}

// Touch records a sign-in for id at now.
func (a *ActiveSessions) Touch(ctx context.Context, id string, now time.Time) error {
	if a == nil || a.client == nil || id == "" {
		return nil
	}
	return a.client.ZAdd(ctx, activeSessionsKey, redis.Z{Score: float64(now.Unix()), Member: id}).Err()
}

// Forget drops id, e.g. on sign-out.
func (a *ActiveSessions) Forget(ctx context.Context, id string) error {
	if a == nil || a.client == nil || id == "" {
		return nil
	}
	return a.client.ZRem(ctx, activeSessionsKey, id).Err()
}

// Since lists sessions touched at or after since and prunes older entries.
func (a *ActiveSessions) Since(ctx context.Context, since time.Time) ([]string, error) {
	if a == nil || a.client == nil {
		return nil, nil
	}
	cutoff := strconv.FormatInt(since.Unix(), 10)
	if err := a.client.ZRemRangeByScore(ctx, activeSessionsKey, "-inf", "("+cutoff).Err(); err != nil {
		return nil, err
	}
	return a.client.ZRangeByScore(ctx, activeSessionsKey, &redis.ZRangeBy{Min: cutoff, Max: "+inf"}).Result()
}
