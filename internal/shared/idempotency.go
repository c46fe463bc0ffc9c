package shared

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionField is the hidden form field carrying a per-render submission key.
const SubmissionField = "submission_id"

// ErrDuplicateSubmission indicates the same form was already submitted.
var ErrDuplicateSubmission = errors.New("duplicate submission")

// IdempotencyStore remembers processed submission keys so a double-clicked form does not
// issue the same mutation twice.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// CheckAndInsert claims key for module. A key seen before yields ErrDuplicateSubmission; an
// empty key is not tracked.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil || s.client == nil || key == "" {
		return nil
	}
	ok, err := s.client.SetNX(ctx, "coachdesk:submission:"+module+":"+key, time.Now().Unix(), s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateSubmission
	}
	return nil
}

// Release forgets key so a failed mutation can be retried with the same form.
func (s *IdempotencyStore) Release(ctx context.Context, key, module string) {
	if s == nil || s.client == nil || key == "" {
		return
	}
	_ = s.client.Del(ctx, "coachdesk:submission:"+module+":"+key).Err()
}
