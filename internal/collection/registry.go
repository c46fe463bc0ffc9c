package collection

import (
	"context"
	"sync"
	"time"
)

type closer interface {
	Close()
}

type mounted struct {
	session  string
	view     closer
	lastUsed time.Time
}

// Registry keeps the mounted views of every session. A view lives until its session signs out
// or it stays idle longer than the TTL, mirroring a page being unmounted.
type Registry struct {
	mu    sync.Mutex
	views map[string]*mounted
	ttl   time.Duration
	now   func() time.Time
}

// NewRegistry constructs a Registry evicting views idle for longer than ttl.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{views: make(map[string]*mounted), ttl: ttl, now: time.Now}
}

// Mount returns the session's view for cfg.Name, creating it on first use.
func Mount[T Record](r *Registry, sessionID string, cfg Config[T], api API) *View[T] {
	key := sessionID + "|" + cfg.Name
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if m, ok := r.views[key]; ok {
		if v, ok := m.view.(*View[T]); ok {
			m.lastUsed = now
			return v
		}
		m.view.Close()
	}
	v := NewView(cfg, api)
	r.views[key] = &mounted{session: sessionID, view: v, lastUsed: now}
	return v
}

// Drop unmounts every view of a session and reports how many were removed.
func (r *Registry) Drop(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for key, m := range r.views {
		if m.session == sessionID {
			m.view.Close()
			delete(r.views, key)
			dropped++
		}
	}
	return dropped
}

// Sweep unmounts views idle for longer than the TTL.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	swept := 0
	for key, m := range r.views {
		if m.lastUsed.Before(cutoff) {
			m.view.Close()
			delete(r.views, key)
			swept++
		}
	}
	return swept
}

// Len returns the number of mounted views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
