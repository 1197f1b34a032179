package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/spiceapp/spice-server/internal/errors"
	"github.com/spiceapp/spice-server/internal/metrics"
)

// Registry defaults.
const (
	DefaultMaxSessions = 1000
	DefaultIdleTTL     = 30 * time.Minute
)

// Factory builds a new, empty session.
type Factory func() *Session

// RegistryOptions bounds the number and lifetime of sessions.
type RegistryOptions struct {
	MaxSessions int
	IdleTTL     time.Duration
}

type registryEntry struct {
	session  *Session
	lastUsed time.Time
}

// Registry hands out sessions by opaque handle to callers that cannot hold
// a *Session themselves, such as HTTP clients. Sessions idle for longer
// than the TTL are disposed by Start's sweep loop; when the registry is
// full the least recently used session is evicted.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry

	newSession  Factory
	maxSessions int
	idleTTL     time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewRegistry creates a registry. Non-positive options use the defaults.
func NewRegistry(newSession Factory, opts RegistryOptions, logger *slog.Logger) *Registry {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions:    make(map[string]*registryEntry),
		newSession:  newSession,
		maxSessions: opts.MaxSessions,
		idleTTL:     opts.IdleTTL,
		now:         time.Now,
		logger:      logger,
	}
}

// Create registers a new session and returns its handle.
func (r *Registry) Create() (string, *Session) {
	s := r.newSession()
	handle := uuid.NewString()

	r.mu.Lock()
	var evicted *Session
	if len(r.sessions) >= r.maxSessions {
		evicted = r.evictOldestLocked()
	}
	r.sessions[handle] = &registryEntry{session: s, lastUsed: r.now()}
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	if evicted != nil {
		evicted.Dispose()
	}
	r.logger.Debug("catalog session created", "session_id", handle)
	return handle, s
}

func (r *Registry) evictOldestLocked() *Session {
	var (
		oldest string
		when   time.Time
	)
	for h, e := range r.sessions {
		if oldest == "" || e.lastUsed.Before(when) {
			oldest, when = h, e.lastUsed
		}
	}
	if oldest == "" {
		return nil
	}
	e := r.sessions[oldest]
	delete(r.sessions, oldest)
	metrics.SessionsEvicted.Inc()
	r.logger.Info("catalog session evicted, registry full", "session_id", oldest)
	return e.session
}

// Get returns the session for handle and marks it as used.
func (r *Registry) Get(handle string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[handle]
	if !ok {
		return nil, domainerrors.NotFoundf("session %s not found", handle)
	}
	e.lastUsed = r.now()
	return e.session, nil
}

// Remove disposes and forgets the session for handle.
func (r *Registry) Remove(handle string) error {
	r.mu.Lock()
	e, ok := r.sessions[handle]
	if ok {
		delete(r.sessions, handle)
		metrics.SessionsActive.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()

	if !ok {
		return domainerrors.NotFoundf("session %s not found", handle)
	}
	e.session.Dispose()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// sweep disposes sessions idle for longer than the TTL.
func (r *Registry) sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*Session
	for h, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			expired = append(expired, e.session)
			delete(r.sessions, h)
		}
	}
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range expired {
		s.Dispose()
	}
	if len(expired) > 0 {
		metrics.SessionsEvicted.Add(float64(len(expired)))
		r.logger.Info("idle catalog sessions evicted", "count", len(expired))
	}
	return len(expired)
}

// Start runs the idle sweep until ctx is done, then disposes every session.
// Call it once, in its own goroutine.
func (r *Registry) Start(ctx context.Context) {
	ticker := time.NewTicker(max(r.idleTTL/4, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-ctx.Done():
			r.Close()
			return
		}
	}
}

// Close disposes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*registryEntry)
	metrics.SessionsActive.Set(0)
	r.mu.Unlock()

	for _, e := range sessions {
		e.session.Dispose()
	}
}
