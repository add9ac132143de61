package studio

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry keeps one Session per browser, keyed by a random session id.
// Sessions live in memory only and are dropped after IdleTTL without use.
type Registry struct {
	gw      Gateway
	log     *zap.Logger
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(gw Gateway, idleTTL time.Duration, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		gw:       gw,
		log:      log,
		idleTTL:  idleTTL,
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) Create() *Session {
	s := NewSession(uuid.New().String(), r.gw, r.log)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.log.Info("Session created", zap.String("session", s.ID))
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Resolve returns the session for id, creating a new one when id is empty
// or unknown. created reports whether a new session was made.
func (r *Registry) Resolve(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := r.Get(id); ok {
			return s, false
		}
	}
	return r.Create(), true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the TTL. Sessions with
// outstanding requests are kept.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.Active() || now.Sub(s.idleSince()) < r.idleTTL {
			continue
		}
		delete(r.sessions, id)
		expired = append(expired, s)
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.closeSubscribers()
	}
	if len(expired) > 0 {
		r.log.Info("Expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		return
	}
	interval := r.idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Wait blocks until background requests in every session have finished.
func (r *Registry) Wait() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.Wait()
	}
}
