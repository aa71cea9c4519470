package tutor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store maps session keys to sessions. Sessions idle longer than ttl are
// dropped by Sweep; ttl <= 0 keeps them for the life of the process.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	onSweep func(active int)
}

func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Get returns the session for key, creating it on first use.
func (s *Store) Get(key string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		sess = NewSession(key)
		s.sessions[key] = sess
		s.logger.Debug("session created", zap.String("session", key))
	}
	return sess
}

// Lookup is Get without the create side effect.
func (s *Store) Lookup(key string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	return sess, ok
}

func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[key]
	delete(s.sessions, key)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for key, sess := range s.sessions {
		if sess.LastUsed().Before(cutoff) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}

// OnSweep registers fn to receive the session count after every sweep made by
// Run. Must be called before Run.
func (s *Store) OnSweep(fn func(active int)) {
	s.onSweep = fn
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := s.Sweep()
			active := s.Len()
			if n > 0 {
				s.logger.Info("idle sessions removed", zap.Int("removed", n), zap.Int("active", active))
			}
			if s.onSweep != nil {
				s.onSweep(active)
			}
		}
	}
}
