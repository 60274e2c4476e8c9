package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cloudyy74/frappe-user-admin/internal/screen"
)

const defaultMaxSessions = 1024

// Factory builds the screen for a new session.
type Factory func(sessionID string) (*screen.Screen, error)

type Gauge interface {
	SetSessions(n int)
}

// Store keeps one screen per browser session. The least recently used
// session is dropped once the store is full.
type Store struct {
	mu      sync.Mutex
	cache   *lru.Cache[string, *screen.Screen]
	factory Factory
	gauge   Gauge
	log     *slog.Logger
}

func NewStore(maxSessions int, factory Factory, gauge Gauge, log *slog.Logger) (*Store, error) {
	if factory == nil {
		return nil, errors.New("screen factory cannot be nil")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	s := &Store{
		factory: factory,
		gauge:   gauge,
		log:     log,
	}
	cache, err := lru.NewWithEvict(maxSessions, func(id string, _ *screen.Screen) {
		s.log.Debug("session evicted", slog.String("session", id))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// Get returns the screen for id, creating a session when id is empty or
// unknown. The returned bool reports whether a new session was started.
func (s *Store) Get(id string) (*screen.Screen, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if scr, ok := s.cache.Get(id); ok {
			return scr, false, nil
		}
	}

	id = uuid.NewString()
	scr, err := s.factory(id)
	if err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}
	s.cache.Add(id, scr)
	s.report()
	s.log.Debug("session started", slog.String("session", id))
	return scr, true, nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) report() {
	if s.gauge != nil {
		s.gauge.SetSessions(s.cache.Len())
	}
}
