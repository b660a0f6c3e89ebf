package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

var ErrNilSession = errors.New("session is nil")

const (
	defaultStoreTTL = 24 * time.Hour
	sweepInterval   = time.Minute
)

// Store is the persistence contract used by the dialog service.
type Store interface {
	Load(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}

type Config struct {
	TTL time.Duration `envconfig:"TTL" default:"24h"`
}

// StoreOption customizes MemoryStore.
type StoreOption func(*MemoryStore)

// WithTTL sets the idle lifetime of a session. Zero disables eviction.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore keeps sessions in process memory keyed by user id. Sessions are
// copied on Load and Save. An expired session is never returned; the full
// sweep of expired sessions runs at most once per sweepInterval.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[int64]*Session
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore(opts ...StoreOption) (*MemoryStore, error) {
	store := &MemoryStore{
		sessions: make(map[int64]*Session, 64),
		ttl:      defaultStoreTTL,
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if store.ttl < 0 {
		return nil, fmt.Errorf("%w: session ttl must be >= 0", contractx.ErrConfiguration)
	}
	return store, nil
}

func (s *MemoryStore) Load(ctx context.Context, userID int64) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.maybeSweepLocked(now)
	st, ok := s.sessions[userID]
	if !ok {
		return nil, contractx.ErrSessionNotFound
	}
	if s.expired(st, now) {
		delete(s.sessions, userID)
		return nil, contractx.ErrSessionNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, st *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st == nil {
		return ErrNilSession
	}
	if err := st.Validate(); err != nil {
		return fmt.Errorf("save session user_id=%d: %w", st.UserID, err)
	}

	cp := st.Clone()
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[cp.UserID] = cp
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.maybeSweepLocked(now)
	n := 0
	for _, st := range s.sessions {
		if !s.expired(st, now) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(st *Session, now time.Time) bool {
	return s.ttl > 0 && st.UpdatedAt.Before(now.Add(-s.ttl))
}

func (s *MemoryStore) maybeSweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, st := range s.sessions {
		if s.expired(st, now) {
			delete(s.sessions, id)
		}
	}
}
