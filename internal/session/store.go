package session

import (
	"sync"
	"time"
)

// Store capacity defaults.
const (
	// DefaultMaxSessions caps the number of live sessions before the
	// least recently used one is evicted.
	DefaultMaxSessions = 1000

	// DefaultIdleTTL is how long an untouched session survives.
	DefaultIdleTTL = 2 * time.Hour

	// sweepInterval bounds how often the inline TTL sweep runs.
	sweepInterval = 5 * time.Minute
)

// StoreConfig configures a Store. Zero values use the defaults above.
type StoreConfig struct {
	// Persona is the system turn seeded into every new transcript.
	Persona string

	// MaxSessions caps live sessions (LRU eviction past the cap).
	MaxSessions int

	// IdleTTL evicts sessions untouched for this long.
	IdleTTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// entry tracks one session plus its bookkeeping.
type entry struct {
	transcript *Transcript
	guard      sync.Mutex
	lastUsed   time.Time
}

// Store owns the session-ID → transcript mapping.
// It is safe for concurrent use and is injected into handlers rather
// than held as process state, so tests get a fresh store each.
//
// Unbounded growth with immortal session IDs is a real operational
// risk, so the store enforces both an LRU cap and an idle TTL.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*entry
	persona   string
	max       int
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewStore creates a session store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		sessions:  make(map[string]*entry),
		persona:   cfg.Persona,
		max:       cfg.MaxSessions,
		ttl:       cfg.IdleTTL,
		now:       cfg.Now,
		lastSweep: cfg.Now(),
	}
}

// GetOrCreate returns the transcript for id, creating and seeding it
// with the persona system turn if the session is unseen.
func (s *Store) GetOrCreate(id string) *Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if e, ok := s.sessions[id]; ok {
		e.lastUsed = now
		return e.transcript
	}

	if len(s.sessions) >= s.max {
		s.evictOldestLocked()
	}

	e := &entry{transcript: newTranscript(s.persona), lastUsed: now}
	s.sessions[id] = e
	return e.transcript
}

// Append adds a turn to an existing session.
// Returns ErrNotFound if the session does not exist — callers must
// call GetOrCreate first.
func (s *Store) Append(id string, turn Turn) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		e.lastUsed = s.now()
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return e.transcript.append(turn)
}

// Reset removes the session, reporting whether it existed.
func (s *Store) Reset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Guard serializes whole-request mutations for one session.
// The returned release function must be called when done.
// The session must exist (call GetOrCreate first); guarding an unknown
// session is a no-op.
func (s *Store) Guard(id string) (release func()) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()

	if !ok {
		return func() {}
	}
	e.guard.Lock()
	return e.guard.Unlock
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweepLocked drops idle sessions. Runs at most once per
// sweepInterval. Caller holds s.mu.
func (s *Store) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	for id, e := range s.sessions {
		if now.Sub(e.lastUsed) > s.ttl {
			delete(s.sessions, id)
		}
	}
	s.lastSweep = now
}

// evictOldestLocked removes the least recently used session.
// Caller holds s.mu.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	first := true
	for id, e := range s.sessions {
		if first || e.lastUsed.Before(oldest) {
			oldestID, oldest = id, e.lastUsed
			first = false
		}
	}
	if !first {
		delete(s.sessions, oldestID)
	}
}
