package session

import (
	"log/slog"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/pending"
)

// Store is the explicit state of one signed-in session: the user, its token,
// the last applied cart snapshot and the pending-operation tracker.
// Init starts a session and Teardown ends it.
type Store struct {
	mu      sync.RWMutex
	user    *domain.User
	token   string
	active  bool
	cart    *domain.Cart
	seq     uint64
	applied uint64
	epoch   uint64
	hooks   []func()

	tracker *pending.Tracker
	log     *slog.Logger
}

func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{tracker: pending.New(), log: log}
}

// Init starts a session for u. A session that is still active is torn down
// first.
func (s *Store) Init(u *domain.User, token string) {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()
	if active {
		s.Teardown()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	if u != nil {
		cp := *u
		s.user = &cp
	}
	s.token = token
	s.active = true
	s.cart = nil
	s.applied = s.seq
	s.epoch++
	s.log.Info("session started", "user", s.userID(), "role", domain.RoleOf(s.user))
}

// Teardown ends the session. Outstanding operations are abandoned so their
// completions do not touch the next session, and teardown hooks run.
func (s *Store) Teardown() {
	s.mu.Lock()
	uid := s.userID()
	s.user = nil
	s.token = ""
	s.active = false
	s.cart = nil
	s.applied = s.seq
	s.epoch++
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()

	n := s.tracker.AbandonAll()
	for _, h := range hooks {
		h()
	}
	s.log.Info("session ended", "user", uid, "abandoned", n)
}

// OnTeardown registers fn to run on every Teardown.
func (s *Store) OnTeardown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Store) userID() domain.EntityID {
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// User returns a copy of the signed-in user, nil when signed out.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	cp := *s.user
	return &cp
}

// Token implements the transport's token source.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Epoch changes on every Init and Teardown. Work started under one epoch
// must not write session-scoped state under another.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// UpdateUser replaces the signed-in user's details, keeping the session.
// It is a no-op when no session is active or u is someone else.
func (s *Store) UpdateUser(u *domain.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || u == nil || s.user == nil || u.ID != s.user.ID {
		return false
	}
	cp := *u
	if cp.Role == "" {
		cp.Role = s.user.Role
	}
	s.user = &cp
	return true
}

// Cart returns the last applied cart snapshot, nil before the first read.
func (s *Store) Cart() *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

// NextCartSeq issues the sequence number for a cart read that is about to
// start.
func (s *Store) NextCartSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// ApplyCart stores c unless a newer read was already applied or the session
// that issued seq has ended. It reports whether c was applied.
func (s *Store) ApplyCart(seq uint64, c *domain.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || seq <= s.applied {
		s.log.Debug("discarding stale cart snapshot", "seq", seq, "applied", s.applied, "active", s.active)
		return false
	}
	s.applied = seq
	s.cart = c
	return true
}

func (s *Store) Pending() *pending.Tracker { return s.tracker }
