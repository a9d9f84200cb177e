package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/cache"
	"github.com/jne-ops/opsboard-api/internal/models"
)

// Store holds the active session user, backed by the cache's session slot
// so a restart does not log the operator out.
type Store struct {
	cache  cache.Port
	logger *zap.Logger

	mu      sync.Mutex
	current *models.User
}

// New restores any persisted session from the cache slot.
func New(port cache.Port, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{cache: port, logger: logger}
	if saved, err := port.ReadSession(); err == nil && saved != nil {
		s.current = saved
	}
	return s
}

// Current returns the active session user, or nil when logged out.
func (s *Store) Current() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// ActorName returns the display name for audit entries.
func (s *Store) ActorName() string {
	if u := s.Current(); u != nil {
		return u.Name
	}
	return "Unknown"
}

// Resolve authenticates against the canonical user list. The submitted
// record is never trusted; the canonical record for the matching email is
// what enters the session.
func (s *Store) Resolve(email, password string, users []models.User) (*models.User, bool) {
	canonical, ok := models.FindUser(users, email)
	if !ok || canonical.Password != password {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &canonical
	if err := s.cache.WriteSession(&canonical); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
	u := canonical
	return &u, true
}

// Refresh reconciles the session against a freshly loaded user list. When
// the canonical password differs — a reset or change made elsewhere — the
// session silently adopts the new record, so no re-login is forced.
func (s *Store) Refresh(users []models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	canonical, ok := models.FindUser(users, s.current.Email)
	if !ok {
		return
	}
	if canonical.Password != s.current.Password {
		s.current = &canonical
		if err := s.cache.WriteSession(&canonical); err != nil {
			s.logger.Warn("failed to persist refreshed session", zap.Error(err))
		}
	}
}

// Clear ends the session and wipes the persisted slot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if err := s.cache.ClearSession(); err != nil {
		s.logger.Warn("failed to clear session slot", zap.Error(err))
	}
}
