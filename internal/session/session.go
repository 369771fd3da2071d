// Package session persists the auth token and user identity between runs
// and notifies subscribers on login and logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/kv"
	"go.uber.org/zap"
)

// Storage keys
const (
	KeyToken = "authToken"
	KeyUser  = "user"
)

// Session is a logged-in identity. User is nil when the stored identity is
// missing or unreadable; the token alone still authenticates calls.
type Session struct {
	Token string
	User  *domain.User
}

// EventType says what changed
type EventType int

const (
	EventLogin EventType = iota + 1
	EventLogout
)

func (t EventType) String() string {
	switch t {
	case EventLogin:
		return "login"
	case EventLogout:
		return "logout"
	}
	return "unknown"
}

// Event is delivered to subscribers after the store was written
type Event struct {
	Type    EventType
	Session *Session
}

// Store reads and writes the session through a kv.Store
type Store struct {
	kv     kv.Store
	logger *zap.Logger

	mu       sync.Mutex
	nextID   int
	handlers map[int]func(Event)
}

// NewStore creates a session store. logger may be nil.
func NewStore(backend kv.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:       backend,
		logger:   logger,
		handlers: make(map[int]func(Event)),
	}
}

// Get returns the current session. Read failures are logged and treated as
// logged out.
func (s *Store) Get() (*Session, bool) {
	ctx := context.Background()

	token, ok, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		s.logger.Warn("failed to read session token", zap.Error(err))
		return nil, false
	}
	if !ok || token == "" {
		return nil, false
	}

	sess := &Session{Token: token}

	raw, ok, err := s.kv.Get(ctx, KeyUser)
	switch {
	case err != nil:
		s.logger.Warn("failed to read session user", zap.Error(err))
	case ok:
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.logger.Warn("discarding unreadable session user", zap.Error(err))
		} else {
			sess.User = &u
		}
	}
	return sess, true
}

// Token returns the bearer token, satisfying client.TokenSource
func (s *Store) Token() (string, bool) {
	sess, ok := s.Get()
	if !ok {
		return "", false
	}
	return sess.Token, true
}

// UserID returns the logged-in member's id when the identity is known
func (s *Store) UserID() (int64, bool) {
	sess, ok := s.Get()
	if !ok || sess.User == nil {
		return 0, false
	}
	return sess.User.ID, true
}

// Set stores a new session and publishes EventLogin
func (s *Store) Set(token string, user *domain.User) error {
	if token == "" {
		return errors.New("session token must not be empty")
	}
	ctx := context.Background()

	if user != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if err := s.kv.Set(ctx, KeyUser, string(raw)); err != nil {
			return err
		}
	} else if err := s.kv.Delete(ctx, KeyUser); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyToken, token); err != nil {
		return err
	}

	s.publish(Event{Type: EventLogin, Session: &Session{Token: token, User: user}})
	return nil
}

// Clear removes both keys and publishes EventLogout. Both removals are
// attempted even if the first fails.
func (s *Store) Clear() error {
	ctx := context.Background()
	errToken := s.kv.Delete(ctx, KeyToken)
	errUser := s.kv.Delete(ctx, KeyUser)

	s.publish(Event{Type: EventLogout})
	return errors.Join(errToken, errUser)
}

// Subscribe registers fn for login and logout events. Handlers run
// synchronously after the write, in no particular order.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.handlers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) publish(e Event) {
	s.mu.Lock()
	handlers := make([]func(Event), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	s.logger.Debug("session changed", zap.Stringer("event", e.Type))
	for _, h := range handlers {
		h(e)
	}
}
