// package session holds the authenticated state injected into the API client and controllers.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/repositories"
)

// Store persists session values between runs.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// History is the recent-search log owned by the session.
type History interface {
	Add(query string) error
	Recent(limit int) ([]models.RecentSearch, error)
	Clear() error
}

// Authenticator performs the login handshake against the API.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	CSRFToken(ctx context.Context) (string, error)
}

// Session carries the bearer token, the CSRF token and the search history.
//
// It implements services.Credentials. Values live in memory and are written
// through to the store so the next [Open] picks them up.
type Session struct {
	mu      sync.RWMutex
	token   string
	csrf    string
	store   Store
	history History
	logger  *log.Logger
}

// Open loads persisted credentials from store. A nil store keeps the session in memory only.
func Open(store Store, history History, logger *log.Logger) (*Session, error) {
	s := &Session{store: store, history: history, logger: logger}
	if store == nil {
		return s, nil
	}

	token, err := store.Get(repositories.SettingToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	csrf, err := store.Get(repositories.SettingCSRF)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	s.token, s.csrf = token, csrf
	return s, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) CSRF() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csrf
}

// Authenticated reports whether a bearer token is present.
func (s *Session) Authenticated() bool { return s.Token() != "" }

// Login stores the token returned by auth, then fetches a CSRF token.
//
// Any previous CSRF token is dropped; a failed fetch leaves the session logged in without one.
func (s *Session) Login(ctx context.Context, auth Authenticator, username, password string) error {
	token, err := auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := s.setToken(token); err != nil {
		return err
	}
	if err := s.setCSRF(""); err != nil {
		return err
	}

	csrf, err := auth.CSRFToken(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("csrf token unavailable", "error", err)
		}
		return nil
	}
	return s.setCSRF(csrf)
}

// Logout clears both tokens.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token, s.csrf = "", ""
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.Delete(repositories.SettingToken, repositories.SettingCSRF)
}

// History returns the recent-search log; it may be nil.
func (s *Session) History() History { return s.history }

func (s *Session) setToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Set(repositories.SettingToken, token)
}

func (s *Session) setCSRF(csrf string) error {
	s.mu.Lock()
	s.csrf = csrf
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Set(repositories.SettingCSRF, csrf)
}
