// Package session holds the merge service access token. The token lives in
// an explicit Session backed by an injectable TokenStore.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
)

// Session caches the token read from its store.
type Session struct {
	mu     sync.RWMutex
	store  port.TokenStore
	token  string
	loaded bool
	now    func() time.Time
}

// New creates a session on top of store.
func New(store port.TokenStore) *Session {
	return &Session{store: store, now: time.Now}
}

// Token returns the current token, or "" when signed out. An expired JWT is
// treated as absent.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, err := s.current(ctx)
	if err != nil {
		return "", err
	}
	if exp, ok := ExpiresAt(token); ok && !exp.After(s.now()) {
		return "", nil
	}
	return token, nil
}

// SetToken stores a new token.
func (s *Session) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	s.token, s.loaded = token, true
	return nil
}

// Clear signs out.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	s.token, s.loaded = "", true
	return nil
}

// Status reports whether a usable token is held and when it expires.
func (s *Session) Status(ctx context.Context) (*domain.SessionStatus, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	st := &domain.SessionStatus{Authenticated: token != ""}
	if exp, ok := ExpiresAt(token); ok && st.Authenticated {
		st.ExpiresAt = &exp
	}
	return st, nil
}

func (s *Session) current(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		token, err := s.store.Load(ctx)
		if err != nil {
			return "", fmt.Errorf("loading token: %w", err)
		}
		s.token, s.loaded = token, true
	}
	return s.token, nil
}

// ExpiresAt reads the exp claim of a JWT without verifying it. The merge
// service owns the signing key; this side only needs the expiry. Opaque
// tokens report false.
func ExpiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
