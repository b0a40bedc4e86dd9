// Package auth carries the caller's credential and the HMAC token helpers the
// dev server authenticates with.
package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoCredential = errors.New("no credential available")

// Session is the credential an API client is bound to. It is passed
// explicitly to whatever needs to authenticate; there is no global session.
type Session struct {
	mu     sync.RWMutex
	token  string
	claims *Claims
	now    func() time.Time
}

// NewSession returns a session holding token. An empty token gives an
// anonymous session.
func NewSession(token string) *Session {
	s := &Session{now: time.Now}
	s.Set(token)
	return s
}

// Set replaces the credential. Claims are read without verifying the
// signature; they only serve to know who the session belongs to and when
// it stops being usable. Opaque tokens are kept as is.
func (s *Session) Set(token string) {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "Bearer ")

	var claims *Claims
	if token != "" {
		parsed := &Claims{}
		if _, _, err := jwt.NewParser().ParseUnverified(token, parsed); err == nil {
			claims = parsed
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.claims = claims
}

// Clear drops the credential.
func (s *Session) Clear() {
	s.Set("")
}

// Token returns the credential and whether it is usable.
func (s *Session) Token() (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	if s.claims != nil && s.claims.ExpiresAt != nil && !s.now().Before(s.claims.ExpiresAt.Time) {
		return "", false
	}
	return s.token, true
}

// Authorization returns the Authorization header value.
func (s *Session) Authorization() (string, error) {
	token, ok := s.Token()
	if !ok {
		return "", ErrNoCredential
	}
	return "Bearer " + token, nil
}

// Subject returns the user the token was issued to, if it says.
func (s *Session) Subject() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return ""
	}
	if s.claims.UserID != "" {
		return s.claims.UserID
	}
	return s.claims.Subject
}

func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil || s.claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return s.claims.ExpiresAt.Time, true
}
