package opentdb

import (
	"context"
	"log"
	"sync"
)

// TokenRequester issues session tokens
type TokenRequester interface {
	RequestToken(ctx context.Context) (string, error)
}

// Session holds the session token used for batch fetches. The remote source
// never serves the same question twice to one token; once a token is
// exhausted it reports code 4 and the session must be reset.
type Session struct {
	requester TokenRequester

	mu     sync.Mutex
	token  string
	resets int
}

// NewSession creates a session without a token. Call Acquire before use.
func NewSession(requester TokenRequester) *Session {
	return &Session{requester: requester}
}

// Acquire returns the current token, requesting one if none is held
func (s *Session) Acquire(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}
	return s.request(ctx)
}

// Reset discards the current token and requests a new one
func (s *Session) Reset(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resets++
	return s.request(ctx)
}

func (s *Session) request(ctx context.Context) (string, error) {
	token, err := s.requester.RequestToken(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	log.Printf("   New token acquired: %s", token)
	return token, nil
}

// Token returns the current token, empty if none has been acquired
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Resets returns how many times Reset has been called
func (s *Session) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}
