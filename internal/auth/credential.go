package auth

import (
	"sync"
	"time"
)

// Credential is a snapshot of the OAuth token state.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Usable reports whether the access token can still be presented at now,
// treating the last leeway before expiry as already expired.
func (c Credential) Usable(now time.Time, leeway time.Duration) bool {
	if c.AccessToken == "" || c.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(c.ExpiresAt.Add(-leeway))
}

// TokenStore guards the credential. The access token and its expiry are
// always replaced together.
type TokenStore struct {
	mu   sync.RWMutex
	cred Credential
}

func NewTokenStore(seedRefresh string) *TokenStore {
	return &TokenStore{cred: Credential{RefreshToken: seedRefresh}}
}

func (s *TokenStore) Load() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

func (s *TokenStore) Store(c Credential) {
	s.mu.Lock()
	s.cred = c
	s.mu.Unlock()
}

// apply merges a token response into the store. An empty refresh token keeps
// the previous one.
func (s *TokenStore) apply(access, refresh string, expiresAt time.Time) Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred.AccessToken = access
	s.cred.ExpiresAt = expiresAt
	if refresh != "" {
		s.cred.RefreshToken = refresh
	}
	return s.cred
}
