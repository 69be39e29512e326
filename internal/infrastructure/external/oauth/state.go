package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// stateTTL bounds how long a consent redirect may stay pending before its
// callback is rejected.
const stateTTL = 15 * time.Minute

// Store is the minimal TTL key-value surface the state manager needs.
type Store interface {
	Set(key string, value string, expiration time.Duration)
	Get(key string) (string, bool)
	Delete(key string)
}

// StateManager issues and checks the one-time CSRF tokens carried through
// the calendar consent redirect.
type StateManager struct {
	store Store
}

// NewStateManager wraps a TTL store
func NewStateManager(store Store) *StateManager {
	return &StateManager{store: store}
}

// GenerateState issues a random token valid for a single callback
func (sm *StateManager) GenerateState() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	sm.store.Set("authstate:"+token, time.Now().UTC().Format(time.RFC3339), stateTTL)
	return token, nil
}

// ValidateState accepts a token exactly once. Unknown, expired and replayed
// tokens all fail identically.
func (sm *StateManager) ValidateState(state string) bool {
	if state == "" {
		return false
	}
	key := "authstate:" + state
	if _, ok := sm.store.Get(key); !ok {
		return false
	}
	sm.store.Delete(key)
	return true
}
