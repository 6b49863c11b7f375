package auth

import (
	"context"
	"sync"
)

type (
	memStore struct {
		mu     sync.RWMutex
		tokens map[string]string
	}
)

// InMemoryTokenStore returns a TokenStore backed by a plain process-local
// table. Tokens live until Revoke or process exit, there is no expiry.
func InMemoryTokenStore() TokenStore {
	return &memStore{tokens: map[string]string{}}
}

func (m *memStore) Save(ctx context.Context, token, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = email
	return nil
}

func (m *memStore) Resolve(ctx context.Context, token string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email, found := m.tokens[token]
	return email, found, nil
}

func (m *memStore) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}
