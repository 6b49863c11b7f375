// Package credstore keeps registered identities in an append-only log.
//
// Identities are immutable once written, there is no update or delete. The
// email is the lookup key and is unique under case-insensitive comparison.
package credstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/andrebq/mailroom/ledger"
)

type (
	Identity struct {
		Email        string    `json:"email"`
		Salt         string    `json:"salt"`
		PasswordHash string    `json:"password_hash"`
		Algorithm    string    `json:"algorithm"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Store struct {
		// serializes the duplicate check with the append that follows it
		mu    sync.Mutex
		log   *ledger.Log
		cache *bigcache.BigCache
	}
)

func Open(path string) (*Store, error) {
	log, err := ledger.OpenLog(path)
	if err != nil {
		return nil, err
	}
	// identities never change, so cached entries can only go stale by
	// eviction, never by mutation
	cache, _ := bigcache.NewBigCache(bigcache.DefaultConfig(10 * time.Minute))
	return &Store{log: log, cache: cache}, nil
}

// FindByEmail returns the identity registered under email, matching
// case-insensitively, or nil when no such identity exists. Records that fail
// to decode are skipped so one corrupt line cannot break every lookup.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	key := strings.ToLower(email)
	if buf, err := s.cache.Get(key); err == nil {
		var id Identity
		if json.Unmarshal(buf, &id) == nil {
			return &id, nil
		}
	}
	var found *Identity
	err := s.log.Scan(ctx, func(line []byte) error {
		var id Identity
		if json.Unmarshal(line, &id) != nil {
			return nil
		}
		if strings.EqualFold(id.Email, email) {
			found = &id
			return ledger.ErrStopScan
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found != nil {
		if buf, err := json.Marshal(found); err == nil {
			s.cache.Set(key, buf)
		}
	}
	// not-found is never cached, a later append must win
	return found, nil
}

// Append durably persists a new identity, rejecting duplicates under
// case-insensitive comparison.
func (s *Store) Append(ctx context.Context, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.FindByEmail(ctx, id.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return DuplicateEmail{Email: id.Email}
	}
	buf, err := json.Marshal(id)
	if err != nil {
		return err
	}
	err = s.log.Append(ctx, buf)
	if err != nil {
		return err
	}
	s.cache.Set(strings.ToLower(id.Email), buf)
	return nil
}

func (s *Store) Close() error {
	return s.log.Close()
}
