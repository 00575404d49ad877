// Package cache keeps rendered public responses in memory and fronts the deny list of signed-out sessions.
package cache

import (
	"context"
	"errors"
	"fmt"
	"portfolio-site/internal/database"
	"portfolio-site/internal/models"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristrettostore "github.com/eko/gocache/store/ristretto/v4"
)

const denyListEntries = 1 << 16

// Revocations persists signed-out session ids. The in-memory deny list only fronts it.
type Revocations interface {
	InsertRevokedSession(ctx context.Context, revoked *models.RevokedSession) error
	FindRevokedSession(ctx context.Context, sessionId string, revoked *models.RevokedSession) error
}

type Store struct {
	ttl time.Duration

	// generation is bumped by ClearContent; writes of an older generation are dropped
	mu         sync.RWMutex
	generation uint64

	contentClient *ristretto.Cache
	content       *cache.Cache[[]byte]

	revocations Revocations
	denyClient  *ristretto.Cache
	denied      *cache.Cache[bool]
}

func newRistretto(maxEntries int64) (*ristretto.Cache, error) {
	return ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// costs count entries, not bytes
		IgnoreInternalCost: true,
	})
}

// New creates a store holding at most maxEntries content entries, each living for ttl.
// Without revocations the deny list lives in memory only and evicted ids are forgotten.
func New(maxEntries int64, ttl time.Duration, revocations Revocations) (*Store, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxEntries)
	}

	contentClient, err := newRistretto(maxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating content cache: %w", err)
	}
	denyClient, err := newRistretto(denyListEntries)
	if err != nil {
		return nil, fmt.Errorf("creating deny list: %w", err)
	}

	return &Store{
		ttl:           ttl,
		contentClient: contentClient,
		content:       cache.New[[]byte](ristrettostore.NewRistretto(contentClient)),
		revocations:   revocations,
		denyClient:    denyClient,
		denied:        cache.New[bool](ristrettostore.NewRistretto(denyClient)),
	}, nil
}

// Generation identifies the current content of the store. Capture it before loading a
// response and pass it to SetContent.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// GetContent returns the cached response body stored under key
func (s *Store) GetContent(ctx context.Context, key string) ([]byte, bool) {
	body, err := s.content.Get(ctx, key)
	if err != nil || body == nil {
		return nil, false
	}
	return body, true
}

// SetContent caches body under key unless the content was cleared after generation was read.
// It reports whether the body was stored.
func (s *Store) SetContent(ctx context.Context, key string, body []byte, generation uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if generation != s.generation {
		return false, nil
	}
	err := s.content.Set(ctx, key, body, store.WithCost(1), store.WithExpiration(s.ttl))
	if err != nil {
		return false, err
	}
	s.contentClient.Wait()
	return true, nil
}

// ClearContent drops every cached response; the deny list is kept
func (s *Store) ClearContent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	return s.content.Clear(ctx)
}

// Deny marks the session id as signed out until the given time
func (s *Store) Deny(ctx context.Context, sessionId string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	if s.revocations != nil {
		err := s.revocations.InsertRevokedSession(ctx, &models.RevokedSession{SessionID: sessionId, ExpiresAt: until})
		if err != nil {
			return fmt.Errorf("denying session %s: %w", sessionId, err)
		}
	}
	// with revocations a dropped set only means the next lookup goes to the database
	if err := s.remember(ctx, sessionId, ttl); err != nil && s.revocations == nil {
		return fmt.Errorf("denying session %s: %w", sessionId, err)
	}
	return nil
}

func (s *Store) remember(ctx context.Context, sessionId string, ttl time.Duration) error {
	err := s.denied.Set(ctx, sessionId, true, store.WithCost(1), store.WithExpiration(ttl))
	if err != nil {
		return err
	}
	s.denyClient.Wait()
	return nil
}

// IsDenied reports whether the session was signed out. Ids missing from memory are looked up
// in revocations; a failing lookup counts as denied.
func (s *Store) IsDenied(ctx context.Context, sessionId string) bool {
	if denied, err := s.denied.Get(ctx, sessionId); err == nil && denied {
		return true
	}
	if s.revocations == nil {
		return false
	}

	var revoked models.RevokedSession
	err := s.revocations.FindRevokedSession(ctx, sessionId, &revoked)
	if errors.Is(err, database.ErrNotFound) {
		return false
	}
	if err != nil {
		return true
	}

	ttl := time.Until(revoked.ExpiresAt)
	if ttl <= 0 {
		return false
	}
	_ = s.remember(ctx, sessionId, ttl)
	return true
}

func (s *Store) Close() {
	s.contentClient.Close()
	s.denyClient.Close()
}
