package users

import (
	"context"
	"sync"
	"time"

	"github.com/example/trip-sharing/internal/models"
)

// CachedDirectory decorates a Directory with a tiny in-memory TTL
// cache so repeated searches don't re-resolve hot profiles.
// Only successful lookups are cached.
type CachedDirectory struct {
	next Directory
	mu   sync.RWMutex
	ttl  time.Duration

	store map[string]cacheEntry
}

type cacheEntry struct {
	p  models.UserProfile
	ts time.Time
}

// NewCachedDirectory creates the decorator with the provided TTL.
func NewCachedDirectory(next Directory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{next: next, ttl: ttl, store: make(map[string]cacheEntry)}
}

func (c *CachedDirectory) get(userID string) (models.UserProfile, bool) {
	c.mu.RLock()
	e, ok := c.store[userID]
	c.mu.RUnlock()
	if !ok {
		return models.UserProfile{}, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, userID)
		c.mu.Unlock()
		return models.UserProfile{}, false
	}
	return e.p, true
}

func (c *CachedDirectory) set(p models.UserProfile) {
	c.mu.Lock()
	c.store[p.ID] = cacheEntry{p: p, ts: time.Now()}
	c.mu.Unlock()
}

func (c *CachedDirectory) GetUserName(ctx context.Context, userID string) (string, error) {
	p, err := c.GetUserProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

func (c *CachedDirectory) GetUserProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	if p, ok := c.get(userID); ok {
		return p, nil
	}
	p, err := c.next.GetUserProfile(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	c.set(p)
	return p, nil
}
