package users

import (
	"context"
	"errors"
	"sync"

	"github.com/example/trip-sharing/internal/models"
)

var ErrNotFound = errors.New("user not found")

// Directory resolves user IDs to profiles. Lookups may fail
// independently per call; callers decide whether to degrade.
type Directory interface {
	GetUserName(ctx context.Context, userID string) (string, error)
	GetUserProfile(ctx context.Context, userID string) (models.UserProfile, error)
}

// MemoryDirectory is an in-memory Directory for tests and local runs.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]models.UserProfile
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]models.UserProfile)}
}

func (d *MemoryDirectory) Put(p models.UserProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[p.ID] = p
}

func (d *MemoryDirectory) GetUserName(ctx context.Context, userID string) (string, error) {
	p, err := d.GetUserProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

func (d *MemoryDirectory) GetUserProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.users[userID]
	if !ok {
		return models.UserProfile{}, ErrNotFound
	}
	return p, nil
}
