package chats

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/trip-sharing/internal/models"
)

// seed summary written into a freshly provisioned chat, matching the
// message the requester sees first
const seedMessage = "Trip request accepted!"

// Store provisions chat channels. Ensure is idempotent per
// (trip, owner, requester): the second call returns the existing chat.
type Store interface {
	Ensure(ctx context.Context, tripID, ownerID, requesterID string) (*models.Chat, bool, error)
	Get(ctx context.Context, id string) (*models.Chat, error)
}

func newChat(tripID, ownerID, requesterID string) *models.Chat {
	now := time.Now()
	return &models.Chat{
		ID:           uuid.NewString(),
		TripID:       tripID,
		Participants: [2]string{ownerID, requesterID},
		CreatedAt:    now,
		LastMessage:  models.MessageSummary{Text: seedMessage, SentBy: ownerID, SentAt: now},
		Unread:       map[string]int{requesterID: 1, ownerID: 0},
	}
}

type MemoryStore struct {
	mu    sync.Mutex
	chats map[string]*models.Chat
	byKey map[string]string // (trip,owner,requester) -> chat id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[string]*models.Chat), byKey: make(map[string]string)}
}

func key(tripID, ownerID, requesterID string) string {
	return tripID + "|" + ownerID + "|" + requesterID
}

func (m *MemoryStore) Ensure(ctx context.Context, tripID, ownerID, requesterID string) (*models.Chat, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(tripID, ownerID, requesterID)
	if id, ok := m.byKey[k]; ok {
		return m.chats[id], false, nil
	}
	c := newChat(tripID, ownerID, requesterID)
	m.chats[c.ID] = c
	m.byKey[k] = c.ID
	return c, true, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return nil, ErrChatNotFound
	}
	return c, nil
}
