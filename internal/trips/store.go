package trips

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/trip-sharing/internal/models"
)

var (
	ErrTripNotFound     = errors.New("trip not found")
	ErrRequestNotFound  = errors.New("no pending request for requester")
	ErrDuplicateRequest = errors.New("requester already has an open request")
	ErrTripNotActive    = errors.New("trip is not active")
	ErrBadTransition    = errors.New("invalid status transition")
	ErrBadDecision      = errors.New("decision must be accepted or rejected")
)

// Store defines persistence for trips and their embedded requests.
// SubmitRequest and Respond are atomic in every implementation; the
// read-modify-write is owned by the store, never by callers.
type Store interface {
	Create(ctx context.Context, t *models.Trip) error
	Get(ctx context.Context, id string) (*models.Trip, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Trip, error)
	UpdateStatus(ctx context.Context, id string, next models.TripStatus) (*models.Trip, error)
	SubmitRequest(ctx context.Context, tripID string, req models.MatchRequest) (*models.Trip, error)
	Respond(ctx context.Context, tripID, requesterID string, decision models.RequestStatus) (*models.Trip, *models.MatchRequest, error)
	ExpireDue(ctx context.Context, now time.Time) ([]*models.Trip, error)
}

type MemoryStore struct {
	mu    sync.Mutex
	trips map[string]*models.Trip
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trips: make(map[string]*models.Trip)}
}

func (m *MemoryStore) Create(ctx context.Context, t *models.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = cloneTrip(t)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	return cloneTrip(t), nil
}

func (m *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Trip, 0)
	for _, t := range m.trips {
		if t.OwnerID == ownerID {
			out = append(out, cloneTrip(t))
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, next models.TripStatus) (*models.Trip, error) {
	if !next.Valid() {
		return nil, ErrBadTransition
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	if !t.Status.CanTransitionTo(next) {
		return nil, ErrBadTransition
	}
	t.Status = next
	return cloneTrip(t), nil
}

func (m *MemoryStore) SubmitRequest(ctx context.Context, tripID string, req models.MatchRequest) (*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return nil, ErrTripNotFound
	}
	if t.Status != models.TripActive {
		return nil, ErrTripNotActive
	}
	for _, r := range t.Requests {
		if r.RequesterID == req.RequesterID && r.Status != models.RequestRejected {
			return nil, ErrDuplicateRequest
		}
	}
	req.Status = models.RequestPending
	t.Requests = append(t.Requests, req)
	return cloneTrip(t), nil
}

func (m *MemoryStore) Respond(ctx context.Context, tripID, requesterID string, decision models.RequestStatus) (*models.Trip, *models.MatchRequest, error) {
	if decision != models.RequestAccepted && decision != models.RequestRejected {
		return nil, nil, ErrBadDecision
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return nil, nil, ErrTripNotFound
	}
	// latest pending entry for the requester wins
	idx := -1
	for i, r := range t.Requests {
		if r.RequesterID == requesterID && r.Status == models.RequestPending {
			idx = i
		}
	}
	if idx < 0 {
		return nil, nil, ErrRequestNotFound
	}
	t.Requests[idx].Status = decision
	updated := t.Requests[idx]
	return cloneTrip(t), &updated, nil
}

func (m *MemoryStore) ExpireDue(ctx context.Context, now time.Time) ([]*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []*models.Trip
	for _, t := range m.trips {
		if t.Status == models.TripActive && !t.DepartureTime.IsZero() && t.DepartureTime.Before(now) {
			t.Status = models.TripExpired
			expired = append(expired, cloneTrip(t))
		}
	}
	return expired, nil
}

func cloneTrip(t *models.Trip) *models.Trip {
	c := *t
	c.Requests = make([]models.MatchRequest, len(t.Requests))
	copy(c.Requests, t.Requests)
	return &c
}
