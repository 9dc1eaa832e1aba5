package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TripStatus is the closed set of lifecycle states for a trip.
// Transitions are one-directional: active may move to any terminal
// state, terminal states never change again.
type TripStatus string

const (
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
	TripExpired   TripStatus = "expired"
)

func (s TripStatus) Valid() bool {
	switch s {
	case TripActive, TripCompleted, TripCancelled, TripExpired:
		return true
	}
	return false
}

func (s TripStatus) Terminal() bool { return s != TripActive && s.Valid() }

func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	return s == TripActive && next.Terminal()
}

// RequestStatus is the state of a match request: pending until the trip
// owner decides, then accepted or rejected, never back.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected:
		return true
	}
	return false
}

type Trip struct {
	ID                   string         `json:"id"`
	OwnerID              string         `json:"owner_id"`
	StartPoint           Coord          `json:"start_point"`
	EndPoint             Coord          `json:"end_point"`
	StartLabel           string         `json:"start_label"`
	EndLabel             string         `json:"end_label"`
	DepartureTime        time.Time      `json:"departure_time"`
	Status               TripStatus     `json:"status"`
	CreatedAt            time.Time      `json:"created_at"`
	AvailableForDelivery bool           `json:"available_for_delivery"`
	Requests             []MatchRequest `json:"requests"`
}

// MatchRequest is embedded in a trip's request list. Entries are
// append-only; only Status is mutated in place.
type MatchRequest struct {
	RequesterID      string        `json:"requester_id"`
	PickupLabel      string        `json:"pickup_label"`
	DestinationLabel string        `json:"destination_label"`
	Status           RequestStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
}

// TripPoint is what the geo index returns: a trip's identity, its
// indexed start point, metadata needed for filtering, and the distance
// from the query center.
type TripPoint struct {
	TripID        string     `json:"trip_id"`
	OwnerID       string     `json:"owner_id"`
	Status        TripStatus `json:"status"`
	StartPoint    Coord      `json:"start_point"`
	EndPoint      Coord      `json:"end_point"`
	StartLabel    string     `json:"start_label"`
	EndLabel      string     `json:"end_label"`
	CreatedAt     time.Time  `json:"created_at"`
	DepartureTime time.Time  `json:"departure_time"`
	DistanceKm    float64    `json:"distance_km"`
}

// Candidate is the transient, enriched view of a trip produced by a
// nearby search. Rating and TripCount come from the stored profile
// aggregates; zero values mean the data is absent, nothing is invented.
type Candidate struct {
	OwnerID       string    `json:"owner_id"`
	TripID        string    `json:"trip_id"`
	StartLabel    string    `json:"start_label"`
	EndLabel      string    `json:"end_label"`
	DistanceKm    float64   `json:"distance_km"`
	DisplayName   string    `json:"display_name"`
	Rating        float64   `json:"rating,omitempty"`
	TripCount     int       `json:"trip_count,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	DepartureTime time.Time `json:"departure_time"`
}

// RankKey selects the sort order for search results.
type RankKey string

const (
	RankByDistance RankKey = "distance"
	RankByRating   RankKey = "rating"
	RankByRecency  RankKey = "recency"
)

func (k RankKey) Valid() bool {
	switch k {
	case RankByDistance, RankByRating, RankByRecency:
		return true
	}
	return false
}

type UserProfile struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	PushToken string  `json:"push_token,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	TripCount int     `json:"trip_count,omitempty"`
}

type MessageSummary struct {
	Text   string    `json:"text"`
	SentBy string    `json:"sent_by"`
	SentAt time.Time `json:"sent_at"`
}

// Chat is the two-party channel provisioned when a request is accepted.
type Chat struct {
	ID           string         `json:"id"`
	TripID       string         `json:"trip_id"`
	Participants [2]string      `json:"participants"`
	CreatedAt    time.Time      `json:"created_at"`
	LastMessage  MessageSummary `json:"last_message"`
	Unread       map[string]int `json:"unread"`
}

// TripEventType tags trip lifecycle events published to Kafka.
type TripEventType string

const (
	TripEventCreated       TripEventType = "created"
	TripEventStatusChanged TripEventType = "status_changed"
)

// TripEvent is the wire payload for the trip event topic, consumed by
// the indexer to keep the geo index in sync.
type TripEvent struct {
	Type TripEventType `json:"type"`
	Trip Trip          `json:"trip"`
}

// Notice is what the dispatch layer delivers to a user: over a live
// websocket session when one exists, otherwise as a push message.
type Notice struct {
	UserID string         `json:"user_id"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Data   map[string]any `json:"data,omitempty"`
}
