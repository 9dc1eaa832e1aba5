package match

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/trip-sharing/internal/chats"
	"github.com/example/trip-sharing/internal/dispatch"
	"github.com/example/trip-sharing/internal/models"
	"github.com/example/trip-sharing/internal/observability"
	"github.com/example/trip-sharing/internal/search"
	"github.com/example/trip-sharing/internal/trips"
	"github.com/example/trip-sharing/internal/users"
)

var ErrBadRequest = errors.New("invalid match request")

// Enqueuer accepts fire-and-forget notices. Satisfied by
// dispatch.Queue; delivery failure never affects the workflow.
type Enqueuer interface {
	Enqueue(n models.Notice)
}

var _ Enqueuer = (*dispatch.Queue)(nil)

// Workflow drives the match-request state machine:
// pending -> accepted | rejected, nothing after that.
type Workflow struct {
	Trips     trips.Store
	Chats     chats.Store
	Notices   Enqueuer
	Directory users.Directory
	Logger    *slog.Logger
}

// Submit appends a pending request to the trip. A requester with an
// open (pending or accepted) request on the same trip is rejected with
// trips.ErrDuplicateRequest; after a rejection a fresh request may be
// submitted.
func (w *Workflow) Submit(ctx context.Context, tripID, requesterID, pickupLabel, destinationLabel string) (*models.Trip, error) {
	if tripID == "" || requesterID == "" {
		return nil, ErrBadRequest
	}
	t, err := w.Trips.SubmitRequest(ctx, tripID, models.MatchRequest{
		RequesterID:      requesterID,
		PickupLabel:      pickupLabel,
		DestinationLabel: destinationLabel,
		Status:           models.RequestPending,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		return nil, err
	}
	observability.RequestsSubmitted.Inc()

	name := w.displayName(ctx, requesterID)
	w.Notices.Enqueue(models.Notice{
		UserID: t.OwnerID,
		Title:  "New trip request",
		Body:   name + " wants to join your trip: " + pickupLabel + " to " + destinationLabel,
		Data:   map[string]any{"trip_id": tripID, "requester_id": requesterID},
	})
	return t, nil
}

// Respond transitions the requester's pending entry. On acceptance it
// provisions at most one chat per (owner, requester, trip) and tells
// both parties; the notification and chat side effects are best-effort
// and never roll back the status change.
func (w *Workflow) Respond(ctx context.Context, tripID, requesterID string, decision models.RequestStatus) (*models.Trip, *models.Chat, error) {
	t, req, err := w.Trips.Respond(ctx, tripID, requesterID, decision)
	if err != nil {
		return nil, nil, err
	}

	if req.Status == models.RequestRejected {
		observability.RequestsRejected.Inc()
		w.Notices.Enqueue(models.Notice{
			UserID: requesterID,
			Title:  "Request update",
			Body:   "Your trip request was declined.",
			Data:   map[string]any{"trip_id": tripID, "status": string(req.Status)},
		})
		return t, nil, nil
	}

	observability.RequestsAccepted.Inc()
	chat, created, err := w.Chats.Ensure(ctx, tripID, t.OwnerID, requesterID)
	if err != nil {
		// the acceptance already committed; surface the gap in logs
		w.Logger.Error("chat provisioning failed after acceptance", "trip_id", tripID, "requester_id", requesterID, "error", err)
	} else if created {
		observability.ChatsProvisioned.Inc()
	}

	data := map[string]any{"trip_id": tripID, "status": string(req.Status)}
	if chat != nil {
		data["chat_id"] = chat.ID
	}
	w.Notices.Enqueue(models.Notice{
		UserID: requesterID,
		Title:  "Request accepted",
		Body:   "Your trip request was accepted. Say hello!",
		Data:   data,
	})
	w.Notices.Enqueue(models.Notice{
		UserID: t.OwnerID,
		Title:  "Rider joined",
		Body:   w.displayName(ctx, requesterID) + " is joining your trip.",
		Data:   data,
	})
	return t, chat, nil
}

func (w *Workflow) displayName(ctx context.Context, userID string) string {
	if w.Directory == nil {
		return search.FallbackDisplayName
	}
	name, err := w.Directory.GetUserName(ctx, userID)
	if err != nil || name == "" {
		return search.FallbackDisplayName
	}
	return name
}
