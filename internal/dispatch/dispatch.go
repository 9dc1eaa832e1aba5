package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/trip-sharing/internal/models"
	"github.com/example/trip-sharing/internal/observability"
	"github.com/example/trip-sharing/internal/users"
)

// Sender delivers one notice to one user.
type Sender interface {
	Send(ctx context.Context, n models.Notice) error
}

// Notifier tries a live websocket session first and falls back to a
// push message using the profile's stored token.
type Notifier struct {
	WS        *WSRegistry
	Push      *ExpoDispatcher
	Directory users.Directory
	Logger    *slog.Logger
}

func (d *Notifier) Send(ctx context.Context, n models.Notice) error {
	if d.WS != nil {
		if err := d.WS.Send(ctx, n); err == nil {
			observability.NoticesDelivered.WithLabelValues("ws").Inc()
			return nil
		} else if !errors.Is(err, ErrNoSession) {
			d.Logger.Warn("ws delivery failed, falling back to push", "user_id", n.UserID, "error", err)
		}
	}
	if d.Push == nil || d.Directory == nil {
		return ErrNoSession
	}
	profile, err := d.Directory.GetUserProfile(ctx, n.UserID)
	if err != nil {
		return err
	}
	if profile.PushToken == "" {
		return errors.New("user has no push token")
	}
	if err := d.Push.Send(ctx, profile.PushToken, n); err != nil {
		return err
	}
	observability.NoticesDelivered.WithLabelValues("push").Inc()
	return nil
}
