package trips

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/trip-sharing/internal/models"
	"github.com/example/trip-sharing/internal/observability"
)

// Sweeper marks active trips whose departure has passed as expired.
// The same job ran as a scheduled cloud function in earlier versions
// of this system; here it is a background loop in the API process.
type Sweeper struct {
	Store   Store
	Logger  *slog.Logger
	Every   time.Duration
	Publish func(models.TripEventType, *models.Trip) error // optional, nil-safe
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	every := s.Every
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.Store.ExpireDue(ctx, time.Now())
	if err != nil {
		s.Logger.Error("expiry sweep failed", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	observability.TripsExpired.Add(float64(len(expired)))
	s.Logger.Info("expired trips", "count", len(expired))
	if s.Publish == nil {
		return
	}
	for _, t := range expired {
		if err := s.Publish(models.TripEventStatusChanged, t); err != nil {
			s.Logger.Warn("expiry event publish failed", "trip_id", t.ID, "error", err)
		}
	}
}
