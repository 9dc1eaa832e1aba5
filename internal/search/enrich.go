package search

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/trip-sharing/internal/models"
	"github.com/example/trip-sharing/internal/users"
)

// FallbackDisplayName is substituted when a profile lookup fails.
const FallbackDisplayName = "User"

// Enrich resolves each surviving trip's owner to a display name and
// profile aggregates. Lookups fan out one goroutine per candidate; a
// failed lookup is swallowed with the fallback name and never fails
// the batch. Output preserves input order and length.
func Enrich(ctx context.Context, dir users.Directory, points []models.TripPoint, logger *slog.Logger) []models.Candidate {
	out := make([]models.Candidate, len(points))
	var wg sync.WaitGroup
	for i, tp := range points {
		out[i] = models.Candidate{
			OwnerID:       tp.OwnerID,
			TripID:        tp.TripID,
			StartLabel:    tp.StartLabel,
			EndLabel:      tp.EndLabel,
			DistanceKm:    tp.DistanceKm,
			DisplayName:   FallbackDisplayName,
			CreatedAt:     tp.CreatedAt,
			DepartureTime: tp.DepartureTime,
		}
		wg.Add(1)
		go func(i int, ownerID string) {
			defer wg.Done()
			p, err := dir.GetUserProfile(ctx, ownerID)
			if err != nil {
				logger.Warn("profile lookup failed", "owner_id", ownerID, "error", err)
				return
			}
			if p.Name != "" {
				out[i].DisplayName = p.Name
			}
			out[i].Rating = p.Rating
			out[i].TripCount = p.TripCount
		}(i, tp.OwnerID)
	}
	wg.Wait()
	return out
}
