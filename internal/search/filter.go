package search

import (
	"github.com/example/trip-sharing/internal/geo"
	"github.com/example/trip-sharing/internal/models"
)

// FilterOptions narrows a raw geo snapshot beyond the standard rules.
type FilterOptions struct {
	// Destination, when set, drops trips whose end point is farther
	// than DestRadiusKm from it.
	Destination  *models.Coord
	DestRadiusKm float64
}

// Filter removes the requester's own trips, non-active trips, and
// duplicate trips per owner. The per-owner tie-break is explicit:
// the trip with the most recent CreatedAt wins, regardless of the
// snapshot's iteration order.
func Filter(points []models.TripPoint, requesterID string, opts FilterOptions) []models.TripPoint {
	byOwner := make(map[string]int, len(points))
	out := make([]models.TripPoint, 0, len(points))
	for _, tp := range points {
		if tp.OwnerID == requesterID {
			continue
		}
		if tp.Status != models.TripActive {
			continue
		}
		if opts.Destination != nil {
			d := geo.HaversineKm(opts.Destination.Lat, opts.Destination.Lon, tp.EndPoint.Lat, tp.EndPoint.Lon)
			if d > opts.DestRadiusKm {
				continue
			}
		}
		if i, seen := byOwner[tp.OwnerID]; seen {
			if tp.CreatedAt.After(out[i].CreatedAt) {
				out[i] = tp
			}
			continue
		}
		byOwner[tp.OwnerID] = len(out)
		out = append(out, tp)
	}
	return out
}
