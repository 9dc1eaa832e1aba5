package geo

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/example/trip-sharing/internal/models"
)

// ErrUnavailable is returned when the backing index cannot be queried.
// Callers render an empty result but must log this distinctly.
var ErrUnavailable = errors.New("geo index unavailable")

// Geo is the minimal interface required by the search pipeline and the
// indexer.
type Geo interface {
	Nearby(ctx context.Context, center models.Coord, radiusKm float64, limit int) ([]models.TripPoint, error)
	Upsert(ctx context.Context, tp models.TripPoint) error
	Remove(ctx context.Context, tripID string) error
}

// Index is an in-memory Geo for tests and single-node local runs.
type Index struct {
	mu    sync.RWMutex
	trips map[string]models.TripPoint
}

func NewIndex() *Index {
	return &Index{trips: make(map[string]models.TripPoint)}
}

func (g *Index) Upsert(ctx context.Context, tp models.TripPoint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trips[tp.TripID] = tp
	return nil
}

func (g *Index) Remove(ctx context.Context, tripID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.trips, tripID)
	return nil
}

// naive scan; in prod use the Redis-backed index
func (g *Index) Nearby(ctx context.Context, center models.Coord, radiusKm float64, limit int) ([]models.TripPoint, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	arr := make([]models.TripPoint, 0, len(g.trips))
	for _, tp := range g.trips {
		dist := HaversineKm(center.Lat, center.Lon, tp.StartPoint.Lat, tp.StartPoint.Lon)
		if dist > radiusKm {
			continue
		}
		tp.DistanceKm = dist
		arr = append(arr, tp)
	}
	// partial selection sort for top-N
	n := limit
	if n > len(arr) {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].DistanceKm < arr[minIdx].DistanceKm {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	return arr[:n], nil
}

// HaversineKm is the great-circle distance in kilometers.
// Symmetric, zero for identical points, NaN-free on antipodes.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// clamp guards against a creeping past 1 on antipodal input
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
