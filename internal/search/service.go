package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/trip-sharing/internal/geo"
	"github.com/example/trip-sharing/internal/models"
	"github.com/example/trip-sharing/internal/observability"
	"github.com/example/trip-sharing/internal/users"
)

var ErrBadQuery = errors.New("invalid search query")

// Service runs the nearby-search pipeline: geo snapshot, filter,
// enrichment, rank. Each invocation operates on a single snapshot;
// cancellation comes from ctx.
type Service struct {
	Geo       geo.Geo
	Directory users.Directory
	Logger    *slog.Logger

	DefaultRadiusKm float64
	DestRadiusKm    float64
	DefaultLimit    int
	FetchLimit      int // raw candidates pulled from the index before filtering
}

// Query is one search invocation. RequesterID is explicit; there is no
// ambient current-user global.
type Query struct {
	RequesterID  string         `json:"requester_id"`
	Center       models.Coord   `json:"center"`
	RadiusKm     float64        `json:"radius_km"`
	Destination  *models.Coord  `json:"destination,omitempty"`
	DestRadiusKm float64        `json:"dest_radius_km,omitempty"`
	SortBy       models.RankKey `json:"sort_by,omitempty"`
	Limit        int            `json:"limit,omitempty"`
}

func (s *Service) Nearby(ctx context.Context, q Query) ([]models.Candidate, error) {
	if q.RadiusKm == 0 {
		q.RadiusKm = s.DefaultRadiusKm
	}
	if q.RadiusKm <= 0 {
		return nil, ErrBadQuery
	}
	if q.Center.Lat < -90 || q.Center.Lat > 90 || q.Center.Lon < -180 || q.Center.Lon > 180 {
		return nil, ErrBadQuery
	}
	if q.Limit <= 0 {
		q.Limit = s.DefaultLimit
	}
	if !q.SortBy.Valid() {
		q.SortBy = models.RankByDistance
	}
	if q.Destination != nil && q.DestRadiusKm <= 0 {
		q.DestRadiusKm = s.DestRadiusKm
	}

	fetch := s.FetchLimit
	if fetch < q.Limit {
		fetch = q.Limit
	}

	observability.SearchesTotal.Inc()

	points, err := s.Geo.Nearby(ctx, q.Center, q.RadiusKm, fetch)
	if err != nil {
		observability.GeoErrorsTotal.Inc()
		return nil, err
	}
	points = Filter(points, q.RequesterID, FilterOptions{
		Destination:  q.Destination,
		DestRadiusKm: q.DestRadiusKm,
	})
	cands := Enrich(ctx, s.Directory, points, s.Logger)
	return Rank(cands, q.SortBy, q.Limit), nil
}
