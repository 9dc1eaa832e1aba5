package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/example/trip-sharing/internal/geo"
	"github.com/example/trip-sharing/internal/models"
)

type fakeGeo struct {
	points []models.TripPoint
	err    error
}

func (f *fakeGeo) Nearby(ctx context.Context, center models.Coord, radiusKm float64, limit int) ([]models.TripPoint, error) {
	return f.points, f.err
}
func (f *fakeGeo) Upsert(ctx context.Context, tp models.TripPoint) error { return nil }
func (f *fakeGeo) Remove(ctx context.Context, tripID string) error      { return nil }

// failNDirectory fails lookups for the user IDs in fail
type failNDirectory struct {
	names map[string]string
	fail  map[string]bool
}

func (d *failNDirectory) GetUserName(ctx context.Context, userID string) (string, error) {
	p, err := d.GetUserProfile(ctx, userID)
	return p.Name, err
}

func (d *failNDirectory) GetUserProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	if d.fail[userID] {
		return models.UserProfile{}, errors.New("lookup failed")
	}
	return models.UserProfile{ID: userID, Name: d.names[userID], Rating: 4.2}, nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newService(g geo.Geo, dir *failNDirectory) *Service {
	return &Service{
		Geo:             g,
		Directory:       dir,
		Logger:          discard(),
		DefaultRadiusKm: 5,
		DestRadiusKm:    2,
		DefaultLimit:    5,
		FetchLimit:      32,
	}
}

func TestNearbyFiltersSelfAndCompleted(t *testing.T) {
	// three raw trips: one belongs to the requester, one is completed
	g := &fakeGeo{points: []models.TripPoint{
		{TripID: "t1", OwnerID: "me", Status: models.TripActive},
		{TripID: "t2", OwnerID: "u2", Status: models.TripCompleted},
		{TripID: "t3", OwnerID: "u3", Status: models.TripActive},
	}}
	dir := &failNDirectory{names: map[string]string{"u3": "Ravi"}, fail: map[string]bool{}}
	s := newService(g, dir)

	got, err := s.Nearby(context.Background(), Query{
		RequesterID: "me",
		Center:      models.Coord{Lat: 12.9, Lon: 77.6},
		RadiusKm:    5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].TripID != "t3" {
		t.Fatalf("expected exactly the one valid candidate, got %v", got)
	}
	if got[0].DisplayName != "Ravi" {
		t.Fatalf("expected enriched name, got %q", got[0].DisplayName)
	}
}

func TestNearbyEnricherFallbackOnSingleFailure(t *testing.T) {
	points := make([]models.TripPoint, 0, 5)
	names := map[string]string{}
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("u%d", i)
		points = append(points, models.TripPoint{TripID: "t" + id, OwnerID: id, Status: models.TripActive})
		names[id] = "Name-" + id
	}
	g := &fakeGeo{points: points}
	dir := &failNDirectory{names: names, fail: map[string]bool{"u3": true}}
	s := newService(g, dir)

	got, err := s.Nearby(context.Background(), Query{RequesterID: "me", Center: models.Coord{Lat: 1, Lon: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("a failed lookup must not shrink the batch: got %d", len(got))
	}
	byOwner := map[string]models.Candidate{}
	for _, c := range got {
		byOwner[c.OwnerID] = c
	}
	if byOwner["u3"].DisplayName != FallbackDisplayName {
		t.Fatalf("expected fallback name for u3, got %q", byOwner["u3"].DisplayName)
	}
	if byOwner["u1"].DisplayName != "Name-u1" {
		t.Fatalf("other candidates must enrich normally, got %q", byOwner["u1"].DisplayName)
	}
}

func TestNearbyGeoFailurePropagates(t *testing.T) {
	g := &fakeGeo{err: fmt.Errorf("%w: connection refused", geo.ErrUnavailable)}
	s := newService(g, &failNDirectory{})
	_, err := s.Nearby(context.Background(), Query{RequesterID: "me", Center: models.Coord{Lat: 1, Lon: 1}})
	if !errors.Is(err, geo.ErrUnavailable) {
		t.Fatalf("expected geo unavailable, got %v", err)
	}
}

func TestNearbyRejectsBadQuery(t *testing.T) {
	s := newService(&fakeGeo{}, &failNDirectory{})
	cases := []Query{
		{RequesterID: "me", Center: models.Coord{Lat: 1, Lon: 1}, RadiusKm: -2},
		{RequesterID: "me", Center: models.Coord{Lat: 95, Lon: 1}},
		{RequesterID: "me", Center: models.Coord{Lat: 1, Lon: 181}},
	}
	for i, q := range cases {
		if _, err := s.Nearby(context.Background(), q); !errors.Is(err, ErrBadQuery) {
			t.Fatalf("case %d: expected ErrBadQuery, got %v", i, err)
		}
	}
}
