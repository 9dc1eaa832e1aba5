package search

import (
	"testing"
	"time"

	"github.com/example/trip-sharing/internal/models"
)

func point(id, owner string, status models.TripStatus) models.TripPoint {
	return models.TripPoint{TripID: id, OwnerID: owner, Status: status}
}

func TestFilterExcludesSelfAndInactive(t *testing.T) {
	pts := []models.TripPoint{
		point("t1", "me", models.TripActive),
		point("t2", "u2", models.TripActive),
		point("t3", "u3", models.TripCompleted),
		point("t4", "u4", models.TripActive),
	}
	got := Filter(pts, "me", FilterOptions{})
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	for _, tp := range got {
		if tp.OwnerID == "me" {
			t.Fatal("requester's own trip survived")
		}
		if tp.Status != models.TripActive {
			t.Fatalf("non-active trip survived: %s", tp.Status)
		}
	}
}

func TestFilterDedupesByOwnerMostRecentWins(t *testing.T) {
	older := point("t-old", "u2", models.TripActive)
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := point("t-new", "u2", models.TripActive)
	newer.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	// both orders must yield the same survivor
	for _, pts := range [][]models.TripPoint{{older, newer}, {newer, older}} {
		got := Filter(pts, "me", FilterOptions{})
		if len(got) != 1 {
			t.Fatalf("expected 1 per owner, got %d", len(got))
		}
		if got[0].TripID != "t-new" {
			t.Fatalf("expected most recent trip to win, got %s", got[0].TripID)
		}
	}
}

func TestFilterDestinationProximity(t *testing.T) {
	near := point("t1", "u1", models.TripActive)
	near.EndPoint = models.Coord{Lat: 12.95, Lon: 77.60}
	far := point("t2", "u2", models.TripActive)
	far.EndPoint = models.Coord{Lat: 13.50, Lon: 77.60}

	dest := models.Coord{Lat: 12.95, Lon: 77.60}
	got := Filter([]models.TripPoint{near, far}, "me", FilterOptions{Destination: &dest, DestRadiusKm: 2})
	if len(got) != 1 || got[0].TripID != "t1" {
		t.Fatalf("expected only the near-destination trip, got %v", got)
	}
}
