package geo

import (
	"context"
	"math"
	"testing"

	"github.com/example/trip-sharing/internal/models"
)

func TestHaversineZero(t *testing.T) {
	for _, c := range []models.Coord{{Lat: 0, Lon: 0}, {Lat: 12.9, Lon: 77.6}, {Lat: -33.9, Lon: 151.2}} {
		if d := HaversineKm(c.Lat, c.Lon, c.Lat, c.Lon); d != 0 {
			t.Fatalf("expected 0 for identical points, got %f", d)
		}
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := models.Coord{Lat: 12.9716, Lon: 77.5946}
	b := models.Coord{Lat: 13.0827, Lon: 80.2707}
	d1 := HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
	d2 := HaversineKm(b.Lat, b.Lon, a.Lat, a.Lon)
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("expected symmetry, got %f vs %f", d1, d2)
	}
	// Bangalore to Chennai is roughly 290km
	if d1 < 250 || d1 > 330 {
		t.Fatalf("implausible distance %f", d1)
	}
}

func TestHaversineAntipodal(t *testing.T) {
	d := HaversineKm(0, 0, 0, 180)
	if math.IsNaN(d) {
		t.Fatal("NaN on antipodal input")
	}
	// half the Earth's circumference, ~20015km
	if d < 19900 || d > 20100 {
		t.Fatalf("implausible antipodal distance %f", d)
	}
}

func TestIndexNearbyRadiusAndOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	pts := []models.TripPoint{
		{TripID: "t1", StartPoint: models.Coord{Lat: 12.90, Lon: 77.60}},
		{TripID: "t2", StartPoint: models.Coord{Lat: 12.91, Lon: 77.60}},
		{TripID: "t3", StartPoint: models.Coord{Lat: 13.50, Lon: 77.60}}, // ~66km out
	}
	for _, p := range pts {
		if err := idx.Upsert(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	got, err := idx.Nearby(ctx, models.Coord{Lat: 12.90, Lon: 77.60}, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 within radius, got %d", len(got))
	}
	if got[0].TripID != "t1" || got[1].TripID != "t2" {
		t.Fatalf("expected distance order t1,t2 got %s,%s", got[0].TripID, got[1].TripID)
	}
	if got[0].DistanceKm != 0 {
		t.Fatalf("expected zero distance for center point, got %f", got[0].DistanceKm)
	}
}

func TestIndexNearbyLimit(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	for i := 0; i < 5; i++ {
		idx.Upsert(ctx, models.TripPoint{
			TripID:     string(rune('a' + i)),
			StartPoint: models.Coord{Lat: 12.9 + float64(i)*0.001, Lon: 77.6},
		})
	}
	got, err := idx.Nearby(ctx, models.Coord{Lat: 12.9, Lon: 77.6}, 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected limit 3, got %d", len(got))
	}
}

func TestIndexRemove(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	idx.Upsert(ctx, models.TripPoint{TripID: "t1", StartPoint: models.Coord{Lat: 1, Lon: 1}})
	if err := idx.Remove(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	got, _ := idx.Nearby(ctx, models.Coord{Lat: 1, Lon: 1}, 10, 10)
	if len(got) != 0 {
		t.Fatalf("expected empty after remove, got %d", len(got))
	}
}
