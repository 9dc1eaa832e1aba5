package search

import (
	"testing"
	"time"

	"github.com/example/trip-sharing/internal/models"
)

func TestRankByDistanceOrderAndLimit(t *testing.T) {
	in := []models.Candidate{
		{TripID: "c", DistanceKm: 3.2},
		{TripID: "a", DistanceKm: 0.4},
		{TripID: "b", DistanceKm: 1.1},
	}
	got := Rank(in, models.RankByDistance, 2)
	if len(got) != 2 {
		t.Fatalf("expected limit 2, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Fatalf("not non-decreasing at %d", i)
		}
	}
	if got[0].TripID != "a" || got[1].TripID != "b" {
		t.Fatalf("wrong order: %s,%s", got[0].TripID, got[1].TripID)
	}
}

func TestRankStableOnEqualKeys(t *testing.T) {
	in := []models.Candidate{
		{TripID: "first", DistanceKm: 1.0},
		{TripID: "second", DistanceKm: 1.0},
		{TripID: "third", DistanceKm: 1.0},
	}
	got := Rank(in, models.RankByDistance, 0)
	if got[0].TripID != "first" || got[1].TripID != "second" || got[2].TripID != "third" {
		t.Fatal("equal keys did not preserve input order")
	}
}

func TestRankByRatingAndRecency(t *testing.T) {
	now := time.Now()
	in := []models.Candidate{
		{TripID: "low", Rating: 3.1, CreatedAt: now},
		{TripID: "high", Rating: 4.9, CreatedAt: now.Add(-time.Hour)},
	}
	got := Rank(in, models.RankByRating, 0)
	if got[0].TripID != "high" {
		t.Fatalf("expected rating descending, got %s first", got[0].TripID)
	}
	got = Rank(in, models.RankByRecency, 0)
	if got[0].TripID != "low" {
		t.Fatalf("expected recency descending, got %s first", got[0].TripID)
	}
}

func TestRankLimitLargerThanInput(t *testing.T) {
	in := []models.Candidate{{TripID: "a"}}
	if got := Rank(in, models.RankByDistance, 5); len(got) != 1 {
		t.Fatalf("expected min(limit, len), got %d", len(got))
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []models.Candidate{
		{TripID: "b", DistanceKm: 2},
		{TripID: "a", DistanceKm: 1},
	}
	Rank(in, models.RankByDistance, 0)
	if in[0].TripID != "b" {
		t.Fatal("input slice was reordered")
	}
}
