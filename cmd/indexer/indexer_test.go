package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/trip-sharing/internal/models"
)

// fakeIndex implements TripIndex for tests
type fakeIndex struct {
	failUpsert  int // number of times to fail Upsert before succeeding
	failRemove  int // number of times to fail Remove before succeeding
	upsertCalls int
	removeCalls int
	lastUpsert  models.TripPoint
	lastRemove  string
}

func (f *fakeIndex) Upsert(ctx context.Context, tp models.TripPoint) error {
	f.upsertCalls++
	if f.upsertCalls <= f.failUpsert {
		return errors.New("upsert fail")
	}
	f.lastUpsert = tp
	return nil
}

func (f *fakeIndex) Remove(ctx context.Context, tripID string) error {
	f.removeCalls++
	if f.removeCalls <= f.failRemove {
		return errors.New("remove fail")
	}
	f.lastRemove = tripID
	return nil
}

func TestApplyEventWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeIndex{failUpsert: 1}
	ev := &models.TripEvent{
		Type: models.TripEventCreated,
		Trip: models.Trip{ID: "t1", OwnerID: "u1", Status: models.TripActive, StartPoint: models.Coord{Lat: 1, Lon: 2}},
	}
	start := time.Now()
	if err := applyEventWithRetry(context.Background(), f, ev, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.upsertCalls < 2 {
		t.Fatalf("expected retries, got %d calls", f.upsertCalls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.lastUpsert.TripID != "t1" || f.lastUpsert.StartPoint.Lat != 1 {
		t.Fatalf("unexpected point %+v", f.lastUpsert)
	}
}

func TestApplyEventWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeIndex{failUpsert: 5}
	ev := &models.TripEvent{
		Type: models.TripEventCreated,
		Trip: models.Trip{ID: "t1", Status: models.TripActive},
	}
	if err := applyEventWithRetry(context.Background(), f, ev, 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
	if f.upsertCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.upsertCalls)
	}
}

func TestApplyEventWithRetry_TerminalRemoves(t *testing.T) {
	f := &fakeIndex{}
	ev := &models.TripEvent{
		Type: models.TripEventStatusChanged,
		Trip: models.Trip{ID: "t9", Status: models.TripCompleted},
	}
	if err := applyEventWithRetry(context.Background(), f, ev, 3, time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.upsertCalls != 0 || f.lastRemove != "t9" {
		t.Fatalf("expected remove only, got upserts=%d remove=%q", f.upsertCalls, f.lastRemove)
	}
}
