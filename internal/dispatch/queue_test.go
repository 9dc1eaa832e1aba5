package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/trip-sharing/internal/models"
)

// recordingSender counts deliveries and can fail the first N sends
type recordingSender struct {
	mu    sync.Mutex
	sent  []models.Notice
	failN int
}

func (r *recordingSender) Send(ctx context.Context, n models.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failN > 0 {
		r.failN--
		return errors.New("send fail")
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestQueueDeliversAll(t *testing.T) {
	s := &recordingSender{}
	q := NewQueue(s, 16, testLogger())
	for i := 0; i < 10; i++ {
		q.Enqueue(models.Notice{UserID: "u1", Title: "hi"})
	}
	q.Close()
	if s.count() != 10 {
		t.Fatalf("expected 10 deliveries, got %d", s.count())
	}
}

func TestQueueSwallowsSendFailures(t *testing.T) {
	s := &recordingSender{failN: 3}
	q := NewQueue(s, 16, testLogger())
	for i := 0; i < 5; i++ {
		q.Enqueue(models.Notice{UserID: "u1"})
	}
	q.Close()
	if s.count() != 2 {
		t.Fatalf("expected the non-failing sends to land, got %d", s.count())
	}
}

// blockingSender parks in Send until released
type blockingSender struct {
	entered chan struct{}
	release chan struct{}
	rec     recordingSender
}

func (b *blockingSender) Send(ctx context.Context, n models.Notice) error {
	b.entered <- struct{}{}
	<-b.release
	return b.rec.Send(ctx, n)
}

func TestQueueDropsWhenFull(t *testing.T) {
	s := &blockingSender{entered: make(chan struct{}, 1), release: make(chan struct{})}
	q := NewQueue(s, 1, testLogger())

	// first notice occupies the worker, second fills the buffer
	q.Enqueue(models.Notice{UserID: "u1", Title: "a"})
	<-s.entered
	q.Enqueue(models.Notice{UserID: "u1", Title: "b"})

	// the rest must be dropped without blocking the caller
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			q.Enqueue(models.Notice{UserID: "u1", Title: "overflow"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(s.release)
	q.Close()
	if got := s.rec.count(); got != 2 {
		t.Fatalf("expected only the buffered notices to deliver, got %d", got)
	}
}

func TestNotifierFallsBackToPushViaDirectory(t *testing.T) {
	// no ws session registered; directory has no token either, so the
	// notifier must report failure rather than invent a channel
	n := &Notifier{WS: NewWSRegistry(), Logger: testLogger()}
	err := n.Send(context.Background(), models.Notice{UserID: "u1"})
	if err == nil {
		t.Fatal("expected error with no ws session and no push configured")
	}
}
