package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/trip-sharing/internal/models"
	"github.com/example/trip-sharing/internal/observability"
)

// Queue decouples notification side effects from the transactional
// write path. Enqueue never blocks: when the buffer is full the notice
// is dropped and counted, so failures stay observable without stalling
// or rolling back the primary state change.
type Queue struct {
	sender  Sender
	ch      chan models.Notice
	logger  *slog.Logger
	timeout time.Duration

	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewQueue(sender Sender, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 256
	}
	q := &Queue{
		sender:  sender,
		ch:      make(chan models.Notice, size),
		logger:  logger,
		timeout: 5 * time.Second,
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) Enqueue(n models.Notice) {
	select {
	case q.ch <- n:
	default:
		observability.NoticesDropped.Inc()
		q.logger.Warn("notice dropped, queue full", "user_id", n.UserID, "title", n.Title)
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for n := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.sender.Send(ctx, n); err != nil {
			observability.NoticeSendFailures.Inc()
			q.logger.Warn("notice delivery failed", "user_id", n.UserID, "title", n.Title, "error", err)
		}
		cancel()
	}
}

// Close drains queued notices and waits for the worker to finish.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.ch) })
	q.wg.Wait()
}
