package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/trip-sharing/internal/geo"
	"github.com/example/trip-sharing/internal/models"
)

var (
	eventsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indexer_events_consumed_total",
		Help: "Total trip events consumed",
	})
	eventsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indexer_events_invalid_total",
		Help: "Total invalid events received",
	})
	indexUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indexer_index_updates_total",
		Help: "Total successful geo index updates",
	})
	indexErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indexer_index_errors_total",
		Help: "Total geo index update errors",
	})
)

func init() {
	prometheus.MustRegister(eventsConsumed, eventsInvalid, indexUpdates, indexErrors)
}

func main() {
	// allow some flags for local runs
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	brokers := []string{}
	if brokersEnv != "" {
		for _, b := range strings.Split(brokersEnv, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	} else {
		brokers = []string{"localhost:9092"}
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "trip-events"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "trip-indexer"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	geoKey := os.Getenv("REDIS_GEO_KEY")
	if geoKey == "" {
		geoKey = "trips_geo"
	}
	rc := redis.NewClient(&redis.Options{Addr: redisAddr, Password: os.Getenv("REDIS_PASSWORD")})
	idx := geo.NewRedisGeoWithClient(rc, geoKey)

	// start metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			// readiness: check redis connectivity
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Printf("indexer listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down indexer")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		// reset backoff on success
		backoff = time.Second

		eventsConsumed.Inc()

		var ev models.TripEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			eventsInvalid.Inc()
			log.Printf("invalid event: %v", err)
			continue
		}
		if ev.Trip.ID == "" {
			eventsInvalid.Inc()
			log.Printf("event without trip id, type=%s", ev.Type)
			continue
		}

		if err := applyEventWithRetry(ctx, idx, &ev, 3, 200*time.Millisecond); err != nil {
			indexErrors.Inc()
			log.Printf("index update failed for trip=%s: %v", ev.Trip.ID, err)
			continue
		}
		indexUpdates.Inc()
	}
}

// TripIndex is the subset of geo operations the indexer needs; tests
// swap in a fake.
type TripIndex interface {
	Upsert(ctx context.Context, tp models.TripPoint) error
	Remove(ctx context.Context, tripID string) error
}

// applyEventWithRetry projects one trip event onto the geo index with
// retry/backoff. Terminal trips leave the index; everything else is an
// upsert so replayed events converge to the same state.
func applyEventWithRetry(ctx context.Context, idx TripIndex, ev *models.TripEvent, attempts int, delay time.Duration) error {
	apply := func() error {
		if ev.Trip.Status.Terminal() {
			return idx.Remove(ctx, ev.Trip.ID)
		}
		return idx.Upsert(ctx, tripPoint(&ev.Trip))
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = apply(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}

func tripPoint(t *models.Trip) models.TripPoint {
	return models.TripPoint{
		TripID:        t.ID,
		OwnerID:       t.OwnerID,
		Status:        t.Status,
		StartPoint:    t.StartPoint,
		EndPoint:      t.EndPoint,
		StartLabel:    t.StartLabel,
		EndLabel:      t.EndLabel,
		CreatedAt:     t.CreatedAt,
		DepartureTime: t.DepartureTime,
	}
}
