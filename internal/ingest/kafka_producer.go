package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/trip-sharing/internal/models"
)

// Publisher is what the trip lifecycle paths depend on; nil-safe
// wrapping lives in the callers.
type Publisher interface {
	PublishTripEvent(typ models.TripEventType, t *models.Trip) error
}

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaProducer{writer: w}
}

func (k *KafkaProducer) PublishTripEvent(typ models.TripEventType, t *models.Trip) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, _ := json.Marshal(models.TripEvent{Type: typ, Trip: *t})
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(t.ID), Value: b})
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
