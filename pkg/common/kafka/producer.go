package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/config"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/logger"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg *config.Config, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{writer: writer}
}

func (p *Producer) Topic() string {
	return p.writer.Topic
}

// NewEvent wraps data in the event envelope shared by every publisher.
func NewEvent(eventType, source string, data map[string]interface{}) models.Event {
	return models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Message encodes an event. key selects the partition; the event ID is used
// when key is empty.
func Message(event models.Event, key string) (kafka.Message, error) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	if key == "" {
		key = event.ID
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "source", Value: []byte(event.Source)},
		},
	}, nil
}

// PublishEvents writes all events in one batch.
func (p *Producer) PublishEvents(ctx context.Context, events []models.Event, keyOf func(models.Event) string) error {
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		key := ""
		if keyOf != nil {
			key = keyOf(event)
		}
		msg, err := Message(event, key)
		if err != nil {
			return err
		}
		messages = append(messages, msg)
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"events": len(events),
			"topic":  p.Topic(),
		}).Error("Failed to publish events")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"events": len(events),
		"topic":  p.Topic(),
	}).Info("Events published successfully")

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
