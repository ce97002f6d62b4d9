package sink

import (
	"context"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/kafka"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
)

const (
	EventTypeReading = "blood-pressure-reading"
	EventSource      = "health-export"
)

type EventPublisher interface {
	PublishEvents(ctx context.Context, events []models.Event, keyOf func(models.Event) string) error
	Close() error
}

// KafkaSink publishes one event per record, keyed by time so replays of the
// same reading land on the same partition. The systolic entry's unit and
// source name ride along when the export carried them.
type KafkaSink struct {
	publisher EventPublisher
}

func NewKafkaSink(publisher EventPublisher) *KafkaSink {
	return &KafkaSink{publisher: publisher}
}

func (s *KafkaSink) Name() string {
	return NameKafka
}

func (s *KafkaSink) Write(ctx context.Context, records []models.UnifiedRecord) error {
	runID := RunIDFrom(ctx)
	events := make([]models.Event, 0, len(records))
	for _, rec := range records {
		data := map[string]interface{}{
			"time":      rec.Time,
			"systolic":  rec.Systolic,
			"diastolic": rec.Diastolic,
			"hr":        rec.HeartRate,
		}
		if unit := rec.Attributes[models.AttrUnit]; unit != "" {
			data["unit"] = unit
		}
		if source := rec.Attributes[models.AttrSourceName]; source != "" {
			data["source_name"] = source
		}
		event := kafka.NewEvent(EventTypeReading, EventSource, data)
		if runID != "" {
			event.Metadata = map[string]string{"run_id": runID}
		}
		events = append(events, event)
	}
	return s.publisher.PublishEvents(ctx, events, eventTime)
}

func (s *KafkaSink) Close() error {
	return s.publisher.Close()
}

func eventTime(event models.Event) string {
	t, _ := event.Data["time"].(string)
	return t
}
