package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/logger"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
)

// Sink receives correlated records after the CSV has been written.
type Sink interface {
	Name() string
	Write(ctx context.Context, records []models.UnifiedRecord) error
	Close() error
}

const (
	NamePostgres = "postgres"
	NameSQLite   = "sqlite"
	NameKafka    = "kafka"
)

var ErrUnknownSink = errors.New("unknown sink")

type runIDKey struct{}

// WithRunID tags ctx with the conversion run that produced the records.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func ParseNames(names []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		switch key {
		case "":
			continue
		case NamePostgres, NameSQLite, NameKafka:
		default:
			return nil, fmt.Errorf("%q: %w", n, ErrUnknownSink)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out, nil
}

// Dispatcher fans records out to every sink. With a checkpoint configured
// only records newer than the last delivered time are sent, and the
// checkpoint moves forward only when every sink accepted the batch.
type Dispatcher struct {
	sinks      []Sink
	checkpoint Checkpoint
}

func NewDispatcher(sinks []Sink, checkpoint Checkpoint) *Dispatcher {
	return &Dispatcher{sinks: sinks, checkpoint: checkpoint}
}

func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Deliver returns how many records were sent to the sinks.
func (d *Dispatcher) Deliver(ctx context.Context, records []models.UnifiedRecord) (int, error) {
	if len(d.sinks) == 0 {
		return 0, nil
	}

	pending := records
	if d.checkpoint != nil {
		last, err := d.checkpoint.Last(ctx)
		switch {
		case errors.Is(err, ErrNoCheckpoint):
		case err != nil:
			return 0, fmt.Errorf("reading checkpoint: %w", err)
		default:
			pending = After(records, last)
		}
	}

	if len(pending) == 0 {
		logger.Log.Info("No new records to deliver")
		return 0, nil
	}

	var errs []error
	for _, s := range d.sinks {
		if err := s.Write(ctx, pending); err != nil {
			logger.Log.WithError(err).WithField("sink", s.Name()).Error("Failed to deliver records")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		logger.WithFields(map[string]interface{}{
			"sink":    s.Name(),
			"records": len(pending),
		}).Info("Delivered records")
	}
	if len(errs) > 0 {
		return 0, errors.Join(errs...)
	}

	if d.checkpoint != nil {
		if err := d.checkpoint.Save(ctx, pending[len(pending)-1].Time); err != nil {
			return len(pending), fmt.Errorf("saving checkpoint: %w", err)
		}
	}
	return len(pending), nil
}

func (d *Dispatcher) Close() error {
	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// After returns the records whose Time sorts after last. records must be
// sorted by Time, as Correlate returns them.
func After(records []models.UnifiedRecord, last string) []models.UnifiedRecord {
	for i, rec := range records {
		if rec.Time > last {
			return records[i:]
		}
	}
	return nil
}
