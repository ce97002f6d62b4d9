package conversion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/logger"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
	"github.com/MtnBiker/convert-apple-health-export/pkg/correlation"
	"github.com/MtnBiker/convert-apple-health-export/pkg/export"
	"github.com/MtnBiker/convert-apple-health-export/pkg/healthexport"
	"github.com/MtnBiker/convert-apple-health-export/pkg/observability/metrics"
	"github.com/MtnBiker/convert-apple-health-export/pkg/sink"
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Outcome is the result of correlating one export document.
type Outcome struct {
	RunID   string
	Records []models.UnifiedRecord
	Stat    models.CorrelationStat
	Took    time.Duration
}

type Service struct {
	catalog    healthexport.Catalog
	correlator *correlation.Correlator
	dispatcher *sink.Dispatcher
	metrics    *metrics.Metrics
}

// NewService wires the conversion stages. dispatcher and m may be nil.
func NewService(catalog healthexport.Catalog, correlator *correlation.Correlator, dispatcher *sink.Dispatcher, m *metrics.Metrics) *Service {
	if correlator == nil {
		correlator = correlation.NewCorrelator()
	}
	if dispatcher == nil {
		dispatcher = sink.NewDispatcher(nil, nil)
	}
	return &Service{catalog: catalog, correlator: correlator, dispatcher: dispatcher, metrics: m}
}

// Correlate extracts the streams from an export document and joins them.
// Documents that cannot be parsed are reported as ValidationError.
func (s *Service) Correlate(ctx context.Context, r io.Reader) (*Outcome, error) {
	start := time.Now()
	streams, err := healthexport.Extract(r, s.catalog)
	if err != nil {
		s.observeFailure()
		if errors.Is(err, healthexport.ErrInvalidCatalog) {
			return nil, err
		}
		return nil, ValidationError{reason: err}
	}
	return s.correlate(streams, start), nil
}

func (s *Service) correlate(streams healthexport.Streams, start time.Time) *Outcome {
	records := s.correlator.Correlate(streams.Systolic, streams.Diastolic, streams.RestingHeartRate, streams.HeartRate)
	return &Outcome{
		RunID:   uuid.New().String(),
		Records: records,
		Stat:    correlation.Summarize(records, len(streams.Systolic)),
		Took:    time.Since(start),
	}
}

// Deliver hands the outcome's records to the configured sinks.
func (s *Service) Deliver(ctx context.Context, outcome *Outcome) (int, error) {
	delivered, err := s.dispatcher.Deliver(sink.WithRunID(ctx, outcome.RunID), outcome.Records)
	if err != nil && s.metrics != nil {
		s.metrics.ObserveSinkFailure()
		s.metrics.ObserveFailure()
	}
	return delivered, err
}

// Run converts the export at inputPath into a CSV at outputPath and then
// delivers the records to the sinks. Nothing is written when extraction
// fails.
func (s *Service) Run(ctx context.Context, inputPath, outputPath string) (*models.ConversionResult, error) {
	start := time.Now()
	streams, err := healthexport.ExtractFile(inputPath, s.catalog)
	if err != nil {
		s.observeFailure()
		return nil, fmt.Errorf("extracting %s: %w", inputPath, err)
	}
	outcome := s.correlate(streams, start)

	logger.WithFields(map[string]interface{}{
		"run_id":  outcome.RunID,
		"records": len(outcome.Records),
		"output":  outputPath,
	}).Infof("Found %d records, creating CSV", len(outcome.Records))

	if err := export.WriteCSVFile(outputPath, outcome.Records); err != nil {
		s.observeFailure()
		return nil, fmt.Errorf("writing %s: %w", outputPath, err)
	}

	delivered, err := s.Deliver(ctx, outcome)
	if err != nil {
		return nil, fmt.Errorf("delivering records: %w", err)
	}

	took := time.Since(start)
	s.observeSuccess(outcome.Stat, took)

	return &models.ConversionResult{
		RunID:     outcome.RunID,
		Records:   len(outcome.Records),
		Systolic:  len(streams.Systolic),
		Delivered: delivered,
		Duration:  took,
		Sinks:     s.dispatcher.Names(),
		Stats:     outcome.Stat,
	}, nil
}

// observeSuccess is called once a run has finished every stage.
func (s *Service) observeSuccess(stat models.CorrelationStat, took time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveConversion(stat, took)
		s.metrics.ObserveSuccess()
	}
}

func (s *Service) observeFailure() {
	if s.metrics != nil {
		s.metrics.ObserveFailure()
	}
}
