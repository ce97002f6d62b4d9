package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
)

type Metrics struct {
	registry *prometheus.Registry

	ConversionsTotal        *prometheus.CounterVec
	RecordsTotal            prometheus.Counter
	UnmatchedDiastolicTotal prometheus.Counter
	UnmatchedHeartRateTotal prometheus.Counter
	DuplicatesDroppedTotal  prometheus.Counter
	SinkFailuresTotal       prometheus.Counter
	ConversionDuration      prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ConversionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "health_export_conversions_total",
			Help: "Number of export conversions by outcome",
		}, []string{"outcome"}),
		RecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "health_export_records_total",
			Help: "Number of correlated records produced",
		}),
		UnmatchedDiastolicTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "health_export_unmatched_diastolic_total",
			Help: "Number of records without a diastolic reading in the matching window",
		}),
		UnmatchedHeartRateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "health_export_unmatched_heart_rate_total",
			Help: "Number of records without a heart-rate reading in the matching window",
		}),
		DuplicatesDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "health_export_duplicates_dropped_total",
			Help: "Number of systolic entries collapsed because their time was already seen",
		}),
		SinkFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "health_export_sink_failures_total",
			Help: "Number of failed sink deliveries",
		}),
		ConversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "health_export_conversion_duration_seconds",
			Help:    "Duration of a conversion in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.ConversionsTotal,
		m.RecordsTotal,
		m.UnmatchedDiastolicTotal,
		m.UnmatchedHeartRateTotal,
		m.DuplicatesDroppedTotal,
		m.SinkFailuresTotal,
		m.ConversionDuration,
	)
	return m
}

// ObserveConversion records the stats and duration of a finished run. The
// outcome is counted separately by ObserveSuccess or ObserveFailure.
func (m *Metrics) ObserveConversion(stat models.CorrelationStat, took time.Duration) {
	m.RecordsTotal.Add(float64(stat.Records))
	m.UnmatchedDiastolicTotal.Add(float64(stat.Records - stat.DiastolicMatched))
	m.UnmatchedHeartRateTotal.Add(float64(stat.Records - stat.HeartRateMatched))
	m.DuplicatesDroppedTotal.Add(float64(stat.DuplicatesDropped))
	m.ConversionDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveSuccess() {
	m.ConversionsTotal.WithLabelValues("success").Inc()
}

func (m *Metrics) ObserveFailure() {
	m.ConversionsTotal.WithLabelValues("failure").Inc()
}

func (m *Metrics) ObserveSinkFailure() {
	m.SinkFailuresTotal.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
