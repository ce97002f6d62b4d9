package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
)

func TestObserveConversion(t *testing.T) {
	m := New()
	m.ObserveConversion(models.CorrelationStat{
		Records:           10,
		DiastolicMatched:  8,
		HeartRateMatched:  6,
		DuplicatesDropped: 2,
	}, 150*time.Millisecond)
	m.ObserveSuccess()
	m.ObserveFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("failure")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.RecordsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnmatchedDiastolicTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.UnmatchedHeartRateTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DuplicatesDroppedTotal))
}

func TestObserveConversionLeavesOutcomeAlone(t *testing.T) {
	m := New()
	m.ObserveConversion(models.CorrelationStat{Records: 3}, time.Second)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsTotal))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveSinkFailure()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "health_export_sink_failures_total 1")
}
