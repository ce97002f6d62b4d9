package conversion

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MtnBiker/convert-apple-health-export/pkg/healthexport"
	"github.com/MtnBiker/convert-apple-health-export/pkg/observability/metrics"
	"github.com/MtnBiker/convert-apple-health-export/pkg/sink"
)

func newRouter(dispatcher *sink.Dispatcher, maxBody int64) *mux.Router {
	svc := NewService(healthexport.DefaultCatalog(), nil, dispatcher, nil)
	router := mux.NewRouter()
	NewHTTPHandler(svc, maxBody).Register(router.PathPrefix("/api/v1").Subrouter())
	return router
}

func TestHandleConvert(t *testing.T) {
	router := newRouter(nil, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/convert", strings.NewReader(threeReadings)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Record-Count"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.NotEmpty(t, rec.Header().Get("X-Run-Id"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "time,systolic,diastolic,hr", lines[0])
	assert.Equal(t, "2023-01-01 08:30:05 -0500,121,81,65", lines[1])
}

func TestHandleCorrelate(t *testing.T) {
	router := newRouter(nil, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/correlate", strings.NewReader(threeReadings)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RunID   string `json:"run_id"`
		Records []struct {
			Systolic  string  `json:"systolic"`
			Diastolic *string `json:"diastolic"`
			HR        *string `json:"hr"`
			Time      string  `json:"time"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Records, 3)
	assert.Equal(t, "121", body.Records[0].Systolic)
	require.NotNil(t, body.Records[0].HR)
	assert.Equal(t, "65", *body.Records[0].HR)
}

func TestHandleConvertRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		maxBody int64
		status  int
	}{
		{name: "empty body", body: "", status: http.StatusBadRequest},
		{name: "malformed xml", body: "<HealthData><Record", status: http.StatusBadRequest},
		{name: "too large", body: threeReadings, maxBody: 64, status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(nil, tt.maxBody)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/convert", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandleConvertSinkFailure(t *testing.T) {
	failing := &captureSink{err: errors.New("down")}
	router := newRouter(sink.NewDispatcher([]sink.Sink{failing}, nil), 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/convert", strings.NewReader(threeReadings)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleConvertCountsOutcome(t *testing.T) {
	m := metrics.New()
	failing := &captureSink{err: errors.New("down")}
	router := mux.NewRouter()
	svc := NewService(healthexport.DefaultCatalog(), nil, sink.NewDispatcher([]sink.Sink{failing}, nil), m)
	NewHTTPHandler(svc, 0).Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(threeReadings)))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RecordsTotal))

	failing.err = nil
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(threeReadings)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsTotal))
}

func TestConvertRequiresPost(t *testing.T) {
	router := newRouter(nil, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/convert", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
