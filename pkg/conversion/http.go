package conversion

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/logger"
	"github.com/MtnBiker/convert-apple-health-export/pkg/export"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/convert", h.handleConvert).Methods(http.MethodPost)
	router.HandleFunc("/correlate", h.handleCorrelate).Methods(http.MethodPost)
}

func (h *HTTPHandler) handleConvert(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.process(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="export.csv"`)
	w.Header().Set("X-Record-Count", strconv.Itoa(len(outcome.Records)))
	w.Header().Set("X-Run-Id", outcome.RunID)
	if err := export.WriteCSV(w, outcome.Records); err != nil {
		logger.Log.WithError(err).Error("failed to write CSV response")
	}
}

func (h *HTTPHandler) handleCorrelate(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.process(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":  outcome.RunID,
		"stats":   outcome.Stat,
		"records": outcome.Records,
	})
}

func (h *HTTPHandler) process(w http.ResponseWriter, r *http.Request) (*Outcome, bool) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	outcome, err := h.service.Correlate(r.Context(), r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			http.Error(w, "export too large", http.StatusRequestEntityTooLarge)
		case IsValidationError(err):
			logger.Log.WithError(err).Warn("invalid export document")
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			logger.Log.WithError(err).Error("failed to correlate export")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return nil, false
	}

	if _, err := h.service.Deliver(r.Context(), outcome); err != nil {
		logger.Log.WithError(err).WithField("run_id", outcome.RunID).Error("failed to deliver records")
		http.Error(w, "failed to deliver records", http.StatusBadGateway)
		return nil, false
	}

	h.service.observeSuccess(outcome.Stat, outcome.Took)
	return outcome, true
}
