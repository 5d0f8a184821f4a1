package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yash/flightprice/internal/encoding"
	"github.com/yash/flightprice/internal/features"
	"github.com/yash/flightprice/internal/history"
	"github.com/yash/flightprice/internal/metrics"
	"github.com/yash/flightprice/internal/pricing"
	"github.com/yash/flightprice/pkg/models"
)

// maxBodyBytes bounds a quote request body.
const maxBodyBytes = 64 << 10

// ---------------------------------------------------------------------------
// Health Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).String(),
		"version":   Version,
		"columns":   s.est.Schema().Len(),
	}
	if s.monitor != nil {
		health["memory"] = s.monitor.Stats()
	}

	status := http.StatusOK
	if !s.ready.Load() {
		health["status"] = "starting"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, health)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready.Load() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("not ready"))
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.Write([]byte(metrics.Default().Export()))
}

// ---------------------------------------------------------------------------
// API Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	id := RequestID(r.Context())

	if s.monitor != nil && s.monitor.ShouldShed() {
		metrics.HTTPShed.Inc()
		s.respondError(w, r, http.StatusServiceUnavailable, "overloaded",
			errors.New("memory pressure, retry later"))
		return
	}

	var req models.QuoteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "bad_request", fmt.Errorf("decode request: %w", err))
		return
	}

	raw, err := pricing.ParseRequest(req, s.est.Deriver().Tables())
	if err != nil {
		s.respondQuoteError(w, r, err)
		return
	}

	q, err := s.est.Quote(r.Context(), raw)
	if err != nil {
		s.respondQuoteError(w, r, err)
		return
	}

	withVector := s.includeVector
	if v := r.URL.Query().Get("vector"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			withVector = b
		}
	}

	s.log.Debug("quote",
		zap.String("request_id", id),
		zap.Stringer("source", raw.Source),
		zap.Stringer("destination", raw.Destination),
		zap.Stringer("airline", raw.Airline),
		zap.Float64("price", q.Price))

	respondJSON(w, http.StatusOK, pricing.Response(id, q, withVector))
}

func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	src, err := features.ParseCity(params.Get("source"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "unknown_value", err)
		return
	}
	dst, err := features.ParseCity(params.Get("destination"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "unknown_value", err)
		return
	}
	if src == dst {
		s.respondError(w, r, http.StatusBadRequest, "invalid_input",
			fmt.Errorf("source and destination are both %s", src))
		return
	}

	stops := 0
	if v := params.Get("stops"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > features.MaxStops {
			s.respondError(w, r, http.StatusBadRequest, "invalid_input",
				fmt.Errorf("stops must be an integer between 0 and %d", features.MaxStops))
			return
		}
		stops = n
	}

	sug := history.Suggestion{DurationMins: history.DefaultDurationMins, Fallback: true}
	if s.history != nil {
		sug, err = s.history.SuggestDuration(r.Context(), src, dst, stops)
		if err != nil {
			s.respondError(w, r, http.StatusInternalServerError, "internal", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, models.DurationSuggestion{
		Source:       src.String(),
		Destination:  dst.String(),
		Stops:        stops,
		DurationMins: sug.DurationMins,
		Samples:      sug.Samples,
		Fallback:     sug.Fallback,
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	cols := s.est.Schema().Columns()
	respondJSON(w, http.StatusOK, models.SchemaResponse{Columns: cols, Count: len(cols)})
}

func (s *Server) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalogue)
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// quoteErrorStatus maps a pricing pipeline error to a status and code.
func quoteErrorStatus(err error) (int, string) {
	var mie *pricing.ModelInvocationError
	switch {
	case errors.Is(err, pricing.ErrInvalidDuration):
		return http.StatusBadRequest, "invalid_duration"
	case errors.Is(err, pricing.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, features.ErrUnknownValue), errors.Is(err, features.ErrUnknownCity):
		return http.StatusBadRequest, "unknown_value"
	case errors.Is(err, encoding.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity, "schema_mismatch"
	case errors.As(err, &mie):
		return http.StatusBadGateway, "model_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) respondQuoteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := quoteErrorStatus(err)
	s.respondError(w, r, status, code, err)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	id := RequestID(r.Context())
	fields := []zap.Field{
		zap.String("request_id", id),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("code", code),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", fields...)
	} else {
		s.log.Debug("request rejected", fields...)
	}

	respondJSON(w, status, models.ErrorResponse{RequestID: id, Error: err.Error(), Code: code})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
