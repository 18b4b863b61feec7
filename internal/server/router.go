// Package server exposes the small operational HTTP surface: liveness and
// ingestion counters. The pipeline itself has no request API.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// StatusSource reports what has been ingested so far.
type StatusSource interface {
	Counts(ctx context.Context) (files, chunks, qas int64, err error)
}

type statusPayload struct {
	Files   int64 `json:"files"`
	Chunks  int64 `json:"chunks"`
	QAPairs int64 `json:"qa_pairs"`
}

// SuccessResponse wraps successful responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func NewRouter(status StatusSource, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, SuccessResponse{Data: map[string]string{"status": "ok"}})
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		files, chunks, qas, err := status.Counts(req.Context())
		if err != nil {
			logger.Error().Err(err).Msg("failed to read ingestion counters")
			JSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to read ingestion counters"})
			return
		}
		JSON(w, http.StatusOK, SuccessResponse{Data: statusPayload{Files: files, Chunks: chunks, QAPairs: qas}})
	})

	return r
}
