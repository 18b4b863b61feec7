package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatus struct {
	files, chunks, qas int64
	err                error
}

func (f *fakeStatus) Counts(ctx context.Context) (int64, int64, int64, error) {
	return f.files, f.chunks, f.qas, f.err
}

func TestHealth(t *testing.T) {
	router := NewRouter(&fakeStatus{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	router := NewRouter(&fakeStatus{files: 3, chunks: 12, qas: 25}, zerolog.Nop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data statusPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Data.Files)
	assert.Equal(t, int64(12), resp.Data.Chunks)
	assert.Equal(t, int64(25), resp.Data.QAPairs)
}

func TestStatus_CounterFailure(t *testing.T) {
	router := NewRouter(&fakeStatus{err: errors.New("db down")}, zerolog.Nop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
