package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visaflow/internal/infrastructure/metrics"
)

type pingRoutes struct{}

func (pingRoutes) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) { panic("boom") })
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewRouter_MountsRoutes(t *testing.T) {
	h := NewRouter(nil, nil, zap.NewNop(), pingRoutes{})

	assert.Equal(t, http.StatusNoContent, serve(h, "/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, "/metrics").Code)
}

func TestNewRouter_RecoversPanics(t *testing.T) {
	h := NewRouter(nil, nil, zap.NewNop(), pingRoutes{})

	assert.Equal(t, http.StatusInternalServerError, serve(h, "/panic").Code)
}

func TestNewRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncrementTransition("MATCHING")

	rec := serve(NewRouter(reg, nil, zap.NewNop()), "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `visaflow_order_stage_transitions_total{status="MATCHING"} 1`))
}

func TestHealth(t *testing.T) {
	checks := map[string]HealthCheck{
		"mysql": func(ctx context.Context) error { return nil },
	}
	rec := serve(NewRouter(nil, checks, zap.NewNop()), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP","checks":{"mysql":"UP"}}`, rec.Body.String())

	checks["redis"] = func(ctx context.Context) error { return errors.New("connection refused") }
	rec = serve(NewRouter(nil, checks, zap.NewNop()), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"DOWN","checks":{"mysql":"UP","redis":"DOWN"}}`, rec.Body.String())
}
