package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optimile/internal/anomalylog"
	"optimile/internal/models"
)

type mockTrafficProvider struct {
	incidents []models.Incident
	err       error
}

func (m *mockTrafficProvider) FetchIncidents(ctx context.Context, coords []models.Coordinates) ([]models.Incident, error) {
	return m.incidents, m.err
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	alog, err := anomalylog.Open(filepath.Join(t.TempDir(), "anomalies.ndjson"))
	require.NoError(t, err)
	return &Handler{
		TrafficProvider: &mockTrafficProvider{},
		AnomalyLog:      alog,
	}
}

func s1Stops() []models.Stop {
	return []models.Stop{
		{Lat: 0, Lng: 0},
		{Lat: 0.06, Lng: 0},
		{Lat: 0.01, Lng: 0},
		{Lat: 0.02, Lng: 0.01},
	}
}

func TestHandleOptimizeReturnsPermutationAndCost(t *testing.T) {
	h := newTestHandler(t)

	body, err := json.Marshal(models.OptimizeRequest{
		Stops:   s1Stops(),
		Vehicle: "van",
		Traffic: "Normal",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleOptimize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Route, 4)
	assert.Equal(t, s1Stops()[0], resp.Route[0])
	assert.Greater(t, resp.Cost, 0.0)
}

func TestHandleOptimizeRejectsTooFewStops(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(models.OptimizeRequest{
		Stops:   []models.Stop{{Lat: 0, Lng: 0}},
		Vehicle: "van",
		Traffic: "Normal",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleOptimize(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOptimizeRejectsUnknownVehicle(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(models.OptimizeRequest{
		Stops:   s1Stops(),
		Vehicle: "hovercraft",
		Traffic: "Normal",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleOptimize(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleReoptimizeShortCircuitsWhenDelayImmaterial(t *testing.T) {
	h := newTestHandler(t)

	body, err := json.Marshal(models.ReoptimizeRequest{
		CurrentLat:     0,
		CurrentLng:     0,
		RemainingStops: s1Stops()[1:],
		Vehicle:        "van",
		Traffic:        "Normal",
		Reason:         "unknown",
		SlackMin:       10,
		LastReoptSec:   120,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reoptimize", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleReoptimize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ReoptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Rerouted)
	assert.Equal(t, s1Stops()[1:], resp.Route)
}

func TestHandleReoptimizeReroutesOnSevereIncident(t *testing.T) {
	h := newTestHandler(t)
	h.TrafficProvider = &mockTrafficProvider{
		incidents: []models.Incident{{Index: 1, Kind: models.IncidentRoadClosed, Severity: 1.0}},
	}

	body, err := json.Marshal(models.ReoptimizeRequest{
		CurrentLat:     0,
		CurrentLng:     0,
		RemainingStops: s1Stops()[1:],
		Vehicle:        "van",
		Traffic:        "Normal",
		Reason:         "road_closed",
		SlackMin:       0.1,
		LastReoptSec:   9999,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reoptimize", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleReoptimize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ReoptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Rerouted)
	assert.Len(t, resp.Route, 3)
}
