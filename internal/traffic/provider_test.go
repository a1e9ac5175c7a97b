package traffic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optimile/internal/models"
)

func TestFetchIncidentsNoAPIKeyReturnsEmpty(t *testing.T) {
	c := NewVendorClient("")
	coords := []models.Coordinates{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}

	got, err := c.FetchIncidents(context.Background(), coords)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchIncidentsDegradesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewVendorClient("test-key")
	c.BaseURL = srv.URL
	coords := []models.Coordinates{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}

	got, err := c.FetchIncidents(context.Background(), coords)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchIncidentsMapsCategoriesAndClampsSeverity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"incidents": [
				{
					"properties": {"magnitudeOfDelay": 10, "incidentCategory": "Accident"},
					"geometry": {"coordinates": [[1.0, 1.0]]}
				},
				{
					"properties": {"magnitudeOfDelay": 0.1, "incidentCategory": "RoadClosed"},
					"geometry": {"coordinates": [[2.0, 2.0]]}
				}
			]
		}`))
	}))
	defer srv.Close()

	c := NewVendorClient("test-key")
	c.BaseURL = srv.URL
	coords := []models.Coordinates{
		{Lat: 0, Lng: 0},
		{Lat: 1, Lng: 1},
		{Lat: 2, Lng: 2},
	}

	got, err := c.FetchIncidents(context.Background(), coords)

	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.IncidentAccident, got[0].Kind)
	assert.Equal(t, 1.0, got[0].Severity) // clamped to max 1.0
	assert.Equal(t, 1, got[0].Index)

	assert.Equal(t, models.IncidentRoadClosed, got[1].Kind)
	assert.Equal(t, 0.1, got[1].Severity) // 0.1/5.0=0.02, clamped up to min 0.1
	assert.Equal(t, 2, got[1].Index)
}

func TestMapCategoryDefaultsToTrafficJam(t *testing.T) {
	assert.Equal(t, models.IncidentTrafficJam, mapCategory("Jam"))
	assert.Equal(t, models.IncidentTrafficJam, mapCategory(""))
}

func TestClampSeverityBounds(t *testing.T) {
	assert.Equal(t, 0.1, clampSeverity(0.0))
	assert.Equal(t, 1.0, clampSeverity(5.0))
	assert.Equal(t, 0.5, clampSeverity(0.5))
}
