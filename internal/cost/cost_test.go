package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optimile/internal/geometry"
	"optimile/internal/models"
)

func windowed(lat, lng float64, fragile bool, start, end int) models.Stop {
	s, e := start, end
	return models.Stop{Lat: lat, Lng: lng, IsFragile: fragile, Window: models.Window{Start: &s, End: &e}}
}

func s1Stops() []models.Stop {
	return []models.Stop{
		windowed(0, 0, false, 480, 1320),
		windowed(0.06, 0, false, 480, 1320),
		windowed(0.01, 0, false, 480, 1320),
		windowed(0.02, 0.01, false, 480, 1320),
	}
}

func coordsOf(stops []models.Stop) []models.Coordinates {
	pts := make([]models.Coordinates, len(stops))
	for i, s := range stops {
		pts[i] = s.GetCoords()
	}
	return pts
}

func TestCostMonotoneInTraffic(t *testing.T) {
	stops := s1Stops()
	memo := geometry.NewMatrix(coordsOf(stops))
	route := []int{0, 1, 2, 3}

	levels := []models.TrafficLevel{models.TrafficLow, models.TrafficNormal, models.TrafficMedium, models.TrafficHeavy}
	var costs []float64
	for _, lvl := range levels {
		ctx := models.Context{Vehicle: models.VehicleVan, Traffic: lvl, StartMin: 480}
		c, err := Evaluate(route, stops, memo, ctx)
		require.NoError(t, err)
		costs = append(costs, c)
	}

	for i := 1; i < len(costs); i++ {
		assert.Greater(t, costs[i], costs[i-1], "traffic level %d should strictly increase cost", i)
	}
}

func TestCostRoadClosedAddsAtLeastFlatPenalty(t *testing.T) {
	stops := s1Stops()
	memo := geometry.NewMatrix(coordsOf(stops))
	route := []int{0, 1, 2, 3}
	ctx := models.Context{Vehicle: models.VehicleVan, Traffic: models.TrafficNormal, StartMin: 480}

	base, err := Evaluate(route, stops, memo, ctx)
	require.NoError(t, err)

	ctx.Incident = &models.Incident{Index: 1, Kind: models.IncidentRoadClosed, Severity: 1.0}
	withIncident, err := Evaluate(route, stops, memo, ctx)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, withIncident, base+200-1e-9)
}

func TestCostDeterministic(t *testing.T) {
	stops := s1Stops()
	memo := geometry.NewMatrix(coordsOf(stops))
	route := []int{0, 1, 2, 3}
	ctx := models.Context{Vehicle: models.VehicleVan, Traffic: models.TrafficNormal, StartMin: 480}

	a, err := Evaluate(route, stops, memo, ctx)
	require.NoError(t, err)
	b, err := Evaluate(route, stops, memo, ctx)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCostZeroLengthLegIsZeroCost(t *testing.T) {
	stops := []models.Stop{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0},
	}
	memo := geometry.NewMatrix(coordsOf(stops))
	ctx := models.Context{Vehicle: models.VehicleVan, Traffic: models.TrafficNormal, StartMin: 480}

	c, err := Evaluate([]int{0, 1}, stops, memo, ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, c)
}

func TestCostFragilePenaltyAppliesOnFragileArrival(t *testing.T) {
	stops := []models.Stop{
		{Lat: 0, Lng: 0},
		{Lat: 0.03, Lng: 0, IsFragile: false},
		{Lat: 0.06, Lng: 0, IsFragile: true},
	}
	memo := geometry.NewMatrix(coordsOf(stops))
	ctx := models.Context{Vehicle: models.VehicleVan, Traffic: models.TrafficNormal, StartMin: 480}

	withFragile, err := Evaluate([]int{0, 1, 2}, stops, memo, ctx)
	require.NoError(t, err)

	stops[2].IsFragile = false
	withoutFragile, err := Evaluate([]int{0, 1, 2}, stops, memo, ctx)
	require.NoError(t, err)

	assert.Greater(t, withFragile, withoutFragile)
}

func TestCostLatenessMoreExpensiveThanWaiting(t *testing.T) {
	// Same magnitude slack, waiting must cost less than lateness (0.2 vs 6.0 multiplier).
	early := 0
	late := 5
	stopsWait := []models.Stop{
		{Lat: 0, Lng: 0},
		{Lat: 1, Lng: 0, Window: models.Window{Start: &late}},
	}
	stopsLate := []models.Stop{
		{Lat: 0, Lng: 0},
		{Lat: 1, Lng: 0, Window: models.Window{End: &early}},
	}
	ctx := models.Context{Vehicle: models.VehicleVan, Traffic: models.TrafficNormal, StartMin: 0}

	memo := geometry.NewMatrix(coordsOf(stopsWait))
	waitCost, err := Evaluate([]int{0, 1}, stopsWait, memo, ctx)
	require.NoError(t, err)

	memo2 := geometry.NewMatrix(coordsOf(stopsLate))
	lateCost, err := Evaluate([]int{0, 1}, stopsLate, memo2, ctx)
	require.NoError(t, err)

	assert.Less(t, waitCost, lateCost)
}
