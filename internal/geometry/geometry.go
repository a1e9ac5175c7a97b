// Package geometry provides the distance and vehicle-speed primitives
// the cost function builds on (spec §4.A).
package geometry

import (
	"math"

	"optimile/internal/models"
)

// earthRadiusKM is used only by HaversineKM, the documented legacy
// metric; the ALNS core never calls it.
const earthRadiusKM = 6371.0

// Distance returns the Euclidean distance between two points in raw
// (lat, lng) degrees. This is the metric the ALNS cost function is
// tuned against (spec §4.A/§9): penalty constants in internal/cost
// assume this unit, not kilometres or minutes.
func Distance(a, b models.Coordinates) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// HaversineKM returns the great-circle distance between two points in
// kilometres. This is the legacy metric used by the distance-minimizing
// router the ALNS core superseded; it is kept here only as the
// documented alternative and is never fed into the analytic cost path.
func HaversineKM(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKM * c
}

// VehicleSpeed returns the cruise speed for a vehicle class, in
// degree-equivalents per minute — deliberately not km/h or m/s, so
// that travel = distance/speed comes out already in the minutes unit
// the rest of the cost function accumulates in.
func VehicleSpeed(class models.VehicleClass) float64 {
	switch class {
	case models.VehicleMotorcycle:
		return 0.9
	case models.VehicleScooter:
		return 0.75
	case models.VehicleVan:
		return 0.6
	default:
		return 0.7
	}
}

// Matrix is a per-call symmetric n×n table of pairwise distances,
// computed once and reused across every leg evaluation in a single
// optimize/reoptimize call. It must not be retained across calls
// (spec §5 resource policy).
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix builds the full pairwise-distance table for the given
// points up front.
func NewMatrix(points []models.Coordinates) *Matrix {
	n := len(points)
	m := &Matrix{n: n, data: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(points[i], points[j])
			m.data[i*n+j] = d
			m.data[j*n+i] = d
		}
	}
	return m
}

// At returns the memoized distance between points i and j.
func (m *Matrix) At(i, j int) float64 {
	if i == j {
		return 0
	}
	return m.data[i*m.n+j]
}
