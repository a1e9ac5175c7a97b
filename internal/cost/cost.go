// Package cost implements the context-aware cost function that
// converts a route permutation plus real-time context into a scalar
// expected-delivery-time cost (spec §4.B). It is pure: two calls with
// identical arguments return exactly the same value.
package cost

import (
	"math"

	"optimile/internal/apperrors"
	"optimile/internal/geometry"
	"optimile/internal/models"
)

// trafficMultiplier scales per-leg travel time by qualitative
// congestion level.
func trafficMultiplier(level models.TrafficLevel) float64 {
	switch level {
	case models.TrafficLow:
		return 0.9
	case models.TrafficNormal:
		return 1.0
	case models.TrafficMedium:
		return 1.15
	case models.TrafficHeavy:
		return 1.35
	default:
		return 1.0
	}
}

// incidentPenalty returns the additive penalty for a live incident
// landing on the stop being arrived at.
func incidentPenalty(inc *models.Incident, arrivingAt int) float64 {
	if inc == nil || inc.Index != arrivingAt {
		return 0
	}
	switch inc.Kind {
	case models.IncidentTrafficJam:
		return inc.Severity * 35
	case models.IncidentAccident:
		return inc.Severity * 60
	case models.IncidentRoadClosed:
		return 200
	default:
		return 0
	}
}

// Backend is the pluggable cost-oracle seam named in spec §6: the
// legacy path treats a trained ETA regressor as an alternate backend,
// swappable behind this interface. Only AnalyticBackend is
// implemented in this repo; the regression backend's training
// pipeline is out of scope (spec §1). Nothing in this repo takes a
// Backend as a parameter: alns.Run and its operators call the
// package-level Evaluate, which always uses AnalyticBackend.
type Backend interface {
	Evaluate(route []int, stops []models.Stop, memo *geometry.Matrix, ctx models.Context) (float64, error)
}

// AnalyticBackend is the default cost backend: the simulated,
// left-to-right accumulation described in spec §4.B.
type AnalyticBackend struct{}

// Evaluate simulates the route left-to-right, maintaining a clock and
// an additive cost accumulator, exactly per spec §4.B steps 1-5.
func (AnalyticBackend) Evaluate(route []int, stops []models.Stop, memo *geometry.Matrix, ctx models.Context) (float64, error) {
	if len(route) < 2 {
		return 0, nil
	}

	speed := geometry.VehicleSpeed(ctx.Vehicle)
	mult := trafficMultiplier(ctx.Traffic)

	t := float64(ctx.StartMin)
	c := 0.0

	for i := 0; i < len(route)-1; i++ {
		a, b := route[i], route[i+1]

		leg := memo.At(a, b)
		travel := (leg / speed) * mult
		t += travel
		c += travel

		c += incidentPenalty(ctx.Incident, b)

		win := stops[b].Window
		if win.HasStart() && t < float64(*win.Start) {
			c += 0.2 * (float64(*win.Start) - t)
			t = float64(*win.Start)
		}
		if win.HasEnd() && t > float64(*win.End) {
			c += 6.0 * (t - float64(*win.End))
		}

		if stops[b].IsFragile {
			c += 2.0 * travel
		}

		if i >= 2 {
			smooth, err := smoothnessPenalty(stops, route, i, leg, memo)
			if err != nil {
				return 0, err
			}
			c += smooth
		}

		if math.IsNaN(c) || math.IsInf(c, 0) {
			return 0, &apperrors.NumericError{Reason: "cost accumulator produced NaN/Inf"}
		}
	}

	return c, nil
}

// smoothnessPenalty computes the turn-angle penalty between the leg
// ending at route[i] and the leg starting at route[i] (spec §4.B
// step 5). i is the index of the "pivot" stop and must be >= 1 so
// that route[i-1] exists.
func smoothnessPenalty(stops []models.Stop, route []int, i int, leg float64, memo *geometry.Matrix) (float64, error) {
	prevLeg := memo.At(route[i-1], route[i])
	if prevLeg == 0 || leg == 0 {
		// Zero-length legs carry no directional information; treat as
		// zero-cost rather than dividing by zero below.
		return 0, nil
	}

	prev := stops[route[i-1]].GetCoords()
	cur := stops[route[i]].GetCoords()
	next := stops[route[i+1]].GetCoords()

	v1x, v1y := cur.Lat-prev.Lat, cur.Lng-prev.Lng
	v2x, v2y := next.Lat-cur.Lat, next.Lng-cur.Lng

	mag1 := math.Sqrt(v1x*v1x + v1y*v1y)
	mag2 := math.Sqrt(v2x*v2x + v2y*v2y)
	if mag1 == 0 || mag2 == 0 {
		return 0, nil
	}

	cosAngle := (v1x*v2x + v1y*v2y) / (mag1 * mag2)
	if cosAngle > 1 {
		cosAngle = 1
	}
	if cosAngle < -1 {
		cosAngle = -1
	}

	angleDeg := math.Acos(cosAngle) * 180 / math.Pi
	if angleDeg < 45 {
		return 0.3 * leg, nil
	}
	return 0, nil
}

// Evaluate runs the default analytic backend. It is the entry point
// the ALNS driver and its operators call.
func Evaluate(route []int, stops []models.Stop, memo *geometry.Matrix, ctx models.Context) (float64, error) {
	return AnalyticBackend{}.Evaluate(route, stops, memo, ctx)
}

// RegressionBackend documents the pluggable seam named in spec §6:
// the source's legacy path swaps in a separately trained ETA
// regressor as the cost oracle. Its training pipeline is out of
// scope (spec §1), so this backend has nothing to call and always
// reports itself unavailable rather than returning a fabricated cost.
type RegressionBackend struct {
	ModelPath string
}

func (RegressionBackend) Evaluate(route []int, stops []models.Stop, memo *geometry.Matrix, ctx models.Context) (float64, error) {
	return 0, ErrBackendUnavailable
}

// ErrBackendUnavailable is returned by any Backend that cannot
// produce a cost (currently only RegressionBackend).
var ErrBackendUnavailable = &apperrors.ProviderError{Reason: "cost backend unavailable: regression backend has no trained model in this deployment"}
