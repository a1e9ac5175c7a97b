package handlers

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"time"

	"optimile/internal/alns"
	"optimile/internal/apperrors"
	"optimile/internal/cost"
	"optimile/internal/decision"
	"optimile/internal/geometry"
	"optimile/internal/incident"
	"optimile/internal/models"

	"optimile/internal/anomalylog"
)

// alnsTimeout bounds a single optimize/reoptimize call end to end,
// including the bounded live-traffic fetch on the reoptimize path.
const alnsTimeout = 10 * time.Second

// HandleOptimize implements POST /api/v1/optimize (spec §6).
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req models.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleValidationError(w, "malformed request body: "+err.Error())
		return
	}

	vehicle, traffic, err := validateVehicleAndTraffic(req.Vehicle, req.Traffic)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if err := validateStops(req.Stops); err != nil {
		h.handleError(w, err)
		return
	}

	startMin := req.StartTime
	start := wallClockMinute()
	if startMin != nil {
		start = *startMin
	}

	var inc *models.Incident
	if len(req.Incidents) > 0 {
		best := req.Incidents[0]
		for _, i := range req.Incidents[1:] {
			if i.Severity > best.Severity {
				best = i
			}
		}
		inc = &best
	}

	ctx := models.Context{
		Vehicle:   vehicle,
		Traffic:   traffic,
		Weather:   req.Weather,
		StartMin:  start,
		DayOfWeek: time.Now().Weekday(),
		Incident:  inc,
	}

	runCtx, cancel := context.WithTimeout(r.Context(), alnsTimeout)
	defer cancel()

	result := alns.Run(runCtx, alns.Request{Stops: req.Stops, Context: ctx, Iters: h.Config.ALNSIterations})

	h.writeJSON(w, http.StatusOK, models.OptimizeResponse{
		Route: materializeRoute(result.Route, req.Stops),
		Cost:  round3(result.Cost),
	})
}

// HandleReoptimize implements POST /api/v1/reoptimize (spec §6).
func (h *Handler) HandleReoptimize(w http.ResponseWriter, r *http.Request) {
	var req models.ReoptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleValidationError(w, "malformed request body: "+err.Error())
		return
	}

	vehicle, trafficLevel, err := validateVehicleAndTraffic(req.Vehicle, req.Traffic)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if err := validateStops(req.RemainingStops); err != nil {
		h.handleError(w, err)
		return
	}

	driverStop := models.Stop{Lat: req.CurrentLat, Lng: req.CurrentLng}
	stops := append([]models.Stop{driverStop}, req.RemainingStops...)

	reqCtx, cancel := context.WithTimeout(r.Context(), alnsTimeout)
	defer cancel()

	coords := make([]models.Coordinates, len(stops))
	for i, s := range stops {
		coords[i] = s.GetCoords()
	}

	startMin := wallClockMinute()
	if req.StartTime != nil {
		startMin = *req.StartTime
	}

	var live []models.Incident
	if h.TrafficProvider != nil {
		fetched, err := h.TrafficProvider.FetchIncidents(reqCtx, coords)
		if err != nil {
			// Never fatal (spec §7 ProviderError): log and proceed with
			// whatever incidents the caller already supplied.
			log.Printf("[HTTP] %v", &apperrors.ProviderError{Reason: "live incident fetch failed", Cause: err})
		} else {
			live = fetched
		}
	}

	agg := incident.Aggregate(req.Incidents, live, req.Reason, req.Severity)

	memo := geometry.NewMatrix(coords)
	identity := make([]int, len(stops))
	for i := range identity {
		identity[i] = i
	}
	baseCtx := models.Context{Vehicle: vehicle, Traffic: trafficLevel, Weather: req.Weather, StartMin: startMin, DayOfWeek: time.Now().Weekday()}
	baselineCost, err := cost.Evaluate(identity, stops, memo, baseCtx)
	if err != nil {
		baselineCost = 0
	}

	var delayMin float64
	nextFragile := len(req.RemainingStops) > 0 && req.RemainingStops[0].IsFragile
	if agg != nil {
		delayMin = decision.EstimateDelay(agg.Kind, baselineCost)
	}

	reopt := decision.ShouldReoptimize(delayMin, nextFragile, req.SlackMin, req.LastReoptSec)

	resp := models.ReoptimizeResponse{
		Route:    req.RemainingStops,
		Cost:     round3(baselineCost),
		Rerouted: false,
		DelayMin: round3(delayMin),
	}

	if reopt {
		runCtx := models.Context{
			Vehicle:   vehicle,
			Traffic:   trafficLevel,
			Weather:   req.Weather,
			StartMin:  baseCtx.StartMin,
			DayOfWeek: baseCtx.DayOfWeek,
			Incident:  agg,
		}
		result := alns.Run(reqCtx, alns.Request{Stops: stops, Context: runCtx, Iters: h.Config.ALNSIterations})
		resp.Route = materializeRoute(result.Route, stops)[1:] // drop the synthetic driver-position anchor
		resp.Cost = round3(result.Cost)
		resp.Rerouted = true
	}

	if h.AnomalyLog != nil {
		_ = h.AnomalyLog.Append(anomalylog.Record{
			Reason:    req.Reason,
			DelayMin:  resp.DelayMin,
			Rerouted:  resp.Rerouted,
			RouteCost: resp.Cost,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func materializeRoute(route []int, stops []models.Stop) []models.Stop {
	out := make([]models.Stop, len(route))
	for i, idx := range route {
		out[i] = stops[idx]
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func wallClockMinute() int {
	now := time.Now()
	return now.Hour()*60 + now.Minute()
}

func validateVehicleAndTraffic(vehicleRaw, trafficRaw string) (models.VehicleClass, models.TrafficLevel, error) {
	vehicle := models.VehicleClass(vehicleRaw)
	switch vehicle {
	case models.VehicleMotorcycle, models.VehicleScooter, models.VehicleVan:
	case "":
		vehicle = models.VehicleVan
	default:
		return "", "", &apperrors.ValidationError{Reason: "unknown vehicle class: " + vehicleRaw}
	}

	trafficLevel := models.TrafficLevel(trafficRaw)
	switch trafficLevel {
	case models.TrafficLow, models.TrafficNormal, models.TrafficMedium, models.TrafficHeavy:
	case "":
		trafficLevel = models.TrafficNormal
	default:
		return "", "", &apperrors.ValidationError{Reason: "unknown traffic level: " + trafficRaw}
	}

	return vehicle, trafficLevel, nil
}

func validateStops(stops []models.Stop) error {
	if len(stops) < 2 {
		return &apperrors.ValidationError{Reason: "at least 2 stops are required"}
	}
	for _, s := range stops {
		if s.HasStart() && s.HasEnd() && *s.Start > *s.End {
			return &apperrors.ValidationError{Reason: "stop window_start must be <= window_end"}
		}
		if s.HasStart() && (*s.Start < 0 || *s.Start >= 1440) {
			return &apperrors.ValidationError{Reason: "stop window_start must be in [0, 1440)"}
		}
		if s.HasEnd() && (*s.End < 0 || *s.End >= 1440) {
			return &apperrors.ValidationError{Reason: "stop window_end must be in [0, 1440)"}
		}
	}
	return nil
}
