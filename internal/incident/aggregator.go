// Package incident implements the reoptimize-path incident aggregator
// (spec §4.I): merging explicit, live-provider, and reason-derived
// incidents into the single most-severe incident the cost function
// and decision gate act on.
package incident

import "optimile/internal/models"

// knownReasonKinds are the high-level reasons that can synthesize an
// incident when no explicit or live incident was supplied.
var knownReasonKinds = map[string]models.IncidentKind{
	"traffic_jam": models.IncidentTrafficJam,
	"accident":    models.IncidentAccident,
	"road_closed": models.IncidentRoadClosed,
}

// Aggregate merges explicit incidents (indices relative to the
// remaining-stops list, shifted by +1 for the driver-position anchor
// at index 0), live incidents from the traffic provider (already in
// full-route frame), and an optional reason label into the single
// most severe incident. Returns nil if nothing could be determined.
func Aggregate(explicit []models.Incident, live []models.Incident, reason string, reasonSeverity *float64) *models.Incident {
	merged := make([]models.Incident, 0, len(explicit)+len(live)+1)

	for _, inc := range explicit {
		shifted := inc
		shifted.Index = inc.Index + 1
		merged = append(merged, shifted)
	}
	merged = append(merged, live...)

	if len(merged) == 0 {
		if kind, ok := knownReasonKinds[reason]; ok {
			severity := 1.0
			if reasonSeverity != nil {
				severity = *reasonSeverity
			}
			merged = append(merged, models.Incident{Index: 1, Kind: kind, Severity: severity})
		}
	}

	if len(merged) == 0 {
		return nil
	}

	best := merged[0]
	for _, inc := range merged[1:] {
		if inc.Severity > best.Severity {
			best = inc
		}
	}
	return &best
}
