// Package traffic is the live-traffic provider external collaborator
// (spec §6): it queries a vendor incident API for the bounding box
// covering the current route and maps the response onto our Incident
// shape. Grounded on internal/distance/osrm.go's timeout/context/JSON
// client shape and literally on the category-mapping, severity-clamp,
// and graceful-degrade behavior of
// _examples/original_source/optimile-main/model/traffic_provider.py.
package traffic

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"optimile/internal/models"
)

// fetchTimeout bounds the vendor call; spec §5 requires "a bounded
// network call to the live-traffic provider (≤ 2.5 s)".
const fetchTimeout = 2500 * time.Millisecond

// Provider fetches live incidents along a route.
type Provider interface {
	FetchIncidents(ctx context.Context, coords []models.Coordinates) ([]models.Incident, error)
}

// VendorClient calls a TomTom-shaped traffic-incidents API. With no
// API key configured it is a documented no-op: callers always get an
// empty incident list rather than an error.
type VendorClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewVendorClient constructs a client with the package's default
// timeout. An empty apiKey disables live incidents entirely.
func NewVendorClient(apiKey string) *VendorClient {
	return &VendorClient{
		BaseURL: "https://api.tomtom.com/traffic/services/5/incidentDetails",
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

type vendorResponse struct {
	Incidents []vendorIncident `json:"incidents"`
}

type vendorIncident struct {
	Properties struct {
		MagnitudeOfDelay  float64 `json:"magnitudeOfDelay"`
		IncidentCategory  string  `json:"incidentCategory"`
	} `json:"properties"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

// FetchIncidents queries the vendor API for incidents within the
// bounding box of coords and maps each to our Incident shape,
// assigning it to the nearest downstream stop (index >= 1). Any
// error, timeout, or missing credential degrades to an empty list —
// this must never be fatal to the caller (spec §7 ProviderError).
func (c *VendorClient) FetchIncidents(ctx context.Context, coords []models.Coordinates) ([]models.Incident, error) {
	if c.APIKey == "" || len(coords) < 2 {
		return nil, nil
	}

	south, west, north, east := boundingBox(coords)

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("bbox", fmt.Sprintf("%f,%f,%f,%f", south, west, north, east))
	q.Set("key", c.APIKey)
	q.Set("fields", "id,geometry,properties{iconCategory,magnitudeOfDelay,incidentCategory}")
	q.Set("language", "en-GB")

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		log.Printf("[TRAFFIC] failed to build request: %v", err)
		return nil, nil
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Printf("[TRAFFIC] incident API error: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[TRAFFIC] incident API returned status=%d", resp.StatusCode)
		return nil, nil
	}

	var parsed vendorResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Printf("[TRAFFIC] failed to decode incident API response: %v", err)
		return nil, nil
	}

	mapped := mapIncidents(parsed.Incidents, coords)
	if len(mapped) > 0 {
		log.Printf("[TRAFFIC] live incidents mapped=%d", len(mapped))
	}
	return mapped, nil
}

func boundingBox(coords []models.Coordinates) (south, west, north, east float64) {
	south, west = coords[0].Lat, coords[0].Lng
	north, east = coords[0].Lat, coords[0].Lng
	for _, c := range coords[1:] {
		if c.Lat < south {
			south = c.Lat
		}
		if c.Lat > north {
			north = c.Lat
		}
		if c.Lng < west {
			west = c.Lng
		}
		if c.Lng > east {
			east = c.Lng
		}
	}
	return south, west, north, east
}

func mapCategory(raw string) models.IncidentKind {
	cat := strings.ToLower(raw)
	switch {
	case strings.Contains(cat, "accident"):
		return models.IncidentAccident
	case strings.Contains(cat, "road") && strings.Contains(cat, "closed"):
		return models.IncidentRoadClosed
	default:
		return models.IncidentTrafficJam
	}
}

func clampSeverity(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

func mapIncidents(raw []vendorIncident, coords []models.Coordinates) []models.Incident {
	var mapped []models.Incident

	for _, inc := range raw {
		points := inc.Geometry.Coordinates
		if len(points) == 0 || len(points[0]) < 2 {
			continue
		}
		// Vendor coordinates are [lng, lat].
		lng, lat := points[0][0], points[0][1]

		bestIdx := -1
		bestDist2 := 0.0
		for idx := 1; idx < len(coords); idx++ {
			dLat := coords[idx].Lat - lat
			dLng := coords[idx].Lng - lng
			d2 := dLat*dLat + dLng*dLng
			if bestIdx == -1 || d2 < bestDist2 {
				bestIdx = idx
				bestDist2 = d2
			}
		}
		if bestIdx == -1 {
			continue
		}

		mapped = append(mapped, models.Incident{
			Index:    bestIdx,
			Kind:     mapCategory(inc.Properties.IncidentCategory),
			Severity: clampSeverity(inc.Properties.MagnitudeOfDelay / 5.0),
		})
	}

	return mapped
}
