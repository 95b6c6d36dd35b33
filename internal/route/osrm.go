// README: OSRM routing client; fetches driving routes with geojson geometry
// and maps provider steps onto maneuvers.
package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/greenxiii/hudmap/internal/geo"
)

var ErrNoRoute = errors.New("no route in response")

// OSRMClient talks to an OSRM-compatible routing service.
type OSRMClient struct {
	baseURL string
	httpc   *http.Client
}

func NewOSRMClient(baseURL string, timeout time.Duration) *OSRMClient {
	return &OSRMClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// OSRM response format (driving profile, geojson geometry, steps enabled).
type osrmResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Steps []struct {
				Distance float64 `json:"distance"`
				Maneuver struct {
					Type         string  `json:"type"`
					Modifier     string  `json:"modifier"`
					BearingAfter float64 `json:"bearing_after"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// FetchRoute requests a driving route from from to to. The provider speaks
// lng,lat; points are swapped into lat,lng on the way in.
func (c *OSRMClient) FetchRoute(ctx context.Context, from, to geo.Point) (*Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson&steps=true",
		c.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build route request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing service returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read route response: %w", err)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode route response: %w", err)
	}
	if len(parsed.Routes) == 0 {
		return nil, ErrNoRoute
	}

	r := parsed.Routes[0]
	points := make([]geo.Point, 0, len(r.Geometry.Coordinates))
	for _, pair := range r.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		points = append(points, geo.Point{Lat: pair[1], Lng: pair[0]})
	}
	if len(points) == 0 {
		return nil, ErrNoRoute
	}

	var maneuvers []Maneuver
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			bearing := step.Maneuver.BearingAfter
			maneuvers = append(maneuvers, Maneuver{
				Kind:        maneuverKind(step.Maneuver.Type, step.Maneuver.Modifier),
				Instruction: maneuverInstruction(step.Maneuver.Type, step.Maneuver.Modifier),
				DistanceM:   step.Distance,
				Bearing:     &bearing,
			})
		}
	}
	if len(maneuvers) == 0 {
		bearing := geo.Bearing(from, to)
		maneuvers = append(maneuvers, Maneuver{
			Kind:        ManeuverArrive,
			Instruction: "Arrive at destination",
			DistanceM:   r.Distance,
			Bearing:     &bearing,
		})
	}

	return &Route{
		Points:         points,
		Maneuvers:      maneuvers,
		TotalDistanceM: r.Distance,
	}, nil
}

func maneuverKind(typ, modifier string) ManeuverKind {
	switch {
	case typ == "arrive":
		return ManeuverArrive
	case modifier != "":
		return ManeuverTurn
	case typ == "depart":
		return ManeuverDepart
	default:
		return ManeuverStraight
	}
}

func maneuverInstruction(typ, modifier string) string {
	switch {
	case typ == "arrive":
		return "Arrive at destination"
	case modifier != "":
		return "Turn " + modifier
	case typ == "depart":
		return "Depart"
	default:
		return "Continue"
	}
}
