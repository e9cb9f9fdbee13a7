package route

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/smarttravel/itinerary-api/internal/types"
)

// Client talks to an OSRM-compatible trip solver.
type Client interface {
	Trip(ctx context.Context, waypoints []types.RouteWaypoint) (*TripResponse, error)
}

// TripResponse mirrors the OSRM trip service response, limited to the fields
// the optimizer consumes.
type TripResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message,omitempty"`
	Trips     []Trip         `json:"trips"`
	Waypoints []TripWaypoint `json:"waypoints"`
}

type Trip struct {
	Distance      float64 `json:"distance"`
	Duration      float64 `json:"duration"`
	Geometry      string  `json:"geometry"`
	WaypointOrder []int   `json:"waypoint_order,omitempty"`
	Legs          []Leg   `json:"legs"`
}

type Leg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Steps    []Step  `json:"steps"`
}

type Step struct {
	Geometry string       `json:"geometry"`
	Name     string       `json:"name"`
	Maneuver StepManeuver `json:"maneuver"`
}

type StepManeuver struct {
	Type     string `json:"type"`
	Modifier string `json:"modifier,omitempty"`
}

type TripWaypoint struct {
	WaypointIndex int        `json:"waypoint_index"`
	TripsIndex    int        `json:"trips_index"`
	Name          string     `json:"name"`
	Location      [2]float64 `json:"location"` // lon, lat
}

var _ Client = (*HTTPClient)(nil)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Trip requests an optimized open trip: fixed start, free end, turn-by-turn
// steps included. All transport and solver failures come back as
// *types.RoutingError.
func (c *HTTPClient) Trip(ctx context.Context, waypoints []types.RouteWaypoint) (*TripResponse, error) {
	coords := make([]string, len(waypoints))
	for i, wp := range waypoints {
		// OSRM wants lon,lat pairs.
		coords[i] = fmt.Sprintf("%f,%f", wp.Longitude, wp.Latitude)
	}

	url := fmt.Sprintf("%s/trip/v1/driving/%s?source=first&roundtrip=false&steps=true&overview=full",
		c.baseURL, strings.Join(coords, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &types.RoutingError{Message: "failed to build trip request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.RoutingError{Message: "trip request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, parseTripError(resp)
	}

	var trip TripResponse
	if err := json.NewDecoder(resp.Body).Decode(&trip); err != nil {
		return nil, &types.RoutingError{Message: "malformed trip response", Err: err}
	}

	if trip.Code != "" && trip.Code != "Ok" {
		msg := trip.Code
		if trip.Message != "" {
			msg = fmt.Sprintf("%s: %s", trip.Code, trip.Message)
		}
		return nil, &types.RoutingError{Message: msg}
	}

	return &trip, nil
}

func parseTripError(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.RoutingError{Message: fmt.Sprintf("trip request returned status %d", resp.StatusCode)}
	}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return &types.RoutingError{Message: fmt.Sprintf("%s: %s", payload.Code, payload.Message)}
	}
	return &types.RoutingError{Message: fmt.Sprintf("trip request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))}
}
