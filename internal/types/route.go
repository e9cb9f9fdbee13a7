package types

// RouteWaypoint is one labeled coordinate handed to the route optimizer.
// Input order carries no meaning except that the first waypoint is the fixed
// start of the trip.
type RouteWaypoint struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Maneuver is one structured turn descriptor. No instruction text is
// synthesized here; the caller renders these fields.
type Maneuver struct {
	Type     string `json:"type"`
	Modifier string `json:"modifier,omitempty"`
	Name     string `json:"name,omitempty"`
}

// OptimizedRoute is the assembled result of one trip optimization: the
// waypoints in visiting order, one encoded polyline per leg (step geometries
// concatenated), one maneuver list per leg, and solver totals converted to
// kilometers and minutes. A leg without geometry carries null, not "".
type OptimizedRoute struct {
	Waypoints       []RouteWaypoint `json:"optimized_route"`
	DistanceKm      float64         `json:"distance_km"`
	DurationMin     float64         `json:"duration_min"`
	Geometry        string          `json:"geometry,omitempty"`
	LegGeometries   []*string       `json:"segment_geometries"`
	LegInstructions [][]Maneuver    `json:"instructions"`
}
