package route

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/twpayne/go-polyline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smarttravel/itinerary-api/internal/types"
	"github.com/smarttravel/itinerary-api/pkg/observability"
)

var _ Service = (*ServiceImpl)(nil)

// Service computes the optimal visiting order for a set of waypoints and
// assembles the displayable geometry and instructions.
type Service interface {
	Optimize(ctx context.Context, waypoints []types.RouteWaypoint) (*types.OptimizedRoute, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	client  Client
	metrics *observability.Metrics
}

func NewServiceImpl(client Client, metrics *observability.Metrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		client:  client,
		metrics: metrics,
	}
}

// Optimize solves an open trip over the given waypoints. The first waypoint is
// the fixed start; the solver is free to reorder the rest and does not return
// to the start.
func (s *ServiceImpl) Optimize(ctx context.Context, waypoints []types.RouteWaypoint) (*types.OptimizedRoute, error) {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "Optimize", trace.WithAttributes(
		attribute.Int("route.waypoints", len(waypoints)),
	))
	defer span.End()

	if len(waypoints) < 2 {
		err := fmt.Errorf("route optimization needs at least 2 waypoints, got %d: %w", len(waypoints), types.ErrBadRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Too few waypoints")
		return nil, err
	}

	resp, err := s.client.Trip(ctx, waypoints)
	if err != nil {
		s.recordOutcome("error")
		s.logger.ErrorContext(ctx, "trip solver call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trip solver failed")
		return nil, err
	}

	if len(resp.Trips) == 0 {
		s.recordOutcome("no_trips")
		err := &types.RoutingError{Message: "no trips found"}
		span.RecordError(err)
		span.SetStatus(codes.Error, "No trips found")
		return nil, err
	}
	trip := resp.Trips[0]

	order, err := visitingOrder(trip, resp.Waypoints, len(waypoints))
	if err != nil {
		s.recordOutcome("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Order reconstruction failed")
		return nil, err
	}

	ordered := make([]types.RouteWaypoint, len(order))
	for pos, inputIdx := range order {
		ordered[pos] = waypoints[inputIdx]
	}

	legGeometries := make([]*string, len(trip.Legs))
	legInstructions := make([][]types.Maneuver, len(trip.Legs))
	for i, leg := range trip.Legs {
		geometry, maneuvers, err := assembleLeg(leg)
		if err != nil {
			s.recordOutcome("error")
			span.RecordError(err)
			span.SetStatus(codes.Error, "Leg geometry decode failed")
			return nil, err
		}
		legGeometries[i] = geometry
		legInstructions[i] = maneuvers
	}

	s.recordOutcome("ok")
	span.SetStatus(codes.Ok, "Route optimized")
	return &types.OptimizedRoute{
		Waypoints:       ordered,
		DistanceKm:      trip.Distance / 1000,
		DurationMin:     trip.Duration / 60,
		Geometry:        trip.Geometry,
		LegGeometries:   legGeometries,
		LegInstructions: legInstructions,
	}, nil
}

// visitingOrder recovers the solver's visiting order as input indices. The
// explicit waypoint_order is authoritative when present; otherwise the order
// is rebuilt by sorting input indices by each waypoint's visit position.
// Either way the result must be a permutation of [0, n); anything else is a
// malformed solver answer and comes back as a RoutingError.
func visitingOrder(trip Trip, tripWaypoints []TripWaypoint, n int) ([]int, error) {
	var order []int
	if len(trip.WaypointOrder) > 0 {
		if len(trip.WaypointOrder) != n {
			return nil, &types.RoutingError{Message: fmt.Sprintf("waypoint_order has %d entries for %d waypoints", len(trip.WaypointOrder), n)}
		}
		order = trip.WaypointOrder
	} else {
		if len(tripWaypoints) != n {
			return nil, &types.RoutingError{Message: fmt.Sprintf("solver returned %d waypoints for %d inputs", len(tripWaypoints), n)}
		}
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return tripWaypoints[order[a]].WaypointIndex < tripWaypoints[order[b]].WaypointIndex
		})
	}

	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n {
			return nil, &types.RoutingError{Message: fmt.Sprintf("waypoint order index %d out of range for %d waypoints", idx, n)}
		}
		if seen[idx] {
			return nil, &types.RoutingError{Message: fmt.Sprintf("waypoint order repeats index %d", idx)}
		}
		seen[idx] = true
	}
	return order, nil
}

// assembleLeg decodes every step polyline, concatenates the coordinates in
// step order, and re-encodes the leg as a single polyline. Instructions are
// flattened in the same order. A leg with no coordinates at all has no
// geometry; its entry is nil, not an empty polyline.
func assembleLeg(leg Leg) (*string, []types.Maneuver, error) {
	var coords [][]float64
	maneuvers := make([]types.Maneuver, 0, len(leg.Steps))
	for _, step := range leg.Steps {
		if step.Geometry != "" {
			stepCoords, _, err := polyline.DecodeCoords([]byte(step.Geometry))
			if err != nil {
				return nil, nil, &types.RoutingError{Message: "failed to decode step geometry", Err: err}
			}
			coords = append(coords, stepCoords...)
		}
		maneuvers = append(maneuvers, types.Maneuver{
			Type:     step.Maneuver.Type,
			Modifier: step.Maneuver.Modifier,
			Name:     step.Name,
		})
	}
	if len(coords) == 0 {
		return nil, maneuvers, nil
	}
	encoded := string(polyline.EncodeCoords(coords))
	return &encoded, maneuvers, nil
}

func (s *ServiceImpl) recordOutcome(status string) {
	if s.metrics != nil {
		s.metrics.RouteOptimizations.WithLabelValues(status).Inc()
	}
}
