package route

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"github.com/smarttravel/itinerary-api/internal/types"
)

// --- Mocks for Dependencies ---

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Trip(ctx context.Context, waypoints []types.RouteWaypoint) (*TripResponse, error) {
	args := m.Called(ctx, waypoints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TripResponse), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func encode(coords [][]float64) string {
	return string(polyline.EncodeCoords(coords))
}

func threeWaypoints() []types.RouteWaypoint {
	return []types.RouteWaypoint{
		{Name: "A", Latitude: 21.0, Longitude: 105.8},
		{Name: "B", Latitude: 21.1, Longitude: 105.9},
		{Name: "C", Latitude: 21.05, Longitude: 105.85},
	}
}

func TestOptimize_ExplicitWaypointOrder(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	client.On("Trip", mock.Anything, mock.Anything).Return(&TripResponse{
		Code: "Ok",
		Trips: []Trip{{
			Distance:      12500,
			Duration:      1800,
			Geometry:      "abc",
			WaypointOrder: []int{0, 2, 1},
			Legs:          []Leg{{}, {}},
		}},
	}, nil)

	route, err := svc.Optimize(context.Background(), threeWaypoints())
	require.NoError(t, err)

	names := []string{route.Waypoints[0].Name, route.Waypoints[1].Name, route.Waypoints[2].Name}
	assert.Equal(t, []string{"A", "C", "B"}, names)
	assert.InDelta(t, 12.5, route.DistanceKm, 1e-9)
	assert.InDelta(t, 30.0, route.DurationMin, 1e-9)
	assert.Equal(t, "abc", route.Geometry)
}

func TestOptimize_OrderRecoveredFromWaypointIndex(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	// No explicit waypoint_order: input 0 visited first, input 2 second,
	// input 1 last.
	client.On("Trip", mock.Anything, mock.Anything).Return(&TripResponse{
		Code: "Ok",
		Trips: []Trip{{
			Distance: 1000,
			Duration: 600,
			Legs:     []Leg{{}, {}},
		}},
		Waypoints: []TripWaypoint{
			{WaypointIndex: 0},
			{WaypointIndex: 2},
			{WaypointIndex: 1},
		},
	}, nil)

	route, err := svc.Optimize(context.Background(), threeWaypoints())
	require.NoError(t, err)
	names := []string{route.Waypoints[0].Name, route.Waypoints[1].Name, route.Waypoints[2].Name}
	assert.Equal(t, []string{"A", "C", "B"}, names)
}

func TestOptimize_ExplicitOrderAgreesWithReconstruction(t *testing.T) {
	// The same solver answer expressed both ways must produce the same
	// visiting order.
	resp := func(explicit bool) *TripResponse {
		trip := Trip{Distance: 1, Duration: 1, Legs: []Leg{{}, {}}}
		if explicit {
			trip.WaypointOrder = []int{0, 2, 1}
		}
		return &TripResponse{
			Code:  "Ok",
			Trips: []Trip{trip},
			Waypoints: []TripWaypoint{
				{WaypointIndex: 0},
				{WaypointIndex: 2},
				{WaypointIndex: 1},
			},
		}
	}

	for _, explicit := range []bool{true, false} {
		client := new(MockClient)
		svc := NewServiceImpl(client, nil, testLogger())
		client.On("Trip", mock.Anything, mock.Anything).Return(resp(explicit), nil)

		route, err := svc.Optimize(context.Background(), threeWaypoints())
		require.NoError(t, err)
		names := []string{route.Waypoints[0].Name, route.Waypoints[1].Name, route.Waypoints[2].Name}
		assert.Equal(t, []string{"A", "C", "B"}, names)
	}
}

func TestOptimize_LegAssembly(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	step1 := [][]float64{{21.0, 105.8}, {21.02, 105.82}}
	step2 := [][]float64{{21.02, 105.82}, {21.05, 105.85}}
	client.On("Trip", mock.Anything, mock.Anything).Return(&TripResponse{
		Code: "Ok",
		Trips: []Trip{{
			Distance:      5000,
			Duration:      900,
			WaypointOrder: []int{0, 1},
			Legs: []Leg{{
				Steps: []Step{
					{Geometry: encode(step1), Name: "Hang Bai", Maneuver: StepManeuver{Type: "depart"}},
					{Geometry: encode(step2), Name: "Trang Tien", Maneuver: StepManeuver{Type: "turn", Modifier: "left"}},
				},
			}},
		}},
	}, nil)

	route, err := svc.Optimize(context.Background(), threeWaypoints()[:2])
	require.NoError(t, err)

	require.Len(t, route.LegGeometries, 1)
	require.NotNil(t, route.LegGeometries[0])
	decoded, _, err := polyline.DecodeCoords([]byte(*route.LegGeometries[0]))
	require.NoError(t, err)
	want := append(append([][]float64{}, step1...), step2...)
	require.Len(t, decoded, len(want))
	for i := range want {
		assert.InDelta(t, want[i][0], decoded[i][0], 1e-4)
		assert.InDelta(t, want[i][1], decoded[i][1], 1e-4)
	}

	require.Len(t, route.LegInstructions, 1)
	require.Len(t, route.LegInstructions[0], 2)
	assert.Equal(t, types.Maneuver{Type: "depart", Name: "Hang Bai"}, route.LegInstructions[0][0])
	assert.Equal(t, types.Maneuver{Type: "turn", Modifier: "left", Name: "Trang Tien"}, route.LegInstructions[0][1])
}

func TestOptimize_TotalsAreUnrounded(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	client.On("Trip", mock.Anything, mock.Anything).Return(&TripResponse{
		Code: "Ok",
		Trips: []Trip{{
			Distance:      12345,
			Duration:      1234,
			WaypointOrder: []int{0, 1, 2},
			Legs:          []Leg{{}, {}},
		}},
	}, nil)

	route, err := svc.Optimize(context.Background(), threeWaypoints())
	require.NoError(t, err)
	// The solver's totals are converted, never rounded.
	assert.Equal(t, 12.345, route.DistanceKm)
	assert.Equal(t, 1234.0/60, route.DurationMin)
}

func TestOptimize_OutOfRangeWaypointOrder(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	client.On("Trip", mock.Anything, mock.Anything).Return(&TripResponse{
		Code: "Ok",
		Trips: []Trip{{
			WaypointOrder: []int{0, 5, 1},
			Legs:          []Leg{{}, {}},
		}},
	}, nil)

	_, err := svc.Optimize(context.Background(), threeWaypoints())
	require.Error(t, err)
	var routingErr *types.RoutingError
	require.ErrorAs(t, err, &routingErr)
	assert.Contains(t, routingErr.Error(), "out of range")
}

func TestOptimize_RepeatedWaypointOrderIndex(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	client.On("Trip", mock.Anything, mock.Anything).Return(&TripResponse{
		Code: "Ok",
		Trips: []Trip{{
			WaypointOrder: []int{0, 1, 1},
			Legs:          []Leg{{}, {}},
		}},
	}, nil)

	_, err := svc.Optimize(context.Background(), threeWaypoints())
	require.Error(t, err)
	var routingErr *types.RoutingError
	require.ErrorAs(t, err, &routingErr)
	assert.Contains(t, routingErr.Error(), "repeats index")
}

func TestOptimize_ShortWaypointListInFallback(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	// No explicit order and a fallback list shorter than the input.
	client.On("Trip", mock.Anything, mock.Anything).Return(&TripResponse{
		Code: "Ok",
		Trips: []Trip{{
			Legs: []Leg{{}, {}},
		}},
		Waypoints: []TripWaypoint{
			{WaypointIndex: 0},
			{WaypointIndex: 1},
		},
	}, nil)

	_, err := svc.Optimize(context.Background(), threeWaypoints())
	require.Error(t, err)
	var routingErr *types.RoutingError
	require.ErrorAs(t, err, &routingErr)
}

func TestOptimize_EmptyLegHasNilGeometry(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	step := [][]float64{{21.0, 105.8}, {21.02, 105.82}}
	client.On("Trip", mock.Anything, mock.Anything).Return(&TripResponse{
		Code: "Ok",
		Trips: []Trip{{
			WaypointOrder: []int{0, 1, 2},
			Legs: []Leg{
				{Steps: []Step{{Geometry: encode(step), Maneuver: StepManeuver{Type: "depart"}}}},
				{},
			},
		}},
	}, nil)

	route, err := svc.Optimize(context.Background(), threeWaypoints())
	require.NoError(t, err)
	require.Len(t, route.LegGeometries, 2)
	assert.NotNil(t, route.LegGeometries[0])
	assert.Nil(t, route.LegGeometries[1])
}

func TestOptimize_NoTrips(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	client.On("Trip", mock.Anything, mock.Anything).Return(&TripResponse{Code: "Ok"}, nil)

	_, err := svc.Optimize(context.Background(), threeWaypoints())
	require.Error(t, err)
	var routingErr *types.RoutingError
	require.ErrorAs(t, err, &routingErr)
	assert.Contains(t, routingErr.Error(), "no trips found")
}

func TestOptimize_TooFewWaypoints(t *testing.T) {
	client := new(MockClient)
	svc := NewServiceImpl(client, nil, testLogger())

	_, err := svc.Optimize(context.Background(), threeWaypoints()[:1])
	assert.ErrorIs(t, err, types.ErrBadRequest)
	client.AssertNotCalled(t, "Trip")
}
