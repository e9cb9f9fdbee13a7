package itinerary

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smarttravel/itinerary-api/internal/types"
)

// --- Mocks for Dependencies ---

type MockPlaceService struct {
	mock.Mock
}

func (m *MockPlaceService) Resolve(ctx context.Context, name string, limit int) ([]types.PlaceCandidate, error) {
	args := m.Called(ctx, name, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.PlaceCandidate), args.Error(1)
}

func (m *MockPlaceService) ResolveFirst(ctx context.Context, name string) (*types.PlaceCandidate, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PlaceCandidate), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func threeDayTrip() types.Itinerary {
	return types.Itinerary{
		Name: "Vietnam",
		Days: []types.Day{
			{Number: 1, Destinations: []types.Destination{{ID: "a", Name: "Old Quarter", Latitude: ptr(21.03), Longitude: ptr(105.85)}}},
			{Number: 2, Destinations: []types.Destination{{ID: "b", Name: "Marble Mountains", Latitude: ptr(16.0), Longitude: ptr(108.26)}}},
			{Number: 3},
		},
	}
}

func TestAddDestination_CleanInsert(t *testing.T) {
	resolver := new(MockPlaceService)
	svc := NewServiceImpl(resolver, testLogger())

	// Same integer latitude band as Old Quarter, different longitude cell.
	resolver.On("ResolveFirst", mock.Anything, "Yen Tu Mountain").
		Return(&types.PlaceCandidate{ID: "c", Name: "Yen Tu Mountain", Latitude: 21.1, Longitude: 106.72}, nil)

	original := threeDayTrip()
	updated, verdict, err := svc.AddDestination(context.Background(), original, 1, "Yen Tu Mountain")
	require.NoError(t, err)
	assert.Equal(t, types.ConflictClean, verdict.State)
	require.Len(t, updated.Day(1).Destinations, 2)
	assert.Equal(t, "Yen Tu Mountain", updated.Day(1).Destinations[1].Name)
	assert.Len(t, original.Day(1).Destinations, 1, "caller snapshot must not be mutated")
}

func TestAddDestination_AmbiguousLeavesItineraryUnchanged(t *testing.T) {
	resolver := new(MockPlaceService)
	svc := NewServiceImpl(resolver, testLogger())

	resolver.On("ResolveFirst", mock.Anything, "Sapa Market").
		Return(&types.PlaceCandidate{ID: "d", Name: "Sapa Market", Latitude: 22.33, Longitude: 103.84}, nil)

	updated, verdict, err := svc.AddDestination(context.Background(), threeDayTrip(), 1, "Sapa Market")
	require.NoError(t, err)
	assert.Equal(t, types.ConflictAmbiguous, verdict.State)
	assert.Len(t, updated.Day(1).Destinations, 1)
}

func TestAddDestination_UnknownDay(t *testing.T) {
	resolver := new(MockPlaceService)
	svc := NewServiceImpl(resolver, testLogger())

	_, _, err := svc.AddDestination(context.Background(), threeDayTrip(), 9, "anything")
	assert.ErrorIs(t, err, types.ErrBadRequest)
	resolver.AssertNotCalled(t, "ResolveFirst")
}

func TestConfirmDestination_InsertsAmbiguousCandidate(t *testing.T) {
	resolver := new(MockPlaceService)
	svc := NewServiceImpl(resolver, testLogger())

	resolver.On("ResolveFirst", mock.Anything, "Sapa Market").
		Return(&types.PlaceCandidate{ID: "d", Name: "Sapa Market", Latitude: 22.33, Longitude: 103.84}, nil)

	updated, verdict, err := svc.ConfirmDestination(context.Background(), threeDayTrip(), 1, "Sapa Market")
	require.NoError(t, err)
	assert.Equal(t, types.ConflictConfirmed, verdict.State)
	require.Len(t, updated.Day(1).Destinations, 2)
}

func TestConfirmDestination_DuplicateStillRejected(t *testing.T) {
	resolver := new(MockPlaceService)
	svc := NewServiceImpl(resolver, testLogger())

	resolver.On("ResolveFirst", mock.Anything, "Old Quarter").
		Return(&types.PlaceCandidate{ID: "a", Name: "Old Quarter", Latitude: 21.03, Longitude: 105.85}, nil)

	updated, verdict, err := svc.ConfirmDestination(context.Background(), threeDayTrip(), 1, "Old Quarter")
	require.NoError(t, err)
	assert.Equal(t, types.ConflictDuplicate, verdict.State)
	assert.Len(t, updated.Day(1).Destinations, 1)
}

func TestSwapDays(t *testing.T) {
	svc := NewServiceImpl(nil, testLogger())

	updated, err := svc.SwapDays(context.Background(), threeDayTrip(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Marble Mountains", updated.Day(1).Destinations[0].Name)
	assert.Equal(t, "Old Quarter", updated.Day(2).Destinations[0].Name)

	_, err = svc.SwapDays(context.Background(), threeDayTrip(), 1, 7)
	assert.ErrorIs(t, err, types.ErrBadRequest)
}

func TestAddDayAfter(t *testing.T) {
	svc := NewServiceImpl(nil, testLogger())

	updated, err := svc.AddDayAfter(context.Background(), threeDayTrip(), 1)
	require.NoError(t, err)
	require.Len(t, updated.Days, 4)
	assert.Empty(t, updated.Day(2).Destinations, "inserted day is empty")
	assert.Equal(t, "Marble Mountains", updated.Day(3).Destinations[0].Name)
	for i, day := range updated.Days {
		assert.Equal(t, i+1, day.Number)
	}

	// Position 0 prepends a day.
	updated, err = svc.AddDayAfter(context.Background(), threeDayTrip(), 0)
	require.NoError(t, err)
	assert.Empty(t, updated.Day(1).Destinations)

	_, err = svc.AddDayAfter(context.Background(), threeDayTrip(), 5)
	assert.ErrorIs(t, err, types.ErrBadRequest)
}

func TestDeleteDayRange_RenumbersContiguously(t *testing.T) {
	svc := NewServiceImpl(nil, testLogger())

	updated, err := svc.DeleteDayRange(context.Background(), threeDayTrip(), 1, 2)
	require.NoError(t, err)
	require.Len(t, updated.Days, 1)
	assert.Equal(t, 1, updated.Days[0].Number)

	_, err = svc.DeleteDayRange(context.Background(), threeDayTrip(), 2, 1)
	assert.ErrorIs(t, err, types.ErrBadRequest)
	_, err = svc.DeleteDayRange(context.Background(), threeDayTrip(), 0, 2)
	assert.ErrorIs(t, err, types.ErrBadRequest)
	_, err = svc.DeleteDayRange(context.Background(), threeDayTrip(), 1, 4)
	assert.ErrorIs(t, err, types.ErrBadRequest)
}

func TestDeleteDayAndDeleteAllDays(t *testing.T) {
	svc := NewServiceImpl(nil, testLogger())

	updated, err := svc.DeleteDay(context.Background(), threeDayTrip(), 2)
	require.NoError(t, err)
	require.Len(t, updated.Days, 2)
	assert.Equal(t, "Old Quarter", updated.Day(1).Destinations[0].Name)
	assert.Equal(t, 2, updated.Days[1].Number)

	updated, err = svc.DeleteAllDays(context.Background(), threeDayTrip())
	require.NoError(t, err)
	assert.Empty(t, updated.Days)
}

func TestUpdateTripFields(t *testing.T) {
	svc := NewServiceImpl(nil, testLogger())
	ctx := context.Background()

	updated, err := svc.UpdateTripName(ctx, threeDayTrip(), "Summer in Vietnam")
	require.NoError(t, err)
	assert.Equal(t, "Summer in Vietnam", updated.Name)
	_, err = svc.UpdateTripName(ctx, threeDayTrip(), "")
	assert.ErrorIs(t, err, types.ErrBadRequest)

	updated, err = svc.UpdateMembers(ctx, threeDayTrip(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Members)
	_, err = svc.UpdateMembers(ctx, threeDayTrip(), 0)
	assert.ErrorIs(t, err, types.ErrBadRequest)

	updated, err = svc.UpdateStartDate(ctx, threeDayTrip(), "2026-09-10")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-10", updated.StartDate)

	updated, err = svc.UpdateEndDate(ctx, threeDayTrip(), "2026-09-20")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-20", updated.EndDate)
}
