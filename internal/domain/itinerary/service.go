package itinerary

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smarttravel/itinerary-api/internal/domain/place"
	"github.com/smarttravel/itinerary-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service edits itinerary snapshots. Every method returns a modified copy and
// leaves the caller's snapshot untouched.
type Service interface {
	AddDestination(ctx context.Context, itin types.Itinerary, dayNumber int, placeName string) (types.Itinerary, types.ConflictVerdict, error)
	ConfirmDestination(ctx context.Context, itin types.Itinerary, dayNumber int, placeName string) (types.Itinerary, types.ConflictVerdict, error)
	SwapDays(ctx context.Context, itin types.Itinerary, day1, day2 int) (types.Itinerary, error)
	AddDayAfter(ctx context.Context, itin types.Itinerary, afterDay int) (types.Itinerary, error)
	DeleteDayRange(ctx context.Context, itin types.Itinerary, startDay, endDay int) (types.Itinerary, error)
	DeleteDay(ctx context.Context, itin types.Itinerary, dayNumber int) (types.Itinerary, error)
	DeleteAllDays(ctx context.Context, itin types.Itinerary) (types.Itinerary, error)
	UpdateTripName(ctx context.Context, itin types.Itinerary, name string) (types.Itinerary, error)
	UpdateMembers(ctx context.Context, itin types.Itinerary, members int) (types.Itinerary, error)
	UpdateStartDate(ctx context.Context, itin types.Itinerary, startDate string) (types.Itinerary, error)
	UpdateEndDate(ctx context.Context, itin types.Itinerary, endDate string) (types.Itinerary, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	resolver place.Service
}

func NewServiceImpl(resolver place.Service, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		resolver: resolver,
	}
}

// AddDestination resolves placeName and inserts it into the given day when the
// conflict check comes back clean. Duplicate and ambiguous verdicts leave the
// itinerary unchanged so the caller can surface them.
func (s *ServiceImpl) AddDestination(ctx context.Context, itin types.Itinerary, dayNumber int, placeName string) (types.Itinerary, types.ConflictVerdict, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "AddDestination", trace.WithAttributes(
		attribute.Int("itinerary.day", dayNumber),
		attribute.String("place.name", placeName),
	))
	defer span.End()

	updated := *itin.Clone()
	day := updated.Day(dayNumber)
	if day == nil {
		err := fmt.Errorf("day %d does not exist: %w", dayNumber, types.ErrBadRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unknown day")
		return itin, types.ConflictVerdict{}, err
	}

	candidate, err := s.resolver.ResolveFirst(ctx, placeName)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve destination",
			slog.String("place", placeName), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Place resolution failed")
		return itin, types.ConflictVerdict{}, err
	}

	verdict := EvaluateInsert(*day, *candidate)
	if verdict.State != types.ConflictClean {
		s.logger.InfoContext(ctx, "destination insert needs attention",
			slog.String("place", candidate.Name),
			slog.String("verdict", string(verdict.State)))
		span.SetStatus(codes.Ok, "Insert blocked by conflict check")
		return itin, verdict, nil
	}

	day.Destinations = append(day.Destinations, candidate.AsDestination())
	span.SetStatus(codes.Ok, "Destination added")
	return updated, verdict, nil
}

// ConfirmDestination handles the explicit confirmation of an ambiguous insert.
// Only the duplicate check is repeated; a confirmed candidate is inserted.
func (s *ServiceImpl) ConfirmDestination(ctx context.Context, itin types.Itinerary, dayNumber int, placeName string) (types.Itinerary, types.ConflictVerdict, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "ConfirmDestination", trace.WithAttributes(
		attribute.Int("itinerary.day", dayNumber),
		attribute.String("place.name", placeName),
	))
	defer span.End()

	updated := *itin.Clone()
	day := updated.Day(dayNumber)
	if day == nil {
		err := fmt.Errorf("day %d does not exist: %w", dayNumber, types.ErrBadRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unknown day")
		return itin, types.ConflictVerdict{}, err
	}

	candidate, err := s.resolver.ResolveFirst(ctx, placeName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Place resolution failed")
		return itin, types.ConflictVerdict{}, err
	}

	verdict := ConfirmInsert(*day, *candidate)
	if verdict.State == types.ConflictDuplicate {
		span.SetStatus(codes.Ok, "Confirmed insert was a duplicate")
		return itin, verdict, nil
	}

	day.Destinations = append(day.Destinations, candidate.AsDestination())
	span.SetStatus(codes.Ok, "Destination confirmed and added")
	return updated, verdict, nil
}

func (s *ServiceImpl) SwapDays(ctx context.Context, itin types.Itinerary, day1, day2 int) (types.Itinerary, error) {
	_, span := otel.Tracer("ItineraryService").Start(ctx, "SwapDays", trace.WithAttributes(
		attribute.Int("itinerary.day1", day1),
		attribute.Int("itinerary.day2", day2),
	))
	defer span.End()

	updated := *itin.Clone()
	a := updated.Day(day1)
	b := updated.Day(day2)
	if a == nil || b == nil {
		err := fmt.Errorf("cannot swap days %d and %d: %w", day1, day2, types.ErrBadRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unknown day")
		return itin, err
	}

	a.Destinations, b.Destinations = b.Destinations, a.Destinations
	span.SetStatus(codes.Ok, "Days swapped")
	return updated, nil
}

func (s *ServiceImpl) AddDayAfter(ctx context.Context, itin types.Itinerary, afterDay int) (types.Itinerary, error) {
	_, span := otel.Tracer("ItineraryService").Start(ctx, "AddDayAfter", trace.WithAttributes(
		attribute.Int("itinerary.after_day", afterDay),
	))
	defer span.End()

	if afterDay < 0 || afterDay > len(itin.Days) {
		err := fmt.Errorf("cannot add a day after day %d: %w", afterDay, types.ErrBadRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Position out of range")
		return itin, err
	}

	updated := *itin.Clone()
	days := make([]types.Day, 0, len(updated.Days)+1)
	days = append(days, updated.Days[:afterDay]...)
	days = append(days, types.Day{})
	days = append(days, updated.Days[afterDay:]...)
	updated.Days = days
	updated.Renumber()

	span.SetStatus(codes.Ok, "Day added")
	return updated, nil
}

// DeleteDayRange removes days startDay through endDay inclusive and renumbers
// the remainder so day numbers stay contiguous from 1.
func (s *ServiceImpl) DeleteDayRange(ctx context.Context, itin types.Itinerary, startDay, endDay int) (types.Itinerary, error) {
	_, span := otel.Tracer("ItineraryService").Start(ctx, "DeleteDayRange", trace.WithAttributes(
		attribute.Int("itinerary.start_day", startDay),
		attribute.Int("itinerary.end_day", endDay),
	))
	defer span.End()

	if startDay < 1 || endDay > len(itin.Days) || startDay > endDay {
		err := fmt.Errorf("invalid day range %d..%d: %w", startDay, endDay, types.ErrBadRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid range")
		return itin, err
	}

	updated := *itin.Clone()
	updated.Days = append(updated.Days[:startDay-1], updated.Days[endDay:]...)
	updated.Renumber()

	span.SetStatus(codes.Ok, "Day range deleted")
	return updated, nil
}

func (s *ServiceImpl) DeleteDay(ctx context.Context, itin types.Itinerary, dayNumber int) (types.Itinerary, error) {
	return s.DeleteDayRange(ctx, itin, dayNumber, dayNumber)
}

func (s *ServiceImpl) DeleteAllDays(ctx context.Context, itin types.Itinerary) (types.Itinerary, error) {
	_, span := otel.Tracer("ItineraryService").Start(ctx, "DeleteAllDays")
	defer span.End()

	updated := *itin.Clone()
	updated.Days = nil
	span.SetStatus(codes.Ok, "All days deleted")
	return updated, nil
}

func (s *ServiceImpl) UpdateTripName(ctx context.Context, itin types.Itinerary, name string) (types.Itinerary, error) {
	if name == "" {
		return itin, fmt.Errorf("trip name must not be empty: %w", types.ErrBadRequest)
	}
	updated := *itin.Clone()
	updated.Name = name
	return updated, nil
}

func (s *ServiceImpl) UpdateMembers(ctx context.Context, itin types.Itinerary, members int) (types.Itinerary, error) {
	if members < 1 {
		return itin, fmt.Errorf("member count must be at least 1: %w", types.ErrBadRequest)
	}
	updated := *itin.Clone()
	updated.Members = members
	return updated, nil
}

func (s *ServiceImpl) UpdateStartDate(ctx context.Context, itin types.Itinerary, startDate string) (types.Itinerary, error) {
	if startDate == "" {
		return itin, fmt.Errorf("start date must not be empty: %w", types.ErrBadRequest)
	}
	updated := *itin.Clone()
	updated.StartDate = startDate
	return updated, nil
}

func (s *ServiceImpl) UpdateEndDate(ctx context.Context, itin types.Itinerary, endDate string) (types.Itinerary, error) {
	if endDate == "" {
		return itin, fmt.Errorf("end date must not be empty: %w", types.ErrBadRequest)
	}
	updated := *itin.Clone()
	updated.EndDate = endDate
	return updated, nil
}
