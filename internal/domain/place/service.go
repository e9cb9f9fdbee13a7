package place

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/smarttravel/itinerary-api/internal/types"
)

const defaultSearchLimit = 5

var _ Service = (*ServiceImpl)(nil)

// Service resolves free-text place names into fully hydrated candidates.
type Service interface {
	Resolve(ctx context.Context, name string, limit int) ([]types.PlaceCandidate, error)
	ResolveFirst(ctx context.Context, name string) (*types.PlaceCandidate, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	cache  *cache.Cache
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(10*time.Minute, 20*time.Minute),
	}
}

// Resolve searches the name index and hydrates every matching id from the
// authoritative store, preserving the index ranking. An id present in the
// index but absent from the store is a data integrity failure, not a miss.
func (s *ServiceImpl) Resolve(ctx context.Context, name string, limit int) ([]types.PlaceCandidate, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("place.query", name),
		attribute.Int("place.limit", limit),
	))
	defer span.End()

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	l := s.logger.With(slog.String("method", "Resolve"), slog.String("query", name))

	if cached, ok := s.cache.Get(cacheKey(name, limit)); ok {
		if candidates, ok := cached.([]types.PlaceCandidate); ok {
			span.SetStatus(codes.Ok, "Resolved from cache")
			return candidates, nil
		}
	}

	ids, err := s.repo.SearchPlaceIDs(ctx, name, limit)
	if err != nil {
		l.ErrorContext(ctx, "place index search failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Index search failed")
		return nil, err
	}
	if len(ids) == 0 {
		span.SetStatus(codes.Ok, "No matches")
		return nil, nil
	}

	candidates := make([]types.PlaceCandidate, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			candidate, err := s.repo.GetPlaceByID(gctx, id)
			if err != nil {
				return err
			}
			if candidate == nil {
				// The index promised this id; the store disagrees.
				return &types.DataIntegrityError{PlaceID: id}
			}
			candidates[i] = *candidate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.ErrorContext(ctx, "place hydration failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Hydration failed")
		return nil, fmt.Errorf("failed to resolve place '%s': %w", name, err)
	}

	s.cache.Set(cacheKey(name, limit), candidates, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "Place resolved")
	return candidates, nil
}

// ResolveFirst returns the best-ranked candidate, or ErrPlaceNotFound when
// the index has no match at all.
func (s *ServiceImpl) ResolveFirst(ctx context.Context, name string) (*types.PlaceCandidate, error) {
	candidates, err := s.Resolve(ctx, name, defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("place '%s': %w", name, types.ErrPlaceNotFound)
	}
	return &candidates[0], nil
}

func cacheKey(name string, limit int) string {
	return fmt.Sprintf("place:resolve:%s:%d", name, limit)
}
