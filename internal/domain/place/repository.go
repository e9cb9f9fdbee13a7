package place

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smarttravel/itinerary-api/internal/types"
	"github.com/smarttravel/itinerary-api/pkg/observability"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository covers both halves of place lookup: the fuzzy name index that
// returns ranked place ids, and the authoritative store that hydrates them.
type Repository interface {
	SearchPlaceIDs(ctx context.Context, name string, limit int) ([]string, error)
	GetPlaceByID(ctx context.Context, placeID string) (*types.PlaceCandidate, error)
}

// PGXPool is the slice of pgxpool.Pool the repository needs. Narrowing it to
// an interface lets tests substitute a mock pool.
type PGXPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	logger  *slog.Logger
	pgpool  PGXPool
	metrics *observability.Metrics
}

func NewPlaceRepository(pgpool PGXPool, metrics *observability.Metrics, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger:  logger,
		pgpool:  pgpool,
		metrics: metrics,
	}
}

// SearchPlaceIDs finds ids whose canonical name or alias is most similar to
// the query, using trigram similarity. Results are ordered best match first.
func (r *RepositoryImpl) SearchPlaceIDs(ctx context.Context, name string, limit int) ([]string, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "SearchPlaceIDs", trace.WithAttributes(
		attribute.String("place.query", name),
		attribute.Int("place.limit", limit),
	))
	defer span.End()

	query := `
		SELECT place_id FROM (
			SELECT id AS place_id, similarity(name, $1) AS sim
			FROM places
			WHERE similarity(name, $1) > 0.3
			UNION ALL
			SELECT place_id, similarity(alias, $1) AS sim
			FROM place_aliases
			WHERE similarity(alias, $1) > 0.3
		) matches
		ORDER BY sim DESC
		LIMIT $2
	`

	rows, err := r.pgpool.Query(ctx, query, name, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to search place index")
		return nil, fmt.Errorf("failed to search place index for '%s': %w", name, err)
	}
	defer rows.Close()

	var ids []string
	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan place id: %w", err)
		}
		// A place can match on both its name and an alias; keep first rank only.
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate place index rows: %w", err)
	}

	span.SetStatus(codes.Ok, "Place index searched")
	return ids, nil
}

// GetPlaceByID hydrates a place from the authoritative store. Returns
// (nil, nil) when the id does not exist. A NULL coordinate degrades to (0,0)
// rather than failing the lookup.
func (r *RepositoryImpl) GetPlaceByID(ctx context.Context, placeID string) (*types.PlaceCandidate, error) {
	ctx, span := otel.Tracer("PlaceRepository").Start(ctx, "GetPlaceByID", trace.WithAttributes(
		attribute.String("place.id", placeID),
	))
	defer span.End()

	query := `
		SELECT
			id, name,
			latitude, longitude,
			COALESCE(category, '') AS category,
			COALESCE(rating, 0) AS rating,
			COALESCE(opening_hours, '') AS opening_hours,
			COALESCE(attributes, '{}'::jsonb) AS attributes
		FROM places
		WHERE id = $1
	`

	var candidate types.PlaceCandidate
	var lat, lon sql.NullFloat64
	err := r.pgpool.QueryRow(ctx, query, placeID).Scan(
		&candidate.ID,
		&candidate.Name,
		&lat,
		&lon,
		&candidate.Category,
		&candidate.Rating,
		&candidate.Hours,
		&candidate.Attributes,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get place")
		return nil, fmt.Errorf("failed to get place '%s': %w", placeID, err)
	}

	if lat.Valid && lon.Valid {
		candidate.Latitude = lat.Float64
		candidate.Longitude = lon.Float64
	} else {
		r.logger.WarnContext(ctx, "place has no stored coordinate, defaulting to (0,0)",
			slog.String("place_id", placeID))
		if r.metrics != nil {
			r.metrics.CoordinateFallbacks.Inc()
		}
	}

	span.SetStatus(codes.Ok, "Place retrieved")
	return &candidate, nil
}
