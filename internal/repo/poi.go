package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/paulmach/orb"

	"github.com/planificate/backend/internal/domain"
)

// POIRepo defines the persistence operations for POIs.
// Reads and deletes are scoped by tripID to enforce ownership.
type POIRepo interface {
	// Create inserts a new POI and returns the persisted record.
	Create(ctx context.Context, poi domain.POI) (domain.POI, error)

	// GetByID retrieves a POI scoped to the given trip.
	// Returns domain.ErrNotFound if no such POI exists under that trip.
	GetByID(ctx context.Context, tripID, poiID uuid.UUID) (domain.POI, error)

	// ListByTripID returns all POIs of a trip ordered by created_at.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.POI, error)

	// ListLocatedWithin returns the located POIs of a trip whose coordinates
	// fall inside bound, each with the earliest start_ts among the itinerary
	// items that reference it.
	ListLocatedWithin(ctx context.Context, tripID uuid.UUID, bound orb.Bound) ([]domain.LocatedPOI, error)

	// Update overwrites the mutable fields of a POI, scoped to its trip.
	// Returns domain.ErrNotFound if no such POI exists under that trip.
	Update(ctx context.Context, poi domain.POI) (domain.POI, error)

	// Delete removes a POI, scoped to the given trip. Itinerary items that
	// referenced it keep existing with a NULL poi_id.
	// Returns domain.ErrNotFound if no such POI exists under that trip.
	Delete(ctx context.Context, tripID, poiID uuid.UUID) error

	// SetSchedule sets scheduled_at and, when durationMinutes is non-nil,
	// duration_minutes. A nil duration leaves the stored one untouched.
	SetSchedule(ctx context.Context, poiID uuid.UUID, scheduledAt time.Time, durationMinutes *int) error

	// ClearSchedule sets scheduled_at to NULL, leaving duration and other fields.
	ClearSchedule(ctx context.Context, poiID uuid.UUID) error
}

// pgPOIRepo is the Postgres implementation of POIRepo.
type pgPOIRepo struct {
	db db
}

// NewPOIRepo constructs a POIRepo backed by the provided db connection.
func NewPOIRepo(db db) POIRepo {
	return &pgPOIRepo{db: db}
}

const poiColumns = `id, trip_id, name, notes, lat, lng, address, city, country, place_name,
	scheduled_at, duration_minutes, estimated_cost, created_at, updated_at`

func poiArgs(p domain.POI) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":               p.ID,
		"trip_id":          p.TripID,
		"name":             p.Name,
		"notes":            p.Notes,
		"lat":              p.Lat,
		"lng":              p.Lng,
		"address":          p.Address,
		"city":             p.City,
		"country":          p.Country,
		"place_name":       p.PlaceName,
		"scheduled_at":     p.ScheduledAt,
		"duration_minutes": p.DurationMinutes,
		"estimated_cost":   p.EstimatedCost,
	}
}

func (r *pgPOIRepo) Create(ctx context.Context, poi domain.POI) (domain.POI, error) {
	const q = `
		INSERT INTO pois (trip_id, name, notes, lat, lng, address, city, country, place_name,
		                  scheduled_at, duration_minutes, estimated_cost)
		VALUES (@trip_id, @name, @notes, @lat, @lng, @address, @city, @country, @place_name,
		        @scheduled_at, @duration_minutes, @estimated_cost)
		RETURNING ` + poiColumns

	result, err := scanPOI(r.db.QueryRow(ctx, q, poiArgs(poi)))
	if err != nil {
		return domain.POI{}, fmt.Errorf("repo.POIRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgPOIRepo) GetByID(ctx context.Context, tripID, poiID uuid.UUID) (domain.POI, error) {
	const q = `SELECT ` + poiColumns + ` FROM pois WHERE id = @id AND trip_id = @trip_id`

	result, err := scanPOI(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": poiID, "trip_id": tripID}))
	if err != nil {
		return domain.POI{}, fmt.Errorf("repo.POIRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgPOIRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.POI, error) {
	const q = `SELECT ` + poiColumns + ` FROM pois WHERE trip_id = @trip_id ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.POIRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	var pois []domain.POI
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.POIRepo.ListByTripID: scan: %w", err)
		}
		pois = append(pois, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.POIRepo.ListByTripID: rows: %w", err)
	}
	return pois, nil
}

func (r *pgPOIRepo) ListLocatedWithin(ctx context.Context, tripID uuid.UUID, bound orb.Bound) ([]domain.LocatedPOI, error) {
	const q = `
		SELECT p.id, p.trip_id, p.name, p.notes, p.lat, p.lng, p.address, p.city, p.country, p.place_name,
		       p.scheduled_at, p.duration_minutes, p.estimated_cost, p.created_at, p.updated_at,
		       min(i.start_ts) AS earliest_item_start
		FROM pois p
		LEFT JOIN itinerary_items i ON i.poi_id = p.id AND i.start_ts IS NOT NULL
		WHERE p.trip_id = @trip_id
		  AND p.lat IS NOT NULL AND p.lng IS NOT NULL
		  AND p.lat BETWEEN @min_lat AND @max_lat
		  AND p.lng BETWEEN @min_lng AND @max_lng
		GROUP BY p.id
		ORDER BY p.created_at, p.id`

	args := pgx.NamedArgs{
		"trip_id": tripID,
		"min_lat": bound.Min.Lat(),
		"max_lat": bound.Max.Lat(),
		"min_lng": bound.Min.Lon(),
		"max_lng": bound.Max.Lon(),
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.POIRepo.ListLocatedWithin: %w", err)
	}
	defer rows.Close()

	var out []domain.LocatedPOI
	for rows.Next() {
		var earliest pgtype.Timestamp
		p, err := scanPOI(rows, &earliest)
		if err != nil {
			return nil, fmt.Errorf("repo.POIRepo.ListLocatedWithin: scan: %w", err)
		}
		out = append(out, domain.LocatedPOI{POI: p, EarliestItemStart: timestampPtr(earliest)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.POIRepo.ListLocatedWithin: rows: %w", err)
	}
	return out, nil
}

func (r *pgPOIRepo) Update(ctx context.Context, poi domain.POI) (domain.POI, error) {
	const q = `
		UPDATE pois
		SET name             = @name,
		    notes            = @notes,
		    lat              = @lat,
		    lng              = @lng,
		    address          = @address,
		    city             = @city,
		    country          = @country,
		    place_name       = @place_name,
		    scheduled_at     = @scheduled_at,
		    duration_minutes = @duration_minutes,
		    estimated_cost   = @estimated_cost,
		    updated_at       = now()
		WHERE id = @id AND trip_id = @trip_id
		RETURNING ` + poiColumns

	result, err := scanPOI(r.db.QueryRow(ctx, q, poiArgs(poi)))
	if err != nil {
		return domain.POI{}, fmt.Errorf("repo.POIRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgPOIRepo) Delete(ctx context.Context, tripID, poiID uuid.UUID) error {
	const q = `DELETE FROM pois WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": poiID, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.POIRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.POIRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgPOIRepo) SetSchedule(ctx context.Context, poiID uuid.UUID, scheduledAt time.Time, durationMinutes *int) error {
	const q = `
		UPDATE pois
		SET scheduled_at     = @scheduled_at,
		    duration_minutes = COALESCE(@duration_minutes, duration_minutes),
		    updated_at       = now()
		WHERE id = @id`

	args := pgx.NamedArgs{"id": poiID, "scheduled_at": scheduledAt, "duration_minutes": durationMinutes}
	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.POIRepo.SetSchedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.POIRepo.SetSchedule: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgPOIRepo) ClearSchedule(ctx context.Context, poiID uuid.UUID) error {
	const q = `UPDATE pois SET scheduled_at = NULL, updated_at = now() WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": poiID})
	if err != nil {
		return fmt.Errorf("repo.POIRepo.ClearSchedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.POIRepo.ClearSchedule: %w", domain.ErrNotFound)
	}
	return nil
}

// scanPOI maps a row of poiColumns into a domain.POI. extra receives any
// columns selected after poiColumns.
func scanPOI(s scanner, extra ...any) (domain.POI, error) {
	var (
		p           domain.POI
		id, tripID  pgtype.UUID
		lat, lng    pgtype.Float8
		scheduledAt pgtype.Timestamp
		duration    pgtype.Int4
		cost        pgtype.Float8
	)

	dest := []any{
		&id, &tripID, &p.Name, &p.Notes, &lat, &lng, &p.Address, &p.City, &p.Country, &p.PlaceName,
		&scheduledAt, &duration, &cost, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return domain.POI{}, noRows(err)
	}

	p.ID = uuid.UUID(id.Bytes)
	p.TripID = uuid.UUID(tripID.Bytes)
	p.Lat = float8Ptr(lat)
	p.Lng = float8Ptr(lng)
	p.ScheduledAt = timestampPtr(scheduledAt)
	p.DurationMinutes = int4Ptr(duration)
	p.EstimatedCost = float8Ptr(cost)
	return p, nil
}
