package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/planificate/backend/internal/domain"
)

// ItineraryRepo defines the persistence operations for itinerary items.
type ItineraryRepo interface {
	// Create inserts a new item and returns the persisted record.
	Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)

	// GetByID retrieves an item scoped to the given trip.
	// Returns domain.ErrNotFound if no such item exists under that trip.
	GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error)

	// ListByTripID returns all items of a trip, scheduled ones first by
	// start_ts, then unscheduled ones by creation.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error)

	// Update overwrites the mutable fields of an item, scoped to its trip.
	// Returns domain.ErrNotFound if no such item exists under that trip.
	Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)

	// Delete removes an item, scoped to the given trip.
	// Returns domain.ErrNotFound if no such item exists under that trip.
	Delete(ctx context.Context, tripID, itemID uuid.UUID) error

	// CountByPOI reports how many items reference poiID, and how many of
	// those carry a start_ts.
	CountByPOI(ctx context.Context, poiID uuid.UUID) (domain.POIBookings, error)
}

// pgItineraryRepo is the Postgres implementation of ItineraryRepo.
type pgItineraryRepo struct {
	db db
}

// NewItineraryRepo constructs an ItineraryRepo backed by the provided db connection.
func NewItineraryRepo(db db) ItineraryRepo {
	return &pgItineraryRepo{db: db}
}

const itemColumns = `id, trip_id, poi_id, name, start_ts, end_ts, status, created_at, updated_at`

func itemArgs(it domain.ItineraryItem) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":       it.ID,
		"trip_id":  it.TripID,
		"poi_id":   it.POIID,
		"name":     it.Name,
		"start_ts": it.StartTS,
		"end_ts":   it.EndTS,
		"status":   it.Status,
	}
}

func (r *pgItineraryRepo) Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	const q = `
		INSERT INTO itinerary_items (trip_id, poi_id, name, start_ts, end_ts, status)
		VALUES (@trip_id, @poi_id, @name, @start_ts, @end_ts, @status)
		RETURNING ` + itemColumns

	result, err := scanItem(r.db.QueryRow(ctx, q, itemArgs(item)))
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgItineraryRepo) GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error) {
	const q = `SELECT ` + itemColumns + ` FROM itinerary_items WHERE id = @id AND trip_id = @trip_id`

	result, err := scanItem(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": itemID, "trip_id": tripID}))
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgItineraryRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error) {
	const q = `
		SELECT ` + itemColumns + `
		FROM itinerary_items
		WHERE trip_id = @trip_id
		ORDER BY start_ts NULLS LAST, created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	var items []domain.ItineraryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ListByTripID: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTripID: rows: %w", err)
	}
	return items, nil
}

func (r *pgItineraryRepo) Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	const q = `
		UPDATE itinerary_items
		SET poi_id     = @poi_id,
		    name       = @name,
		    start_ts   = @start_ts,
		    end_ts     = @end_ts,
		    status     = @status,
		    updated_at = now()
		WHERE id = @id AND trip_id = @trip_id
		RETURNING ` + itemColumns

	result, err := scanItem(r.db.QueryRow(ctx, q, itemArgs(item)))
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgItineraryRepo) Delete(ctx context.Context, tripID, itemID uuid.UUID) error {
	const q = `DELETE FROM itinerary_items WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": itemID, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgItineraryRepo) CountByPOI(ctx context.Context, poiID uuid.UUID) (domain.POIBookings, error) {
	const q = `
		SELECT count(*), count(start_ts)
		FROM itinerary_items
		WHERE poi_id = @poi_id`

	var b domain.POIBookings
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"poi_id": poiID}).Scan(&b.References, &b.Scheduled); err != nil {
		return domain.POIBookings{}, fmt.Errorf("repo.ItineraryRepo.CountByPOI: %w", err)
	}
	return b, nil
}

// scanItem maps a row of itemColumns into a domain.ItineraryItem.
func scanItem(s scanner) (domain.ItineraryItem, error) {
	var (
		it         domain.ItineraryItem
		id, tripID pgtype.UUID
		poiID      pgtype.UUID
		start, end pgtype.Timestamp
	)

	err := s.Scan(&id, &tripID, &poiID, &it.Name, &start, &end, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return domain.ItineraryItem{}, noRows(err)
	}

	it.ID = uuid.UUID(id.Bytes)
	it.TripID = uuid.UUID(tripID.Bytes)
	if poiID.Valid {
		p := uuid.UUID(poiID.Bytes)
		it.POIID = &p
	}
	it.StartTS = timestampPtr(start)
	it.EndTS = timestampPtr(end)
	return it, nil
}
