package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/repo"
)

// ItineraryService implements business logic for itinerary items. Every
// write runs in one transaction together with the POI updates it implies.
type ItineraryService struct {
	tx    repo.Transactor
	repos repo.Repos
	sync  *SyncManager
	log   *slog.Logger
}

// NewItineraryService constructs an ItineraryService.
func NewItineraryService(tx repo.Transactor, repos repo.Repos, sync *SyncManager, log *slog.Logger) *ItineraryService {
	return &ItineraryService{tx: tx, repos: repos, sync: sync, log: log}
}

// Create validates and persists a new item, scheduling its POI if it has one
// and a start time.
// Returns domain.ErrValidation for invalid input, including a poi_id that does
// not belong to the item's trip, and domain.ErrNotFound if the trip does not exist.
func (s *ItineraryService) Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	if err := validateItem(item); err != nil {
		return domain.ItineraryItem{}, err
	}

	var (
		created domain.ItineraryItem
		effects []SyncEffect
	)
	err := s.tx.WithinTx(ctx, func(rs repo.Repos) error {
		if _, err := rs.Trips.GetByID(ctx, item.TripID); err != nil {
			return err
		}
		if err := checkPOIOwnership(ctx, rs.POIs, item); err != nil {
			return err
		}
		var err error
		if created, err = rs.Items.Create(ctx, item); err != nil {
			return err
		}
		effects, err = s.sync.Apply(ctx, rs, &created, nil)
		return err
	})
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Create: %w", err)
	}
	s.logEffects(ctx, created.ID, effects)
	return created, nil
}

// GetByID returns a single item, scoped to the given trip.
func (s *ItineraryService) GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error) {
	result, err := s.repos.Items.GetByID(ctx, tripID, itemID)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.GetByID: %w", err)
	}
	return result, nil
}

// ListByTripID returns all items of a trip.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ItineraryService) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error) {
	if _, err := s.repos.Trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.ListByTripID: %w", err)
	}
	items, err := s.repos.Items.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.ListByTripID: %w", err)
	}
	if items == nil {
		return []domain.ItineraryItem{}, nil
	}
	return items, nil
}

// Update validates and persists changes to an item, then re-syncs both the
// POI it now references and the one it referenced before.
func (s *ItineraryService) Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	if err := validateItem(item); err != nil {
		return domain.ItineraryItem{}, err
	}

	var (
		updated domain.ItineraryItem
		effects []SyncEffect
	)
	err := s.tx.WithinTx(ctx, func(rs repo.Repos) error {
		previous, err := rs.Items.GetByID(ctx, item.TripID, item.ID)
		if err != nil {
			return err
		}
		if err := checkPOIOwnership(ctx, rs.POIs, item); err != nil {
			return err
		}
		if updated, err = rs.Items.Update(ctx, item); err != nil {
			return err
		}
		effects, err = s.sync.Apply(ctx, rs, &updated, &previous)
		return err
	})
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Update: %w", err)
	}
	s.logEffects(ctx, updated.ID, effects)
	return updated, nil
}

// Delete removes an item. A POI left with no referencing items is deleted
// with it; one left with no scheduled items has its schedule cleared.
func (s *ItineraryService) Delete(ctx context.Context, tripID, itemID uuid.UUID) error {
	var effects []SyncEffect
	err := s.tx.WithinTx(ctx, func(rs repo.Repos) error {
		previous, err := rs.Items.GetByID(ctx, tripID, itemID)
		if err != nil {
			return err
		}
		if err := rs.Items.Delete(ctx, tripID, itemID); err != nil {
			return err
		}
		effects, err = s.sync.Apply(ctx, rs, nil, &previous)
		return err
	})
	if err != nil {
		return fmt.Errorf("service.ItineraryService.Delete: %w", err)
	}
	s.logEffects(ctx, itemID, effects)
	return nil
}

// logEffects records POI changes made on the caller's behalf once they are
// committed. Deleting or unscheduling a POI is not visible in the response,
// so those are logged at info.
func (s *ItineraryService) logEffects(ctx context.Context, itemID uuid.UUID, effects []SyncEffect) {
	for _, e := range effects {
		level := slog.LevelDebug
		if e.Action == SyncDeletePOI || e.Action == SyncClearSchedule {
			level = slog.LevelInfo
		}
		s.log.Log(ctx, level, "poi synced with itinerary", "item_id", itemID, "poi_id", e.POIID, "action", e.Action)
	}
}

// checkPOIOwnership rejects an item that points at a POI of another trip.
func checkPOIOwnership(ctx context.Context, pois repo.POIRepo, item domain.ItineraryItem) error {
	if item.POIID == nil {
		return nil
	}
	if _, err := pois.GetByID(ctx, item.TripID, *item.POIID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: poi_id %s does not belong to this trip", domain.ErrValidation, *item.POIID)
		}
		return err
	}
	return nil
}

// validateItem enforces business rules common to both Create and Update.
//   - EndTS requires StartTS and must not be before it.
func validateItem(item domain.ItineraryItem) error {
	if item.EndTS == nil {
		return nil
	}
	if item.StartTS == nil {
		return fmt.Errorf("%w: end_ts requires start_ts", domain.ErrValidation)
	}
	if item.EndTS.Before(*item.StartTS) {
		return fmt.Errorf("%w: end_ts must not be before start_ts", domain.ErrValidation)
	}
	return nil
}
