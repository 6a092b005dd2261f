package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/planificate/backend/internal/dedupe"
	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/geo"
	"github.com/planificate/backend/internal/repo"
)

// Geocoder resolves place text to coordinates and back. *GeoService
// satisfies it.
type Geocoder interface {
	Forward(ctx context.Context, query string, limit *int) ([]domain.GeocodeResult, error)
	Reverse(ctx context.Context, at domain.Coordinate) (domain.ReverseResult, error)
}

// POIService implements business logic for POI operations, including the
// proximity duplicate guard on creation.
type POIService struct {
	tx       repo.Transactor
	repos    repo.Repos
	geocoder Geocoder
	guard    dedupe.Guard
	log      *slog.Logger
}

// NewPOIService constructs a POIService. repos serves reads outside a
// transaction; writes that must be atomic go through tx. geocoder may be
// nil, which disables enrichment.
func NewPOIService(tx repo.Transactor, repos repo.Repos, geocoder Geocoder, guard dedupe.Guard, log *slog.Logger) *POIService {
	return &POIService{tx: tx, repos: repos, geocoder: geocoder, guard: guard, log: log}
}

// Create enriches the POI with geocoded fields where possible, then checks it
// against the trip's nearby POIs and persists it in one transaction.
// The trip row is locked for the duration, so two concurrent creations for
// the same trip cannot both pass the check.
//
// Returns domain.ErrValidation for invalid input, domain.ErrNotFound if the
// trip does not exist, and a *domain.ConflictError for a duplicate.
func (s *POIService) Create(ctx context.Context, poi domain.POI) (domain.POI, error) {
	if err := validatePOI(poi); err != nil {
		return domain.POI{}, err
	}
	poi = s.enrich(ctx, poi)

	var created domain.POI
	err := s.tx.WithinTx(ctx, func(rs repo.Repos) error {
		if err := rs.Trips.Lock(ctx, poi.TripID); err != nil {
			return err
		}
		if poi.HasLocation() {
			conflict, err := s.findDuplicate(ctx, rs.POIs, poi.TripID, poi.Coordinate(), poi.ScheduledAt)
			if err != nil {
				return err
			}
			if conflict != nil {
				return conflict
			}
		}
		var err error
		created, err = rs.POIs.Create(ctx, poi)
		return err
	})
	if err != nil {
		return domain.POI{}, fmt.Errorf("service.POIService.Create: %w", err)
	}
	return created, nil
}

// CheckDuplicate reports whether a POI at the given position and date would
// be rejected. A nil *domain.ConflictError means it would be accepted.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *POIService) CheckDuplicate(ctx context.Context, tripID uuid.UUID, at domain.Coordinate, targetDate *time.Time) (*domain.ConflictError, error) {
	if !at.Valid() {
		return nil, fmt.Errorf("%w: lat must be within [-90, 90] and lng within [-180, 180]", domain.ErrValidation)
	}
	if _, err := s.repos.Trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.POIService.CheckDuplicate: %w", err)
	}
	conflict, err := s.findDuplicate(ctx, s.repos.POIs, tripID, at, targetDate)
	if err != nil {
		return nil, fmt.Errorf("service.POIService.CheckDuplicate: %w", err)
	}
	return conflict, nil
}

func (s *POIService) findDuplicate(ctx context.Context, pois repo.POIRepo, tripID uuid.UUID, at domain.Coordinate, targetDate *time.Time) (*domain.ConflictError, error) {
	nearby, err := pois.ListLocatedWithin(ctx, tripID, geo.BoundAround(at, s.guard.MaxDistance))
	if err != nil {
		return nil, err
	}
	return s.guard.Check(at, targetDate, nearby), nil
}

// GetByID returns a single POI, scoped to the given trip.
func (s *POIService) GetByID(ctx context.Context, tripID, poiID uuid.UUID) (domain.POI, error) {
	result, err := s.repos.POIs.GetByID(ctx, tripID, poiID)
	if err != nil {
		return domain.POI{}, fmt.Errorf("service.POIService.GetByID: %w", err)
	}
	return result, nil
}

// ListByTripID returns all POIs of a trip.
// Always returns a non-nil slice so callers can safely range over it.
func (s *POIService) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.POI, error) {
	if _, err := s.repos.Trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.POIService.ListByTripID: %w", err)
	}
	pois, err := s.repos.POIs.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.POIService.ListByTripID: %w", err)
	}
	if pois == nil {
		return []domain.POI{}, nil
	}
	return pois, nil
}

// Update validates and persists changes to an existing POI.
func (s *POIService) Update(ctx context.Context, poi domain.POI) (domain.POI, error) {
	if err := validatePOI(poi); err != nil {
		return domain.POI{}, err
	}
	result, err := s.repos.POIs.Update(ctx, poi)
	if err != nil {
		return domain.POI{}, fmt.Errorf("service.POIService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a POI. Itinerary items that referenced it are kept and
// become freestanding.
func (s *POIService) Delete(ctx context.Context, tripID, poiID uuid.UUID) error {
	if err := s.repos.POIs.Delete(ctx, tripID, poiID); err != nil {
		return fmt.Errorf("service.POIService.Delete: %w", err)
	}
	return nil
}

// enrich fills missing location fields from the geocoder. Failures are
// logged and the POI is returned as far as it got.
func (s *POIService) enrich(ctx context.Context, poi domain.POI) domain.POI {
	if s.geocoder == nil {
		return poi
	}

	if !poi.HasLocation() {
		query := poi.PlaceQuery()
		if query == "" {
			return poi
		}
		one := 1
		results, err := s.geocoder.Forward(ctx, query, &one)
		if err != nil {
			s.log.WarnContext(ctx, "poi forward geocode failed", "query", query, "error", err)
			return poi
		}
		if len(results) == 0 {
			return poi
		}
		lat, lng := results[0].Lat, results[0].Lng
		poi.Lat, poi.Lng = &lat, &lng
		if poi.Address == "" {
			poi.Address = results[0].DisplayName
		}
	}

	// Freshly geocoded POIs fall through so city and country can be filled too.
	if poi.City != "" && poi.Country != "" {
		return poi
	}
	rev, err := s.geocoder.Reverse(ctx, poi.Coordinate())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "poi reverse geocode failed", "lat", *poi.Lat, "lng", *poi.Lng, "error", err)
		}
		return poi
	}
	if poi.City == "" {
		poi.City = rev.City
	}
	if poi.Country == "" {
		poi.Country = rev.Country
	}
	if poi.Address == "" {
		poi.Address = rev.Address
	}
	return poi
}

// validatePOI enforces business rules common to both Create and Update.
//   - Name must be non-empty.
//   - Lat and Lng are set together and within range.
//   - DurationMinutes and EstimatedCost, if set, are not negative.
func validatePOI(poi domain.POI) error {
	if strings.TrimSpace(poi.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if (poi.Lat == nil) != (poi.Lng == nil) {
		return fmt.Errorf("%w: lat and lng must be provided together", domain.ErrValidation)
	}
	if poi.HasLocation() && !poi.Coordinate().Valid() {
		return fmt.Errorf("%w: lat must be within [-90, 90] and lng within [-180, 180]", domain.ErrValidation)
	}
	if poi.DurationMinutes != nil && *poi.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration_minutes must not be negative", domain.ErrValidation)
	}
	if poi.EstimatedCost != nil && *poi.EstimatedCost < 0 {
		return fmt.Errorf("%w: estimated_cost must not be negative", domain.ErrValidation)
	}
	return nil
}
