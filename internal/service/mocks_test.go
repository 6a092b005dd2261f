package service_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/repo"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones your test needs. Calling an unset one panics, which flags an
// unexpected repo call.

type mockTripRepo struct {
	create    func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID   func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listPaged func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	update    func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete    func(ctx context.Context, id uuid.UUID) error
	lock      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listPaged(ctx, p)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockTripRepo) Lock(ctx context.Context, id uuid.UUID) error {
	return m.lock(ctx, id)
}

type mockPOIRepo struct {
	create            func(ctx context.Context, poi domain.POI) (domain.POI, error)
	getByID           func(ctx context.Context, tripID, poiID uuid.UUID) (domain.POI, error)
	listByTripID      func(ctx context.Context, tripID uuid.UUID) ([]domain.POI, error)
	listLocatedWithin func(ctx context.Context, tripID uuid.UUID, bound orb.Bound) ([]domain.LocatedPOI, error)
	update            func(ctx context.Context, poi domain.POI) (domain.POI, error)
	delete            func(ctx context.Context, tripID, poiID uuid.UUID) error
	setSchedule       func(ctx context.Context, poiID uuid.UUID, at time.Time, duration *int) error
	clearSchedule     func(ctx context.Context, poiID uuid.UUID) error
}

func (m *mockPOIRepo) Create(ctx context.Context, poi domain.POI) (domain.POI, error) {
	return m.create(ctx, poi)
}
func (m *mockPOIRepo) GetByID(ctx context.Context, tripID, poiID uuid.UUID) (domain.POI, error) {
	return m.getByID(ctx, tripID, poiID)
}
func (m *mockPOIRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.POI, error) {
	return m.listByTripID(ctx, tripID)
}
func (m *mockPOIRepo) ListLocatedWithin(ctx context.Context, tripID uuid.UUID, bound orb.Bound) ([]domain.LocatedPOI, error) {
	return m.listLocatedWithin(ctx, tripID, bound)
}
func (m *mockPOIRepo) Update(ctx context.Context, poi domain.POI) (domain.POI, error) {
	return m.update(ctx, poi)
}
func (m *mockPOIRepo) Delete(ctx context.Context, tripID, poiID uuid.UUID) error {
	return m.delete(ctx, tripID, poiID)
}
func (m *mockPOIRepo) SetSchedule(ctx context.Context, poiID uuid.UUID, at time.Time, duration *int) error {
	return m.setSchedule(ctx, poiID, at, duration)
}
func (m *mockPOIRepo) ClearSchedule(ctx context.Context, poiID uuid.UUID) error {
	return m.clearSchedule(ctx, poiID)
}

type mockItineraryRepo struct {
	create       func(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)
	getByID      func(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error)
	listByTripID func(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error)
	update       func(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)
	delete       func(ctx context.Context, tripID, itemID uuid.UUID) error
	countByPOI   func(ctx context.Context, poiID uuid.UUID) (domain.POIBookings, error)
}

func (m *mockItineraryRepo) Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	return m.create(ctx, item)
}
func (m *mockItineraryRepo) GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error) {
	return m.getByID(ctx, tripID, itemID)
}
func (m *mockItineraryRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error) {
	return m.listByTripID(ctx, tripID)
}
func (m *mockItineraryRepo) Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	return m.update(ctx, item)
}
func (m *mockItineraryRepo) Delete(ctx context.Context, tripID, itemID uuid.UUID) error {
	return m.delete(ctx, tripID, itemID)
}
func (m *mockItineraryRepo) CountByPOI(ctx context.Context, poiID uuid.UUID) (domain.POIBookings, error) {
	return m.countByPOI(ctx, poiID)
}

// mockTransactor runs the unit of work against fixed repos. calls counts
// how many transactions were opened.
type mockTransactor struct {
	repos repo.Repos
	calls int
}

func (m *mockTransactor) WithinTx(_ context.Context, fn func(repo.Repos) error) error {
	m.calls++
	return fn(m.repos)
}

// compile-time checks: the mocks must satisfy the repo interfaces.
var (
	_ repo.TripRepo      = (*mockTripRepo)(nil)
	_ repo.POIRepo       = (*mockPOIRepo)(nil)
	_ repo.ItineraryRepo = (*mockItineraryRepo)(nil)
	_ repo.Transactor    = (*mockTransactor)(nil)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// wallClock builds a UTC timestamp on 2025-06-<day>.
func wallClock(day, hour, minute int) time.Time {
	return time.Date(2025, 6, day, hour, minute, 0, 0, time.UTC)
}

func tripExists(id uuid.UUID) *mockTripRepo {
	return &mockTripRepo{
		getByID: func(_ context.Context, got uuid.UUID) (domain.Trip, error) {
			if got != id {
				return domain.Trip{}, domain.ErrNotFound
			}
			return domain.Trip{ID: id, Title: "Trip"}, nil
		},
		lock: func(_ context.Context, got uuid.UUID) error {
			if got != id {
				return domain.ErrNotFound
			}
			return nil
		},
	}
}
