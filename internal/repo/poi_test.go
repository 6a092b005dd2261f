package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/geo"
)

func ptr[T any](v T) *T { return &v }

// poiFixture returns a located POI in central Lisbon for the given trip.
func poiFixture(tripID uuid.UUID) domain.POI {
	return domain.POI{
		TripID:    tripID,
		Name:      "Praça do Comércio",
		Lat:       ptr(38.7075),
		Lng:       ptr(-9.1364),
		City:      "Lisbon",
		Country:   "Portugal",
		PlaceName: "Praça do Comércio",
	}
}

func TestPOIRepo_CreateAndGet(t *testing.T) {
	rs := newTestRepos(t)
	ctx := context.Background()
	trip := mustCreateTrip(t, rs.Trips)

	input := poiFixture(trip.ID)
	input.DurationMinutes = ptr(90)
	input.EstimatedCost = ptr(12.5)

	created, err := rs.POIs.Create(ctx, input)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := rs.POIs.GetByID(ctx, trip.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, input.Name, got.Name)
	require.NotNil(t, got.Lat)
	assert.InDelta(t, 38.7075, *got.Lat, 1e-9)
	require.NotNil(t, got.DurationMinutes)
	assert.Equal(t, 90, *got.DurationMinutes)
	require.NotNil(t, got.EstimatedCost)
	assert.InDelta(t, 12.5, *got.EstimatedCost, 1e-9)
	assert.Nil(t, got.ScheduledAt)
}

func TestPOIRepo_GetByID_OtherTrip(t *testing.T) {
	rs := newTestRepos(t)
	ctx := context.Background()
	trip := mustCreateTrip(t, rs.Trips)
	other := mustCreateTrip(t, rs.Trips)

	created, err := rs.POIs.Create(ctx, poiFixture(trip.ID))
	require.NoError(t, err)

	_, err = rs.POIs.GetByID(ctx, other.ID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPOIRepo_ListLocatedWithin(t *testing.T) {
	rs := newTestRepos(t)
	ctx := context.Background()
	trip := mustCreateTrip(t, rs.Trips)

	near, err := rs.POIs.Create(ctx, poiFixture(trip.ID))
	require.NoError(t, err)

	far := poiFixture(trip.ID)
	far.Name = "Porto"
	far.Lat, far.Lng = ptr(41.1496), ptr(-8.6109)
	_, err = rs.POIs.Create(ctx, far)
	require.NoError(t, err)

	unlocated := poiFixture(trip.ID)
	unlocated.Lat, unlocated.Lng = nil, nil
	_, err = rs.POIs.Create(ctx, unlocated)
	require.NoError(t, err)

	early := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	for _, start := range []*time.Time{&late, &early, nil} {
		_, err := rs.Items.Create(ctx, domain.ItineraryItem{TripID: trip.ID, POIID: &near.ID, StartTS: start})
		require.NoError(t, err)
	}

	center := domain.Coordinate{Lat: 38.7075, Lng: -9.1364}
	got, err := rs.POIs.ListLocatedWithin(ctx, trip.ID, geo.BoundAround(center, 100))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)
	require.NotNil(t, got[0].EarliestItemStart)
	assert.True(t, got[0].EarliestItemStart.Equal(early))
}

func TestPOIRepo_Update(t *testing.T) {
	rs := newTestRepos(t)
	ctx := context.Background()
	trip := mustCreateTrip(t, rs.Trips)

	created, err := rs.POIs.Create(ctx, poiFixture(trip.ID))
	require.NoError(t, err)

	created.Name = "Terreiro do Paço"
	created.Notes = "riverside"
	updated, err := rs.POIs.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, "Terreiro do Paço", updated.Name)
	assert.Equal(t, "riverside", updated.Notes)
}

func TestPOIRepo_SetAndClearSchedule(t *testing.T) {
	rs := newTestRepos(t)
	ctx := context.Background()
	trip := mustCreateTrip(t, rs.Trips)

	input := poiFixture(trip.ID)
	input.DurationMinutes = ptr(45)
	created, err := rs.POIs.Create(ctx, input)
	require.NoError(t, err)

	at := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
	require.NoError(t, rs.POIs.SetSchedule(ctx, created.ID, at, nil))

	got, err := rs.POIs.GetByID(ctx, trip.ID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ScheduledAt)
	assert.True(t, got.ScheduledAt.Equal(at))
	assert.Equal(t, 45, *got.DurationMinutes, "nil duration must keep the stored value")

	require.NoError(t, rs.POIs.SetSchedule(ctx, created.ID, at, ptr(120)))
	got, err = rs.POIs.GetByID(ctx, trip.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, *got.DurationMinutes)

	require.NoError(t, rs.POIs.ClearSchedule(ctx, created.ID))
	got, err = rs.POIs.GetByID(ctx, trip.ID, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ScheduledAt)
	assert.Equal(t, 120, *got.DurationMinutes)
}

func TestPOIRepo_Delete_DetachesItems(t *testing.T) {
	rs := newTestRepos(t)
	ctx := context.Background()
	trip := mustCreateTrip(t, rs.Trips)

	created, err := rs.POIs.Create(ctx, poiFixture(trip.ID))
	require.NoError(t, err)
	item, err := rs.Items.Create(ctx, domain.ItineraryItem{TripID: trip.ID, POIID: &created.ID, Name: "Lunch"})
	require.NoError(t, err)

	require.NoError(t, rs.POIs.Delete(ctx, trip.ID, created.ID))

	got, err := rs.Items.GetByID(ctx, trip.ID, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.POIID)
	assert.ErrorIs(t, rs.POIs.Delete(ctx, trip.ID, created.ID), domain.ErrNotFound)
}
