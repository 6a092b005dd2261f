package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/repo"
	"github.com/planificate/backend/internal/service"
)

func TestScheduleService_AssembleSchedule(t *testing.T) {
	tripID := uuid.New()
	poiID := uuid.New()
	start := wallClock(2, 9, 0)

	rs := repo.Repos{
		Trips: tripExists(tripID),
		POIs: &mockPOIRepo{
			listByTripID: func(_ context.Context, _ uuid.UUID) ([]domain.POI, error) {
				return []domain.POI{
					{ID: poiID, TripID: tripID, Name: "Museum", ScheduledAt: &start, DurationMinutes: ptr(60)},
					{ID: uuid.New(), TripID: tripID, Name: "Someday"},
				}, nil
			},
		},
		Items: &mockItineraryRepo{
			listByTripID: func(_ context.Context, _ uuid.UUID) ([]domain.ItineraryItem, error) {
				lunch := wallClock(2, 12, 0)
				return []domain.ItineraryItem{{ID: uuid.New(), TripID: tripID, StartTS: &lunch, Name: "Lunch"}}, nil
			},
		},
	}
	svc := service.NewScheduleService(rs)

	view, err := svc.AssembleSchedule(context.Background(), tripID)

	require.NoError(t, err)
	assert.Equal(t, tripID, view.TripID)
	require.Len(t, view.Days, 1)
	assert.Len(t, view.Days[0].Activities, 2)
	require.Len(t, view.Days[0].FreeTime, 1)
	assert.Equal(t, 120, view.Days[0].FreeTime[0].DurationMinutes)
	require.Len(t, view.UnscheduledPOIs, 1)
	assert.Equal(t, "Someday", view.UnscheduledPOIs[0].Name)
}

func TestScheduleService_AssembleSchedule_TripNotFound(t *testing.T) {
	svc := service.NewScheduleService(repo.Repos{Trips: tripExists(uuid.New())})

	_, err := svc.AssembleSchedule(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
