package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/repo"
	"github.com/planificate/backend/internal/service"
)

// poiCalls records what the sync manager did to POIs.
type poiCalls struct {
	scheduled map[uuid.UUID]time.Time
	durations map[uuid.UUID]*int
	cleared   []uuid.UUID
	deleted   []uuid.UUID
}

// recordingRepos returns repos whose POI writes are recorded and whose
// CountByPOI answers from bookings.
func recordingRepos(bookings map[uuid.UUID]domain.POIBookings) (repo.Repos, *poiCalls) {
	calls := &poiCalls{scheduled: map[uuid.UUID]time.Time{}, durations: map[uuid.UUID]*int{}}
	pois := &mockPOIRepo{
		setSchedule: func(_ context.Context, id uuid.UUID, at time.Time, d *int) error {
			calls.scheduled[id] = at
			calls.durations[id] = d
			return nil
		},
		clearSchedule: func(_ context.Context, id uuid.UUID) error {
			calls.cleared = append(calls.cleared, id)
			return nil
		},
		delete: func(_ context.Context, _, id uuid.UUID) error {
			calls.deleted = append(calls.deleted, id)
			return nil
		},
	}
	items := &mockItineraryRepo{
		countByPOI: func(_ context.Context, id uuid.UUID) (domain.POIBookings, error) {
			return bookings[id], nil
		},
	}
	return repo.Repos{POIs: pois, Items: items}, calls
}

func TestDecideSync(t *testing.T) {
	tests := []struct {
		trigger service.SyncTrigger
		refs    int
		sched   int
		want    service.SyncAction
	}{
		{service.TriggerItemDeleted, 0, 0, service.SyncDeletePOI},
		{service.TriggerItemDeleted, 2, 0, service.SyncClearSchedule},
		{service.TriggerItemDeleted, 2, 1, service.SyncKeep},
		{service.TriggerItemReleased, 0, 0, service.SyncClearSchedule},
		{service.TriggerItemReleased, 1, 0, service.SyncClearSchedule},
		{service.TriggerItemReleased, 3, 3, service.SyncKeep},
		// Scheduled without references cannot happen; it must not destroy anything.
		{service.TriggerItemDeleted, 0, 1, service.SyncKeep},
	}
	for _, tc := range tests {
		got := service.DecideSync(tc.trigger, domain.POIBookings{References: tc.refs, Scheduled: tc.sched})
		assert.Equal(t, tc.want, got, "%s refs=%d scheduled=%d", tc.trigger, tc.refs, tc.sched)
	}
}

func TestSyncManager_Create_SchedulesPOI(t *testing.T) {
	poiID := uuid.New()
	rs, calls := recordingRepos(nil)
	m := service.NewSyncManager(discardLogger())

	start := wallClock(2, 9, 0)
	end := start.Add(89*time.Minute + 40*time.Second)
	item := domain.ItineraryItem{TripID: uuid.New(), POIID: &poiID, StartTS: &start, EndTS: &end}

	effects, err := m.Apply(context.Background(), rs, &item, nil)

	require.NoError(t, err)
	assert.Equal(t, []service.SyncEffect{{POIID: poiID, Action: service.SyncSchedule}}, effects)
	assert.True(t, calls.scheduled[poiID].Equal(start))
	require.NotNil(t, calls.durations[poiID])
	assert.Equal(t, 90, *calls.durations[poiID], "duration rounds to the nearest minute")
}

func TestSyncManager_Create_NoEndKeepsDuration(t *testing.T) {
	poiID := uuid.New()
	rs, calls := recordingRepos(nil)
	m := service.NewSyncManager(discardLogger())

	start := wallClock(2, 9, 0)
	item := domain.ItineraryItem{POIID: &poiID, StartTS: &start}

	_, err := m.Apply(context.Background(), rs, &item, nil)

	require.NoError(t, err)
	assert.Contains(t, calls.scheduled, poiID)
	assert.Nil(t, calls.durations[poiID])
}

func TestSyncManager_Create_NoSideEffects(t *testing.T) {
	m := service.NewSyncManager(discardLogger())
	poiID := uuid.New()
	// Empty repos: any call would panic on a nil interface.
	rs := repo.Repos{}

	for name, item := range map[string]domain.ItineraryItem{
		"no poi":      {Name: "Walk", StartTS: ptr(wallClock(2, 9, 0))},
		"no start_ts": {POIID: &poiID},
	} {
		t.Run(name, func(t *testing.T) {
			effects, err := m.Apply(context.Background(), rs, &item, nil)
			require.NoError(t, err)
			assert.Empty(t, effects)
		})
	}
}

func TestSyncManager_Update_MoveAway(t *testing.T) {
	oldPOI, newPOI := uuid.New(), uuid.New()
	start := wallClock(3, 14, 0)

	tests := []struct {
		name        string
		remaining   domain.POIBookings
		wantCleared bool
	}{
		{"old poi left unreferenced", domain.POIBookings{}, true},
		{"old poi referenced but unscheduled", domain.POIBookings{References: 1}, true},
		{"old poi still scheduled elsewhere", domain.POIBookings{References: 1, Scheduled: 1}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rs, calls := recordingRepos(map[uuid.UUID]domain.POIBookings{oldPOI: tc.remaining})
			m := service.NewSyncManager(discardLogger())

			previous := domain.ItineraryItem{POIID: &oldPOI, StartTS: &start}
			item := domain.ItineraryItem{POIID: &newPOI, StartTS: &start}

			_, err := m.Apply(context.Background(), rs, &item, &previous)

			require.NoError(t, err)
			assert.Contains(t, calls.scheduled, newPOI)
			assert.Empty(t, calls.deleted, "moving away never deletes the previous POI")
			if tc.wantCleared {
				assert.Equal(t, []uuid.UUID{oldPOI}, calls.cleared)
			} else {
				assert.Empty(t, calls.cleared)
			}
		})
	}
}

func TestSyncManager_Update_DropStartClearsSamePOI(t *testing.T) {
	poiID := uuid.New()
	start := wallClock(3, 14, 0)
	rs, calls := recordingRepos(map[uuid.UUID]domain.POIBookings{poiID: {References: 1}})
	m := service.NewSyncManager(discardLogger())

	previous := domain.ItineraryItem{POIID: &poiID, StartTS: &start}
	item := domain.ItineraryItem{POIID: &poiID}

	effects, err := m.Apply(context.Background(), rs, &item, &previous)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{poiID}, calls.cleared)
	assert.Equal(t, []service.SyncEffect{{POIID: poiID, Action: service.SyncClearSchedule}}, effects)
}

func TestSyncManager_Update_Reschedule(t *testing.T) {
	poiID := uuid.New()
	before, after := wallClock(3, 14, 0), wallClock(4, 10, 0)
	rs, calls := recordingRepos(nil)
	m := service.NewSyncManager(discardLogger())

	previous := domain.ItineraryItem{POIID: &poiID, StartTS: &before}
	item := domain.ItineraryItem{POIID: &poiID, StartTS: &after}

	_, err := m.Apply(context.Background(), rs, &item, &previous)

	require.NoError(t, err)
	assert.True(t, calls.scheduled[poiID].Equal(after))
	assert.Empty(t, calls.cleared)
}

func TestSyncManager_Delete(t *testing.T) {
	poiID := uuid.New()
	start := wallClock(3, 14, 0)

	tests := []struct {
		name      string
		remaining domain.POIBookings
		want      service.SyncAction
	}{
		{"orphan poi is deleted", domain.POIBookings{}, service.SyncDeletePOI},
		{"unscheduled references clear it", domain.POIBookings{References: 2}, service.SyncClearSchedule},
		{"scheduled references keep it", domain.POIBookings{References: 2, Scheduled: 1}, service.SyncKeep},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rs, calls := recordingRepos(map[uuid.UUID]domain.POIBookings{poiID: tc.remaining})
			m := service.NewSyncManager(discardLogger())

			previous := domain.ItineraryItem{TripID: uuid.New(), POIID: &poiID, StartTS: &start}
			effects, err := m.Apply(context.Background(), rs, nil, &previous)

			require.NoError(t, err)
			require.Len(t, effects, 1)
			assert.Equal(t, tc.want, effects[0].Action)
			assert.Equal(t, tc.want == service.SyncDeletePOI, len(calls.deleted) == 1)
			assert.Equal(t, tc.want == service.SyncClearSchedule, len(calls.cleared) == 1)
		})
	}
}

func TestSyncManager_CountError(t *testing.T) {
	poiID := uuid.New()
	boom := errors.New("db down")
	rs := repo.Repos{
		Items: &mockItineraryRepo{
			countByPOI: func(_ context.Context, _ uuid.UUID) (domain.POIBookings, error) {
				return domain.POIBookings{}, boom
			},
		},
	}
	m := service.NewSyncManager(discardLogger())

	_, err := m.Apply(context.Background(), rs, nil, &domain.ItineraryItem{POIID: &poiID})

	assert.ErrorIs(t, err, boom)
}
