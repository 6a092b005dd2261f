// Package timeline assembles a trip's scheduled POIs and itinerary items into
// a day-by-day view with free-time detection. It is a pure function of its
// inputs and never touches storage.
package timeline

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/planificate/backend/internal/domain"
)

// MinFreeTime is the shortest gap between two activities reported as free time.
const MinFreeTime = 15 * time.Minute

// UnnamedActivity is shown for an item with no name and no named POI.
const UnnamedActivity = "Untitled activity"

// Assemble builds the schedule view for one trip.
//
// Activities are grouped by the calendar date of their stored start time;
// no timezone conversion is applied. Output is deterministic: equal starts
// are ordered by activity ID.
func Assemble(tripID uuid.UUID, pois []domain.POI, items []domain.ItineraryItem) domain.ScheduleView {
	view := domain.ScheduleView{
		TripID:           tripID,
		Days:             []domain.ScheduleDay{},
		UnscheduledPOIs:  []domain.POI{},
		UnscheduledItems: []domain.ItineraryItem{},
	}

	byID := make(map[uuid.UUID]domain.POI, len(pois))
	for _, p := range pois {
		byID[p.ID] = p
	}

	var activities []domain.Activity
	for _, p := range pois {
		if p.ScheduledAt == nil {
			view.UnscheduledPOIs = append(view.UnscheduledPOIs, p)
			continue
		}
		activities = append(activities, fromPOI(p))
	}
	for _, it := range items {
		if it.StartTS == nil {
			view.UnscheduledItems = append(view.UnscheduledItems, it)
			continue
		}
		var poi *domain.POI
		if it.POIID != nil {
			if p, ok := byID[*it.POIID]; ok {
				poi = &p
			}
		}
		activities = append(activities, fromItem(it, poi))
	}

	sortActivities(activities)

	days := map[time.Time]*domain.ScheduleDay{}
	var order []time.Time
	for _, a := range activities {
		key := dateOf(a.Start)
		d, ok := days[key]
		if !ok {
			d = &domain.ScheduleDay{Date: key, Activities: []domain.Activity{}, FreeTime: []domain.FreeTimeSlot{}}
			days[key] = d
			order = append(order, key)
		}
		d.Activities = append(d.Activities, a)
	}

	slices.SortFunc(order, func(a, b time.Time) int { return a.Compare(b) })
	for _, key := range order {
		d := days[key]
		sortActivities(d.Activities)
		d.FreeTime = freeTime(d.Activities)
		view.Days = append(view.Days, *d)
	}
	return view
}

func fromPOI(p domain.POI) domain.Activity {
	start := *p.ScheduledAt
	id := p.ID
	a := domain.Activity{
		ID:              "poi_" + p.ID.String(),
		Type:            domain.ActivityPOI,
		Name:            p.Name,
		Start:           start,
		DurationMinutes: p.DurationMinutes,
		POIID:           &id,
		Address:         p.Address,
		City:            p.City,
		Country:         p.Country,
		EstimatedCost:   p.EstimatedCost,
		Description:     p.Notes,
	}
	if p.DurationMinutes != nil {
		end := start.Add(time.Duration(*p.DurationMinutes) * time.Minute)
		a.End = &end
	}
	return a
}

func fromItem(it domain.ItineraryItem, poi *domain.POI) domain.Activity {
	id := it.ID
	a := domain.Activity{
		ID:     "item_" + it.ID.String(),
		Type:   domain.ActivityItineraryItem,
		Name:   it.Name,
		Start:  *it.StartTS,
		End:    it.EndTS,
		ItemID: &id,
		POIID:  it.POIID,
	}
	if poi != nil {
		if a.Name == "" {
			a.Name = poi.Name
		}
		a.Address = poi.Address
		a.City = poi.City
		a.Country = poi.Country
		a.Description = poi.Notes
	}
	if a.Name == "" {
		a.Name = UnnamedActivity
	}
	if it.EndTS != nil {
		m := wholeMinutes(it.EndTS.Sub(*it.StartTS))
		a.DurationMinutes = &m
	}
	return a
}

// freeTime scans consecutive pairs of a sorted day. A pair yields a slot only
// when the earlier activity has an end and the gap reaches MinFreeTime.
func freeTime(acts []domain.Activity) []domain.FreeTimeSlot {
	slots := []domain.FreeTimeSlot{}
	for i := 0; i+1 < len(acts); i++ {
		prev, next := acts[i], acts[i+1]
		if prev.End == nil {
			continue
		}
		gap := next.Start.Sub(*prev.End)
		if gap < MinFreeTime {
			continue
		}
		slots = append(slots, domain.FreeTimeSlot{
			Start:           *prev.End,
			End:             next.Start,
			DurationMinutes: wholeMinutes(gap),
		})
	}
	return slots
}

func sortActivities(acts []domain.Activity) {
	slices.SortStableFunc(acts, func(a, b domain.Activity) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// wholeMinutes truncates toward zero.
func wholeMinutes(d time.Duration) int {
	return int(d / time.Minute)
}

// dateOf returns midnight UTC of t's wall-clock date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
