package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType distinguishes the two sources an Activity is projected from.
type ActivityType string

const (
	ActivityPOI           ActivityType = "poi"
	ActivityItineraryItem ActivityType = "itinerary_item"
)

// Activity is a normalized projection of a scheduled POI or itinerary item.
// ID is "poi_<uuid>" or "item_<uuid>" so both kinds share one namespace.
type Activity struct {
	ID              string
	Type            ActivityType
	Name            string
	Start           time.Time
	End             *time.Time
	DurationMinutes *int
	POIID           *uuid.UUID
	ItemID          *uuid.UUID
	Address         string
	City            string
	Country         string
	EstimatedCost   *float64
	Description     string
}

// FreeTimeSlot is a gap between two consecutive same-day activities.
type FreeTimeSlot struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
}

// ScheduleDay groups the activities that start on one calendar date.
// Date is midnight UTC of that date.
type ScheduleDay struct {
	Date       time.Time
	Activities []Activity
	FreeTime   []FreeTimeSlot
}

// ScheduleView is the derived, never-persisted per-day timeline of a trip.
type ScheduleView struct {
	TripID           uuid.UUID
	Days             []ScheduleDay
	UnscheduledPOIs  []POI
	UnscheduledItems []ItineraryItem
}
