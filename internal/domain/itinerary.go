package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItineraryItem is an activity slot within a trip. POIID is nil for
// freestanding activities, which then rely on their own Name.
// EndTS, when set, must not be before StartTS.
type ItineraryItem struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	POIID     *uuid.UUID
	Name      string
	StartTS   *time.Time
	EndTS     *time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsScheduled reports whether the item carries a start time.
func (i ItineraryItem) IsScheduled() bool {
	return i.StartTS != nil
}

// References reports whether the item points at the given POI.
func (i ItineraryItem) References(poiID uuid.UUID) bool {
	return i.POIID != nil && *i.POIID == poiID
}

// POIBookings counts the itinerary items that reference one POI.
type POIBookings struct {
	References int // items pointing at the POI
	Scheduled  int // of those, items with a start_ts
}
