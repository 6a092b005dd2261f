package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// POI is a place a trip participant intends to visit.
// Lat and Lng are nil until the location has been resolved, either by the
// client or by geocoding on create.
//
// ScheduledAt mirrors the start of the itinerary item that books this POI,
// or a direct scheduling action when no item exists.
type POI struct {
	ID              uuid.UUID
	TripID          uuid.UUID
	Name            string
	Notes           string
	Lat             *float64
	Lng             *float64
	Address         string
	City            string
	Country         string
	PlaceName       string
	ScheduledAt     *time.Time
	DurationMinutes *int
	EstimatedCost   *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasLocation reports whether both coordinates are resolved.
func (p POI) HasLocation() bool {
	return p.Lat != nil && p.Lng != nil
}

// Coordinate returns the POI position. Only meaningful when HasLocation is true.
func (p POI) Coordinate() Coordinate {
	if !p.HasLocation() {
		return Coordinate{}
	}
	return Coordinate{Lat: *p.Lat, Lng: *p.Lng}
}

// PlaceQuery builds the free-text query used to geocode a POI that has no
// coordinates: address (or place name), city, country joined by ", ".
// Returns "" when none of those fields are set.
func (p POI) PlaceQuery() string {
	var parts []string
	switch {
	case strings.TrimSpace(p.Address) != "":
		parts = append(parts, strings.TrimSpace(p.Address))
	case strings.TrimSpace(p.PlaceName) != "":
		parts = append(parts, strings.TrimSpace(p.PlaceName))
	}
	if c := strings.TrimSpace(p.City); c != "" {
		parts = append(parts, c)
	}
	if c := strings.TrimSpace(p.Country); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, ", ")
}

// LocatedPOI is a POI with resolved coordinates together with the earliest
// start_ts among the itinerary items that reference it. EarliestItemStart is
// nil when no referencing item carries a start time.
type LocatedPOI struct {
	POI
	EarliestItemStart *time.Time
}
