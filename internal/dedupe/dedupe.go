// Package dedupe decides whether a new POI duplicates one already in its trip.
//
// Two POIs are the same place when they are within MaxDistanceMeters of each
// other (inclusive). Same-place POIs conflict when they fall on the same
// date, or when neither has a date at all. A dated POI next to an undated one
// is accepted; they may be visits on different days.
package dedupe

import (
	"fmt"
	"time"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/geo"
)

// MaxDistanceMeters is the radius within which two POIs count as the same place.
const MaxDistanceMeters = 100.0

// Guard applies the duplicate policy. The zero value is not usable; use
// NewGuard or set both fields.
type Guard struct {
	MaxDistance float64
	Distance    func(a, b domain.Coordinate) float64
}

// NewGuard returns a Guard with the standard radius and Haversine distance.
func NewGuard() Guard {
	return Guard{MaxDistance: MaxDistanceMeters, Distance: geo.Distance}
}

// Check compares a candidate position and optional target date against the
// located POIs of the same trip. It returns nil to accept, or the first
// conflicting POI in existing order.
func (g Guard) Check(candidate domain.Coordinate, targetDate *time.Time, existing []domain.LocatedPOI) *domain.ConflictError {
	target := dateOf(targetDate)
	for _, e := range existing {
		if !e.HasLocation() {
			continue
		}
		if g.Distance(candidate, e.Coordinate()) > g.MaxDistance {
			continue
		}

		have := EffectiveDate(e)
		switch {
		case target != nil && have != nil && target.Equal(*have):
			return &domain.ConflictError{
				POIID:   e.ID,
				POIName: e.Name,
				Reason:  fmt.Sprintf("a POI at this location is already scheduled for %s", target.Format(time.DateOnly)),
			}
		case target == nil && have == nil:
			return &domain.ConflictError{
				POIID:   e.ID,
				POIName: e.Name,
				Reason:  "an unscheduled POI already exists at this location",
			}
		}
	}
	return nil
}

// EffectiveDate is the date a POI is considered "for": its own scheduled_at
// date, else the date of the earliest itinerary item that books it, else nil.
func EffectiveDate(p domain.LocatedPOI) *time.Time {
	if p.ScheduledAt != nil {
		return dateOf(p.ScheduledAt)
	}
	return dateOf(p.EarliestItemStart)
}

// dateOf returns midnight UTC of t's wall-clock date, or nil.
func dateOf(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}
