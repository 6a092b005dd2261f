package handler

import (
	"encoding/json"
	"fmt"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Wire types for the JSON API. Field names follow openapi.yaml; optional
// fields are pointers so absent and zero can be told apart.

// localTimeLayout is the wire format for wall-clock timestamps. Times carry
// no zone: they are the local time at the place being visited.
const localTimeLayout = "2006-01-02T15:04:05"

// LocalTime is a wall-clock timestamp. It accepts "2006-01-02T15:04:05" or
// RFC 3339 on input (an offset is dropped, keeping the clock reading) and
// always renders without a zone.
type LocalTime struct {
	time.Time
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(localTimeLayout))
}

func (t *LocalTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range []string{localTimeLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = wallClock(parsed)
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q: want YYYY-MM-DDThh:mm:ss", s)
}

// wallClock keeps the clock reading of t and pins it to UTC.
func wallClock(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC)
}

func localTimePtr(t *time.Time) *LocalTime {
	if t == nil {
		return nil
	}
	return &LocalTime{Time: *t}
}

func (t *LocalTime) timePtr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code             string              `json:"code"`
	Message          string              `json:"message"`
	ConflictingPoiId *openapi_types.UUID `json:"conflicting_poi_id,omitempty"`
	Service          *string             `json:"service,omitempty"`
}

// ErrorResponse wraps ErrorDetail under "error".
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Trip is the wire form of domain.Trip.
type Trip struct {
	Id          openapi_types.UUID  `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	StartDate   openapi_types.Date  `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TripList is returned by GET /trips.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TripRequest is the body of POST /trips and PUT /trips/{tripId}.
type TripRequest struct {
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date,omitempty"`
}

// POI is the wire form of domain.POI.
type POI struct {
	Id              openapi_types.UUID `json:"id"`
	TripId          openapi_types.UUID `json:"trip_id"`
	Name            string             `json:"name"`
	Notes           *string            `json:"notes,omitempty"`
	Lat             *float64           `json:"lat,omitempty"`
	Lng             *float64           `json:"lng,omitempty"`
	Address         *string            `json:"address,omitempty"`
	City            *string            `json:"city,omitempty"`
	Country         *string            `json:"country,omitempty"`
	PlaceName       *string            `json:"place_name,omitempty"`
	ScheduledAt     *LocalTime         `json:"scheduled_at,omitempty"`
	DurationMinutes *int               `json:"duration_minutes,omitempty"`
	EstimatedCost   *float64           `json:"estimated_cost,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// POIRequest is the body of POST /trips/{tripId}/pois and PUT .../{poiId}.
type POIRequest struct {
	Name            string     `json:"name"`
	Notes           *string    `json:"notes,omitempty"`
	Lat             *float64   `json:"lat,omitempty"`
	Lng             *float64   `json:"lng,omitempty"`
	Address         *string    `json:"address,omitempty"`
	City            *string    `json:"city,omitempty"`
	Country         *string    `json:"country,omitempty"`
	PlaceName       *string    `json:"place_name,omitempty"`
	ScheduledAt     *LocalTime `json:"scheduled_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	EstimatedCost   *float64   `json:"estimated_cost,omitempty"`
}

// DuplicateCheckRequest is the body of POST /trips/{tripId}/pois/duplicate-check.
type DuplicateCheckRequest struct {
	Lat        *float64            `json:"lat"`
	Lng        *float64            `json:"lng"`
	TargetDate *openapi_types.Date `json:"target_date,omitempty"`
}

// DuplicateCheckResponse reports whether a POI would be rejected.
type DuplicateCheckResponse struct {
	Duplicate          bool                `json:"duplicate"`
	ConflictingPoiId   *openapi_types.UUID `json:"conflicting_poi_id,omitempty"`
	ConflictingPoiName *string             `json:"conflicting_poi_name,omitempty"`
	Reason             *string             `json:"reason,omitempty"`
}

// ItineraryItem is the wire form of domain.ItineraryItem.
type ItineraryItem struct {
	Id        openapi_types.UUID  `json:"id"`
	TripId    openapi_types.UUID  `json:"trip_id"`
	PoiId     *openapi_types.UUID `json:"poi_id,omitempty"`
	Name      *string             `json:"name,omitempty"`
	StartTs   *LocalTime          `json:"start_ts,omitempty"`
	EndTs     *LocalTime          `json:"end_ts,omitempty"`
	Status    *string             `json:"status,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ItineraryItemRequest is the body of POST and PUT on itinerary items.
type ItineraryItemRequest struct {
	PoiId   *openapi_types.UUID `json:"poi_id,omitempty"`
	Name    *string             `json:"name,omitempty"`
	StartTs *LocalTime          `json:"start_ts,omitempty"`
	EndTs   *LocalTime          `json:"end_ts,omitempty"`
	Status  *string             `json:"status,omitempty"`
}

// Activity is one entry of a schedule day.
type Activity struct {
	Id              string              `json:"id"`
	Type            string              `json:"type"`
	Name            string              `json:"name"`
	Start           LocalTime           `json:"start"`
	End             *LocalTime          `json:"end,omitempty"`
	DurationMinutes *int                `json:"duration_minutes,omitempty"`
	PoiId           *openapi_types.UUID `json:"poi_id,omitempty"`
	ItemId          *openapi_types.UUID `json:"item_id,omitempty"`
	Address         *string             `json:"address,omitempty"`
	City            *string             `json:"city,omitempty"`
	Country         *string             `json:"country,omitempty"`
	EstimatedCost   *float64            `json:"estimated_cost,omitempty"`
	Description     *string             `json:"description,omitempty"`
}

// FreeTimeSlot is a gap of at least 15 minutes between two activities.
type FreeTimeSlot struct {
	Start           LocalTime `json:"start"`
	End             LocalTime `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// ScheduleDay is one calendar date of a schedule.
type ScheduleDay struct {
	Date       openapi_types.Date `json:"date"`
	Activities []Activity         `json:"activities"`
	FreeTime   []FreeTimeSlot     `json:"free_time"`
}

// Schedule is returned by GET /trips/{tripId}/itinerary/schedule.
type Schedule struct {
	TripId           openapi_types.UUID `json:"trip_id"`
	Days             []ScheduleDay      `json:"days"`
	UnscheduledPois  []POI              `json:"unscheduled_pois"`
	UnscheduledItems []ItineraryItem    `json:"unscheduled_items"`
}

// Point is a coordinate in a routing request.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteRequest is the body of POST /osm/route/optimize and /osm/route/calculate.
// Profile defaults to driving. Roundtrip only applies to optimize and
// defaults to true.
type RouteRequest struct {
	Points    []Point `json:"points"`
	Profile   *string `json:"profile,omitempty"`
	Roundtrip *bool   `json:"roundtrip,omitempty"`
}

// ForwardGeocodeRequest is the body of POST /osm/geocode/forward.
type ForwardGeocodeRequest struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

// ReverseGeocodeRequest is the body of POST /osm/geocode/reverse.
type ReverseGeocodeRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// PlaceSearchRequest is the body of POST /osm/pois/search.
type PlaceSearchRequest struct {
	Tags   map[string]string `json:"tags"`
	BBox   *string           `json:"bbox,omitempty"`
	Around *string           `json:"around,omitempty"`
	Limit  *int              `json:"limit,omitempty"`
}

// optionalString returns nil for "" so empty fields are omitted on the wire.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateValue(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
