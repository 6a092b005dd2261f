package domain

import "slices"

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate lies within latitude/longitude bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Profile is a travel mode understood by the routing service.
type Profile string

const (
	ProfileDriving Profile = "driving"
	ProfileWalking Profile = "walking"
	ProfileCycling Profile = "cycling"
)

// Valid reports whether p is one of the supported profiles.
func (p Profile) Valid() bool {
	return slices.Contains([]Profile{ProfileDriving, ProfileWalking, ProfileCycling}, p)
}

// Waypoint is the routing service's snapped view of one input point.
type Waypoint struct {
	Name     string     `json:"name"`
	Location [2]float64 `json:"location"` // lng, lat as returned by OSRM
	Distance float64    `json:"distance"`
}

// Route is the road-network path for an ordered list of points.
type Route struct {
	DistanceMeters  float64    `json:"distance_meters"`
	DurationSeconds float64    `json:"duration_seconds"`
	Geometry        string     `json:"geometry"` // encoded polyline
	Waypoints       []Waypoint `json:"waypoints"`
}

// OptimizedRoute is the visiting order chosen for an unordered point set plus
// the route for that order. Order holds input indexes; for a roundtrip the
// last entry repeats the first.
type OptimizedRoute struct {
	Order []int `json:"order"`
	Route Route `json:"route"`
}

// GeocodeResult is one forward-geocoding candidate.
type GeocodeResult struct {
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	DisplayName string   `json:"display_name"`
	OSMID       int64    `json:"osm_id,omitempty"`
	OSMType     string   `json:"osm_type,omitempty"`
	PlaceID     int64    `json:"place_id,omitempty"`
	Importance  *float64 `json:"importance,omitempty"`
}

// ReverseResult is the address resolved for a coordinate.
type ReverseResult struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
}

// Place is a point of interest found through an Overpass search.
type Place struct {
	OSMID int64             `json:"osm_id"`
	Type  string            `json:"type"`
	Lat   float64           `json:"lat"`
	Lng   float64           `json:"lng"`
	Name  string            `json:"name,omitempty"`
	Tags  map[string]string `json:"tags"`
}
