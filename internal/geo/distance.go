// Package geo holds the spherical-earth distance math shared by duplicate
// detection and route ordering.
package geo

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/planificate/backend/internal/domain"
)

// EarthRadiusMeters is the mean earth radius used for Haversine distances.
const EarthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Distance is Haversine over domain coordinates.
func Distance(a, b domain.Coordinate) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Matrix builds the full symmetric distance matrix for points.
// m[i][j] is the distance in meters from points[i] to points[j].
func Matrix(points []domain.Coordinate) [][]float64 {
	n := len(points)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(points[i], points[j])
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

// BoundAround returns a lat/lng box that contains every point within meters
// of center. The box is a coarse prefilter for SQL; exact membership is
// still decided with Distance.
//
// Near the poles or the antimeridian the box widens to the full longitude
// range rather than wrapping.
func BoundAround(center domain.Coordinate, meters float64) orb.Bound {
	b := orbgeo.NewBoundAroundPoint(orb.Point{center.Lng, center.Lat}, meters)
	// Pad slightly so float error at the box edge cannot drop a point that is
	// exactly on the threshold.
	b = orbgeo.BoundPad(b, 1)

	if b.Min[0] < -180 || b.Max[0] > 180 || b.Min[1] < -90 || b.Max[1] > 90 {
		b.Min[0], b.Max[0] = -180, 180
	}
	b.Min[1] = max(b.Min[1], -90)
	b.Max[1] = min(b.Max[1], 90)
	return b
}
