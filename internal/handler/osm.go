package handler

import (
	"net/http"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/service"
)

// OptimizeRoute handles POST /osm/route/optimize.
// Answers 502 (504 on timeout) when the routing service fails; an unrouted
// order is never returned.
func (s *Server) OptimizeRoute(w http.ResponseWriter, r *http.Request) {
	var body RouteRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}
	result, err := s.Geo.OptimizeRoute(r.Context(), pointsToDomain(body.Points), profileOrDefault(body.Profile), roundtripOrDefault(body.Roundtrip))
	if err != nil {
		s.writeError(w, r, err, "route not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CalculateRoute handles POST /osm/route/calculate.
func (s *Server) CalculateRoute(w http.ResponseWriter, r *http.Request) {
	var body RouteRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}
	result, err := s.Geo.CalculateRoute(r.Context(), pointsToDomain(body.Points), profileOrDefault(body.Profile))
	if err != nil {
		s.writeError(w, r, err, "route not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ForwardGeocode handles POST /osm/geocode/forward.
func (s *Server) ForwardGeocode(w http.ResponseWriter, r *http.Request) {
	var body ForwardGeocodeRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}
	results, err := s.Geo.Forward(r.Context(), body.Query, body.Limit)
	if err != nil {
		s.writeError(w, r, err, "no results")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// ReverseGeocode handles POST /osm/geocode/reverse.
func (s *Server) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var body ReverseGeocodeRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}
	if body.Lat == nil || body.Lng == nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "lat and lng are required")
		return
	}
	result, err := s.Geo.Reverse(r.Context(), domain.Coordinate{Lat: *body.Lat, Lng: *body.Lng})
	if err != nil {
		s.writeError(w, r, err, "no address found at this location")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SearchPlaces handles POST /osm/pois/search.
func (s *Server) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	var body PlaceSearchRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}
	places, err := s.Geo.SearchPlaces(r.Context(), service.PlaceSearch{
		Tags:   body.Tags,
		BBox:   stringValue(body.BBox),
		Around: stringValue(body.Around),
		Limit:  body.Limit,
	})
	if err != nil {
		s.writeError(w, r, err, "no places found")
		return
	}
	writeJSON(w, http.StatusOK, places)
}

func pointsToDomain(points []Point) []domain.Coordinate {
	out := make([]domain.Coordinate, len(points))
	for i, p := range points {
		out[i] = domain.Coordinate{Lat: p.Lat, Lng: p.Lng}
	}
	return out
}

func profileOrDefault(p *string) domain.Profile {
	if p == nil || *p == "" {
		return domain.ProfileDriving
	}
	return domain.Profile(*p)
}

func roundtripOrDefault(b *bool) bool {
	return b == nil || *b
}
