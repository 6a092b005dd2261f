package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/geocache"
	"github.com/planificate/backend/internal/oracle"
	"github.com/planificate/backend/internal/route"
)

const (
	defaultGeocodeLimit = 5
	maxGeocodeLimit     = 50
	defaultPlaceLimit   = 100
	maxPlaceLimit       = 500
)

// GeocodeOracle is the remote geocoder. *oracle.Nominatim satisfies it.
type GeocodeOracle interface {
	Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error)
	Reverse(ctx context.Context, at domain.Coordinate) (domain.ReverseResult, error)
}

// PlaceOracle runs tag searches over map data. *oracle.Overpass satisfies it.
type PlaceOracle interface {
	Search(ctx context.Context, query string) ([]domain.Place, error)
}

// GeoService fronts the geocoding, place search and routing services with
// the shared cache.
type GeoService struct {
	geocoder  GeocodeOracle
	places    PlaceOracle
	optimizer *route.Optimizer
	cache     *geocache.Cache
}

// NewGeoService constructs a GeoService.
func NewGeoService(geocoder GeocodeOracle, places PlaceOracle, optimizer *route.Optimizer, cache *geocache.Cache) *GeoService {
	return &GeoService{geocoder: geocoder, places: places, optimizer: optimizer, cache: cache}
}

// Forward geocodes free text. limit defaults to 5 and must be within 1..50.
func (s *GeoService) Forward(ctx context.Context, query string, limit *int) ([]domain.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	n, err := boundedLimit(limit, defaultGeocodeLimit, maxGeocodeLimit)
	if err != nil {
		return nil, err
	}

	key := geocache.Fingerprint("fwd", query, strconv.Itoa(n))
	results, err := geocache.GetOrCompute(ctx, s.cache, key, func(ctx context.Context) ([]domain.GeocodeResult, error) {
		return s.geocoder.Search(ctx, query, n)
	})
	if err != nil {
		return nil, fmt.Errorf("service.GeoService.Forward: %w", err)
	}
	return results, nil
}

// Reverse resolves the address at a coordinate.
func (s *GeoService) Reverse(ctx context.Context, at domain.Coordinate) (domain.ReverseResult, error) {
	if !at.Valid() {
		return domain.ReverseResult{}, fmt.Errorf("%w: lat must be within [-90, 90] and lng within [-180, 180]", domain.ErrValidation)
	}

	key := geocache.Fingerprint("rev", oracle.CoordinatePath([]domain.Coordinate{at}))
	result, err := geocache.GetOrCompute(ctx, s.cache, key, func(ctx context.Context) (domain.ReverseResult, error) {
		return s.geocoder.Reverse(ctx, at)
	})
	if err != nil {
		return domain.ReverseResult{}, fmt.Errorf("service.GeoService.Reverse: %w", err)
	}
	return result, nil
}

// PlaceSearch describes a tag search. Exactly one of BBox
// ("south,west,north,east") or Around ("lat,lon,radius_m") is required.
type PlaceSearch struct {
	Tags   map[string]string
	BBox   string
	Around string
	Limit  *int
}

// SearchPlaces finds mapped places carrying every tag in the search area.
func (s *GeoService) SearchPlaces(ctx context.Context, search PlaceSearch) ([]domain.Place, error) {
	if len(search.Tags) == 0 {
		return nil, fmt.Errorf("%w: at least one tag filter is required", domain.ErrValidation)
	}
	area, err := parseArea(search.BBox, search.Around)
	if err != nil {
		return nil, err
	}
	n, err := boundedLimit(search.Limit, defaultPlaceLimit, maxPlaceLimit)
	if err != nil {
		return nil, err
	}

	query := oracle.PlaceQuery(search.Tags, area, n)
	key := geocache.Fingerprint("overpass", query)
	places, err := geocache.GetOrCompute(ctx, s.cache, key, func(ctx context.Context) ([]domain.Place, error) {
		return s.places.Search(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("service.GeoService.SearchPlaces: %w", err)
	}
	return places, nil
}

// OptimizeRoute orders points by nearest neighbour and routes them.
func (s *GeoService) OptimizeRoute(ctx context.Context, points []domain.Coordinate, profile domain.Profile, roundtrip bool) (domain.OptimizedRoute, error) {
	return s.optimizer.Optimize(ctx, points, profile, roundtrip)
}

// CalculateRoute routes points in the given order.
func (s *GeoService) CalculateRoute(ctx context.Context, points []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	return s.optimizer.Route(ctx, points, profile)
}

func boundedLimit(limit *int, def, maxLimit int) (int, error) {
	if limit == nil {
		return def, nil
	}
	if *limit < 1 || *limit > maxLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, maxLimit)
	}
	return *limit, nil
}

func parseArea(bbox, around string) (oracle.Area, error) {
	switch {
	case bbox != "" && around != "":
		return oracle.Area{}, fmt.Errorf("%w: give either bbox or around, not both", domain.ErrValidation)
	case bbox != "":
		v, err := parseFloats(bbox, 4)
		if err != nil {
			return oracle.Area{}, fmt.Errorf("%w: bbox must be south,west,north,east: %v", domain.ErrValidation, err)
		}
		south, west, north, east := v[0], v[1], v[2], v[3]
		sw := domain.Coordinate{Lat: south, Lng: west}
		ne := domain.Coordinate{Lat: north, Lng: east}
		if !sw.Valid() || !ne.Valid() || south > north || west > east {
			return oracle.Area{}, fmt.Errorf("%w: bbox corners are out of range or inverted", domain.ErrValidation)
		}
		b := orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}
		return oracle.Area{Bound: &b}, nil
	case around != "":
		v, err := parseFloats(around, 3)
		if err != nil {
			return oracle.Area{}, fmt.Errorf("%w: around must be lat,lon,radius: %v", domain.ErrValidation, err)
		}
		center := domain.Coordinate{Lat: v[0], Lng: v[1]}
		if !center.Valid() || !(v[2] > 0) {
			return oracle.Area{}, fmt.Errorf("%w: around center is out of range or radius is not positive", domain.ErrValidation)
		}
		return oracle.Area{Around: &oracle.Around{Center: center, RadiusMeters: v[2]}}, nil
	default:
		return oracle.Area{}, fmt.Errorf("%w: bbox or around is required", domain.ErrValidation)
	}
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		// ParseFloat accepts "NaN" and "Inf".
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%q is not a finite number", strings.TrimSpace(p))
		}
		out[i] = f
	}
	return out, nil
}
