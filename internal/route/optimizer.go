package route

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/geo"
	"github.com/planificate/backend/internal/geocache"
	"github.com/planificate/backend/internal/oracle"
)

// Router fetches the road-network route through points in the given order.
// *oracle.OSRM satisfies it.
type Router interface {
	Route(ctx context.Context, points []domain.Coordinate, profile domain.Profile) (domain.Route, error)
}

// Optimizer orders points and resolves the resulting route, memoizing the
// routing service's answers in a shared cache.
type Optimizer struct {
	router Router
	cache  *geocache.Cache
	log    *slog.Logger
}

// NewOptimizer constructs an Optimizer.
func NewOptimizer(router Router, cache *geocache.Cache, log *slog.Logger) *Optimizer {
	return &Optimizer{router: router, cache: cache, log: log}
}

// Validate rejects requests the routing service cannot serve: fewer than two
// points, out-of-range coordinates, or an unknown profile. It runs before any
// network call.
func Validate(points []domain.Coordinate, profile domain.Profile) error {
	if len(points) < 2 {
		return fmt.Errorf("%w: at least 2 points are required", domain.ErrValidation)
	}
	for i, p := range points {
		if !p.Valid() {
			return fmt.Errorf("%w: point %d (%g, %g) is out of range", domain.ErrValidation, i, p.Lat, p.Lng)
		}
	}
	if !profile.Valid() {
		return fmt.Errorf("%w: profile must be driving, walking or cycling", domain.ErrValidation)
	}
	return nil
}

// Optimize returns a visiting order for points and the route along it.
//
// Two points keep their input order. Three or more are ordered by the
// nearest-neighbour heuristic over Haversine distances. The routing call
// covers the visiting order without the closing return to the start; the
// returned Order still ends with 0 when roundtrip is set.
//
// A routing failure is returned as-is (wrapping *domain.UpstreamError); an
// unrouted order is never passed off as a result.
func (o *Optimizer) Optimize(ctx context.Context, points []domain.Coordinate, profile domain.Profile, roundtrip bool) (domain.OptimizedRoute, error) {
	if err := Validate(points, profile); err != nil {
		return domain.OptimizedRoute{}, fmt.Errorf("route.Optimizer.Optimize: %w", err)
	}

	key := geocache.Fingerprint("optimize", string(profile), oracle.CoordinatePath(points), strconv.FormatBool(roundtrip))
	result, err := geocache.GetOrCompute(ctx, o.cache, key, func(ctx context.Context) (domain.OptimizedRoute, error) {
		dist := geo.Matrix(points)
		order := visitingOrder(dist, roundtrip)

		stops := order
		if roundtrip {
			stops = order[:len(order)-1]
		}
		ordered := make([]domain.Coordinate, len(stops))
		for i, idx := range stops {
			ordered[i] = points[idx]
		}

		o.log.DebugContext(ctx, "routing optimized order",
			"profile", profile,
			"points", len(points),
			"order", order,
			"straight_line_meters", TourLength(dist, order),
		)
		r, err := o.router.Route(ctx, ordered, profile)
		if err != nil {
			return domain.OptimizedRoute{}, err
		}
		return domain.OptimizedRoute{Order: order, Route: r}, nil
	})
	if err != nil {
		return domain.OptimizedRoute{}, fmt.Errorf("route.Optimizer.Optimize: %w", err)
	}
	return result, nil
}

// Route returns the route through points in the order given.
func (o *Optimizer) Route(ctx context.Context, points []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	if err := Validate(points, profile); err != nil {
		return domain.Route{}, fmt.Errorf("route.Optimizer.Route: %w", err)
	}

	key := geocache.Fingerprint("route", string(profile), oracle.CoordinatePath(points))
	r, err := geocache.GetOrCompute(ctx, o.cache, key, func(ctx context.Context) (domain.Route, error) {
		return o.router.Route(ctx, points, profile)
	})
	if err != nil {
		return domain.Route{}, fmt.Errorf("route.Optimizer.Route: %w", err)
	}
	return r, nil
}

func visitingOrder(dist [][]float64, roundtrip bool) []int {
	if len(dist) == 2 {
		order := []int{0, 1}
		if roundtrip {
			order = append(order, 0)
		}
		return order
	}
	return NearestNeighbor(dist, roundtrip)
}
