package route_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/geocache"
	"github.com/planificate/backend/internal/route"
)

// mockRouter is a hand-written test double for route.Router.
// It records every call so tests can assert on what reached the network.
type mockRouter struct {
	mu    sync.Mutex
	calls [][]domain.Coordinate
	route func(ctx context.Context, points []domain.Coordinate, profile domain.Profile) (domain.Route, error)
}

func (m *mockRouter) Route(ctx context.Context, points []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]domain.Coordinate(nil), points...))
	m.mu.Unlock()
	return m.route(ctx, points, profile)
}

func (m *mockRouter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var _ route.Router = (*mockRouter)(nil)

func okRouter() *mockRouter {
	return &mockRouter{
		route: func(_ context.Context, points []domain.Coordinate, _ domain.Profile) (domain.Route, error) {
			return domain.Route{DistanceMeters: float64(len(points)) * 1000, DurationSeconds: 60, Geometry: "poly"}, nil
		},
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newOptimizer(r route.Router) (*route.Optimizer, *testClock) {
	clock := &testClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	cache := geocache.New(geocache.NewMemoryStore(), time.Hour, geocache.WithClock(clock.Now))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return route.NewOptimizer(r, cache, log), clock
}

// Four points along the equator at longitudes 0, 3, 1, 2.
var fourPoints = []domain.Coordinate{
	{Lat: 0, Lng: 0},
	{Lat: 0, Lng: 3},
	{Lat: 0, Lng: 1},
	{Lat: 0, Lng: 2},
}

func TestOptimize_NearestNeighborOrder(t *testing.T) {
	r := okRouter()
	opt, _ := newOptimizer(r)

	got, err := opt.Optimize(context.Background(), fourPoints, domain.ProfileDriving, false)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 1}, got.Order)
	require.Len(t, r.calls, 1)
	assert.Equal(t, []domain.Coordinate{fourPoints[0], fourPoints[2], fourPoints[3], fourPoints[1]}, r.calls[0])
	assert.Equal(t, 4000.0, got.Route.DistanceMeters)
}

func TestOptimize_RoundtripExcludesClosingPointFromRouteCall(t *testing.T) {
	r := okRouter()
	opt, _ := newOptimizer(r)

	got, err := opt.Optimize(context.Background(), fourPoints, domain.ProfileWalking, true)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 1, 0}, got.Order)
	require.Len(t, r.calls, 1)
	assert.Len(t, r.calls[0], 4, "closing repeat is not sent to the router")
}

func TestOptimize_TwoPointsKeepInputOrder(t *testing.T) {
	r := okRouter()
	opt, _ := newOptimizer(r)
	points := []domain.Coordinate{{Lat: 0, Lng: 5}, {Lat: 0, Lng: 0}}

	got, err := opt.Optimize(context.Background(), points, domain.ProfileCycling, false)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got.Order)
	assert.Equal(t, points, r.calls[0])
}

func TestOptimize_Deterministic(t *testing.T) {
	for range 5 {
		opt, _ := newOptimizer(okRouter())
		got, err := opt.Optimize(context.Background(), fourPoints, domain.ProfileDriving, false)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2, 3, 1}, got.Order)
	}
}

func TestOptimize_Validation(t *testing.T) {
	tests := []struct {
		name    string
		points  []domain.Coordinate
		profile domain.Profile
	}{
		{"no points", nil, domain.ProfileDriving},
		{"one point", fourPoints[:1], domain.ProfileDriving},
		{"latitude out of range", []domain.Coordinate{{Lat: 91, Lng: 0}, {Lat: 0, Lng: 0}}, domain.ProfileDriving},
		{"longitude out of range", []domain.Coordinate{{Lat: 0, Lng: 0}, {Lat: 0, Lng: -181}}, domain.ProfileDriving},
		{"unknown profile", fourPoints, domain.Profile("flying")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := okRouter()
			opt, _ := newOptimizer(r)

			_, err := opt.Optimize(context.Background(), tt.points, tt.profile, false)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Zero(t, r.callCount(), "validation must happen before any network call")
		})
	}
}

func TestOptimize_CachedWithinTTL(t *testing.T) {
	r := okRouter()
	opt, clock := newOptimizer(r)
	ctx := context.Background()

	first, err := opt.Optimize(ctx, fourPoints, domain.ProfileDriving, false)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	second, err := opt.Optimize(ctx, fourPoints, domain.ProfileDriving, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.callCount())

	// Different roundtrip flag is a different key.
	_, err = opt.Optimize(ctx, fourPoints, domain.ProfileDriving, true)
	require.NoError(t, err)
	assert.Equal(t, 2, r.callCount())

	clock.Advance(2 * time.Minute)
	_, err = opt.Optimize(ctx, fourPoints, domain.ProfileDriving, false)
	require.NoError(t, err)
	assert.Equal(t, 3, r.callCount(), "expired entry triggers a fresh call")
}

func TestOptimize_UpstreamTimeoutPropagates(t *testing.T) {
	r := &mockRouter{
		route: func(context.Context, []domain.Coordinate, domain.Profile) (domain.Route, error) {
			return domain.Route{}, &domain.UpstreamError{Service: "osrm", Message: "request timed out", Timeout: true}
		},
	}
	opt, _ := newOptimizer(r)

	got, err := opt.Optimize(context.Background(), fourPoints, domain.ProfileDriving, false)

	require.ErrorIs(t, err, domain.ErrUpstream)
	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Timeout)
	assert.Empty(t, got.Order, "no unoptimized order on failure")

	// Failures are not cached.
	_, _ = opt.Optimize(context.Background(), fourPoints, domain.ProfileDriving, false)
	assert.Equal(t, 2, r.callCount())
}

func TestRoute_CachedByProfileAndOrder(t *testing.T) {
	r := okRouter()
	opt, _ := newOptimizer(r)
	ctx := context.Background()

	_, err := opt.Route(ctx, fourPoints, domain.ProfileDriving)
	require.NoError(t, err)
	_, err = opt.Route(ctx, fourPoints, domain.ProfileDriving)
	require.NoError(t, err)
	assert.Equal(t, 1, r.callCount())

	_, err = opt.Route(ctx, fourPoints, domain.ProfileWalking)
	require.NoError(t, err)
	assert.Equal(t, 2, r.callCount())

	assert.Equal(t, fourPoints, r.calls[0], "plain routing keeps the input order")
}
