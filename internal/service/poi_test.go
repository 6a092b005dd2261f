package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planificate/backend/internal/dedupe"
	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/repo"
	"github.com/planificate/backend/internal/service"
)

// mockGeocoder is a hand-written test double for service.Geocoder.
type mockGeocoder struct {
	forward func(ctx context.Context, query string, limit *int) ([]domain.GeocodeResult, error)
	reverse func(ctx context.Context, at domain.Coordinate) (domain.ReverseResult, error)
}

func (m *mockGeocoder) Forward(ctx context.Context, query string, limit *int) ([]domain.GeocodeResult, error) {
	return m.forward(ctx, query, limit)
}
func (m *mockGeocoder) Reverse(ctx context.Context, at domain.Coordinate) (domain.ReverseResult, error) {
	return m.reverse(ctx, at)
}

var _ service.Geocoder = (*mockGeocoder)(nil)

// poiFixture wires a POIService over mocks for one trip whose nearby POIs
// are existing.
type poiFixture struct {
	tripID  uuid.UUID
	pois    *mockPOIRepo
	created []domain.POI
	bounds  []orb.Bound
	svc     *service.POIService
}

func newPOIFixture(geocoder service.Geocoder, existing ...domain.LocatedPOI) *poiFixture {
	f := &poiFixture{tripID: uuid.New()}
	f.pois = &mockPOIRepo{
		listLocatedWithin: func(_ context.Context, _ uuid.UUID, b orb.Bound) ([]domain.LocatedPOI, error) {
			f.bounds = append(f.bounds, b)
			return existing, nil
		},
		create: func(_ context.Context, p domain.POI) (domain.POI, error) {
			p.ID = uuid.New()
			f.created = append(f.created, p)
			return p, nil
		},
	}
	rs := repo.Repos{Trips: tripExists(f.tripID), POIs: f.pois}
	f.svc = service.NewPOIService(&mockTransactor{repos: rs}, rs, geocoder, dedupe.NewGuard(), discardLogger())
	return f
}

func lisbonPOI(tripID uuid.UUID) domain.POI {
	return domain.POI{
		TripID:  tripID,
		Name:    "Praça do Comércio",
		Lat:     ptr(38.7075),
		Lng:     ptr(-9.1364),
		City:    "Lisbon",
		Country: "Portugal",
	}
}

func existingAt(lat, lng float64, scheduledAt *time.Time) domain.LocatedPOI {
	return domain.LocatedPOI{POI: domain.POI{
		ID: uuid.New(), Name: "Existing", Lat: &lat, Lng: &lng, ScheduledAt: scheduledAt,
	}}
}

func TestPOIService_Create_RejectsSameDateDuplicate(t *testing.T) {
	day := ptr(wallClock(3, 9, 0))
	existing := existingAt(38.70755, -9.13645, day)
	f := newPOIFixture(nil, existing)

	poi := lisbonPOI(f.tripID)
	poi.ScheduledAt = ptr(wallClock(3, 18, 30))
	_, err := f.svc.Create(context.Background(), poi)

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, existing.ID, conflict.POIID)
	assert.Empty(t, f.created)
}

func TestPOIService_Create_AcceptsDatedNextToUndated(t *testing.T) {
	f := newPOIFixture(nil, existingAt(38.7075, -9.1364, nil))

	poi := lisbonPOI(f.tripID)
	poi.ScheduledAt = ptr(wallClock(3, 9, 0))
	got, err := f.svc.Create(context.Background(), poi)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	require.Len(t, f.bounds, 1)
	assert.True(t, f.bounds[0].Contains(orb.Point{-9.1364, 38.7075}), "prefilter must cover the candidate")
}

func TestPOIService_Create_UnlocatedBypassesGuard(t *testing.T) {
	f := newPOIFixture(nil, existingAt(38.7075, -9.1364, nil))

	_, err := f.svc.Create(context.Background(), domain.POI{TripID: f.tripID, Name: "Somewhere"})

	require.NoError(t, err)
	assert.Empty(t, f.bounds)
	assert.Len(t, f.created, 1)
}

func TestPOIService_Create_TripNotFound(t *testing.T) {
	f := newPOIFixture(nil)

	poi := lisbonPOI(uuid.New())
	_, err := f.svc.Create(context.Background(), poi)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPOIService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.POI)
	}{
		{"blank name", func(p *domain.POI) { p.Name = " " }},
		{"lat without lng", func(p *domain.POI) { p.Lng = nil }},
		{"lat out of range", func(p *domain.POI) { p.Lat = ptr(91.0) }},
		{"negative duration", func(p *domain.POI) { p.DurationMinutes = ptr(-1) }},
		{"negative cost", func(p *domain.POI) { p.EstimatedCost = ptr(-0.5) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newPOIFixture(nil)
			poi := lisbonPOI(f.tripID)
			tc.mutate(&poi)

			_, err := f.svc.Create(context.Background(), poi)

			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestPOIService_Create_ForwardEnrichment(t *testing.T) {
	var gotQuery string
	geocoder := &mockGeocoder{
		forward: func(_ context.Context, q string, limit *int) ([]domain.GeocodeResult, error) {
			gotQuery = q
			assert.Equal(t, 1, *limit)
			return []domain.GeocodeResult{{Lat: 38.6916, Lng: -9.2160, DisplayName: "Torre de Belém, Lisboa"}}, nil
		},
	}
	f := newPOIFixture(geocoder)

	got, err := f.svc.Create(context.Background(), domain.POI{
		TripID: f.tripID, Name: "Belém Tower", PlaceName: "Torre de Belém", City: "Lisbon", Country: "Portugal",
	})

	require.NoError(t, err)
	assert.Equal(t, "Torre de Belém, Lisbon, Portugal", gotQuery)
	require.True(t, got.HasLocation())
	assert.InDelta(t, 38.6916, *got.Lat, 1e-9)
	assert.Equal(t, "Torre de Belém, Lisboa", got.Address)
	assert.Len(t, f.bounds, 1, "enriched POIs go through the guard")
}

func TestPOIService_Create_EnrichmentFailureIsSkipped(t *testing.T) {
	geocoder := &mockGeocoder{
		forward: func(_ context.Context, _ string, _ *int) ([]domain.GeocodeResult, error) {
			return nil, &domain.UpstreamError{Service: "nominatim", Timeout: true, Message: "request timed out"}
		},
	}
	f := newPOIFixture(geocoder)

	got, err := f.svc.Create(context.Background(), domain.POI{TripID: f.tripID, Name: "Café", City: "Porto"})

	require.NoError(t, err)
	assert.False(t, got.HasLocation())
}

func TestPOIService_Create_ReverseEnrichment(t *testing.T) {
	geocoder := &mockGeocoder{
		reverse: func(_ context.Context, _ domain.Coordinate) (domain.ReverseResult, error) {
			return domain.ReverseResult{City: "Lisboa", Country: "Portugal", Address: "Praça do Comércio, Lisboa"}, nil
		},
	}
	f := newPOIFixture(geocoder)

	poi := lisbonPOI(f.tripID)
	poi.City, poi.Country = "", "Portugal"
	got, err := f.svc.Create(context.Background(), poi)

	require.NoError(t, err)
	assert.Equal(t, "Lisboa", got.City)
	assert.Equal(t, "Portugal", got.Country)
	assert.Equal(t, "Praça do Comércio, Lisboa", got.Address)
}

func TestPOIService_Create_ForwardThenReverseEnrichment(t *testing.T) {
	var reversedAt *domain.Coordinate
	geocoder := &mockGeocoder{
		forward: func(_ context.Context, q string, _ *int) ([]domain.GeocodeResult, error) {
			assert.Equal(t, "Rua Augusta 1", q)
			return []domain.GeocodeResult{{Lat: 38.7101, Lng: -9.1366, DisplayName: "Rua Augusta 1, Baixa"}}, nil
		},
		reverse: func(_ context.Context, at domain.Coordinate) (domain.ReverseResult, error) {
			reversedAt = &at
			return domain.ReverseResult{City: "Lisboa", Country: "Portugal", Address: "ignored"}, nil
		},
	}
	f := newPOIFixture(geocoder)

	got, err := f.svc.Create(context.Background(), domain.POI{TripID: f.tripID, Name: "Arco", Address: "Rua Augusta 1"})

	require.NoError(t, err)
	require.NotNil(t, reversedAt, "coordinates from the forward lookup are reverse geocoded")
	assert.InDelta(t, 38.7101, reversedAt.Lat, 1e-9)
	assert.Equal(t, "Lisboa", got.City)
	assert.Equal(t, "Portugal", got.Country)
	assert.Equal(t, "Rua Augusta 1", got.Address, "a given address is kept")
}

func TestPOIService_CheckDuplicate(t *testing.T) {
	existing := existingAt(38.7075, -9.1364, nil)
	f := newPOIFixture(nil, existing)
	at := domain.Coordinate{Lat: 38.7075, Lng: -9.1364}

	conflict, err := f.svc.CheckDuplicate(context.Background(), f.tripID, at, nil)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, existing.ID, conflict.POIID)

	conflict, err = f.svc.CheckDuplicate(context.Background(), f.tripID, at, ptr(wallClock(5, 0, 0)))
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestPOIService_CheckDuplicate_Errors(t *testing.T) {
	f := newPOIFixture(nil)

	_, err := f.svc.CheckDuplicate(context.Background(), f.tripID, domain.Coordinate{Lat: 100}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CheckDuplicate(context.Background(), uuid.New(), domain.Coordinate{Lat: 1, Lng: 1}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPOIService_ListByTripID_RepoError(t *testing.T) {
	f := newPOIFixture(nil)
	boom := errors.New("db exploded")
	f.pois.listByTripID = func(_ context.Context, _ uuid.UUID) ([]domain.POI, error) { return nil, boom }

	_, err := f.svc.ListByTripID(context.Background(), f.tripID)

	assert.ErrorIs(t, err, boom)
}
