// Package handler implements the HTTP handlers for the Planificate API.
// All handlers are methods on Server. Methods are split into resource-specific
// files (health.go, trip.go, poi.go, ...) but share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/service"
	"github.com/planificate/backend/spec"
)

// TripServicer defines the business operations the trip handlers depend on.
// Interfaces are declared here, in the consumer package, so handler tests can
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, p domain.PaginationParams) (domain.Page[domain.Trip], error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// POIServicer defines the operations the POI handlers depend on.
type POIServicer interface {
	Create(ctx context.Context, poi domain.POI) (domain.POI, error)
	CheckDuplicate(ctx context.Context, tripID uuid.UUID, at domain.Coordinate, targetDate *time.Time) (*domain.ConflictError, error)
	GetByID(ctx context.Context, tripID, poiID uuid.UUID) (domain.POI, error)
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.POI, error)
	Update(ctx context.Context, poi domain.POI) (domain.POI, error)
	Delete(ctx context.Context, tripID, poiID uuid.UUID) error
}

// ItineraryServicer defines the operations the itinerary handlers depend on.
type ItineraryServicer interface {
	Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)
	GetByID(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error)
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error)
	Update(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)
	Delete(ctx context.Context, tripID, itemID uuid.UUID) error
}

// ScheduleServicer builds the schedule view.
type ScheduleServicer interface {
	AssembleSchedule(ctx context.Context, tripID uuid.UUID) (domain.ScheduleView, error)
}

// GeoServicer defines the map-data operations behind /osm.
type GeoServicer interface {
	Forward(ctx context.Context, query string, limit *int) ([]domain.GeocodeResult, error)
	Reverse(ctx context.Context, at domain.Coordinate) (domain.ReverseResult, error)
	SearchPlaces(ctx context.Context, search service.PlaceSearch) ([]domain.Place, error)
	OptimizeRoute(ctx context.Context, points []domain.Coordinate, profile domain.Profile, roundtrip bool) (domain.OptimizedRoute, error)
	CalculateRoute(ctx context.Context, points []domain.Coordinate, profile domain.Profile) (domain.Route, error)
}

// Services bundles the dependencies of Server. A nil service leaves its
// routes unregistered.
type Services struct {
	Trips     TripServicer
	POIs      POIServicer
	Itinerary ItineraryServicer
	Schedule  ScheduleServicer
	Geo       GeoServicer
}

// Server serves every API endpoint.
type Server struct {
	Services
	log *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, log *slog.Logger) *Server {
	return &Server{Services: svc, log: logger(log)}
}

// Routes returns the API router. Cross-cutting middleware (request ID,
// logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		if s.Trips != nil {
			r.Post("/", s.CreateTrip)
			r.Get("/", s.ListTrips)
			r.Get("/{tripId}", s.GetTrip)
			r.Put("/{tripId}", s.UpdateTrip)
			r.Delete("/{tripId}", s.DeleteTrip)
		}
		if s.POIs != nil {
			r.Route("/{tripId}/pois", func(r chi.Router) {
				r.Post("/", s.CreatePOI)
				r.Get("/", s.ListPOIs)
				r.Post("/duplicate-check", s.CheckDuplicatePOI)
				r.Get("/{poiId}", s.GetPOI)
				r.Put("/{poiId}", s.UpdatePOI)
				r.Delete("/{poiId}", s.DeletePOI)
			})
		}
		r.Route("/{tripId}/itinerary", func(r chi.Router) {
			if s.Schedule != nil {
				r.Get("/schedule", s.GetSchedule)
			}
			if s.Itinerary != nil {
				r.Post("/", s.CreateItineraryItem)
				r.Get("/", s.ListItineraryItems)
				r.Get("/{itemId}", s.GetItineraryItem)
				r.Put("/{itemId}", s.UpdateItineraryItem)
				r.Delete("/{itemId}", s.DeleteItineraryItem)
			}
		})
	})

	if s.Geo != nil {
		r.Route("/osm", func(r chi.Router) {
			r.Post("/route/optimize", s.OptimizeRoute)
			r.Post("/route/calculate", s.CalculateRoute)
			r.Post("/geocode/forward", s.ForwardGeocode)
			r.Post("/geocode/reverse", s.ReverseGeocode)
			r.Post("/pois/search", s.SearchPlaces)
		})
	}
	return r
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}

// pathUUID parses a UUID path parameter, answering 400 when it is malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		requestError(w, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
