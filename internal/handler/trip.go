package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/planificate/backend/internal/domain"
)

const tripNotFound = "trip not found"

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body TripRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}
	trip, err := requestToTrip(uuid.Nil, body)
	if err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	created, err := s.Trips.Create(r.Context(), trip)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		requestError(w, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		requestError(w, err.Error())
		return
	}

	params := domain.NewPaginationParams(page, limit)
	result, err := s.Trips.List(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}

	data := make([]Trip, len(result.Items))
	for i, t := range result.Items {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(result.Total),
		},
	})
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	trip, err := s.Trips.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{tripId}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	var body TripRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}
	trip, err := requestToTrip(id, body)
	if err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	updated, err := s.Trips.Update(r.Context(), trip)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{tripId}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	if err := s.Trips.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts a TripRequest body into a domain.Trip.
// Returns an error if required fields are missing.
func requestToTrip(id uuid.UUID, body TripRequest) (domain.Trip, error) {
	if body.StartDate == nil {
		return domain.Trip{}, errors.New("start_date is required")
	}
	t := domain.Trip{
		ID:          id,
		Title:       body.Title,
		Description: stringValue(body.Description),
		StartDate:   body.StartDate.Time,
	}
	if body.EndDate != nil {
		ed := body.EndDate.Time
		t.EndDate = &ed
	}
	return t, nil
}

// tripToResponse converts a domain.Trip into its wire form.
func tripToResponse(t domain.Trip) Trip {
	resp := Trip{
		Id:          t.ID,
		Title:       t.Title,
		Description: optionalString(t.Description),
		StartDate:   openapi_types.Date{Time: t.StartDate},
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.EndDate != nil {
		resp.EndDate = &openapi_types.Date{Time: *t.EndDate}
	}
	return resp
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	return &v, nil
}
