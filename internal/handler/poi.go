package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/planificate/backend/internal/domain"
)

const poiNotFound = "poi not found"

// CreatePOI handles POST /trips/{tripId}/pois.
// Answers 409 with conflicting_poi_id when the POI duplicates a nearby one.
func (s *Server) CreatePOI(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	var body POIRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}

	created, err := s.POIs.Create(r.Context(), requestToPOI(tripID, uuid.Nil, body))
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, poiToResponse(created))
}

// ListPOIs handles GET /trips/{tripId}/pois.
func (s *Server) ListPOIs(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	pois, err := s.POIs.ListByTripID(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, poisToResponse(pois))
}

// CheckDuplicatePOI handles POST /trips/{tripId}/pois/duplicate-check.
// A duplicate is reported in the 200 body, not as an error.
func (s *Server) CheckDuplicatePOI(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	var body DuplicateCheckRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}
	if body.Lat == nil || body.Lng == nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "lat and lng are required")
		return
	}

	at := domain.Coordinate{Lat: *body.Lat, Lng: *body.Lng}
	conflict, err := s.POIs.CheckDuplicate(r.Context(), tripID, at, dateValue(body.TargetDate))
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}

	resp := DuplicateCheckResponse{}
	if conflict != nil {
		id := conflict.POIID
		resp = DuplicateCheckResponse{
			Duplicate:          true,
			ConflictingPoiId:   &id,
			ConflictingPoiName: &conflict.POIName,
			Reason:             &conflict.Reason,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPOI handles GET /trips/{tripId}/pois/{poiId}.
func (s *Server) GetPOI(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	poiID, ok := pathUUID(w, r, "poiId")
	if !ok {
		return
	}
	poi, err := s.POIs.GetByID(r.Context(), tripID, poiID)
	if err != nil {
		s.writeError(w, r, err, poiNotFound)
		return
	}
	writeJSON(w, http.StatusOK, poiToResponse(poi))
}

// UpdatePOI handles PUT /trips/{tripId}/pois/{poiId}.
func (s *Server) UpdatePOI(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	poiID, ok := pathUUID(w, r, "poiId")
	if !ok {
		return
	}
	var body POIRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}

	updated, err := s.POIs.Update(r.Context(), requestToPOI(tripID, poiID, body))
	if err != nil {
		s.writeError(w, r, err, poiNotFound)
		return
	}
	writeJSON(w, http.StatusOK, poiToResponse(updated))
}

// DeletePOI handles DELETE /trips/{tripId}/pois/{poiId}.
func (s *Server) DeletePOI(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	poiID, ok := pathUUID(w, r, "poiId")
	if !ok {
		return
	}
	if err := s.POIs.Delete(r.Context(), tripID, poiID); err != nil {
		s.writeError(w, r, err, poiNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

func requestToPOI(tripID, poiID uuid.UUID, body POIRequest) domain.POI {
	return domain.POI{
		ID:              poiID,
		TripID:          tripID,
		Name:            body.Name,
		Notes:           stringValue(body.Notes),
		Lat:             body.Lat,
		Lng:             body.Lng,
		Address:         stringValue(body.Address),
		City:            stringValue(body.City),
		Country:         stringValue(body.Country),
		PlaceName:       stringValue(body.PlaceName),
		ScheduledAt:     body.ScheduledAt.timePtr(),
		DurationMinutes: body.DurationMinutes,
		EstimatedCost:   body.EstimatedCost,
	}
}

func poiToResponse(p domain.POI) POI {
	return POI{
		Id:              p.ID,
		TripId:          p.TripID,
		Name:            p.Name,
		Notes:           optionalString(p.Notes),
		Lat:             p.Lat,
		Lng:             p.Lng,
		Address:         optionalString(p.Address),
		City:            optionalString(p.City),
		Country:         optionalString(p.Country),
		PlaceName:       optionalString(p.PlaceName),
		ScheduledAt:     localTimePtr(p.ScheduledAt),
		DurationMinutes: p.DurationMinutes,
		EstimatedCost:   p.EstimatedCost,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func poisToResponse(pois []domain.POI) []POI {
	out := make([]POI, len(pois))
	for i, p := range pois {
		out[i] = poiToResponse(p)
	}
	return out
}
