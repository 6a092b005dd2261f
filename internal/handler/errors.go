package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/planificate/backend/internal/domain"
)

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// requestError answers a request rejected before reaching the service layer
// (malformed body, bad path parameter).
func requestError(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusBadRequest, "bad_request", message)
}

// writeError maps a service error onto the HTTP error contract. notFound is
// the message used for domain.ErrNotFound, since the handler is the layer
// that knows what was being looked up.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var (
		conflict *domain.ConflictError
		upstream *domain.UpstreamError
	)
	switch {
	case errors.As(err, &conflict):
		id := conflict.POIID
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorDetail{
			Code:             "duplicate_poi",
			Message:          conflict.Reason,
			ConflictingPoiId: &id,
		}})
	case errors.Is(err, domain.ErrValidation):
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "not_found", notFound)
	case errors.As(err, &upstream):
		status, code := http.StatusBadGateway, "upstream_error"
		if upstream.Timeout {
			status, code = http.StatusGatewayTimeout, "upstream_timeout"
		}
		s.log.WarnContext(r.Context(), "upstream failure", "service", upstream.Service, "status", upstream.Status, "error", err)
		service := upstream.Service
		writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
			Code:    code,
			Message: upstream.Message,
			Service: &service,
		}})
	default:
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErrorBody(w, http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError))
	}
}

// unwrapMessage extracts the human-readable part after a wrapped sentinel.
// e.g. "service.TripService.Create: validation error: title is required" → "title is required"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

// decodeJSON reads the request body into v, rejecting unknown fields and
// trailing data. The returned error is safe to show to the client.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		return errors.New("malformed JSON body: " + err.Error())
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// logger is used by handlers that run without a configured logger (tests).
func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
