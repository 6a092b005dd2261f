// Package oracle contains HTTP clients for the external OpenStreetMap
// services: OSRM for routing, Nominatim for geocoding and Overpass for
// place search.
//
// Every failure (transport error, timeout, non-2xx status, malformed body)
// comes back as a *domain.UpstreamError so callers can tell it apart from
// their own validation and not-found errors.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/planificate/backend/internal/domain"
)

// DefaultTimeout bounds a single upstream request when the caller configures none.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is copied into the error message.
const maxErrorBody = 512

// newHTTPClient builds the client shared by all requests of one service.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// transportError converts a failed http.Client.Do into an UpstreamError,
// flagging timeouts from either the client deadline or the context.
func transportError(service string, err error) error {
	ue := &domain.UpstreamError{Service: service, Message: err.Error()}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		ue.Timeout = true
		ue.Message = "request timed out"
	}
	return ue
}

// getJSON issues a GET and decodes a 200 response body into out.
func getJSON(ctx context.Context, client *http.Client, log *slog.Logger, service, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("oracle: build %s request: %w", service, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.WarnContext(ctx, "upstream request failed", "service", service, "error", err)
		return transportError(service, err)
	}
	defer resp.Body.Close()

	log.DebugContext(ctx, "upstream response",
		"service", service,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.WarnContext(ctx, "upstream error status", "service", service, "status", resp.StatusCode)
		return &domain.UpstreamError{Service: service, Status: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return transportError(service, err)
		}
		return &domain.UpstreamError{Service: service, Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}
