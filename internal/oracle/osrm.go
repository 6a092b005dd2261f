package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/planificate/backend/internal/domain"
)

const osrmService = "osrm"

// OSRM calls the route endpoint of an OSRM server.
type OSRM struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewOSRM returns a client for the OSRM server at baseURL
// (e.g. https://router.project-osrm.org).
func NewOSRM(baseURL string, timeout time.Duration, log *slog.Logger) *OSRM {
	return &OSRM{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		log:        log,
	}
}

type osrmRouteResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
	Waypoints []domain.Waypoint `json:"waypoints"`
}

// Route returns the road-network route visiting points in the given order.
func (c *OSRM) Route(ctx context.Context, points []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "polyline")
	q.Set("steps", "false")
	u := fmt.Sprintf("%s/route/v1/%s/%s?%s", c.baseURL, profile, CoordinatePath(points), q.Encode())

	var body osrmRouteResponse
	if err := getJSON(ctx, c.httpClient, c.log, osrmService, u, nil, &body); err != nil {
		return domain.Route{}, fmt.Errorf("oracle.OSRM.Route: %w", err)
	}
	if body.Code != "Ok" {
		msg := body.Message
		if msg == "" {
			msg = "code " + body.Code
		}
		return domain.Route{}, fmt.Errorf("oracle.OSRM.Route: %w",
			&domain.UpstreamError{Service: osrmService, Status: http.StatusOK, Message: msg})
	}
	if len(body.Routes) == 0 {
		return domain.Route{}, fmt.Errorf("oracle.OSRM.Route: %w",
			&domain.UpstreamError{Service: osrmService, Status: http.StatusOK, Message: "no route returned"})
	}

	r := body.Routes[0]
	waypoints := body.Waypoints
	if waypoints == nil {
		waypoints = []domain.Waypoint{}
	}
	return domain.Route{
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Geometry:        r.Geometry,
		Waypoints:       waypoints,
	}, nil
}

// CoordinatePath renders points in OSRM's "lng,lat;lng,lat" path form.
// It is also the normalized coordinate part of route cache keys.
func CoordinatePath(points []domain.Coordinate) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}
