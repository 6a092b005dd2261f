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

	"golang.org/x/time/rate"

	"github.com/planificate/backend/internal/domain"
)

const nominatimService = "nominatim"

// Nominatim geocodes through a Nominatim server. The public instance allows
// one request per second and requires an identifying User-Agent, so every
// request first waits on a shared limiter.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// NominatimConfig holds the client settings.
type NominatimConfig struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64 // <= 0 disables limiting
}

// NewNominatim returns a rate-limited Nominatim client.
func NewNominatim(cfg NominatimConfig, log *slog.Logger) *Nominatim {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Nominatim{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: newHTTPClient(cfg.Timeout),
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
	}
}

type nominatimPlace struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	OSMID       int64    `json:"osm_id"`
	OSMType     string   `json:"osm_type"`
	PlaceID     int64    `json:"place_id"`
	Importance  *float64 `json:"importance"`
	Error       string   `json:"error"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		Country      string `json:"country"`
	} `json:"address"`
}

func (p nominatimPlace) coordinate() (float64, float64, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", p.Lat)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", p.Lon)
	}
	return lat, lng, nil
}

// city picks the most specific settlement name Nominatim reported.
func (p nominatimPlace) city() string {
	for _, c := range []string{p.Address.City, p.Address.Town, p.Address.Village, p.Address.Municipality} {
		if c != "" {
			return c
		}
	}
	return ""
}

func (c *Nominatim) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return transportError(nominatimService, err)
	}
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	h := http.Header{}
	h.Set("User-Agent", c.userAgent)
	return getJSON(ctx, c.httpClient, c.log, nominatimService, c.baseURL+path+"?"+q.Encode(), h, out)
}

// Search forward-geocodes query, returning at most limit candidates.
// An empty slice means Nominatim found nothing.
func (c *Nominatim) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var places []nominatimPlace
	if err := c.get(ctx, "/search", q, &places); err != nil {
		return nil, fmt.Errorf("oracle.Nominatim.Search: %w", err)
	}

	results := make([]domain.GeocodeResult, 0, len(places))
	for _, p := range places {
		lat, lng, err := p.coordinate()
		if err != nil {
			return nil, fmt.Errorf("oracle.Nominatim.Search: %w",
				&domain.UpstreamError{Service: nominatimService, Status: http.StatusOK, Message: err.Error()})
		}
		results = append(results, domain.GeocodeResult{
			Lat:         lat,
			Lng:         lng,
			DisplayName: p.DisplayName,
			OSMID:       p.OSMID,
			OSMType:     p.OSMType,
			PlaceID:     p.PlaceID,
			Importance:  p.Importance,
		})
	}
	return results, nil
}

// Reverse resolves the address at c. Returns domain.ErrNotFound when
// Nominatim has no address for the point.
func (c *Nominatim) Reverse(ctx context.Context, at domain.Coordinate) (domain.ReverseResult, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Lng, 'f', -1, 64))

	var p nominatimPlace
	if err := c.get(ctx, "/reverse", q, &p); err != nil {
		return domain.ReverseResult{}, fmt.Errorf("oracle.Nominatim.Reverse: %w", err)
	}
	if p.Error != "" {
		return domain.ReverseResult{}, fmt.Errorf("oracle.Nominatim.Reverse: %s: %w", p.Error, domain.ErrNotFound)
	}

	lat, lng, err := p.coordinate()
	if err != nil {
		return domain.ReverseResult{}, fmt.Errorf("oracle.Nominatim.Reverse: %w",
			&domain.UpstreamError{Service: nominatimService, Status: http.StatusOK, Message: err.Error()})
	}
	return domain.ReverseResult{
		Lat:         lat,
		Lng:         lng,
		DisplayName: p.DisplayName,
		Address:     p.DisplayName,
		City:        p.city(),
		Country:     p.Address.Country,
	}, nil
}
