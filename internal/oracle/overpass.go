package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/planificate/backend/internal/domain"
)

const overpassService = "overpass"

// Overpass runs read-only queries against an Overpass API interpreter.
type Overpass struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewOverpass returns a client for the Overpass API at baseURL
// (e.g. https://overpass-api.de/api).
func NewOverpass(baseURL string, timeout time.Duration, log *slog.Logger) *Overpass {
	return &Overpass{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		log:        log,
	}
}

// Area restricts a place search. Exactly one of Bound or Around is used;
// Around wins when both are set.
type Area struct {
	Bound  *orb.Bound
	Around *Around
}

// Around is a circle given by its center and radius in meters.
type Around struct {
	Center       domain.Coordinate
	RadiusMeters float64
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// filter renders the Overpass spatial filter for a.
func (a Area) filter() string {
	if a.Around != nil {
		return fmt.Sprintf("(around:%s,%s,%s)",
			formatFloat(a.Around.RadiusMeters), formatFloat(a.Around.Center.Lat), formatFloat(a.Around.Center.Lng))
	}
	b := a.Bound
	// Overpass boxes are south,west,north,east.
	return fmt.Sprintf("(%s,%s,%s,%s)",
		formatFloat(b.Min[1]), formatFloat(b.Min[0]), formatFloat(b.Max[1]), formatFloat(b.Max[0]))
}

// PlaceQuery builds the Overpass QL query for nodes and ways matching every
// tag within area. Tags are emitted in key order so equal searches produce
// equal queries (and equal cache keys).
func PlaceQuery(tags map[string]string, area Area, limit int) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var tf strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&tf, "[%q=%q]", k, tags[k])
	}
	spatial := area.filter()
	return fmt.Sprintf("[out:json][timeout:25];(node%s%s;way%s%s;);out center %d;",
		tf.String(), spatial, tf.String(), spatial, limit)
}

type overpassResponse struct {
	Elements []struct {
		Type   string   `json:"type"`
		ID     int64    `json:"id"`
		Lat    *float64 `json:"lat"`
		Lon    *float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Search runs query and returns every element that has a position.
// Ways are positioned at their center.
func (c *Overpass) Search(ctx context.Context, query string) ([]domain.Place, error) {
	u := c.baseURL + "/interpreter?" + url.Values{"data": {query}}.Encode()

	var body overpassResponse
	if err := getJSON(ctx, c.httpClient, c.log, overpassService, u, nil, &body); err != nil {
		return nil, fmt.Errorf("oracle.Overpass.Search: %w", err)
	}

	places := make([]domain.Place, 0, len(body.Elements))
	for _, el := range body.Elements {
		var lat, lng float64
		switch {
		case el.Lat != nil && el.Lon != nil:
			lat, lng = *el.Lat, *el.Lon
		case el.Center != nil:
			lat, lng = el.Center.Lat, el.Center.Lon
		default:
			continue
		}
		tags := el.Tags
		if tags == nil {
			tags = map[string]string{}
		}
		places = append(places, domain.Place{
			OSMID: el.ID,
			Type:  el.Type,
			Lat:   lat,
			Lng:   lng,
			Name:  tags["name"],
			Tags:  tags,
		})
	}
	return places, nil
}
