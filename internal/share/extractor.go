// README: Destination extraction from shared map URLs; ordered strategy
// pipeline with short-link resolution and geocoding fallback.
package share

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/greenxiii/hudmap/internal/geo"
)

const DefaultTimeout = 5 * time.Second

// Geocoder resolves a free-text query to a coordinate. The boolean is false
// when the query matched nothing.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (geo.Point, bool, error)
}

// shortLinkHosts are known map short-link domains whose URLs must be
// resolved before parsing.
var shortLinkHosts = map[string]bool{
	"maps.app.goo.gl": true,
	"goo.gl":          true,
	"g.co":            true,
}

var (
	atSegmentRe    = regexp.MustCompile(`@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)
	placeSegmentRe = regexp.MustCompile(`/place/[^/]+/@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)
)

// coordParams are the query parameters tried for an inline "lat,lng" value,
// in priority order.
var coordParams = []string{"q", "destination", "query"}

// Extractor turns third-party map-sharing URLs into a destination
// coordinate. It never returns an error for malformed input; a nil point
// means no rule matched.
type Extractor struct {
	httpc        *http.Client
	nominatimURL string
	userAgent    string
	fallback     Geocoder
	shortHosts   map[string]bool
}

// NewExtractor builds an extractor geocoding against a Nominatim-style
// endpoint. userAgent identifies the client as the endpoint requires.
// fallback may be nil; when set it is tried after an empty Nominatim result.
func NewExtractor(nominatimURL, userAgent string, fallback Geocoder) *Extractor {
	return &Extractor{
		httpc:        &http.Client{Timeout: DefaultTimeout},
		nominatimURL: nominatimURL,
		userAgent:    userAgent,
		fallback:     fallback,
		shortHosts:   shortLinkHosts,
	}
}

// Extract resolves a shared map URL to a destination. Strategies are tried
// in fixed order, short-circuiting on the first match: coordinate query
// parameter, geocoded query parameter, "@lat,lng" path segment,
// "/place/<name>/@lat,lng" path segment.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*geo.Point, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, nil
	}

	if e.shortHosts[u.Hostname()] {
		if resolved := e.resolveShortLink(ctx, rawURL); resolved != nil {
			u = resolved
		}
	}

	strategies := []func(ctx context.Context, u *url.URL) *geo.Point{
		e.fromCoordParam,
		e.fromGeocodedParam,
		e.fromAtSegment,
		e.fromPlaceSegment,
	}
	for _, strategy := range strategies {
		if p := strategy(ctx, u); p != nil {
			return p, nil
		}
	}
	return nil, nil
}

// resolveShortLink follows redirects and returns the effective URL, or nil
// if resolution failed.
func (e *Extractor) resolveShortLink(ctx context.Context, rawURL string) *url.URL {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	return resp.Request.URL
}

func (e *Extractor) fromCoordParam(_ context.Context, u *url.URL) *geo.Point {
	q := u.Query()
	for _, key := range coordParams {
		v := q.Get(key)
		if v == "" {
			continue
		}
		if p, err := geo.ParseLatLng(v); err == nil {
			return &p
		}
	}
	return nil
}

func (e *Extractor) fromGeocodedParam(ctx context.Context, u *url.URL) *geo.Point {
	q := u.Query()
	for _, key := range coordParams {
		v := q.Get(key)
		if v == "" {
			continue
		}
		if p := e.geocode(ctx, v); p != nil {
			return p
		}
	}
	return nil
}

func (e *Extractor) fromAtSegment(_ context.Context, u *url.URL) *geo.Point {
	return pointFromMatch(atSegmentRe.FindStringSubmatch(u.Path))
}

func (e *Extractor) fromPlaceSegment(_ context.Context, u *url.URL) *geo.Point {
	return pointFromMatch(placeSegmentRe.FindStringSubmatch(u.Path))
}

func pointFromMatch(match []string) *geo.Point {
	if len(match) != 3 {
		return nil
	}
	lat, err1 := strconv.ParseFloat(match[1], 64)
	lng, err2 := strconv.ParseFloat(match[2], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	p := geo.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil
	}
	return &p
}

// geocode resolves free text via Nominatim, then the fallback geocoder if
// one is configured. All failures collapse to a nil result.
func (e *Extractor) geocode(ctx context.Context, query string) *geo.Point {
	if p := e.geocodeNominatim(ctx, query); p != nil {
		return p
	}
	if e.fallback != nil {
		if p, ok, err := e.fallback.Geocode(ctx, query); err == nil && ok && p.Valid() {
			return &p
		}
	}
	return nil
}

func (e *Extractor) geocodeNominatim(ctx context.Context, query string) *geo.Point {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.nominatimURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	// Nominatim encodes coordinates as strings.
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil || len(results) == 0 {
		return nil
	}

	p, err := geo.ParseLatLng(fmt.Sprintf("%s,%s", results[0].Lat, results[0].Lon))
	if err != nil {
		return nil
	}
	return &p
}
