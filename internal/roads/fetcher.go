// README: Nearby-road fetcher; queries Overpass for road geometries and
// caches the last result keyed by query center, radius and age.
package roads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/greenxiii/hudmap/internal/geo"
)

// ErrUnavailable means the geodata service failed and no cached result
// exists to fall back on.
var ErrUnavailable = errors.New("road data unavailable")

const (
	// cacheMaxShiftM is how far the query center may move before the cached
	// result no longer applies.
	cacheMaxShiftM = 150.0
	cacheTTL       = 15 * time.Second
	// minFetchRadiusM floors the requested radius so small radius changes do
	// not churn refetches.
	minFetchRadiusM = 400.0

	DefaultTimeout = 30 * time.Second
)

// highwayClasses are the road classes worth drawing on a navigation overlay.
var highwayClasses = []string{
	"motorway", "trunk", "primary", "secondary", "tertiary",
	"residential", "unclassified", "service", "living_street",
}

// Segment is one road geometry near the query center.
type Segment struct {
	Points []geo.Point `json:"points"`
	Class  string      `json:"class,omitempty"`
}

type roadCache struct {
	segments []Segment
	center   geo.Point
	radiusM  float64
	at       time.Time
}

// Fetcher queries a public geodata service for nearby roads. It holds a
// single cache slot replaced wholesale on every fetch.
type Fetcher struct {
	overpassURL string
	httpc       *http.Client

	mu    sync.Mutex
	cache *roadCache

	now func() time.Time
}

func NewFetcher(overpassURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		overpassURL: overpassURL,
		httpc:       &http.Client{Timeout: timeout},
		now:         time.Now,
	}
}

// FetchNearby returns the road segments within radiusM of center. The cached
// result is reused while the center stays within cacheMaxShiftM, the
// requested radius does not exceed the cached one and the entry is younger
// than the TTL. On fetch failure a stale cache is still returned.
func (f *Fetcher) FetchNearby(ctx context.Context, center geo.Point, radiusM float64) ([]Segment, error) {
	f.mu.Lock()
	if c := f.cache; c != nil &&
		planarShift(c.center, center) < cacheMaxShiftM &&
		radiusM <= c.radiusM &&
		f.now().Sub(c.at) < cacheTTL {
		segments := c.segments
		f.mu.Unlock()
		return segments, nil
	}
	f.mu.Unlock()

	fetchRadius := math.Max(radiusM, minFetchRadiusM)
	segments, err := f.fetch(ctx, center, fetchRadius)
	if err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.cache != nil {
			// Stale but available beats nothing.
			return f.cache.segments, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	f.mu.Lock()
	f.cache = &roadCache{segments: segments, center: center, radiusM: fetchRadius, at: f.now()}
	f.mu.Unlock()
	return segments, nil
}

// ClearCache evicts the cache slot.
func (f *Fetcher) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = nil
}

type overpassResponse struct {
	Elements []struct {
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
		Tags struct {
			Highway string `json:"highway"`
		} `json:"tags"`
	} `json:"elements"`
}

func (f *Fetcher) fetch(ctx context.Context, center geo.Point, radiusM float64) ([]Segment, error) {
	query := fmt.Sprintf(
		`[out:json][timeout:25];(way["highway"~"^(%s)$"](around:%.0f,%.6f,%.6f););out geom;`,
		strings.Join(highwayClasses, "|"), radiusM, center.Lat, center.Lng)

	body := "data=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.overpassURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geodata service returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read overpass response: %w", err)
	}

	var parsed overpassResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	segments := make([]Segment, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		if len(el.Geometry) < 2 {
			continue
		}
		points := make([]geo.Point, 0, len(el.Geometry))
		for _, g := range el.Geometry {
			points = append(points, geo.Point{Lat: g.Lat, Lng: g.Lon})
		}
		segments = append(segments, Segment{Points: points, Class: el.Tags.Highway})
	}
	return segments, nil
}

// planarShift is the local planar distance in metres between two nearby
// coordinates.
func planarShift(a, b geo.Point) float64 {
	pl := geo.Project(b, a)
	return math.Hypot(pl.X, pl.Y)
}
