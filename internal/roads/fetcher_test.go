package roads

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/greenxiii/hudmap/internal/geo"
)

const overpassBody = `{
	"elements": [
		{"geometry": [{"lat": 48.8566, "lon": 2.3522}, {"lat": 48.8570, "lon": 2.3530}], "tags": {"highway": "primary"}},
		{"geometry": [{"lat": 48.8580, "lon": 2.3540}], "tags": {"highway": "residential"}},
		{"geometry": [{"lat": 48.8590, "lon": 2.3550}, {"lat": 48.8595, "lon": 2.3555}, {"lat": 48.8600, "lon": 2.3560}], "tags": {}}
	]
}`

func overpassStub(t *testing.T, calls *int, queries *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		body, _ := io.ReadAll(r.Body)
		decoded, err := url.QueryUnescape(strings.TrimPrefix(string(body), "data="))
		if err != nil {
			t.Errorf("request body is not urlencoded: %v", err)
		}
		if queries != nil {
			*queries = append(*queries, decoded)
		}
		_, _ = w.Write([]byte(overpassBody))
	}))
}

func TestFetcher_FiltersAndMapsSegments(t *testing.T) {
	calls := 0
	var queries []string
	srv := overpassStub(t, &calls, &queries)
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	center := geo.Point{Lat: 48.8566, Lng: 2.3522}

	segments, err := f.FetchNearby(context.Background(), center, 300)
	if err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}

	// The single-point element is dropped; the untagged one survives with an
	// empty class.
	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}
	if segments[0].Class != "primary" || len(segments[0].Points) != 2 {
		t.Errorf("first segment = %+v", segments[0])
	}
	if segments[1].Class != "" || len(segments[1].Points) != 3 {
		t.Errorf("second segment = %+v", segments[1])
	}
	if segments[0].Points[0] != (geo.Point{Lat: 48.8566, Lng: 2.3522}) {
		t.Errorf("lat/lon mapping wrong: %v", segments[0].Points[0])
	}

	if len(queries) != 1 {
		t.Fatalf("queries = %d", len(queries))
	}
	q := queries[0]
	// Requested 300m is floored to the minimum fetch radius.
	if !strings.Contains(q, "around:400,") {
		t.Errorf("query radius not floored to 400: %q", q)
	}
	if !strings.Contains(q, `"highway"~"^(motorway|trunk|primary|secondary|tertiary|residential|unclassified|service|living_street)$"`) {
		t.Errorf("query class filter wrong: %q", q)
	}
}

func TestFetcher_NearbyCenterServedFromCache(t *testing.T) {
	calls := 0
	srv := overpassStub(t, &calls, nil)
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	center := geo.Point{Lat: 48.8566, Lng: 2.3522}

	first, err := f.FetchNearby(context.Background(), center, 400)
	if err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}

	// ~50m north of the original center, same radius, well within the TTL.
	nearby := geo.DestinationPoint(center, 50, 0)
	second, err := f.FetchNearby(context.Background(), nearby, 400)
	if err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}
	if calls != 1 {
		t.Errorf("cache miss for a 50m shift (%d calls)", calls)
	}
	if &first[0] != &second[0] {
		t.Error("cached call returned a different slice")
	}

	// ~200m away: outside the proximity window, must refetch.
	far := geo.DestinationPoint(center, 200, 90)
	if _, err := f.FetchNearby(context.Background(), far, 400); err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}
	if calls != 2 {
		t.Errorf("200m shift did not refetch (%d calls)", calls)
	}
}

func TestFetcher_LargerRadiusRefetches(t *testing.T) {
	calls := 0
	srv := overpassStub(t, &calls, nil)
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	center := geo.Point{Lat: 48.8566, Lng: 2.3522}

	if _, err := f.FetchNearby(context.Background(), center, 400); err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}
	// Smaller radius is covered by the cached 400m fetch.
	if _, err := f.FetchNearby(context.Background(), center, 200); err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}
	if calls != 1 {
		t.Errorf("smaller radius refetched (%d calls)", calls)
	}

	if _, err := f.FetchNearby(context.Background(), center, 800); err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}
	if calls != 2 {
		t.Errorf("larger radius did not refetch (%d calls)", calls)
	}
}

func TestFetcher_CacheExpires(t *testing.T) {
	calls := 0
	srv := overpassStub(t, &calls, nil)
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return current }

	center := geo.Point{Lat: 48.8566, Lng: 2.3522}
	if _, err := f.FetchNearby(context.Background(), center, 400); err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}

	current = current.Add(20 * time.Second)
	if _, err := f.FetchNearby(context.Background(), center, 400); err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}
	if calls != 2 {
		t.Errorf("expired cache still served (%d calls)", calls)
	}
}

func TestFetcher_StaleCacheOnFailure(t *testing.T) {
	calls := 0
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if fail {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		_, _ = w.Write([]byte(overpassBody))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return current }

	center := geo.Point{Lat: 48.8566, Lng: 2.3522}
	first, err := f.FetchNearby(context.Background(), center, 400)
	if err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}

	// Cache expired and the service is now down: the stale result is
	// returned instead of an error.
	current = current.Add(time.Minute)
	fail = true
	stale, err := f.FetchNearby(context.Background(), center, 400)
	if err != nil {
		t.Fatalf("FetchNearby with stale cache: %v", err)
	}
	if len(stale) != len(first) {
		t.Errorf("stale result differs: %d vs %d segments", len(stale), len(first))
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestFetcher_FailureWithoutCachePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	_, err := f.FetchNearby(context.Background(), geo.Point{Lat: 48.85, Lng: 2.35}, 400)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if !strings.Contains(err.Error(), strconv.Itoa(http.StatusServiceUnavailable)) {
		t.Errorf("error does not carry the upstream status: %v", err)
	}
}
