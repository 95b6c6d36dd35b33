// README: End-to-end test of the HTTP surface against stubbed upstream
// services: route resolution with caching, degradation and recovery.
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greenxiii/hudmap/internal/geo"
	"github.com/greenxiii/hudmap/internal/heading"
	httptransport "github.com/greenxiii/hudmap/internal/http"
	"github.com/greenxiii/hudmap/internal/roads"
	"github.com/greenxiii/hudmap/internal/route"
	"github.com/greenxiii/hudmap/internal/share"
)

const osrmBody = `{
	"routes": [{
		"distance": 2100,
		"geometry": {"coordinates": [[2.3522, 48.8566], [2.3300, 48.8600], [2.2950, 48.8738]]},
		"legs": [{
			"steps": [
				{"distance": 100, "maneuver": {"type": "depart", "modifier": "", "bearing_after": 290}},
				{"distance": 1800, "maneuver": {"type": "turn", "modifier": "right", "bearing_after": 310}},
				{"distance": 200, "maneuver": {"type": "arrive", "modifier": "", "bearing_after": 0}}
			]
		}]
	}]
}`

type stack struct {
	router    *gin.Engine
	osrmDown  *bool
	osrmCalls *int
}

func newStack(t *testing.T) stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	down := false
	calls := 0
	osrm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if down {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(osrmBody))
	}))
	t.Cleanup(osrm.Close)

	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	t.Cleanup(overpass.Close)

	tracker := heading.NewTracker(heading.DefaultDebounce)
	t.Cleanup(tracker.Stop)

	router := httptransport.NewRouter(httptransport.ServerDeps{
		Resolver:  route.NewResolver(route.NewOSRMClient(osrm.URL, time.Second), time.Second),
		Roads:     roads.NewFetcher(overpass.URL, time.Second),
		Tracker:   tracker,
		Extractor: share.NewExtractor("http://unused.invalid/search", "hudmap-test", nil),
	})
	return stack{router: router, osrmDown: &down, osrmCalls: &calls}
}

func (s stack) buildRoute(t *testing.T, fromLat, fromLng, toLat, toLng float64) route.Route {
	t.Helper()
	body, _ := json.Marshal(map[string]any{
		"from": map[string]float64{"lat": fromLat, "lng": fromLng},
		"to":   map[string]float64{"lat": toLat, "lng": toLng},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/route", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/route = %d: %s", w.Code, w.Body.String())
	}
	var r route.Route
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode route: %v", err)
	}
	return r
}

func TestRouteLifecycle(t *testing.T) {
	s := newStack(t)

	// Healthy service: a real route with provider maneuvers.
	got := s.buildRoute(t, 48.8566, 2.3522, 48.8738, 2.2950)
	if got.Fallback {
		t.Fatal("healthy service produced a fallback route")
	}
	if len(got.Points) != 3 || len(got.Maneuvers) != 3 {
		t.Fatalf("route shape: %d points, %d maneuvers", len(got.Points), len(got.Maneuvers))
	}
	if *s.osrmCalls != 1 {
		t.Fatalf("osrm calls = %d", *s.osrmCalls)
	}

	// Same destination again: served from cache, no second call.
	_ = s.buildRoute(t, 48.8570, 2.3530, 48.8738, 2.2950)
	if *s.osrmCalls != 1 {
		t.Errorf("cache hit still reached osrm (%d calls)", *s.osrmCalls)
	}

	// Service goes down and the destination changes: graceful degradation.
	*s.osrmDown = true
	fallback := s.buildRoute(t, 48.8566, 2.3522, 48.8600, 2.3400)
	if !fallback.Fallback {
		t.Fatal("downed service did not produce a fallback route")
	}
	if fallback.Points[0] != (geo.Point{Lat: 48.8566, Lng: 2.3522}) {
		t.Errorf("fallback route does not start at the requested origin: %v", fallback.Points[0])
	}
	if len(fallback.Maneuvers) != 1 || fallback.Maneuvers[0].Kind != route.ManeuverArrive {
		t.Errorf("fallback maneuvers = %+v", fallback.Maneuvers)
	}

	// Service recovers; caller resets for a new destination and gets a real
	// route again.
	*s.osrmDown = false
	req := httptest.NewRequest(http.MethodPost, "/api/route/reset", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/route/reset = %d", w.Code)
	}

	recovered := s.buildRoute(t, 48.8566, 2.3522, 48.8600, 2.3400)
	if recovered.Fallback {
		t.Error("route still fallback after recovery and reset")
	}
}
