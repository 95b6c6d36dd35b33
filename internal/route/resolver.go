// README: Route resolver; caches by destination and degrades to a synthetic
// straight-line route when the routing service is unreachable.
package route

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/greenxiii/hudmap/internal/geo"
)

const (
	// destToleranceDeg is the destination-match tolerance, ~11m.
	destToleranceDeg = 0.0001
	cacheTTL         = 5 * time.Minute
	warnCooldown     = 30 * time.Second
	// fallbackStepM is the spacing of interpolated points on a synthetic route.
	fallbackStepM = 100.0

	DefaultTimeout = 8 * time.Second
)

// Fetcher is the remote routing dependency of the resolver.
type Fetcher interface {
	FetchRoute(ctx context.Context, from, to geo.Point) (*Route, error)
}

type cacheEntry struct {
	route *Route
	from  geo.Point
	to    geo.Point
	at    time.Time
}

// Resolver resolves start/destination pairs to routes. It holds a single
// cache slot keyed by destination; a new destination evicts the old entry.
type Resolver struct {
	fetcher Fetcher
	timeout time.Duration

	mu          sync.Mutex
	cache       *cacheEntry
	unavailable bool
	lastWarnAt  time.Time

	now func() time.Time
}

func NewResolver(fetcher Fetcher, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{fetcher: fetcher, timeout: timeout, now: time.Now}
}

// BuildRoute returns a route from from to to. A cached route is reused when
// the destination matches within tolerance and the entry is younger than the
// TTL; the cached geometry is reused even if from differs. The call never
// fails for a downed service: any fetch failure yields a synthetic
// straight-line route, which is cached the same way.
func (r *Resolver) BuildRoute(ctx context.Context, from, to geo.Point) (*Route, error) {
	r.mu.Lock()
	if r.cache != nil {
		if destinationsMatch(r.cache.to, to) {
			if r.now().Sub(r.cache.at) < cacheTTL {
				cached := r.cache.route
				r.mu.Unlock()
				return cached, nil
			}
		} else {
			// Destination changed: evict immediately, regardless of age.
			r.cache = nil
		}
	}
	r.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fetched, err := r.fetcher.FetchRoute(fetchCtx, from, to)
	if err == nil {
		r.store(fetched, from, to, true)
		return fetched, nil
	}

	r.warnUnavailable(err)
	fallback := syntheticRoute(from, to)
	r.store(fallback, from, to, false)
	return fallback, nil
}

// ResetAvailability clears the failure state. Intended to be called when the
// user supplies a new destination.
func (r *Resolver) ResetAvailability() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable = false
	r.lastWarnAt = time.Time{}
}

// ClearCache evicts the single cache slot.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = nil
}

// Available reports whether the last fetch attempt reached the service.
func (r *Resolver) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.unavailable
}

func (r *Resolver) store(route *Route, from, to geo.Point, reachable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = &cacheEntry{route: route, from: from, to: to, at: r.now()}
	if reachable {
		r.unavailable = false
	}
}

// warnUnavailable marks the service down and logs at most once per cooldown.
// The cooldown only suppresses log noise; every BuildRoute call still
// attempts the network.
func (r *Resolver) warnUnavailable(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable = true
	now := r.now()
	if now.Sub(r.lastWarnAt) >= warnCooldown {
		log.Printf("routing service unavailable, using straight-line fallback: %v", err)
		r.lastWarnAt = now
	}
}

func destinationsMatch(a, b geo.Point) bool {
	return math.Abs(a.Lat-b.Lat) < destToleranceDeg && math.Abs(a.Lng-b.Lng) < destToleranceDeg
}

// syntheticRoute builds a straight-line route with points interpolated every
// fallbackStepM metres and a single arrive maneuver.
func syntheticRoute(from, to geo.Point) *Route {
	total := geo.Distance(from, to)
	bearing := geo.Bearing(from, to)

	points := []geo.Point{from}
	steps := int(math.Floor(total/fallbackStepM)) - 1
	for i := 1; i <= steps; i++ {
		points = append(points, geo.DestinationPoint(from, float64(i)*fallbackStepM, bearing))
	}
	points = append(points, to)

	b := bearing
	return &Route{
		Points: points,
		Maneuvers: []Maneuver{{
			Kind:        ManeuverArrive,
			Instruction: "Arrive at destination",
			DistanceM:   total,
			Bearing:     &b,
		}},
		TotalDistanceM: total,
		Fallback:       true,
	}
}
