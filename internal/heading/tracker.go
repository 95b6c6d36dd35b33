// README: Heading tracker fuses GPS course-over-ground and compass samples
// into a single authoritative heading with staleness arbitration.
package heading

import (
	"math"
	"sync"
	"time"

	"github.com/greenxiii/hudmap/internal/geo"
)

// Source identifies where a fused heading value came from.
type Source string

const (
	SourceGPS      Source = "gps"
	SourceCompass  Source = "compass"
	SourceMovement Source = "movement"
)

const (
	// movementGateM is the minimum displacement for a fix to count as real
	// movement; smaller jumps are GPS jitter, not a directional signal.
	movementGateM = 3.0
	// gpsFreshWindow is how long a movement-derived heading outranks the
	// compass.
	gpsFreshWindow = 3 * time.Second

	// DefaultDebounce is the default compass debounce interval.
	DefaultDebounce = 50 * time.Millisecond
	maxDebounce     = time.Second
)

// Fix is one raw location update from the host's location source.
// A negative Heading means the fix carries no GPS course.
type Fix struct {
	Position  geo.Point `json:"position"`
	Heading   float64   `json:"heading"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Data is the fused location state delivered to listeners.
type Data struct {
	Position  geo.Point `json:"position"`
	Heading   float64   `json:"heading"`
	Source    Source    `json:"source"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscription is a registered listener handle.
type Subscription struct {
	tracker *Tracker
	fn      func(Data)
}

// Unsubscribe removes the listener. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.tracker != nil {
		s.tracker.unsubscribe(s)
		s.tracker = nil
	}
}

// Tracker owns the fused heading state for one session. Construct one per
// host session with NewTracker; a stopped tracker has no memory of the
// previous session.
type Tracker struct {
	mu       sync.Mutex
	clock    Clock
	debounce time.Duration

	listeners []*Subscription

	current      *Data
	prevPosition *geo.Point
	lastGPSAt    time.Time

	pendingHeading float64
	pendingTimer   Timer
	hasPending     bool
}

// NewTracker returns a tracker using the system clock. The debounce interval
// is clamped to [0, 1s].
func NewTracker(debounce time.Duration) *Tracker {
	return newTracker(debounce, systemClock{})
}

func newTracker(debounce time.Duration, clock Clock) *Tracker {
	if debounce < 0 {
		debounce = 0
	}
	if debounce > maxDebounce {
		debounce = maxDebounce
	}
	return &Tracker{clock: clock, debounce: debounce}
}

// Subscribe registers a listener. Listeners are notified synchronously, in
// registration order, on every fused update. They are expected to be cheap.
func (t *Tracker) Subscribe(fn func(Data)) *Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	sub := &Subscription{tracker: t, fn: fn}
	t.listeners = append(t.listeners, sub)
	return sub
}

func (t *Tracker) unsubscribe(sub *Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.listeners {
		if s == sub {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

// OnFix merges one raw location fix. A valid GPS course wins immediately;
// otherwise the heading is derived from the displacement since the previous
// fix. Displacements under the movement gate never refresh the GPS-heading
// timestamp.
func (t *Tracker) OnFix(fix Fix) {
	t.mu.Lock()

	now := t.clock.Now()
	moved := 0.0
	if t.prevPosition != nil {
		moved = geo.Distance(*t.prevPosition, fix.Position)
	}

	heading := 0.0
	source := SourceMovement
	switch {
	case fix.Heading >= 0:
		heading = normalizeDegrees(fix.Heading)
		source = SourceGPS
		if moved > movementGateM {
			t.lastGPSAt = now
		}
	case t.prevPosition != nil:
		heading = geo.Bearing(*t.prevPosition, fix.Position)
		if moved > movementGateM {
			t.lastGPSAt = now
		}
	case t.current != nil:
		heading = t.current.Heading
		source = t.current.Source
	}

	ts := fix.Timestamp
	if ts.IsZero() {
		ts = now
	}
	data := Data{
		Position:  fix.Position,
		Heading:   heading,
		Source:    source,
		Accuracy:  fix.Accuracy,
		Timestamp: ts,
	}
	t.current = &data
	pos := fix.Position
	t.prevPosition = &pos

	listeners := t.snapshotListenersLocked()
	t.mu.Unlock()

	notify(listeners, data)
}

// OnCompass merges one raw compass sample. Ignored until a position exists,
// and discarded outright while a GPS-derived heading is still fresh. Otherwise
// the value is debounced: only the latest sample within the debounce interval
// is applied.
func (t *Tracker) OnCompass(degrees float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return
	}
	if t.clock.Now().Sub(t.lastGPSAt) < gpsFreshWindow {
		return
	}

	t.pendingHeading = normalizeDegrees(degrees)
	t.hasPending = true
	if t.pendingTimer != nil {
		t.pendingTimer.Stop()
	}
	t.pendingTimer = t.clock.AfterFunc(t.debounce, t.firePending)
}

func (t *Tracker) firePending() {
	t.mu.Lock()
	if !t.hasPending || t.current == nil {
		t.mu.Unlock()
		return
	}
	data := *t.current
	data.Heading = t.pendingHeading
	data.Source = SourceCompass
	data.Timestamp = t.clock.Now()
	t.current = &data
	t.hasPending = false
	t.pendingTimer = nil

	listeners := t.snapshotListenersLocked()
	t.mu.Unlock()

	notify(listeners, data)
}

// Current returns the latest fused location, if any fix has arrived.
func (t *Tracker) Current() (Data, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Data{}, false
	}
	return *t.current, true
}

// Stop cancels any pending debounce, drops all listeners and resets the
// fusion state.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pendingTimer != nil {
		t.pendingTimer.Stop()
		t.pendingTimer = nil
	}
	t.hasPending = false
	t.listeners = nil
	t.current = nil
	t.prevPosition = nil
	t.lastGPSAt = time.Time{}
}

func (t *Tracker) snapshotListenersLocked() []*Subscription {
	out := make([]*Subscription, len(t.listeners))
	copy(out, t.listeners)
	return out
}

func notify(listeners []*Subscription, data Data) {
	for _, sub := range listeners {
		sub.fn(data)
	}
}

func normalizeDegrees(deg float64) float64 {
	return math.Mod(math.Mod(deg, 360)+360, 360)
}
