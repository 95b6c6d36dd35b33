// README: Route model shared by the resolver and the HTTP layer.
package route

import "github.com/greenxiii/hudmap/internal/geo"

type ManeuverKind string

const (
	ManeuverTurn     ManeuverKind = "turn"
	ManeuverStraight ManeuverKind = "straight"
	ManeuverArrive   ManeuverKind = "arrive"
	ManeuverDepart   ManeuverKind = "depart"
)

// Maneuver is one instruction on the route; the first element of a route's
// maneuver list is the next one ahead.
type Maneuver struct {
	Kind        ManeuverKind `json:"kind"`
	Instruction string       `json:"instruction"`
	DistanceM   float64      `json:"distance_m"`
	Bearing     *float64     `json:"bearing,omitempty"`
}

// Route is an immutable resolved path. A changed start or destination
// produces a wholly new Route. Fallback marks a synthesized straight-line
// route built while the routing service was unreachable.
type Route struct {
	Points         []geo.Point `json:"points"`
	Maneuvers      []Maneuver  `json:"maneuvers"`
	TotalDistanceM float64     `json:"total_distance_m"`
	Fallback       bool        `json:"fallback"`
}
