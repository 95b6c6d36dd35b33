// README: Location snapshot for persistence and replay.
package track

import (
	"time"

	"github.com/greenxiii/hudmap/internal/geo"
)

type Snapshot struct {
	ID         int64
	TrackerID  string
	Position   geo.Point
	Heading    float64
	Source     string
	RecordedAt time.Time
}
