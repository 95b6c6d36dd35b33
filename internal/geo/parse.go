package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLatLng parses a "lat,lng" string into a Point. Values outside the
// WGS84 ranges are rejected.
func ParseLatLng(input string) (Point, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("invalid coordinate: %q", input)
	}

	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return Point{}, fmt.Errorf("invalid lat/lng: %q", input)
	}

	p := Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return Point{}, fmt.Errorf("coordinate out of range: %q", input)
	}
	return p, nil
}
