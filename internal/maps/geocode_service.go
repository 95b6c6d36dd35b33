package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/greenxiii/hudmap/internal/geo"
)

// GeocodeService handles interactions with the Google Geocoding API. It is
// the optional second geocoder behind the destination extractor, used when
// the primary lookup finds nothing and an API key is configured.
type GeocodeService struct {
	client *maps.Client
}

// NewGeocodeService creates a new GeocodeService with the given API Key.
func NewGeocodeService(apiKey string) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client}, nil
}

// Geocode resolves a free-text query to a coordinate. The boolean is false
// when the query matched no place.
func (s *GeocodeService) Geocode(ctx context.Context, query string) (geo.Point, bool, error) {
	r := &maps.GeocodingRequest{
		Address: query,
	}

	results, err := s.client.Geocode(ctx, r)
	if err != nil {
		return geo.Point{}, false, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return geo.Point{}, false, nil
	}

	loc := results[0].Geometry.Location
	return geo.Point{Lat: loc.Lat, Lng: loc.Lng}, true, nil
}
