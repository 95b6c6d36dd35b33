// README: Track store backed by Redis GEO for the live position and
// Postgres for append-only snapshots.
package track

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/greenxiii/hudmap/internal/geo"
)

const liveGeoKey = "hudmap:live"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// SetLive upserts the latest position of a tracker into the Redis GEO set.
func (s *Store) SetLive(ctx context.Context, trackerID string, pos geo.Point) error {
	err := s.redis.GeoAdd(ctx, liveGeoKey, &redis.GeoLocation{
		Name:      trackerID,
		Latitude:  pos.Lat,
		Longitude: pos.Lng,
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd live position: %w", err)
	}
	return nil
}

// LivePosition reads a tracker's latest position back from the GEO set.
func (s *Store) LivePosition(ctx context.Context, trackerID string) (geo.Point, bool, error) {
	positions, err := s.redis.GeoPos(ctx, liveGeoKey, trackerID).Result()
	if err != nil {
		return geo.Point{}, false, fmt.Errorf("geopos live position: %w", err)
	}
	if len(positions) == 0 || positions[0] == nil {
		return geo.Point{}, false, nil
	}
	return geo.Point{Lat: positions[0].Latitude, Lng: positions[0].Longitude}, true, nil
}

// AppendSnapshot writes one snapshot row.
func (s *Store) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO location_snapshots (tracker_id, lat, lng, heading, source, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, snap.TrackerID, snap.Position.Lat, snap.Position.Lng, snap.Heading, snap.Source, snap.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}
