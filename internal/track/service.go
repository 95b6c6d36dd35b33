// README: Track service records fused location updates for replay and
// live-position queries.
package track

import (
	"context"
	"log"
	"time"

	"github.com/greenxiii/hudmap/internal/heading"
)

const recordTimeout = 2 * time.Second

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Record persists one fused update: live position to Redis, snapshot row to
// Postgres.
func (s *Service) Record(ctx context.Context, trackerID string, d heading.Data) error {
	if err := s.store.SetLive(ctx, trackerID, d.Position); err != nil {
		return err
	}
	return s.store.AppendSnapshot(ctx, Snapshot{
		TrackerID:  trackerID,
		Position:   d.Position,
		Heading:    d.Heading,
		Source:     string(d.Source),
		RecordedAt: d.Timestamp,
	})
}

// Attach subscribes the service to a heading tracker. Persistence is best
// effort; failures are logged, never surfaced to the fusion path.
func (s *Service) Attach(trackerID string, tr *heading.Tracker) *heading.Subscription {
	return tr.Subscribe(func(d heading.Data) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.Record(ctx, trackerID, d); err != nil {
			log.Printf("track: record %s: %v", trackerID, err)
		}
	})
}
