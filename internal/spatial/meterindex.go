package spatial

import (
	"context"
	"fmt"
	"sync"

	"github.com/curbwatch/prediction-engine/internal/models"
)

// MeterStore is the persistence dependency MeterIndex loads from.
type MeterStore interface {
	LoadAllMeters(ctx context.Context) ([]models.Meter, error)
	LoadMeterLocations(ctx context.Context) (map[string][2]float64, error) // meterID -> [lat,lng]
}

// MeterIndex answers nearest-meter and count-within-radius queries used by
// the spatial and meter-pattern feature families.
type MeterIndex struct {
	mu        sync.RWMutex
	meters    []models.Meter
	locations map[string][2]float64
}

// NewMeterIndex constructs an empty index; call Load before use.
func NewMeterIndex() *MeterIndex {
	return &MeterIndex{locations: map[string][2]float64{}}
}

// Load fetches meter records and their coordinates from store.
func (mi *MeterIndex) Load(ctx context.Context, store MeterStore) error {
	meters, err := store.LoadAllMeters(ctx)
	if err != nil {
		return fmt.Errorf("meterIndex: load meters: %w", err)
	}
	locs, err := store.LoadMeterLocations(ctx)
	if err != nil {
		return fmt.Errorf("meterIndex: load locations: %w", err)
	}

	mi.mu.Lock()
	mi.meters = meters
	mi.locations = locs
	mi.mu.Unlock()
	return nil
}

// Nearest returns the closest meter to (lat, lng) using the equirectangular
// approximation, and the distance in meters. ok is false if no meters are
// loaded.
func (mi *MeterIndex) Nearest(lat, lng float64) (meterID string, distance float64, ok bool) {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	best := -1.0
	for id, loc := range mi.locations {
		d := EquirectangularApproxMeters(lat, lng, loc[0], loc[1])
		if best < 0 || d < best {
			best = d
			meterID = id
			ok = true
		}
	}
	return meterID, best, ok
}

// CountWithin returns the number of meters within radiusM meters of
// (lat, lng), used as a spatial density feature.
func (mi *MeterIndex) CountWithin(lat, lng, radiusM float64) int {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	count := 0
	for _, loc := range mi.locations {
		if EquirectangularApproxMeters(lat, lng, loc[0], loc[1]) <= radiusM {
			count++
		}
	}
	return count
}
