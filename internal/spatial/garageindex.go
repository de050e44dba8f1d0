package spatial

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/curbwatch/prediction-engine/internal/models"
)

// GarageStore is the persistence dependency GarageIndex loads from.
type GarageStore interface {
	LoadAllGarages(ctx context.Context) ([]models.Garage, error)
}

// GarageIndex holds the garage catalogue for nearby-garage lookups. It is a
// plain linear scan over a small, slowly-changing catalogue (garages number
// in the dozens, not thousands); unlike SpotIndex it has no bounding-box
// prefilter.
type GarageIndex struct {
	mu      sync.RWMutex
	garages []models.Garage
}

// NewGarageIndex constructs an empty index; call Load before use.
func NewGarageIndex() *GarageIndex {
	return &GarageIndex{}
}

// Load fetches the garage catalogue from store.
func (gi *GarageIndex) Load(ctx context.Context, store GarageStore) error {
	garages, err := store.LoadAllGarages(ctx)
	if err != nil {
		return fmt.Errorf("garageIndex: load: %w", err)
	}
	gi.mu.Lock()
	gi.garages = garages
	gi.mu.Unlock()
	return nil
}

// GarageHit pairs a garage with its distance from a query point.
type GarageHit struct {
	Garage   models.Garage
	Distance float64
}

// NearestDistance returns the distance in meters to the closest garage, or
// NaN if the catalogue is empty.
func (gi *GarageIndex) NearestDistance(lat, lng float64) float64 {
	gi.mu.RLock()
	defer gi.mu.RUnlock()

	if len(gi.garages) == 0 {
		return math.NaN()
	}
	best := math.Inf(1)
	for _, g := range gi.garages {
		d := HaversineMeters(lat, lng, g.Latitude, g.Longitude)
		if d < best {
			best = d
		}
	}
	return best
}

// Nearby returns up to limit garages within radiusM meters, sorted by
// ascending distance, matching the reference service's "radius * 2, cap 10"
// garage-search widening used for /predict responses.
func (gi *GarageIndex) Nearby(lat, lng, radiusM float64, limit int) []GarageHit {
	gi.mu.RLock()
	defer gi.mu.RUnlock()

	hits := make([]GarageHit, 0, len(gi.garages))
	for _, g := range gi.garages {
		d := HaversineMeters(lat, lng, g.Latitude, g.Longitude)
		if d <= radiusM {
			hits = append(hits, GarageHit{Garage: g, Distance: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
