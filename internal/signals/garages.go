package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/curbwatch/prediction-engine/internal/models"
)

// GaragesPoller fetches live garage availability from an SFpark/SFMTA style
// open-data feed. Unlike the other three pollers, a successful garages poll
// does not invalidate the prediction cache — availability counts are a
// secondary signal that doesn't warrant recomputing every cached prediction,
// matching the reference scheduler's behavior.
type GaragesPoller struct {
	store      SignalStore
	httpClient *http.Client
	feedURL    string
}

// NewGaragesPoller constructs a poller against the given open-data feed URL.
func NewGaragesPoller(store SignalStore, feedURL string) *GaragesPoller {
	return &GaragesPoller{store: store, httpClient: &http.Client{Timeout: 10 * time.Second}, feedURL: feedURL}
}

type garageAvailabilityRow struct {
	GarageID   string `json:"garageId"`
	FreeSpaces int    `json:"freeSpaces"`
}

// Poll fetches the current garage-availability feed and persists one
// GarageAvailability snapshot per garage. It always reports invalidate=false.
func (g *GaragesPoller) Poll(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.feedURL, nil)
	if err != nil {
		return false, fmt.Errorf("garagesPoller: build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("garagesPoller: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("garagesPoller: request returned status %d", resp.StatusCode)
	}

	var rows []garageAvailabilityRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return false, fmt.Errorf("garagesPoller: decode response: %w", err)
	}

	now := clock()
	for _, row := range rows {
		snapshot := models.GarageAvailability{
			GarageID:   row.GarageID,
			FreeSpaces: row.FreeSpaces,
			ObservedAt: now,
		}
		if err := g.store.UpsertGarageAvailability(ctx, snapshot); err != nil {
			return false, fmt.Errorf("garagesPoller: store snapshot for %s: %w", row.GarageID, err)
		}
	}

	return false, nil
}
