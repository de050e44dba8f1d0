package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/curbwatch/prediction-engine/internal/config"
	"github.com/curbwatch/prediction-engine/internal/models"
)

// EventsPoller fetches upcoming events within a lookahead window from a
// Ticketmaster Discovery style API.
type EventsPoller struct {
	cfg        config.SignalsConfig
	store      SignalStore
	httpClient *http.Client
	lat, lng   float64
}

// NewEventsPoller constructs a poller for the given service-area centroid.
func NewEventsPoller(cfg config.SignalsConfig, store SignalStore, lat, lng float64) *EventsPoller {
	return &EventsPoller{cfg: cfg, store: store, httpClient: &http.Client{Timeout: 10 * time.Second}, lat: lat, lng: lng}
}

type ticketmasterEvent struct {
	Venues []struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"_embedded"`
}

type ticketmasterResponse struct {
	Embedded struct {
		Events []ticketmasterEvent `json:"events"`
	} `json:"_embedded"`
}

const eventsLookahead = 6 * time.Hour

// Poll fetches events in the next 6 hours and persists a single
// RealTimeSignal carrying the event count for the service area.
func (e *EventsPoller) Poll(ctx context.Context) (bool, error) {
	now := clock()
	endpoint := fmt.Sprintf(
		"https://app.ticketmaster.com/discovery/v2/events.json?latlong=%f,%f&startDateTime=%s&endDateTime=%s&apikey=%s",
		e.lat, e.lng,
		now.UTC().Format("2006-01-02T15:04:05Z"),
		now.Add(eventsLookahead).UTC().Format("2006-01-02T15:04:05Z"),
		e.cfg.EventsAPIKey,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("eventsPoller: build request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("eventsPoller: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("eventsPoller: request returned status %d", resp.StatusCode)
	}

	var body ticketmasterResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("eventsPoller: decode response: %w", err)
	}

	count := len(body.Embedded.Events)
	payload, _ := json.Marshal(map[string]int{"event_count": count})
	sig := models.RealTimeSignal{
		SignalType: "events",
		Latitude:   e.lat,
		Longitude:  e.lng,
		Payload:    string(payload),
		FetchedAt:  now,
		ExpiresAt:  now.Add(2 * time.Hour),
	}

	if err := e.store.UpsertSignal(ctx, sig); err != nil {
		return false, fmt.Errorf("eventsPoller: store signal: %w", err)
	}

	return true, nil
}
