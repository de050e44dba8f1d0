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

// WeatherPoller fetches current conditions from an OpenWeatherMap-style API
// for the service area centroid.
type WeatherPoller struct {
	cfg        config.SignalsConfig
	store      SignalStore
	httpClient *http.Client
	lat, lng   float64
}

// NewWeatherPoller constructs a poller for the given service-area centroid.
func NewWeatherPoller(cfg config.SignalsConfig, store SignalStore, lat, lng float64) *WeatherPoller {
	return &WeatherPoller{cfg: cfg, store: store, httpClient: &http.Client{Timeout: 10 * time.Second}, lat: lat, lng: lng}
}

type weatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

// Poll fetches current weather and persists a RealTimeSignal.
func (w *WeatherPoller) Poll(ctx context.Context) (bool, error) {
	endpoint := fmt.Sprintf(
		"https://api.openweathermap.org/data/2.5/weather?lat=%f&lon=%f&units=metric&appid=%s",
		w.lat, w.lng, w.cfg.WeatherAPIKey,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("weatherPoller: build request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("weatherPoller: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("weatherPoller: request returned status %d", resp.StatusCode)
	}

	var body weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("weatherPoller: decode response: %w", err)
	}

	payload, _ := json.Marshal(map[string]float64{
		"temp_c":    body.Main.Temp,
		"precip_mm": body.Rain.OneHour,
	})
	now := clock()
	sig := models.RealTimeSignal{
		SignalType: "weather",
		Latitude:   w.lat,
		Longitude:  w.lng,
		Payload:    string(payload),
		FetchedAt:  now,
		ExpiresAt:  now.Add(30 * time.Minute),
	}

	if err := w.store.UpsertSignal(ctx, sig); err != nil {
		return false, fmt.Errorf("weatherPoller: store signal: %w", err)
	}

	return true, nil
}
