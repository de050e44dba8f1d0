package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/curbwatch/prediction-engine/internal/config"
	"github.com/curbwatch/prediction-engine/internal/models"
)

const trafficTokenCacheKey = "signals:traffic:auth_token"

// TrafficPoller fetches segment-level speed data from the configured INRIX
// style traffic API and writes it into the signal store. Auth tokens are
// cached for roughly an hour to avoid re-authenticating on every poll tick.
type TrafficPoller struct {
	cfg        config.SignalsConfig
	store      SignalStore
	httpClient *http.Client
	tokenCache *gocache.Cache
	lat, lng   float64
}

// NewTrafficPoller constructs a poller for the given service-area centroid.
func NewTrafficPoller(cfg config.SignalsConfig, store SignalStore, tokenCache *gocache.Cache, lat, lng float64) *TrafficPoller {
	return &TrafficPoller{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokenCache: tokenCache,
		lat:        lat,
		lng:        lng,
	}
}

func (t *TrafficPoller) getToken(ctx context.Context) (string, error) {
	if cached, ok := t.tokenCache.Get(trafficTokenCacheKey); ok {
		if tok, ok := cached.(string); ok {
			return tok, nil
		}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", t.cfg.TrafficAppID)
	form.Set("client_secret", t.cfg.TrafficHashToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.TrafficAuthTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("trafficPoller: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("trafficPoller: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("trafficPoller: token request returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("trafficPoller: decode token response: %w", err)
	}

	ttl := time.Hour
	if body.ExpiresIn > 0 {
		ttl = time.Duration(body.ExpiresIn) * time.Second
	}
	t.tokenCache.Set(trafficTokenCacheKey, body.AccessToken, ttl)

	return body.AccessToken, nil
}

type trafficSegment struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	CurrentSpeed float64 `json:"currentSpeed"`
	FreeFlow     float64 `json:"freeFlowSpeed"`
}

// Poll fetches the current traffic segment nearest the service area and
// persists a RealTimeSignal summarizing the speed ratio.
func (t *TrafficPoller) Poll(ctx context.Context) (bool, error) {
	token, err := t.getToken(ctx)
	if err != nil {
		return false, fmt.Errorf("trafficPoller: %w", err)
	}

	endpoint := fmt.Sprintf("https://segments.traffic.example/v1/segments?lat=%f&lng=%f", t.lat, t.lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("trafficPoller: build segments request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("trafficPoller: segments request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("trafficPoller: segments request returned status %d: %s", resp.StatusCode, string(body))
	}

	var segments []trafficSegment
	if err := json.NewDecoder(resp.Body).Decode(&segments); err != nil {
		return false, fmt.Errorf("trafficPoller: decode segments: %w", err)
	}
	if len(segments) == 0 {
		return false, fmt.Errorf("trafficPoller: no segments returned")
	}

	seg := segments[0]
	speedRatio := 1.0
	if seg.FreeFlow > 0 {
		speedRatio = seg.CurrentSpeed / seg.FreeFlow
	}

	payload, _ := json.Marshal(map[string]float64{"speed_ratio": speedRatio})
	now := clock()
	sig := models.RealTimeSignal{
		SignalType: "traffic",
		Latitude:   seg.Latitude,
		Longitude:  seg.Longitude,
		Payload:    string(payload),
		FetchedAt:  now,
		ExpiresAt:  now.Add(10 * time.Minute),
	}

	if err := t.store.UpsertSignal(ctx, sig); err != nil {
		return false, fmt.Errorf("trafficPoller: store signal: %w", err)
	}

	return true, nil
}
