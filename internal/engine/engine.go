package engine

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/curbwatch/prediction-engine/internal/cache"
	"github.com/curbwatch/prediction-engine/internal/config"
	"github.com/curbwatch/prediction-engine/internal/features"
	"github.com/curbwatch/prediction-engine/internal/model"
	"github.com/curbwatch/prediction-engine/internal/models"
	"github.com/curbwatch/prediction-engine/internal/spatial"
)

// SignalReader resolves the freshest unexpired signal of a given type,
// regardless of location; the repository implements it against the
// realtime_signals table.
type SignalReader interface {
	LatestSignal(ctx context.Context, signalType string, now time.Time) (models.RealTimeSignal, bool)
}

// SignRuleReader resolves nearby regulatory sign counts for the sign-rule
// feature family; the repository implements it with a 30m bounding-box scan.
type SignRuleReader interface {
	NearbySignCounts(ctx context.Context, lat, lng, radiusM float64, isNoParking, isTimeLimit func(string) bool) (int, int, error)
}

// Engine ties the spatial indices, feature assembler, model ensemble, and
// prediction cache together into the single /predict and /blocks
// operations. It holds no persistent state of its own beyond the
// neighborhood-ID enumeration, which is derived lazily from whatever
// neighborhood names the spot catalogue actually contains.
type Engine struct {
	cfg       *config.Config
	spots     *spatial.SpotIndex
	garages   *spatial.GarageIndex
	meters    *spatial.MeterIndex
	zones     *spatial.ZoneClassifier
	patterns  features.PatternLookup
	signals   SignalReader
	signRules SignRuleReader
	bundle    *model.Bundle
	cache     *cache.PredictionCache

	mu             sync.Mutex
	neighborhoodID map[string]int
}

// New constructs an Engine from its fully-loaded dependencies.
func New(cfg *config.Config, spots *spatial.SpotIndex, garages *spatial.GarageIndex, meters *spatial.MeterIndex,
	zones *spatial.ZoneClassifier, patterns features.PatternLookup, signals SignalReader, signRules SignRuleReader,
	bundle *model.Bundle, predCache *cache.PredictionCache) *Engine {
	return &Engine{
		cfg: cfg, spots: spots, garages: garages, meters: meters, zones: zones,
		patterns: patterns, signals: signals, signRules: signRules, bundle: bundle, cache: predCache,
		neighborhoodID: make(map[string]int),
	}
}

// SpotByID exposes the underlying spot index lookup so the router can
// resolve a crowd report's spot to coordinates for cache invalidation.
func (e *Engine) SpotByID(id string) (models.Spot, bool) {
	return e.spots.GetSpot(id)
}

func (e *Engine) neighborhoodIDFor(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id, ok := e.neighborhoodID[name]; ok {
		return id
	}
	id := len(e.neighborhoodID)
	e.neighborhoodID[name] = id
	return id
}

// Predict scores every spot within radiusM of (lat, lng), returning up to
// limit results sorted by descending p_free, plus nearby garages. Results
// are served from the prediction cache when available.
func (e *Engine) Predict(ctx context.Context, req models.PredictRequest) (models.PredictResponse, bool) {
	now := time.Now()
	radius := req.RadiusM
	if radius <= 0 {
		radius = 400
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	key := cache.Key(req.Latitude, req.Longitude, radius, now)
	if cached, ok := e.cache.Get(key); ok {
		cached.Meta.CacheHit = true
		return cached, true
	}

	candidates := e.spots.QueryNearby(req.Latitude, req.Longitude, radius, limit*3)

	predictions := make([]models.SpotPrediction, 0, len(candidates))
	for _, c := range candidates {
		spot := c.Spot()
		pred := e.scoreSpot(ctx, spot, now)
		pred.DistanceMeters = math.Round(c.Distance()*1000) / 1000
		predictions = append(predictions, pred)
	}

	sort.Slice(predictions, func(i, j int) bool {
		return predictions[i].PFree > predictions[j].PFree
	})
	if len(predictions) > limit {
		predictions = predictions[:limit]
	}

	garageHits := e.garages.Nearby(req.Latitude, req.Longitude, radius*2, 10)
	garages := make([]models.GarageInfo, 0, len(garageHits))
	for _, g := range garageHits {
		garages = append(garages, models.GarageInfo{
			GarageID:       g.Garage.ID,
			Name:           g.Garage.Name,
			DistanceMeters: math.Round(g.Distance*1000) / 1000,
		})
	}

	resp := models.PredictResponse{
		Spots:   predictions,
		Garages: garages,
		Meta: models.PredictMeta{
			ModelVersion: e.bundle.Version,
			GeneratedAt:  now,
			CacheHit:     false,
		},
	}

	e.cache.Put(key, resp)
	return resp, false
}

func (e *Engine) scoreSpot(ctx context.Context, spot models.Spot, now time.Time) models.SpotPrediction {
	neighborhoodID := e.neighborhoodIDFor(spot.Neighborhood)
	zone := e.zones.Classify(spot.ID, spot.Neighborhood)
	zoneTypeID := spatial.ZoneTypeIDs[zone]
	baseChurn := spatial.BaseChurn[zone]

	meterID := spot.MeterID
	nearestMeterDist := math.NaN()
	if meterID == "" {
		if id, dist, ok := e.meters.Nearest(spot.Latitude, spot.Longitude); ok {
			meterID = id
			nearestMeterDist = dist
		}
	} else if _, dist, ok := e.meters.Nearest(spot.Latitude, spot.Longitude); ok {
		nearestMeterDist = dist
	}

	meterCount200 := e.meters.CountWithin(spot.Latitude, spot.Longitude, 200)
	meterCount400 := e.meters.CountWithin(spot.Latitude, spot.Longitude, 400)
	garageDist := e.garages.NearestDistance(spot.Latitude, spot.Longitude)

	spatialIn := features.SpatialInputs{
		NearestMeterDistanceM: nearestMeterDist,
		MeterCount200M:        meterCount200,
		MeterCount400M:        meterCount400,
		NearestGarageDistM:    garageDist,
		NeighborhoodID:        neighborhoodID,
		ZoneTypeID:            zoneTypeID,
	}

	noParkingNearby, timeLimitNearby, _ := e.signRules.NearbySignCounts(ctx, spot.Latitude, spot.Longitude, 30,
		features.IsNoParkingSignType, features.IsTimeLimitSignType)

	signRuleIn := features.SignRuleInputs{
		CurbColor:            spot.CurbColor,
		NoParkingSignsNearby: noParkingNearby,
		TimeLimitSignsNearby: timeLimitNearby,
		HasRegulationOverride: spot.ZoneOverride != "",
	}

	realtimeIn, signalAgeSeconds, hasRealtime := e.resolveRealtime(ctx, spot, now)

	featureVec := features.Assemble(features.AssembleInputs{
		Now:              now,
		Spatial:          spatialIn,
		MeterID:          meterID,
		PatternLookup:    e.patterns,
		SweepingSchedule: spot.SweepingSchedule,
		SignRules:        signRuleIn,
		Realtime:         realtimeIn,
	})

	meterSamples := 0
	if meterID != "" {
		if v, ok := featureVec["meter_sample_count"]; ok {
			meterSamples = int(v)
		}
	}

	pred := e.bundle.PredictSpot(model.ScoreInputs{
		FeatureVec:           featureVec,
		Zone:                 zone,
		TransferMultiplier:   e.cfg.TransferMultiplier(zone),
		ZoneBaseChurn:        baseChurn,
		SignalAgeSeconds:     signalAgeSeconds,
		HasRealtimeSignal:    hasRealtime,
		MeterSampleCount:     meterSamples,
		HasMeter:             meterID != "",
		HasNeighborhood:      spot.Neighborhood != "",
		HasZone:              zone != "mixed",
		FreshSeconds:         e.cfg.Confidence.FreshSeconds,
		StaleSeconds:         e.cfg.Confidence.StaleSeconds,
		Tier:                 "free",
		ProThreshold:         e.cfg.Confidence.ProThreshold,
		FreeThreshold:        e.cfg.Confidence.FreeThreshold,
		PredictionAgeMinutes: 0,
		Weights: model.ConfidenceWeights{
			Meter:    e.cfg.Confidence.WeightMeter,
			Spatial:  e.cfg.Confidence.WeightSpatial,
			Realtime: e.cfg.Confidence.WeightRealtime,
			Model:    e.cfg.Confidence.WeightModel,
		},
	})

	return models.SpotPrediction{
		SpotID:       spot.ID,
		Street:       spot.Street,
		Neighborhood: spot.Neighborhood,
		Latitude:     spot.Latitude,
		Longitude:    spot.Longitude,
		PFree:        pred.PFree,
		Confidence: models.ConfidenceDetail{
			MeterDataQuality:   pred.MeterQuality,
			SpatialDataQuality: pred.SpatialQuality,
			RealtimeFreshness:  pred.RealtimeQuality,
			ModelCertainty:     pred.ModelCertainty,
			Overall:            pred.Confidence,
			GuaranteeLevel:     pred.GuaranteeLevel,
		},
		TimeDecay: models.TimeDecayDetail{
			HalfLifeMinutes:  pred.HalfLifeMinutes,
			DecayFactor:      pred.DecayFactor,
			IsStale:          pred.IsStale,
			FutureConfidence: pred.FutureConfidence,
		},
	}
}

func (e *Engine) resolveRealtime(ctx context.Context, spot models.Spot, now time.Time) (features.RealtimeInputs, float64, bool) {
	var in features.RealtimeInputs
	oldestAge := 0.0
	any := false

	if sig, ok := e.signals.LatestSignal(ctx, "traffic", now); ok {
		in.TrafficHasData = true
		in.TrafficSpeedRatio = extractFloat(sig.Payload, "speed_ratio", 1.0)
		age := now.Sub(sig.FetchedAt).Seconds()
		if age > oldestAge {
			oldestAge = age
		}
		any = true
	}
	if sig, ok := e.signals.LatestSignal(ctx, "weather", now); ok {
		in.WeatherHasData = true
		in.WeatherPrecipMM = extractFloat(sig.Payload, "precip_mm", 0)
		in.WeatherTempC = extractFloat(sig.Payload, "temp_c", 15)
		age := now.Sub(sig.FetchedAt).Seconds()
		if age > oldestAge {
			oldestAge = age
		}
		any = true
	}
	if sig, ok := e.signals.LatestSignal(ctx, "events", now); ok {
		count := int(extractFloat(sig.Payload, "event_count", 0))
		in.NearbyEventCount = count
		if count > 0 {
			in.EventProximityScore = 1.0 / float64(1+count)
		}
		age := now.Sub(sig.FetchedAt).Seconds()
		if age > oldestAge {
			oldestAge = age
		}
		any = true
	}

	return in, oldestAge, any
}

// extractFloat decodes payload as a flat JSON object and returns the named
// field, or fallback if the payload is malformed or the field is absent.
func extractFloat(payload, key string, fallback float64) float64 {
	var fields map[string]float64
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return fallback
	}
	if v, ok := fields[key]; ok {
		return v
	}
	return fallback
}
