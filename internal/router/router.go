package router

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/curbwatch/prediction-engine/internal/config"
	"github.com/curbwatch/prediction-engine/internal/engine"
	"github.com/curbwatch/prediction-engine/internal/models"
	"github.com/curbwatch/prediction-engine/internal/utils"
)

// ReportStore persists crowd reports; the router itself invalidates the
// prediction cache for the affected area afterwards.
type ReportStore interface {
	InsertCrowdReport(ctx context.Context, report models.CrowdReport) (int64, error)
}

// AreaInvalidator is implemented by the prediction cache.
type AreaInvalidator interface {
	InvalidateArea(lat, lng, radiusM float64)
	ItemCount() int
}

// HealthChecker reports backend connectivity for GET /health.
type HealthChecker interface {
	Ping(ctx context.Context) bool
}

var (
	predictLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "curbwatch_predict_duration_seconds",
		Help:    "Latency of POST /predict requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"cache_hit"})

	predictRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "curbwatch_predict_requests_total",
		Help: "Total POST /predict requests.",
	}, []string{"tier"})
)

func init() {
	prometheus.MustRegister(predictLatency, predictRequests)
}

// Router wires the engine, repository, and cache into the public HTTP API.
type Router struct {
	cfg       *config.Config
	eng       *engine.Engine
	reports   ReportStore
	cache     AreaInvalidator
	modelsOK  func() bool
	health    HealthChecker
	feed      *FeedHub
	logger    *zap.Logger
}

// New constructs a Router; call Handler to obtain the gin engine.
func New(cfg *config.Config, eng *engine.Engine, reports ReportStore, cache AreaInvalidator,
	modelsOK func() bool, health HealthChecker, feed *FeedHub, logger *zap.Logger) *Router {
	return &Router{cfg: cfg, eng: eng, reports: reports, cache: cache, modelsOK: modelsOK, health: health, feed: feed, logger: logger}
}

// Handler builds the configured gin.Engine.
func (rt *Router) Handler() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())

	limiter, err := utils.ParseRate(rt.cfg.RateLimit.Rate)
	if err != nil {
		rt.logger.Warn("router: failed to parse rate limit, skipping middleware", zap.Error(err))
	} else {
		r.Use(rt.rateLimitMiddleware(limiter))
	}

	r.POST("/predict", rt.handlePredict)
	r.GET("/blocks", rt.handleBlocks)
	r.POST("/report", rt.handleReport)
	r.GET("/health", rt.handleHealth)
	r.GET("/ws", rt.feed.HandleWS)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (rt *Router) rateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			rt.logger.Warn("rate limit exceeded", zap.String("path", c.Request.URL.Path), zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rt *Router) handlePredict(c *gin.Context) {
	start := time.Now()

	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Latitude < models.MinLatitude || req.Latitude > models.MaxLatitude ||
		req.Longitude < models.MinLongitude || req.Longitude > models.MaxLongitude {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}
	if req.Tier == "" {
		req.Tier = "free"
	}

	resp, cacheHit := rt.eng.Predict(c.Request.Context(), req)
	rt.applyPrivacyGating(&resp, req)

	predictRequests.WithLabelValues(req.Tier).Inc()
	hitLabel := "false"
	if cacheHit {
		hitLabel = "true"
	}
	predictLatency.WithLabelValues(hitLabel).Observe(time.Since(start).Seconds())

	c.JSON(http.StatusOK, resp)
}

// applyPrivacyGating coarsens response coordinates per the requester's tier:
// pro requests within exactWithinM get exact coordinates, pro requests out
// to fuzzyWithinM get coordinates jittered by up to fuzzMeters, and every
// other response is rounded to 3 decimal places (roughly 111m of precision).
func (rt *Router) applyPrivacyGating(resp *models.PredictResponse, req models.PredictRequest) {
	p := rt.cfg.Privacy
	for i := range resp.Spots {
		s := &resp.Spots[i]
		switch {
		case req.Tier == "pro" && s.DistanceMeters <= p.ExactWithinM:
			// exact, no change
		case req.Tier == "pro" && s.DistanceMeters <= p.FuzzyWithinM:
			latRad := s.Latitude * math.Pi / 180
			offsetLat := (rand.Float64() - 0.5) * 2 * p.FuzzMeters / 111320.0
			offsetLng := (rand.Float64() - 0.5) * 2 * p.FuzzMeters / (111320.0 * math.Cos(latRad))
			s.Latitude += offsetLat
			s.Longitude += offsetLng
		default:
			s.Latitude = math.Round(s.Latitude*1000) / 1000
			s.Longitude = math.Round(s.Longitude*1000) / 1000
		}
	}
}

func (rt *Router) handleBlocks(c *gin.Context) {
	var req models.PredictRequest
	req.Latitude = parseFloatQuery(c, "lat")
	req.Longitude = parseFloatQuery(c, "lng")
	req.RadiusM = parseFloatQuery(c, "radiusMeters")
	req.Tier = "free"

	resp, _ := rt.eng.Predict(c.Request.Context(), req)

	type agg struct {
		sum   float64
		best  float64
		count int
	}
	byBlock := make(map[string]*agg)
	neighborhoodOf := make(map[string]string)
	for _, s := range resp.Spots {
		key := s.Street + "|" + s.Neighborhood
		a, ok := byBlock[key]
		if !ok {
			a = &agg{}
			byBlock[key] = a
			neighborhoodOf[key] = s.Neighborhood
		}
		a.sum += s.PFree
		a.count++
		if s.PFree > a.best {
			a.best = s.PFree
		}
	}

	blocks := make([]models.BlockSummary, 0, len(byBlock))
	for key, a := range byBlock {
		street := strings.SplitN(key, "|", 2)[0]
		blocks = append(blocks, models.BlockSummary{
			Street:       street,
			Neighborhood: neighborhoodOf[key],
			AvgPFree:     a.sum / float64(a.count),
			BestPFree:    a.best,
			SpotCount:    a.count,
		})
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].AvgPFree > blocks[j].AvgPFree })

	c.JSON(http.StatusOK, models.BlockResponse{Blocks: blocks})
}

func parseFloatQuery(c *gin.Context, key string) float64 {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func (rt *Router) handleReport(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report := models.CrowdReport{SpotID: req.SpotID, ReportType: req.ReportType, ReportedAt: time.Now()}
	if err := report.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := rt.reports.InsertCrowdReport(c.Request.Context(), report)
	if err != nil {
		rt.logger.Error("router: failed to insert crowd report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record report"})
		return
	}

	spot, ok := rt.spotLocation(req.SpotID)
	if ok {
		rt.cache.InvalidateArea(spot.Latitude, spot.Longitude, 400)
	}

	c.JSON(http.StatusOK, models.ReportResponse{ID: id, Accepted: true})
}

func (rt *Router) spotLocation(spotID string) (models.Spot, bool) {
	return rt.eng.SpotByID(spotID)
}

func (rt *Router) handleHealth(c *gin.Context) {
	dbOK := rt.health.Ping(c.Request.Context())
	modelsLoaded := rt.modelsOK()

	status := "ok"
	httpStatus := http.StatusOK
	if !dbOK || !modelsLoaded {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, models.HealthResponse{Status: status, ModelsLoaded: modelsLoaded, DBOK: dbOK})
}
