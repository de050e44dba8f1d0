package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/curbwatch/prediction-engine/internal/cache"
	"github.com/curbwatch/prediction-engine/internal/config"
	"github.com/curbwatch/prediction-engine/internal/engine"
	"github.com/curbwatch/prediction-engine/internal/model"
	"github.com/curbwatch/prediction-engine/internal/repository"
	"github.com/curbwatch/prediction-engine/internal/router"
	"github.com/curbwatch/prediction-engine/internal/signals"
	"github.com/curbwatch/prediction-engine/internal/spatial"
)

const defaultGracefulTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting curbside prediction engine")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	repo, err := repository.NewRepository(ctx, cfg.DB.DSN, cfg.DB.MaxConns, cfg.DB.ConnectTimeout, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := repo.InitSchema(ctx); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	meterIndex := spatial.NewMeterIndex()
	if err := meterIndex.Load(ctx, repo); err != nil {
		logger.Fatal("failed to load meter index", zap.Error(err))
	}

	spotIndex := spatial.NewSpotIndex()
	if err := spotIndex.Load(ctx, repo); err != nil {
		logger.Fatal("failed to load spot index", zap.Error(err))
	}

	garageIndex := spatial.NewGarageIndex()
	if err := garageIndex.Load(ctx, repo); err != nil {
		logger.Fatal("failed to load garage index", zap.Error(err))
	}

	overrides, err := repo.ZoneOverrides(ctx)
	if err != nil {
		logger.Fatal("failed to load zone overrides", zap.Error(err))
	}
	zoneClassifier := spatial.NewZoneClassifier(overrides, cfg.NeighborhoodZones)

	bundle := loadModelBundle(cfg, logger)

	predCache := cache.NewPredictionCache(cfg.Cache.TTL, cfg.Cache.MaxSize)

	eng := engine.New(cfg, spotIndex, garageIndex, meterIndex, zoneClassifier, repo, repo, repo, bundle, predCache)

	feedHub := router.NewFeedHub(logger)

	broker, err := signals.NewEventBroker(cfg.MQTT, logger)
	if err != nil {
		logger.Fatal("failed to initialize event broker", zap.Error(err))
	}
	defer broker.Close()

	manager, err := signals.NewManager(predCache, broker, feedHub, logger)
	if err != nil {
		logger.Fatal("failed to initialize signal manager", zap.Error(err))
	}

	tokenCache := gocache.New(time.Hour, 2*time.Hour)
	centroidLat, centroidLng := serviceAreaCentroid(cfg)

	trafficPoller := signals.NewTrafficPoller(cfg.Signals, repo, tokenCache, centroidLat, centroidLng)
	weatherPoller := signals.NewWeatherPoller(cfg.Signals, repo, centroidLat, centroidLng)
	eventsPoller := signals.NewEventsPoller(cfg.Signals, repo, centroidLat, centroidLng)
	garagesFeedURL := "https://data.sfgov.org/resource/garage-availability.json"
	garagesPoller := signals.NewGaragesPoller(repo, garagesFeedURL)

	if err := manager.Register("traffic", cfg.Signals.Traffic.Interval, cfg.Signals.Traffic.Enabled, trafficPoller.Poll); err != nil {
		logger.Fatal("failed to register traffic poller", zap.Error(err))
	}
	if err := manager.Register("weather", cfg.Signals.Weather.Interval, cfg.Signals.Weather.Enabled, weatherPoller.Poll); err != nil {
		logger.Fatal("failed to register weather poller", zap.Error(err))
	}
	if err := manager.Register("events", cfg.Signals.Events.Interval, cfg.Signals.Events.Enabled, eventsPoller.Poll); err != nil {
		logger.Fatal("failed to register events poller", zap.Error(err))
	}
	if err := manager.Register("garages", cfg.Signals.Garages.Interval, cfg.Signals.Garages.Enabled, garagesPoller.Poll); err != nil {
		logger.Fatal("failed to register garages poller", zap.Error(err))
	}
	manager.Start()

	modelsOK := func() bool { return bundle.IsLoaded() }
	rt := router.New(cfg, eng, repo, predCache, modelsOK, repo, feedHub, logger)

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      rt.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("http server listening", zap.String("address", cfg.Server.ListenAddr))
		if srvErr := server.ListenAndServe(); srvErr != nil && srvErr != http.ErrServerClosed {
			logger.Fatal("http server listen error", zap.Error(srvErr))
		}
	}()

	sig := <-quit
	logger.Info("caught signal, shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		logger.Error("http server shutdown error", zap.Error(err))
	}
	if err := manager.Stop(); err != nil {
		logger.Warn("signal manager shutdown error", zap.Error(err))
	}
	repo.Close()
	logger.Info("shutdown complete")
}

// loadModelBundle loads the three on-disk model artifacts. A missing or
// unloadable artifact is logged and replaced with an unloaded model so the
// ensemble's per-stage fallbacks take over, rather than refusing to start.
func loadModelBundle(cfg *config.Config, logger *zap.Logger) *model.Bundle {
	occupancy, err := model.LoadOccupancyModel(cfg.ModelsDir + "/occupancy.json")
	if err != nil {
		logger.Warn("occupancy model not loaded, predictions will use the uninformative prior", zap.Error(err))
		occupancy = &model.OccupancyModel{}
	}
	calibration, err := model.LoadCalibrationModel(cfg.ModelsDir + "/calibration.json")
	if err != nil {
		logger.Warn("calibration model not loaded, using identity transform", zap.Error(err))
		calibration = &model.CalibrationModel{}
	}
	turnover, err := model.LoadTurnoverModel(cfg.ModelsDir + "/turnover.json")
	if err != nil {
		logger.Warn("turnover model not loaded, using zone base churn", zap.Error(err))
		turnover = &model.TurnoverModel{}
	}
	return &model.Bundle{Occupancy: occupancy, Calibration: calibration, Turnover: turnover, Version: "1"}
}

// serviceAreaCentroid returns the lat/lng the traffic, weather, and events
// pollers query against. Hardcoded to San Francisco's civic center pending a
// configurable multi-city deployment.
func serviceAreaCentroid(cfg *config.Config) (float64, float64) {
	return 37.7793, -122.4193
}
