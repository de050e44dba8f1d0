package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DBConfig holds connection settings for the TimescaleDB/Postgres pool.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// CacheConfig controls the prediction TTL cache.
type CacheConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

// PrivacyConfig controls coordinate coarsening in API responses.
type PrivacyConfig struct {
	ExactWithinM float64 `mapstructure:"exact_within_m"`
	FuzzyWithinM float64 `mapstructure:"fuzzy_within_m"`
	FuzzMeters   float64 `mapstructure:"fuzz_meters"`
}

// ConfidenceConfig controls the weighted-sum confidence scoring components.
type ConfidenceConfig struct {
	WeightMeter    float64 `mapstructure:"weight_meter"`
	WeightSpatial  float64 `mapstructure:"weight_spatial"`
	WeightRealtime float64 `mapstructure:"weight_realtime"`
	WeightModel    float64 `mapstructure:"weight_model"`
	FreshSeconds   float64 `mapstructure:"fresh_seconds"`
	StaleSeconds   float64 `mapstructure:"stale_seconds"`
	ProThreshold   float64 `mapstructure:"pro_threshold"`
	FreeThreshold  float64 `mapstructure:"free_threshold"`
}

// PollerConfig controls a single background signal poller's schedule.
type PollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Enabled  bool          `mapstructure:"enabled"`
}

// SignalsConfig groups the four independent poller schedules and their
// upstream credentials.
type SignalsConfig struct {
	Traffic PollerConfig `mapstructure:"traffic"`
	Weather PollerConfig `mapstructure:"weather"`
	Events  PollerConfig `mapstructure:"events"`
	Garages PollerConfig `mapstructure:"garages"`

	TrafficAuthTokenURL string `mapstructure:"traffic_auth_token_url"`
	TrafficAppID        string `mapstructure:"traffic_app_id"`
	TrafficHashToken    string `mapstructure:"traffic_hash_token"`
	WeatherAPIKey       string `mapstructure:"weather_api_key"`
	EventsAPIKey        string `mapstructure:"events_api_key"`
}

// RateLimitConfig controls the HTTP router's per-IP token bucket, expressed
// as an "N/unit" string (e.g. "100/minute").
type RateLimitConfig struct {
	Rate string `mapstructure:"rate"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	ListenAddr string        `mapstructure:"listen_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MQTTConfig controls the optional analytics-broker publisher.
type MQTTConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Topic   string `mapstructure:"topic"`
}

// Config is the root configuration object, assembled by LoadConfig.
type Config struct {
	DB               DBConfig               `mapstructure:"db"`
	Cache            CacheConfig            `mapstructure:"cache"`
	Privacy          PrivacyConfig          `mapstructure:"privacy"`
	Confidence       ConfidenceConfig       `mapstructure:"confidence"`
	Signals          SignalsConfig          `mapstructure:"signals"`
	RateLimit        RateLimitConfig        `mapstructure:"rate_limit"`
	Server           ServerConfig           `mapstructure:"server"`
	MQTT             MQTTConfig             `mapstructure:"mqtt"`
	TransferMultipliers map[string]float64  `mapstructure:"transfer_multipliers"`
	NeighborhoodZones   map[string]string   `mapstructure:"neighborhood_zones"`
	ModelsDir        string                 `mapstructure:"models_dir"`
}

// expandEnv performs a literal `${VAR}` substring replace over raw config
// bytes using the process environment, mirroring the original service's
// config loader (a plain string replace, not a regex, so values containing
// "${" elsewhere are left untouched).
func expandEnv(raw []byte) []byte {
	text := string(raw)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		placeholder := "${" + parts[0] + "}"
		text = strings.ReplaceAll(text, placeholder, parts[1])
	}
	return []byte(text)
}

// LoadConfig reads the YAML config at path, expands ${VAR} references
// against the environment, applies defaults for anything left unset, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	setDefaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loadConfig: read %s: %w", path, err)
		}
		expanded := expandEnv(raw)
		viper.SetConfigType("yaml")
		if err := viper.ReadConfig(bytes.NewReader(expanded)); err != nil {
			return nil, fmt.Errorf("loadConfig: parse %s: %w", path, err)
		}
	}

	viper.SetEnvPrefix("CURB")
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("loadConfig: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loadConfig: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("db.max_conns", 10)
	viper.SetDefault("db.connect_timeout", 5*time.Second)
	viper.SetDefault("cache.ttl", 2*time.Minute)
	viper.SetDefault("cache.max_size", 4096)
	viper.SetDefault("privacy.exact_within_m", 200.0)
	viper.SetDefault("privacy.fuzzy_within_m", 400.0)
	viper.SetDefault("privacy.fuzz_meters", 50.0)
	viper.SetDefault("confidence.weight_meter", 0.25)
	viper.SetDefault("confidence.weight_spatial", 0.25)
	viper.SetDefault("confidence.weight_realtime", 0.25)
	viper.SetDefault("confidence.weight_model", 0.25)
	viper.SetDefault("confidence.fresh_seconds", 300.0)
	viper.SetDefault("confidence.stale_seconds", 1800.0)
	viper.SetDefault("confidence.pro_threshold", 0.7)
	viper.SetDefault("confidence.free_threshold", 0.4)
	viper.SetDefault("signals.traffic.interval", 10*time.Minute)
	viper.SetDefault("signals.traffic.enabled", true)
	viper.SetDefault("signals.weather.interval", 30*time.Minute)
	viper.SetDefault("signals.weather.enabled", true)
	viper.SetDefault("signals.events.interval", 2*time.Hour)
	viper.SetDefault("signals.events.enabled", true)
	viper.SetDefault("signals.garages.interval", 5*time.Minute)
	viper.SetDefault("signals.garages.enabled", true)
	viper.SetDefault("rate_limit.rate", "100/minute")
	viper.SetDefault("server.listen_addr", ":8080")
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("models_dir", "./models")
}

// Validate aggregates every configuration problem into a single error,
// rather than failing on the first one.
func (c *Config) Validate() error {
	var problems []string

	if c.DB.DSN == "" {
		problems = append(problems, "db.dsn must not be empty")
	}
	if c.DB.MaxConns <= 0 {
		problems = append(problems, "db.max_conns must be positive")
	}
	if c.Cache.TTL <= 0 {
		problems = append(problems, "cache.ttl must be positive")
	}
	if c.Privacy.FuzzyWithinM < c.Privacy.ExactWithinM {
		problems = append(problems, "privacy.fuzzy_within_m must be >= privacy.exact_within_m")
	}
	weightSum := c.Confidence.WeightMeter + c.Confidence.WeightSpatial +
		c.Confidence.WeightRealtime + c.Confidence.WeightModel
	if weightSum <= 0 {
		problems = append(problems, "confidence weights must sum to a positive value")
	}
	if c.Server.ListenAddr == "" {
		problems = append(problems, "server.listen_addr must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// TransferMultiplier returns the configured logit-space transfer multiplier
// for a zone, defaulting to 1.20 when unconfigured.
func (c *Config) TransferMultiplier(zone string) float64 {
	if m, ok := c.TransferMultipliers[zone]; ok {
		return m
	}
	return 1.20
}
