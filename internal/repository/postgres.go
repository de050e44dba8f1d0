package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/curbwatch/prediction-engine/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS spots (
	id TEXT PRIMARY KEY,
	block_id TEXT NOT NULL,
	street TEXT NOT NULL,
	neighborhood TEXT NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	meter_id TEXT,
	sweeping_schedule TEXT,
	curb_color TEXT,
	zone_override TEXT,
	is_metered_hours BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS meters (
	id TEXT PRIMARY KEY,
	spot_id TEXT NOT NULL REFERENCES spots(id),
	rate_schedule_name TEXT,
	time_limit_minutes INTEGER,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS meter_occupancy_hourly (
	meter_id TEXT NOT NULL,
	month INTEGER NOT NULL,
	day_of_week INTEGER NOT NULL,
	hour INTEGER NOT NULL,
	occupancy_ratio DOUBLE PRECISION NOT NULL,
	sample_count INTEGER NOT NULL,
	PRIMARY KEY (meter_id, month, day_of_week, hour)
);

CREATE TABLE IF NOT EXISTS zone_classifications (
	spot_id TEXT PRIMARY KEY,
	zone_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS realtime_signals (
	id BIGSERIAL PRIMARY KEY,
	signal_type TEXT NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	payload TEXT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_realtime_signals_type_expiry ON realtime_signals (signal_type, expires_at);

CREATE TABLE IF NOT EXISTS garages (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	total_spaces INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS garage_availability (
	garage_id TEXT NOT NULL REFERENCES garages(id),
	observed_at TIMESTAMPTZ NOT NULL,
	free_spaces INTEGER NOT NULL,
	PRIMARY KEY (garage_id, observed_at)
);

CREATE TABLE IF NOT EXISTS crowd_reports (
	id BIGSERIAL PRIMARY KEY,
	spot_id TEXT NOT NULL,
	report_type TEXT NOT NULL,
	reported_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS parking_signs (
	id BIGSERIAL PRIMARY KEY,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	sign_type TEXT NOT NULL
);
`

// Repository is the sole persistence dependency for the engine: spot,
// meter, garage, and signal catalogues, crowd reports, and zone overrides
// all live in one TimescaleDB/Postgres pool. Catalogue loads and writes go
// through a circuit breaker so a slow or unavailable database fails fast
// instead of cascading into exhausted connections.
type Repository struct {
	pool    *pgxpool.Pool
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewRepository connects to dsn with the given pool size and wires a
// circuit breaker around the schema, catalogue-load and write queries. The
// per-request lookups (OccupancyAt, LatestSignal, NearbySignCounts) query
// the pool directly, outside the breaker.
func NewRepository(ctx context.Context, dsn string, maxConns int32, connectTimeout time.Duration, logger *zap.Logger) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: parse dsn: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("repository: connect: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "postgres",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Repository{pool: pool, breaker: breaker, logger: logger}, nil
}

// InitSchema creates every table if absent. Safe to call on every startup.
func (r *Repository) InitSchema(ctx context.Context) error {
	_, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		_, err := r.pool.Exec(ctx, schema)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("repository: init schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity for the health endpoint.
func (r *Repository) Ping(ctx context.Context) bool {
	_, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, r.pool.Ping(ctx)
	})
	return err == nil
}

// Close releases the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

func (r *Repository) withBreaker(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	return r.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
}

// LoadAllSpots implements spatial.SpotStore.
func (r *Repository) LoadAllSpots(ctx context.Context) ([]models.Spot, error) {
	res, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		rows, err := r.pool.Query(ctx, `SELECT id, block_id, street, neighborhood, latitude, longitude,
			COALESCE(meter_id,''), COALESCE(sweeping_schedule,''), COALESCE(curb_color,''),
			COALESCE(zone_override,''), is_metered_hours FROM spots`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var spots []models.Spot
		for rows.Next() {
			var s models.Spot
			if err := rows.Scan(&s.ID, &s.BlockID, &s.Street, &s.Neighborhood, &s.Latitude, &s.Longitude,
				&s.MeterID, &s.SweepingSchedule, &s.CurbColor, &s.ZoneOverride, &s.IsMeteredHours); err != nil {
				return nil, err
			}
			spots = append(spots, s)
		}
		return spots, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("repository: loadAllSpots: %w", err)
	}
	return res.([]models.Spot), nil
}

// LoadAllGarages implements spatial.GarageStore.
func (r *Repository) LoadAllGarages(ctx context.Context) ([]models.Garage, error) {
	res, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		rows, err := r.pool.Query(ctx, `SELECT id, name, latitude, longitude, total_spaces FROM garages`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var garages []models.Garage
		for rows.Next() {
			var g models.Garage
			if err := rows.Scan(&g.ID, &g.Name, &g.Latitude, &g.Longitude, &g.TotalSpaces); err != nil {
				return nil, err
			}
			garages = append(garages, g)
		}
		return garages, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("repository: loadAllGarages: %w", err)
	}
	return res.([]models.Garage), nil
}

// LoadAllMeters implements spatial.MeterStore.
func (r *Repository) LoadAllMeters(ctx context.Context) ([]models.Meter, error) {
	res, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		rows, err := r.pool.Query(ctx, `SELECT id, spot_id, COALESCE(rate_schedule_name,''), COALESCE(time_limit_minutes,0) FROM meters`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var meters []models.Meter
		for rows.Next() {
			var m models.Meter
			if err := rows.Scan(&m.ID, &m.SpotID, &m.RateScheduleName, &m.TimeLimitMinutes); err != nil {
				return nil, err
			}
			meters = append(meters, m)
		}
		return meters, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("repository: loadAllMeters: %w", err)
	}
	return res.([]models.Meter), nil
}

// LoadMeterLocations implements spatial.MeterStore.
func (r *Repository) LoadMeterLocations(ctx context.Context) (map[string][2]float64, error) {
	res, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		rows, err := r.pool.Query(ctx, `SELECT id, latitude, longitude FROM meters`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		locs := make(map[string][2]float64)
		for rows.Next() {
			var id string
			var lat, lng float64
			if err := rows.Scan(&id, &lat, &lng); err != nil {
				return nil, err
			}
			locs[id] = [2]float64{lat, lng}
		}
		return locs, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("repository: loadMeterLocations: %w", err)
	}
	return res.(map[string][2]float64), nil
}

// OccupancyAt implements features.PatternLookup.
func (r *Repository) OccupancyAt(meterID string, month, dayOfWeekMon0, hour int) (float64, int, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var ratio float64
	var samples int
	err := r.pool.QueryRow(ctx, `SELECT occupancy_ratio, sample_count FROM meter_occupancy_hourly
		WHERE meter_id=$1 AND month=$2 AND day_of_week=$3 AND hour=$4`,
		meterID, month, dayOfWeekMon0, hour).Scan(&ratio, &samples)
	if err != nil {
		return 0, 0, false
	}
	return ratio, samples, true
}

// ZoneOverrides loads the full DB zone-classification override table for
// the in-memory ZoneClassifier to consult ahead of the neighborhood mapping.
func (r *Repository) ZoneOverrides(ctx context.Context) (map[string]string, error) {
	res, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		rows, err := r.pool.Query(ctx, `SELECT spot_id, zone_type FROM zone_classifications`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		overrides := make(map[string]string)
		for rows.Next() {
			var spotID, zoneType string
			if err := rows.Scan(&spotID, &zoneType); err != nil {
				return nil, err
			}
			overrides[spotID] = zoneType
		}
		return overrides, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("repository: zoneOverrides: %w", err)
	}
	return res.(map[string]string), nil
}

// UpsertSignal implements signals.SignalStore.
func (r *Repository) UpsertSignal(ctx context.Context, sig models.RealTimeSignal) error {
	_, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		_, err := r.pool.Exec(ctx, `INSERT INTO realtime_signals (signal_type, latitude, longitude, payload, fetched_at, expires_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			sig.SignalType, sig.Latitude, sig.Longitude, sig.Payload, sig.FetchedAt, sig.ExpiresAt)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("repository: upsertSignal: %w", err)
	}
	return nil
}

// LatestSignal returns the freshest unexpired signal of signalType, or false
// if none exists; location is not considered. The engine calls this once per
// family for each scored spot.
func (r *Repository) LatestSignal(ctx context.Context, signalType string, now time.Time) (models.RealTimeSignal, bool) {
	var sig models.RealTimeSignal
	err := r.pool.QueryRow(ctx, `SELECT id, signal_type, latitude, longitude, payload, fetched_at, expires_at
		FROM realtime_signals WHERE signal_type=$1 AND expires_at > $2
		ORDER BY fetched_at DESC LIMIT 1`, signalType, now).
		Scan(&sig.ID, &sig.SignalType, &sig.Latitude, &sig.Longitude, &sig.Payload, &sig.FetchedAt, &sig.ExpiresAt)
	if err != nil {
		return models.RealTimeSignal{}, false
	}
	return sig, true
}

// UpsertGarageAvailability implements signals.SignalStore.
func (r *Repository) UpsertGarageAvailability(ctx context.Context, snapshot models.GarageAvailability) error {
	_, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		_, err := r.pool.Exec(ctx, `INSERT INTO garage_availability (garage_id, observed_at, free_spaces)
			VALUES ($1,$2,$3) ON CONFLICT (garage_id, observed_at) DO UPDATE SET free_spaces=EXCLUDED.free_spaces`,
			snapshot.GarageID, snapshot.ObservedAt, snapshot.FreeSpaces)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("repository: upsertGarageAvailability: %w", err)
	}
	return nil
}

// InsertCrowdReport persists a crowd report and returns its generated ID.
func (r *Repository) InsertCrowdReport(ctx context.Context, report models.CrowdReport) (int64, error) {
	res, err := r.withBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		var id int64
		err := r.pool.QueryRow(ctx, `INSERT INTO crowd_reports (spot_id, report_type, reported_at)
			VALUES ($1,$2,$3) RETURNING id`, report.SpotID, report.ReportType, report.ReportedAt).Scan(&id)
		return id, err
	})
	if err != nil {
		return 0, fmt.Errorf("repository: insertCrowdReport: %w", err)
	}
	return res.(int64), nil
}

// NearbySignCounts implements the 30m sign-proximity query the sign-rule
// feature family needs, classifying raw sign rows via the features
// package's ontology predicates.
func (r *Repository) NearbySignCounts(ctx context.Context, lat, lng, radiusM float64, isNoParking, isTimeLimit func(string) bool) (int, int, error) {
	dLat := radiusM / 111320.0
	dLng := radiusM / (111320.0 * math.Cos(lat*math.Pi/180))
	rows, err := r.pool.Query(ctx, `SELECT sign_type FROM parking_signs
		WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4`,
		lat-dLat, lat+dLat, lng-dLng, lng+dLng)
	if err != nil {
		return 0, 0, fmt.Errorf("repository: nearbySignCounts: %w", err)
	}
	defer rows.Close()

	noParking, timeLimit := 0, 0
	for rows.Next() {
		var signType string
		if err := rows.Scan(&signType); err != nil {
			return 0, 0, err
		}
		if isNoParking(signType) {
			noParking++
		}
		if isTimeLimit(signType) {
			timeLimit++
		}
	}
	return noParking, timeLimit, rows.Err()
}
