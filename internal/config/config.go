// Package config reads the environment-style options listed in the
// ingestion spec into a single typed struct, the way the teacher reads
// PG_HOST/PG_PORT/... directly from os.Getenv with fallback constants.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable named in the spec's configuration section.
type Config struct {
	FIRPolygonPath    string
	SectorDataPath    string
	CallsignAllowlist string
	ICAOStatePath     string

	EnableBoundaryFilter      bool
	FlightPlanValidationOn    bool
	SectorTrackingEnabled     bool
	VatsimPollingInterval     time.Duration
	CleanupFlightTimeout      time.Duration
	FlightCompletionHours     time.Duration
	FlightRetentionHours      time.Duration
	FlightSummaryInterval     time.Duration
	ControllerCompletionMins  time.Duration
	ControllerMergeWindow     time.Duration
	MatchTimeWindow           time.Duration
	AirborneGroundSpeedKt     float64
	GuardFrequencyHz          int64

	ProximityGroundNM   float64
	ProximityTowerNM    float64
	ProximityApproachNM float64
	ProximityCenterNM   float64
	ProximityFSSNM      float64
	ProximityDefaultNM  float64

	UpstreamURL      string
	TransceiversURL  string
	RequestTimeout   time.Duration
	RetryMaxAttempts int

	DatabaseURL      string
	DatabasePoolSize int
	DatabaseOverflow int

	RedisHost     string
	RedisPort     string
	RedisPassword string

	AppEnv string
}

// Load populates Config from the process environment, applying the
// spec's defaults for anything left unset. Reference-data paths are
// required; everything else degrades gracefully.
func Load() (*Config, error) {
	cfg := &Config{
		FIRPolygonPath:    os.Getenv("FIR_POLYGON_PATH"),
		SectorDataPath:    os.Getenv("SECTOR_DATA_PATH"),
		CallsignAllowlist: getenv("CONTROLLER_ALLOWLIST_PATH", ""),
		ICAOStatePath:     getenv("ICAO_STATE_PATH", ""),

		EnableBoundaryFilter:   getenvBool("ENABLE_BOUNDARY_FILTER", true),
		FlightPlanValidationOn: getenvBool("FLIGHT_PLAN_VALIDATION_ENABLED", true),
		SectorTrackingEnabled:  getenvBool("SECTOR_TRACKING_ENABLED", true),

		VatsimPollingInterval:    getenvSeconds("VATSIM_POLLING_INTERVAL_SEC", 60),
		CleanupFlightTimeout:     getenvSeconds("CLEANUP_FLIGHT_TIMEOUT_SEC", 300),
		FlightCompletionHours:    getenvHours("FLIGHT_COMPLETION_HOURS", 14),
		FlightRetentionHours:     getenvHours("FLIGHT_RETENTION_HOURS", 168),
		FlightSummaryInterval:    getenvMinutes("FLIGHT_SUMMARY_INTERVAL_MIN", 60),
		ControllerCompletionMins: getenvMinutes("CONTROLLER_COMPLETION_MINUTES", 30),
		ControllerMergeWindow:    getenvSeconds("CONTROLLER_MERGE_WINDOW_SEC", 300),
		MatchTimeWindow:          getenvSeconds("MATCH_TIME_WINDOW_SEC", 180),
		AirborneGroundSpeedKt:    getenvFloat("AIRBORNE_GROUND_SPEED_KT", 50),
		GuardFrequencyHz:         getenvInt64("GUARD_FREQUENCY_HZ", 122800000),

		ProximityGroundNM:   getenvFloat("CONTROLLER_PROXIMITY_GROUND_NM", 15),
		ProximityTowerNM:    getenvFloat("CONTROLLER_PROXIMITY_TOWER_NM", 15),
		ProximityApproachNM: getenvFloat("CONTROLLER_PROXIMITY_APPROACH_NM", 60),
		ProximityCenterNM:   getenvFloat("CONTROLLER_PROXIMITY_CENTER_NM", 400),
		ProximityFSSNM:      getenvFloat("CONTROLLER_PROXIMITY_FSS_NM", 1000),
		ProximityDefaultNM:  getenvFloat("CONTROLLER_PROXIMITY_DEFAULT_NM", 30),

		UpstreamURL:      getenv("VATSIM_DATA_URL", "https://data.vatsim.net/v3/vatsim-data.json"),
		TransceiversURL:  getenv("VATSIM_TRANSCEIVERS_URL", "https://data.vatsim.net/v3/transceivers-data.json"),
		RequestTimeout:   getenvSeconds("UPSTREAM_REQUEST_TIMEOUT_SEC", 60),
		RetryMaxAttempts: getenvInt("UPSTREAM_RETRY_MAX_ATTEMPTS", 20),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabasePoolSize: getenvInt("DATABASE_POOL_SIZE", 20),
		DatabaseOverflow: getenvInt("DATABASE_MAX_OVERFLOW", 40),

		RedisHost:     getenv("REDIS_HOST", "localhost"),
		RedisPort:     getenv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AppEnv: getenv("APP_ENV", "development"),
	}

	if cfg.FIRPolygonPath == "" {
		return nil, fmt.Errorf("FIR_POLYGON_PATH is required")
	}
	if cfg.SectorTrackingEnabled && cfg.SectorDataPath == "" {
		return nil, fmt.Errorf("SECTOR_DATA_PATH is required when sector tracking is enabled")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvSeconds(key string, fallbackSeconds int) time.Duration {
	return time.Duration(getenvInt(key, fallbackSeconds)) * time.Second
}

func getenvMinutes(key string, fallbackMinutes int) time.Duration {
	return time.Duration(getenvInt(key, fallbackMinutes)) * time.Minute
}

func getenvHours(key string, fallbackHours int) time.Duration {
	return time.Duration(getenvInt(key, fallbackHours)) * time.Hour
}
