// Package config loads service configuration from the environment. A .env
// file in the working directory is honored for local development; real
// deployments set variables directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/firescope/wildfire-analytics/internal/source"
)

// Config carries every tunable of the service.
type Config struct {
	// HTTP server
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Dataset source
	DataSource      string
	DataFormat      string
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	FetchRPS        float64
	FetchBurst      int

	// Analysis store
	DBPath     string
	SampleSize int
	SampleSeed int64

	// Kafka ingest (optional)
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// State backfill geocoder (optional)
	GeocoderEnabled   bool
	GeocoderBaseURL   string
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int
}

// Load reads configuration from the environment, applying defaults and
// validating the result.
func Load() (Config, error) {
	// Missing .env is the normal case outside local dev.
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		DataSource:      getEnv("DATA_SOURCE", ""),
		DataFormat:      strings.ToLower(getEnv("DATA_FORMAT", source.FormatGeoJSON)),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 0),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 2*time.Minute),
		FetchRPS:        getEnvFloat("FETCH_RPS", 1),
		FetchBurst:      getEnvInt("FETCH_BURST", 1),

		DBPath:     getEnv("DB_PATH", ":memory:"),
		SampleSize: getEnvInt("SAMPLE_SIZE", 5000),
		SampleSeed: int64(getEnvInt("SAMPLE_SEED", 42)),

		KafkaEnabled:       getEnvBool("KAFKA_ENABLED", false),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   getEnv("KAFKA_SOURCE_TOPIC", "raw-fire-reports"),
		KafkaSinkTopic:     getEnv("KAFKA_SINK_TOPIC", "prepared-fire-records"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "wildfire-analytics"),
		BatchSize:          getEnvInt("BATCH_SIZE", 50),
		BatchFlushInterval: getEnvDuration("BATCH_FLUSH_INTERVAL", 500*time.Millisecond),

		GeocoderEnabled:   getEnvBool("GEOCODER_ENABLED", false),
		GeocoderBaseURL:   getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderTimeout:   getEnvDuration("GEOCODER_TIMEOUT", 5*time.Second),
		GeocoderCacheSize: getEnvInt("GEOCODER_CACHE_SIZE", 1000),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}

	switch c.DataFormat {
	case source.FormatGeoJSON:
	case source.FormatShapefile:
		// A shapefile needs its DBF sidecar next to it, so only local
		// paths are workable.
		if strings.HasPrefix(c.DataSource, "http://") || strings.HasPrefix(c.DataSource, "https://") {
			return fmt.Errorf("DATA_FORMAT shapefile requires a local DATA_SOURCE path, got %q", c.DataSource)
		}
	default:
		return fmt.Errorf("invalid DATA_FORMAT %q", c.DataFormat)
	}

	if c.DataSource == "" && !c.KafkaEnabled {
		return fmt.Errorf("no input configured: set DATA_SOURCE or enable Kafka ingest")
	}
	if c.FetchRPS <= 0 {
		return fmt.Errorf("FETCH_RPS must be positive, got %v", c.FetchRPS)
	}
	if c.FetchBurst < 1 {
		return fmt.Errorf("FETCH_BURST must be at least 1, got %d", c.FetchBurst)
	}
	if c.SampleSize < 1 {
		return fmt.Errorf("SAMPLE_SIZE must be at least 1, got %d", c.SampleSize)
	}

	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS must not be empty when Kafka ingest is enabled")
		}
		if c.KafkaSourceTopic == "" {
			return fmt.Errorf("KAFKA_SOURCE_TOPIC must not be empty when Kafka ingest is enabled")
		}
		if c.KafkaGroupID == "" {
			return fmt.Errorf("KAFKA_GROUP_ID must not be empty when Kafka ingest is enabled")
		}
		if c.BatchSize < 1 {
			return fmt.Errorf("BATCH_SIZE must be at least 1, got %d", c.BatchSize)
		}
		if c.BatchFlushInterval <= 0 {
			return fmt.Errorf("BATCH_FLUSH_INTERVAL must be positive, got %v", c.BatchFlushInterval)
		}
	}

	if c.GeocoderEnabled {
		if c.GeocoderBaseURL == "" {
			return fmt.Errorf("GEOCODER_BASE_URL must not be empty when the geocoder is enabled")
		}
		if c.GeocoderCacheSize < 1 {
			return fmt.Errorf("GEOCODER_CACHE_SIZE must be at least 1, got %d", c.GeocoderCacheSize)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
