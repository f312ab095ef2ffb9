package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig captures all tunable parameters for the tracking processes.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	FunctionsBaseURL string
	FetchTimeout     time.Duration

	MapsAPIKey         string
	DirectionsProvider string // google, osrm or none
	OSRMEndpoint       string
	DirectionsTimeout  time.Duration
	RouteCacheTTL      time.Duration

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	PGDSN        string
	HistoryLimit int

	PollInterval       time.Duration
	CORSAllowedOrigins []string
	DefaultLang        string

	LogLevel      string
	LogFormat     string
	RunMigrations bool
}

const (
	ProviderGoogle = "google"
	ProviderOSRM   = "osrm"
	ProviderNone   = "none"
)

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:           ":8080",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        120 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		FetchTimeout:       10 * time.Second,
		OSRMEndpoint:       "https://router.project-osrm.org",
		DirectionsTimeout:  5 * time.Second,
		RouteCacheTTL:      10 * time.Minute,
		KafkaTopic:         "ride-tracking-lookups",
		KafkaGroup:         "ride-tracking-history",
		HistoryLimit:       50,
		PollInterval:       15 * time.Second,
		CORSAllowedOrigins: []string{"*"},
		DefaultLang:        "es",
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// LoadEnvFiles reads dir/.env and then dir/.env.local, which overrides it.
// Missing files are ignored.
func LoadEnvFiles(dir string) {
	if dir == "" {
		dir = "."
	}
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Overload(filepath.Join(dir, ".env.local"))
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	setStringFromEnv(&cfg.FunctionsBaseURL, "NEXT_PUBLIC_FUNCTIONS_BASE_URL")
	setStringFromEnv(&cfg.FunctionsBaseURL, "FUNCTIONS_BASE_URL")
	setDurationFromEnv(&cfg.FetchTimeout, "FETCH_TIMEOUT", &errs)

	setStringFromEnv(&cfg.MapsAPIKey, "NEXT_PUBLIC_GOOGLE_MAPS_API_KEY")
	setStringFromEnv(&cfg.MapsAPIKey, "MAPS_API_KEY")
	setStringFromEnv(&cfg.DirectionsProvider, "DIRECTIONS_PROVIDER")
	cfg.DirectionsProvider = strings.ToLower(cfg.DirectionsProvider)
	setStringFromEnv(&cfg.OSRMEndpoint, "OSRM_ENDPOINT")
	setDurationFromEnv(&cfg.DirectionsTimeout, "DIRECTIONS_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.RouteCacheTTL, "ROUTE_CACHE_TTL", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setStringFromEnv(&cfg.KafkaGroup, "KAFKA_GROUP")

	cfg.PGDSN = os.Getenv("PG_DSN")
	setIntFromEnv(&cfg.HistoryLimit, "HISTORY_LIMIT", &errs)

	setDurationFromEnv(&cfg.PollInterval, "POLL_INTERVAL", &errs)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = splitAndTrim(origins)
	}
	if v := os.Getenv("DEFAULT_LANG"); v != "" {
		cfg.DefaultLang = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	// provider defaults to google when a key is present
	if cfg.DirectionsProvider == "" {
		cfg.DirectionsProvider = ProviderNone
		if cfg.MapsAPIKey != "" {
			cfg.DirectionsProvider = ProviderGoogle
		}
	}
	switch cfg.DirectionsProvider {
	case ProviderGoogle:
		if cfg.MapsAPIKey == "" {
			errs = append(errs, fmt.Errorf("DIRECTIONS_PROVIDER=google requires MAPS_API_KEY"))
		}
	case ProviderOSRM, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("DIRECTIONS_PROVIDER must be google, osrm or none, got %q", cfg.DirectionsProvider))
	}
	if cfg.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("HISTORY_LIMIT must be > 0"))
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be > 0"))
	}
	if cfg.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be > 0"))
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
