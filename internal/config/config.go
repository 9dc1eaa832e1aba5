package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string

	KafkaBrokers []string
	KafkaTopic   string

	PGDSN string

	SearchRadiusKm     float64
	DestRadiusKm       float64
	SearchLimit        int
	SearchFetchLimit   int
	ProfileCacheTTL    time.Duration
	DispatchQueueSize  int
	ExpirySweepEvery   time.Duration

	PlacesEndpoint  string
	PlacesAPIKey    string
	WeatherEndpoint string
	WeatherAPIKey   string
	PushEndpoint    string

	LogLevel      string
	RunMigrations bool
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:          ":8080",
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		RedisGeoKey:       "trips_geo",
		KafkaTopic:        "trip-events",
		SearchRadiusKm:    5,
		DestRadiusKm:      2,
		SearchLimit:       5,
		SearchFetchLimit:  32,
		ProfileCacheTTL:   time.Minute,
		DispatchQueueSize: 256,
		ExpirySweepEvery:  time.Minute,
		PlacesEndpoint:    "https://maps.googleapis.com/maps/api/place",
		WeatherEndpoint:   "https://api.openweathermap.org",
		LogLevel:          "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")

	setFloatFromEnv(&cfg.SearchRadiusKm, "SEARCH_RADIUS_KM", &errs)
	setFloatFromEnv(&cfg.DestRadiusKm, "SEARCH_DEST_RADIUS_KM", &errs)
	setIntFromEnv(&cfg.SearchLimit, "SEARCH_LIMIT", &errs)
	setIntFromEnv(&cfg.SearchFetchLimit, "SEARCH_FETCH_LIMIT", &errs)
	setDurationFromEnv(&cfg.ProfileCacheTTL, "PROFILE_CACHE_TTL", &errs)
	setIntFromEnv(&cfg.DispatchQueueSize, "DISPATCH_QUEUE_SIZE", &errs)
	setDurationFromEnv(&cfg.ExpirySweepEvery, "EXPIRY_SWEEP_EVERY", &errs)

	setStringFromEnv(&cfg.PlacesEndpoint, "PLACES_ENDPOINT")
	cfg.PlacesAPIKey = os.Getenv("PLACES_API_KEY")
	setStringFromEnv(&cfg.WeatherEndpoint, "WEATHER_ENDPOINT")
	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	setStringFromEnv(&cfg.PushEndpoint, "PUSH_ENDPOINT")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	if cfg.SearchRadiusKm <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_RADIUS_KM must be > 0"))
	}
	if cfg.SearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_LIMIT must be > 0"))
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

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
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
