package config

import (
	"errors"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIBaseURL is fatal: nothing works without the upstream API.
var ErrMissingAPIBaseURL = errors.New("API_BASE_URL is not set")

type Config struct {
	ServerPort string
	LogLevel   slog.Level

	APIBaseURL     string
	APITimeout     time.Duration
	APIMaxRetries  int
	APIRetryBase   time.Duration
	APIRateLimit   float64 // requests per second, 0 disables
	APIRateBurst   int
	FetchAllMaxPgs int

	PageSize       int
	SearchDebounce time.Duration
	CacheTTL       time.Duration
	LookupTTL      time.Duration
	StatsTTL       time.Duration
	CacheSize      int

	CORSOrigins []string

	ArchiveEnabled bool
	MongoURI       string
	MongoDBName    string
	MongoColl      string

	EventsEnabled          bool
	KafkaBrokers           []string
	KafkaChangesTopic      string
	KafkaInvalidationTopic string
	KafkaDLQTopic          string
	KafkaGroupID           string

	OTLPEndpoint string
	ServiceName  string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Parse comma-separated list of brokers
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "kafka:29092"
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getLevelEnv("LOG_LEVEL", slog.LevelInfo),

		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
		APITimeout:     getDurationEnv("API_TIMEOUT", 10*time.Second),
		APIMaxRetries:  getIntEnv("API_MAX_RETRIES", 3),
		APIRetryBase:   getDurationEnv("API_RETRY_BASE", 500*time.Millisecond),
		APIRateLimit:   getFloatEnv("API_RATE_LIMIT", 20),
		APIRateBurst:   getIntEnv("API_RATE_BURST", 10),
		FetchAllMaxPgs: getIntEnv("FETCH_ALL_MAX_PAGES", 50),

		PageSize:       getIntEnv("PAGE_SIZE", 6),
		SearchDebounce: getDurationEnv("SEARCH_DEBOUNCE", 500*time.Millisecond),
		CacheTTL:       getDurationEnv("CACHE_TTL", 5*time.Minute),
		LookupTTL:      getDurationEnv("LOOKUP_TTL", 30*time.Minute),
		StatsTTL:       getDurationEnv("STATS_TTL", 10*time.Minute),
		CacheSize:      getIntEnv("CACHE_SIZE", 512),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		ArchiveEnabled: getBoolEnv("ARCHIVE_ENABLED", true),
		MongoURI:       getEnv("MONGO_URI", "mongodb://mongodb:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "announce"),
		MongoColl:      getEnv("MONGO_COLLECTION", "announcements"),

		EventsEnabled:          getBoolEnv("EVENTS_ENABLED", true),
		KafkaBrokers:           splitList(brokers),
		KafkaChangesTopic:      getEnv("KAFKA_CHANGES_TOPIC", "announcement_changes"),
		KafkaInvalidationTopic: getEnv("KAFKA_INVALIDATION_TOPIC", "announcement_invalidations"),
		KafkaDLQTopic:          getEnv("KAFKA_DLQ_TOPIC", "announcement_invalidations_dlq"),
		KafkaGroupID:           getEnv("KAFKA_GROUP_ID", "announce-cache"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("SERVICE_NAME", "announce"),
	}
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("API_BASE_URL must be an absolute URL")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		// Try parsing as duration string (e.g. "1m", "60s")
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Try parsing as integer seconds
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}

func getLevelEnv(key string, fallback slog.Level) slog.Level {
	if value, ok := os.LookupEnv(key); ok {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			return level
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
