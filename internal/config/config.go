// Package config loads exporter configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Tag is one export category: an upstream tag id and an optional label used
// in the job identifier.
type Tag struct {
	ID    string
	Label string
}

// Config holds all configuration for the exporter.
type Config struct {
	// ShipStation API
	APIKey     string
	APISecret  string
	APIBaseURL string
	PageSize   int
	Status     string

	FetchRetries   int
	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	// SFTP delivery
	SFTPHost        string
	SFTPPort        int
	SFTPUser        string
	SFTPPassword    string
	RemoteDir       string
	DeliveryRetries int
	DeliveryDelay   time.Duration
	AtomicDelivery  bool

	// Export
	Tags      []Tag
	Schema    string
	OutputDir string
	JobPrefix string

	// Reference cache (optional)
	RedisAddr     string
	StoreCacheTTL time.Duration

	// Logging
	LogLevel  string
	LogFile   string
	LogPretty bool
}

// Load reads an optional .env file and then builds the configuration from
// the environment. Missing required values are a configuration error, fatal
// before any network call.
func Load() (*Config, error) {
	// A missing .env is fine; the scheduler may inject everything directly.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:     os.Getenv("SHIPSTATION_API_KEY"),
		APISecret:  os.Getenv("SHIPSTATION_API_SECRET"),
		APIBaseURL: getEnv("SHIPSTATION_URL", "https://ssapi.shipstation.com"),
		PageSize:   getEnvInt("PAGE_SIZE", 100),
		Status:     getEnv("ORDER_STATUS", "awaiting_shipment"),

		FetchRetries:   getEnvInt("FETCH_RETRIES", 4),
		ConnectTimeout: getEnvDuration("CONNECT_TIMEOUT", 10*time.Second),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),

		SFTPHost:        os.Getenv("FTP_HOST"),
		SFTPPort:        getEnvInt("FTP_PORT", 22),
		SFTPUser:        os.Getenv("FTP_USER"),
		SFTPPassword:    os.Getenv("FTP_PASS"),
		RemoteDir:       os.Getenv("FTP_BASE_DIR"),
		DeliveryRetries: getEnvInt("DELIVERY_RETRIES", 3),
		DeliveryDelay:   getEnvDuration("DELIVERY_DELAY", 5*time.Second),
		AtomicDelivery:  getEnvBool("ATOMIC_DELIVERY", true),

		Schema:    getEnv("EXPORT_SCHEMA", "audit"),
		OutputDir: getEnv("OUTPUT_DIR", "."),
		JobPrefix: getEnv("JOB_PREFIX", "XTREME"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		StoreCacheTTL: getEnvDuration("STORE_CACHE_TTL", time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   os.Getenv("LOG_FILE"),
		LogPretty: getEnvBool("LOG_PRETTY", false),
	}

	cfg.Tags = parseTags()

	var missing []string
	for _, req := range []struct{ name, value string }{
		{"SHIPSTATION_API_KEY", cfg.APIKey},
		{"SHIPSTATION_API_SECRET", cfg.APISecret},
		{"FTP_HOST", cfg.SFTPHost},
		{"FTP_USER", cfg.SFTPUser},
		{"FTP_PASS", cfg.SFTPPassword},
		{"FTP_BASE_DIR", cfg.RemoteDir},
	} {
		if req.value == "" {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// parseTags builds the export tag list. EXPORT_TAGS overrides the two
// standing categories; entries are "id" or "id:label", comma separated.
func parseTags() []Tag {
	if raw := os.Getenv("EXPORT_TAGS"); raw != "" {
		var tags []Tag
		for _, entry := range strings.Split(raw, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			id, label, _ := strings.Cut(entry, ":")
			tags = append(tags, Tag{ID: id, Label: label})
		}
		return tags
	}

	return []Tag{
		{ID: getEnv("TAG_GOLF", "56240"), Label: "golf"},
		{ID: getEnv("TAG_CABINET", "56239"), Label: "cabinet"},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
