// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	AppURL   string
	LogLevel string

	// MongoDB
	MongoURI      string
	MongoDatabase string

	// Redis
	RedisURL string

	// Encryption
	EncryptionKey string

	// APIKey is the X-Integration-Key of the /api/v1 routes
	APIKey string

	// Shopify
	ShopifyClientID      string
	ShopifyClientSecret  string
	ShopifyWebhookSecret string
	ShopifyAPIVersion    string
	ShopifyScopes        []string
	ShopifyHTTPTimeout   time.Duration

	// Sync
	SyncInterval     time.Duration
	SyncPageLimit    int
	SyncLockTTL      time.Duration
	SchedulerEnabled bool
	WatchConnections bool

	// Analytics sink
	AnalyticsSink        string
	AnalyticsDatabaseURL string
	KafkaBrokers         []string
	KafkaTopic           string
	GCPProjectID         string
}

const (
	SinkSQL   = "sql"
	SinkKafka = "kafka"

	MaxSyncPageLimit = 250
)

// Load reads .env when present, then the process environment
func Load() (*Config, error) {
	godotenv.Load()

	clientSecret := getEnv("SHOPIFY_CLIENT_SECRET", "")
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		AppURL:               strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		MongoURI:             getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:        getEnv("MONGODB_DATABASE", "brandwisp"),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379"),
		EncryptionKey:        getEnv("ENCRYPTION_KEY", ""),
		APIKey:               getEnv("INTEGRATION_API_KEY", ""),
		ShopifyClientID:      getEnv("SHOPIFY_CLIENT_ID", ""),
		ShopifyClientSecret:  clientSecret,
		ShopifyWebhookSecret: getEnv("SHOPIFY_WEBHOOK_SECRET", clientSecret),
		ShopifyAPIVersion:    getEnv("SHOPIFY_API_VERSION", "2024-01"),
		ShopifyScopes:        getEnvAsList("SHOPIFY_SCOPES", []string{"read_products", "read_orders"}),
		ShopifyHTTPTimeout:   getEnvAsDuration("SHOPIFY_HTTP_TIMEOUT", 30*time.Second),
		SyncInterval:         getEnvAsDuration("SYNC_INTERVAL", time.Hour),
		SyncPageLimit:        getEnvAsInt("SYNC_PAGE_LIMIT", 50),
		SyncLockTTL:          getEnvAsDuration("SYNC_LOCK_TTL", 15*time.Minute),
		SchedulerEnabled:     getEnvAsBool("SCHEDULER_ENABLED", true),
		WatchConnections:     getEnvAsBool("WATCH_CONNECTIONS", false),
		AnalyticsSink:        strings.ToLower(getEnv("ANALYTICS_SINK", SinkSQL)),
		AnalyticsDatabaseURL: getEnv("ANALYTICS_DATABASE_URL", "sqlite://analytics.db"),
		KafkaBrokers:         getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "product-events"),
		GCPProjectID:         getEnv("GCP_PROJECT_ID", ""),
	}

	if cfg.SyncPageLimit > MaxSyncPageLimit {
		cfg.SyncPageLimit = MaxSyncPageLimit
	}
	if cfg.SyncPageLimit <= 0 {
		cfg.SyncPageLimit = 50
	}

	return cfg, nil
}

// Validate reports every missing or invalid required key at once
func (c *Config) Validate() error {
	var missing []string
	if c.EncryptionKey == "" {
		missing = append(missing, "ENCRYPTION_KEY")
	}
	if c.APIKey == "" {
		missing = append(missing, "INTEGRATION_API_KEY")
	}
	if c.ShopifyClientID == "" {
		missing = append(missing, "SHOPIFY_CLIENT_ID")
	}
	if c.ShopifyClientSecret == "" {
		missing = append(missing, "SHOPIFY_CLIENT_SECRET")
	}
	if c.MongoDatabase == "" {
		missing = append(missing, "MONGODB_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.AnalyticsSink {
	case SinkSQL:
		if c.AnalyticsDatabaseURL == "" {
			return fmt.Errorf("ANALYTICS_DATABASE_URL is required for the sql analytics sink")
		}
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required for the kafka analytics sink")
		}
	default:
		return fmt.Errorf("unknown ANALYTICS_SINK %q", c.AnalyticsSink)
	}

	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
