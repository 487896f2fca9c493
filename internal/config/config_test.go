package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_CLIENT_SECRET", "shh")
	t.Setenv("SHOPIFY_WEBHOOK_SECRET", "")
	t.Setenv("SYNC_INTERVAL", "")
	t.Setenv("SYNC_PAGE_LIMIT", "")
	t.Setenv("SHOPIFY_SCOPES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "shh", cfg.ShopifyWebhookSecret)
	assert.Equal(t, time.Hour, cfg.SyncInterval)
	assert.Equal(t, 50, cfg.SyncPageLimit)
	assert.Equal(t, []string{"read_products", "read_orders"}, cfg.ShopifyScopes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYNC_PAGE_LIMIT", "1000")
	t.Setenv("SYNC_INTERVAL", "15m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("APP_URL", "https://sync.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MaxSyncPageLimit, cfg.SyncPageLimit)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, "https://sync.example.com", cfg.AppURL)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		MongoDatabase:        "brandwisp",
		AnalyticsSink:        SinkSQL,
		AnalyticsDatabaseURL: "sqlite://x.db",
		SyncInterval:         time.Hour,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPTION_KEY")
	assert.Contains(t, err.Error(), "SHOPIFY_CLIENT_ID")
	assert.Contains(t, err.Error(), "INTEGRATION_API_KEY")

	cfg.EncryptionKey = "k"
	cfg.APIKey = "integration-key"
	cfg.ShopifyClientID = "id"
	cfg.ShopifyClientSecret = "secret"
	require.NoError(t, cfg.Validate())

	cfg.AnalyticsSink = "bigquery"
	assert.Error(t, cfg.Validate())
}
