package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SHIPSTATION_API_KEY", "key")
	t.Setenv("SHIPSTATION_API_SECRET", "secret")
	t.Setenv("FTP_HOST", "sftp.example.com")
	t.Setenv("FTP_USER", "user")
	t.Setenv("FTP_PASS", "pass")
	t.Setenv("FTP_BASE_DIR", "/exports")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://ssapi.shipstation.com", cfg.APIBaseURL)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, "awaiting_shipment", cfg.Status)
	assert.Equal(t, 4, cfg.FetchRetries)
	assert.Equal(t, 22, cfg.SFTPPort)
	assert.Equal(t, 3, cfg.DeliveryRetries)
	assert.Equal(t, 5*time.Second, cfg.DeliveryDelay)
	assert.True(t, cfg.AtomicDelivery)
	assert.Equal(t, "audit", cfg.Schema)
	assert.Equal(t, "XTREME", cfg.JobPrefix)
	assert.Equal(t, time.Hour, cfg.StoreCacheTTL)

	require.Len(t, cfg.Tags, 2)
	assert.Equal(t, Tag{ID: "56240", Label: "golf"}, cfg.Tags[0])
	assert.Equal(t, Tag{ID: "56239", Label: "cabinet"}, cfg.Tags[1])
}

func TestFromEnv_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("SHIPSTATION_API_KEY", "")
	t.Setenv("FTP_PASS", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.ErrorContains(t, err, "SHIPSTATION_API_KEY")
	assert.ErrorContains(t, err, "FTP_PASS")
}

func TestFromEnv_TagOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("EXPORT_TAGS", "111:alpha, 222 ,333:gamma")

	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Len(t, cfg.Tags, 3)
	assert.Equal(t, Tag{ID: "111", Label: "alpha"}, cfg.Tags[0])
	assert.Equal(t, Tag{ID: "222", Label: ""}, cfg.Tags[1])
	assert.Equal(t, Tag{ID: "333", Label: "gamma"}, cfg.Tags[2])
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("DELIVERY_DELAY", "30s")
	t.Setenv("ATOMIC_DELIVERY", "false")
	t.Setenv("EXPORT_SCHEMA", "partner")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 30*time.Second, cfg.DeliveryDelay)
	assert.False(t, cfg.AtomicDelivery)
	assert.Equal(t, "partner", cfg.Schema)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestFromEnv_BadNumericFallsBackToDefault(t *testing.T) {
	setRequired(t)
	t.Setenv("PAGE_SIZE", "lots")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.PageSize)
}
