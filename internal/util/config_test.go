package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "development", config.Environment)
	assert.True(t, config.IsDevelopment())
	assert.Equal(t, "0.0.0.0:8080", config.HTTPServerAddress)
	assert.Equal(t, "pa.rxthdr.com/v3", config.EventServer)
	assert.Equal(t, "pa.rxthdr.com/v3", config.ConfigServer)
	assert.Equal(t, "https", config.DeliveryScheme)
	assert.Equal(t, DeliveryModeDirect, config.DeliveryMode)
	assert.Equal(t, 5*time.Second, config.DeliveryTimeout)
	assert.Equal(t, time.Second, config.FlushDelay)
	assert.Equal(t, time.Hour, config.AuctionTTL)
	assert.Equal(t, 10000, config.MaxQueueSize)
	assert.Equal(t, 30*time.Minute, config.SessionIdleTimeout)
	assert.Equal(t, time.Minute, config.SessionSweepInterval)
	assert.Equal(t, 24*time.Hour, config.VisitorTTL)
	assert.Empty(t, config.APIToken)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeEnvFile(t, `ENVIRONMENT=production
EVENT_SERVER=collector.internal/v3
DELIVERY_MODE=queue
FLUSH_DELAY=250ms
MAX_QUEUE_SIZE=50
`)
	t.Setenv("MAX_QUEUE_SIZE", "75")
	t.Setenv("API_TOKEN", "secret")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.False(t, config.IsDevelopment())
	assert.Equal(t, "collector.internal/v3", config.EventServer)
	assert.Equal(t, DeliveryModeQueue, config.DeliveryMode)
	assert.Equal(t, 250*time.Millisecond, config.FlushDelay)
	assert.Equal(t, 75, config.MaxQueueSize, "environment wins over the file")
	assert.Equal(t, "secret", config.APIToken)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown delivery mode", "DELIVERY_MODE=carrier-pigeon\n"},
		{"bad scheme", "DELIVERY_SCHEME=ftp\n"},
		{"negative queue size", "MAX_QUEUE_SIZE=-1\n"},
		{"zero flush delay", "FLUSH_DELAY=0s\n"},
		{"unknown key", "UNKNOWN_KEY=1\n"},
		{"visitor ttl within the utm window", "VISITOR_TTL=30m\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeEnvFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}
