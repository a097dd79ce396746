// ytparser/config/config_test.go
package config_test // Use an external test package

import (
	"testing"
	"time"

	"ytparser/config" // Import the package we are testing

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads default values correctly", func(t *testing.T) {
		// Ensure no env vars are lingering from other tests
		t.Setenv("YTPARSER_PORT", "")
		t.Setenv("YTPARSER_MAX_CONCURRENCY", "")
		t.Setenv("YTPARSER_AUTH_ENABLE", "")
		t.Setenv("YTPARSER_TASK_TTL", "")
		t.Setenv("YTPARSER_MAX_SUBTITLE_SIZE", "")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "8000", cfg.Port)
		assert.Equal(t, 3, cfg.MaxConcurrency)
		assert.Equal(t, false, cfg.AuthEnable)
		assert.Equal(t, "yt-dlp", cfg.YTDLPBin)
		assert.Equal(t, time.Hour, cfg.TaskTTL)
		assert.Equal(t, 10*time.Minute, cfg.ExtractTimeout)
		assert.Equal(t, int64(10*1024*1024), cfg.MaxSubtitleSize)
		assert.Equal(t, "", cfg.RedisAddr)
	})

	t.Run("overrides defaults with environment variables", func(t *testing.T) {
		t.Setenv("YTPARSER_PORT", "9999")
		t.Setenv("YTPARSER_MAX_CONCURRENCY", "10")
		t.Setenv("YTPARSER_AUTH_ENABLE", "true")
		t.Setenv("YTPARSER_AUTH_KEY", "newsecret")
		t.Setenv("YTPARSER_MAX_SUBTITLE_SIZE", "50MB")
		t.Setenv("YTPARSER_TASK_TTL", "90m")
		t.Setenv("YTPARSER_REDIS_ADDR", "localhost:6379")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, 10, cfg.MaxConcurrency)
		assert.Equal(t, true, cfg.AuthEnable)
		assert.Equal(t, "newsecret", cfg.AuthKey)
		assert.Equal(t, int64(50*1024*1024), cfg.MaxSubtitleSize)
		assert.Equal(t, 90*time.Minute, cfg.TaskTTL)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	})
}
