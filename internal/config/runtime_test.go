package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRuntimeConfig(t *testing.T) {
	cfg := DefaultRuntimeConfig()

	assert.Equal(t, time.Hour, cfg.Scheduler.SleepThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Snooze.DefaultInterval)
	assert.Equal(t, 3, cfg.Snooze.DefaultMaxPerFiring)
	assert.Equal(t, 20*time.Second, cfg.Ack.VerifyTimeout)
	assert.Equal(t, 3*time.Second, cfg.Ack.AlarmRepeatInterval)
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Len(t, cfg.HTTP.RetryDelays, 3)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Storage.MedicineCacheTTL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PILLTICK_SNOOZE_INTERVAL", "90s")
	t.Setenv("PILLTICK_SNOOZE_MAX", "1")
	t.Setenv("PILLTICK_VERIFY_TIMEOUT", "5s")
	t.Setenv("PILLTICK_AUDIO_ENABLED", "false")
	t.Setenv("PILLTICK_API_URL", "https://api.example")

	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()

	assert.Equal(t, 90*time.Second, cfg.Snooze.DefaultInterval)
	assert.Equal(t, 1, cfg.Snooze.DefaultMaxPerFiring)
	assert.Equal(t, 5*time.Second, cfg.Ack.VerifyTimeout)
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, "https://api.example", cfg.API.BaseURL)
}

func TestEnvOverridesIgnoreInvalid(t *testing.T) {
	t.Setenv("PILLTICK_SNOOZE_INTERVAL", "not-a-duration")
	t.Setenv("PILLTICK_SNOOZE_MAX", "-2")

	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()

	assert.Equal(t, 5*time.Minute, cfg.Snooze.DefaultInterval)
	assert.Equal(t, 3, cfg.Snooze.DefaultMaxPerFiring)
}
