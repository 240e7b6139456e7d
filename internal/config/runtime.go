// Package config provides centralized configuration for Pilltick runtime values.
package config

import (
	"os"
	"strconv"
	"time"
)

// RuntimeConfig holds all runtime configuration values that would otherwise
// be scattered as magic values throughout the codebase.
type RuntimeConfig struct {
	// Daemon configuration
	Daemon DaemonConfig

	// Scheduler configuration
	Scheduler SchedulerConfig

	// Snooze configuration
	Snooze SnoozeConfig

	// Acknowledgment flow configuration
	Ack AckConfig

	// Audio alarm configuration
	Audio AudioConfig

	// HTTP client configuration (backing collaborator)
	HTTP HTTPConfig

	// API collaborator configuration
	API APIConfig

	// Storage configuration
	Storage StorageConfig
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	// StartupWait is the time to wait for the daemon to start before checking status.
	// Default: 500ms
	StartupWait time.Duration

	// KillTimeout is the timeout for graceful shutdown before force kill.
	// Default: 5s
	KillTimeout time.Duration
}

// SchedulerConfig holds trigger evaluator configuration.
type SchedulerConfig struct {
	// SleepThreshold is the time gap that indicates the system was sleeping.
	// If elapsed time since the last evaluation pass exceeds this, the pass
	// is skipped rather than replayed.
	// Default: 1h
	SleepThreshold time.Duration
}

// SnoozeConfig holds snooze deferral configuration.
type SnoozeConfig struct {
	// DefaultInterval is the re-fire delay used when a medicine carries no
	// snooze_interval of its own.
	// Default: 5m
	DefaultInterval time.Duration

	// DefaultMaxPerFiring caps snoozes per firing when a medicine carries no
	// snooze_count of its own.
	// Default: 3
	DefaultMaxPerFiring int
}

// AckConfig holds acknowledgment flow configuration.
type AckConfig struct {
	// VerifyTimeout bounds the evidence verification wait. On timeout the
	// session returns to AwaitingEvidence.
	// Default: 20s
	VerifyTimeout time.Duration

	// AlarmRepeatInterval is the period of the audible alarm loop while a
	// session is firing.
	// Default: 3s
	AlarmRepeatInterval time.Duration
}

// AudioConfig holds audio playback configuration.
type AudioConfig struct {
	// Enabled controls whether the audible alarm is played at all.
	// Default: true
	Enabled bool

	// SampleRate is the synthesis sample rate in Hz.
	// Default: 44100
	SampleRate int
}

// HTTPConfig holds HTTP client configuration.
type HTTPConfig struct {
	// Timeout is the default HTTP request timeout.
	// Default: 30s
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries int

	// RetryDelays are the delays between retry attempts.
	// Default: [0s, 5s, 30s]
	RetryDelays []time.Duration
}

// APIConfig holds backing collaborator endpoints.
type APIConfig struct {
	// BaseURL is the base URL of the push/verification collaborator.
	// Default: http://localhost:8000
	BaseURL string
}

// StorageConfig holds storage-related configuration.
type StorageConfig struct {
	// MedicineCacheTTL is how long the cached medicine list stays fresh
	// before the evaluator's rebuild path refetches it.
	// Default: 30s
	MedicineCacheTTL time.Duration
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Daemon: DaemonConfig{
			StartupWait: 500 * time.Millisecond,
			KillTimeout: 5 * time.Second,
		},
		Scheduler: SchedulerConfig{
			SleepThreshold: 1 * time.Hour,
		},
		Snooze: SnoozeConfig{
			DefaultInterval:     5 * time.Minute,
			DefaultMaxPerFiring: 3,
		},
		Ack: AckConfig{
			VerifyTimeout:       20 * time.Second,
			AlarmRepeatInterval: 3 * time.Second,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelays: []time.Duration{
				0,                // Immediate first attempt
				5 * time.Second,  // Retry after 5s
				30 * time.Second, // Retry after 30s
			},
		},
		API: APIConfig{
			BaseURL: "http://localhost:8000",
		},
		Storage: StorageConfig{
			MedicineCacheTTL: 30 * time.Second,
		},
	}
}

// Global holds the global runtime configuration instance.
// It is initialized with defaults and can be overridden via environment variables.
var Global = initGlobal()

// initGlobal initializes the global config with defaults and environment overrides.
func initGlobal() *RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()
	return cfg
}

// loadFromEnv loads configuration overrides from environment variables.
func (c *RuntimeConfig) loadFromEnv() {
	if v := os.Getenv("PILLTICK_DAEMON_STARTUP_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Daemon.StartupWait = d
		}
	}
	if v := os.Getenv("PILLTICK_DAEMON_KILL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Daemon.KillTimeout = d
		}
	}

	if v := os.Getenv("PILLTICK_SLEEP_THRESHOLD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Scheduler.SleepThreshold = d
		}
	}

	if v := os.Getenv("PILLTICK_SNOOZE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Snooze.DefaultInterval = d
		}
	}
	if v := os.Getenv("PILLTICK_SNOOZE_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Snooze.DefaultMaxPerFiring = n
		}
	}

	if v := os.Getenv("PILLTICK_VERIFY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Ack.VerifyTimeout = d
		}
	}
	if v := os.Getenv("PILLTICK_ALARM_REPEAT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Ack.AlarmRepeatInterval = d
		}
	}

	if v := os.Getenv("PILLTICK_AUDIO_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Audio.Enabled = b
		}
	}

	if v := os.Getenv("PILLTICK_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTP.Timeout = d
		}
	}
	if v := os.Getenv("PILLTICK_HTTP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.HTTP.MaxRetries = n
		}
	}

	if v := os.Getenv("PILLTICK_API_URL"); v != "" {
		c.API.BaseURL = v
	}

	if v := os.Getenv("PILLTICK_MEDICINE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Storage.MedicineCacheTTL = d
		}
	}
}
