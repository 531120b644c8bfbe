package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "quill.yaml"

// Config is the full runtime configuration shared by every command.
type Config struct {
	Log      LogConfig     `yaml:"log"`
	Relay    RelayConfig   `yaml:"relay"`
	Host     HostConfig    `yaml:"host"`
	Batch    BatchConfig   `yaml:"batch"`
	Text     TextConfig    `yaml:"text"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Redis    RedisConfig   `yaml:"redis"`
	Session  SessionConfig `yaml:"session"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RelayConfig locates the websocket relay and the channel both peers join.
type RelayConfig struct {
	Addr    string `yaml:"addr"`
	URL     string `yaml:"url"`
	Channel string `yaml:"channel"`
}

type HostConfig struct {
	Addr          string            `yaml:"addr"`
	Document      string            `yaml:"document"`
	MaxInFlight   int               `yaml:"max_in_flight"`
	Fonts         []domain.FontName `yaml:"fonts"`
	FontLoadDelay time.Duration     `yaml:"font_load_delay"`
	ServeRelay    bool              `yaml:"serve_relay"`
}

// BatchConfig holds chunking parameters. The pauses are cooperative yields between
// chunks and were tuned empirically, so they stay configurable.
type BatchConfig struct {
	ChunkSize     int           `yaml:"chunk_size"`
	ChunkPause    time.Duration `yaml:"chunk_pause"`
	ScanChunkSize int           `yaml:"scan_chunk_size"`
	ScanPause     time.Duration `yaml:"scan_pause"`
}

type TextConfig struct {
	Strategy     string          `yaml:"strategy"`
	FallbackFont domain.FontName `yaml:"fallback_font"`
}

// TimeoutConfig holds the caller-side ceilings per operation weight.
type TimeoutConfig struct {
	Light time.Duration `yaml:"light"`
	Text  time.Duration `yaml:"text"`
	Batch time.Duration `yaml:"batch"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// SessionConfig controls agent session ownership and how sessions are stored.
// EncryptionKey is a base64 AES-256 key sealing relay URLs at rest. Redact
// lists query parameter name patterns masked before storing.
type SessionConfig struct {
	ID            string        `yaml:"id"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
	EncryptionKey string        `yaml:"encryption_key"`
	Redact        []string      `yaml:"redact"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Relay: RelayConfig{
			Addr:    ":3055",
			URL:     "ws://localhost:3055/ws",
			Channel: "quill",
		},
		Host: HostConfig{
			Addr:        ":8080",
			MaxInFlight: 8,
			Fonts: []domain.FontName{
				domain.DefaultFallbackFont,
				{Family: "Inter", Style: "Bold"},
				{Family: "Inter", Style: "Italic"},
				{Family: "Roboto", Style: "Regular"},
				{Family: "Roboto", Style: "Bold"},
			},
		},
		Batch: BatchConfig{
			ChunkSize:     5,
			ChunkPause:    time.Second,
			ScanChunkSize: 10,
			ScanPause:     50 * time.Millisecond,
		},
		Text: TextConfig{
			Strategy:     "first",
			FallbackFont: domain.DefaultFallbackFont,
		},
		Timeouts: TimeoutConfig{
			Light: 10 * time.Second,
			Text:  30 * time.Second,
			Batch: 60 * time.Second,
		},
		Redis: RedisConfig{
			Prefix: "quill:",
		},
		Session: SessionConfig{
			ID:      "default",
			LockTTL: 30 * time.Second,
		},
	}
}

// Load reads path (or DefaultFile when empty and present) over the defaults,
// then applies QUILL_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file, defaults apply
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Log.Level = envOr("QUILL_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("QUILL_LOG_FORMAT", c.Log.Format)
	c.Relay.Addr = envOr("QUILL_RELAY_ADDR", c.Relay.Addr)
	c.Relay.URL = envOr("QUILL_RELAY_URL", c.Relay.URL)
	c.Relay.Channel = envOr("QUILL_CHANNEL", c.Relay.Channel)
	c.Host.Addr = envOr("QUILL_HOST_ADDR", c.Host.Addr)
	c.Host.Document = envOr("QUILL_DOCUMENT", c.Host.Document)
	c.Batch.ChunkSize = envInt("QUILL_CHUNK_SIZE", c.Batch.ChunkSize)
	c.Batch.ChunkPause = envDuration("QUILL_CHUNK_PAUSE", c.Batch.ChunkPause)
	c.Text.Strategy = envOr("QUILL_STRATEGY", c.Text.Strategy)
	c.Redis.Addr = envOr("QUILL_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envOr("QUILL_REDIS_PASSWORD", c.Redis.Password)
	c.Session.ID = envOr("QUILL_SESSION", c.Session.ID)
	c.Session.EncryptionKey = envOr("QUILL_SESSION_KEY", c.Session.EncryptionKey)
}

func (c *Config) normalize() {
	d := Default()
	if c.Batch.ChunkSize <= 0 {
		c.Batch.ChunkSize = d.Batch.ChunkSize
	}
	if c.Batch.ScanChunkSize <= 0 {
		c.Batch.ScanChunkSize = d.Batch.ScanChunkSize
	}
	if c.Batch.ChunkPause < 0 {
		c.Batch.ChunkPause = 0
	}
	if c.Batch.ScanPause < 0 {
		c.Batch.ScanPause = 0
	}
	if c.Host.MaxInFlight <= 0 {
		c.Host.MaxInFlight = d.Host.MaxInFlight
	}
	if c.Text.FallbackFont.IsZero() {
		c.Text.FallbackFont = d.Text.FallbackFont
	}
	if c.Timeouts.Light <= 0 {
		c.Timeouts.Light = d.Timeouts.Light
	}
	if c.Timeouts.Text <= 0 {
		c.Timeouts.Text = d.Timeouts.Text
	}
	if c.Timeouts.Batch <= 0 {
		c.Timeouts.Batch = d.Timeouts.Batch
	}
	if c.Session.LockTTL <= 0 {
		c.Session.LockTTL = d.Session.LockTTL
	}
}

// Validate rejects configurations that cannot work.
func (c Config) Validate() error {
	if c.Relay.Channel == "" {
		return fmt.Errorf("relay.channel is required")
	}
	for _, p := range c.Session.Redact {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid session.redact pattern %q: %w", p, err)
		}
	}
	switch c.Text.Strategy {
	case "", "first", "prevail", "strict", "smart", "experimental":
	default:
		return fmt.Errorf("unknown text strategy %q", c.Text.Strategy)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
