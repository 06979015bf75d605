// Package config loads service configuration. Sources are applied in
// order: built-in defaults, an optional YAML file, a .env file, then the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cefrkit/placement/internal/llm"
	"github.com/cefrkit/placement/internal/speaking"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	LLM       llm.Config      `yaml:"llm"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Retention RetentionConfig `yaml:"retention"`
	Speech    SpeechConfig    `yaml:"speech"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

// DatabaseConfig selects the SQL store. A postgres:// URL uses Postgres;
// anything else is a SQLite path. Empty means the default SQLite file.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig enables the Redis session repository when URL is set.
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// AuthConfig holds token and seed-user settings.
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	SeedUsername string        `yaml:"seed_username"`
	SeedPassword string        `yaml:"seed_password"`
}

// SessionsConfig holds session lifecycle settings.
type SessionsConfig struct {
	// IdleTTL is how long an untouched session survives.
	IdleTTL    time.Duration `yaml:"idle_ttl"`
	SweepEvery time.Duration `yaml:"sweep_every"`
	// PrefetchDepth is the vocabulary items kept ready per level; 0
	// disables prefetch.
	PrefetchDepth int `yaml:"prefetch_depth"`
}

// RetentionConfig holds the purge schedule for stored results.
type RetentionConfig struct {
	MaxAge time.Duration `yaml:"max_age"`
	Every  time.Duration `yaml:"every"`
}

// SpeechConfig enables pronunciation scoring through Google Speech.
type SpeechConfig struct {
	Enabled               bool `yaml:"enabled"`
	speaking.SpeechConfig `yaml:",inline"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Mode  string `yaml:"mode"` // "dev" or "prod"
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   3 * time.Minute,
			RequestTimeout: 150 * time.Second,
			CORSOrigins:    []string{"*"},
		},
		Redis: RedisConfig{KeyPrefix: "placement:session:"},
		Auth: AuthConfig{
			TokenTTL: 120 * time.Minute,
		},
		LLM: llm.DefaultConfig(),
		Sessions: SessionsConfig{
			IdleTTL:       2 * time.Hour,
			SweepEvery:    10 * time.Minute,
			PrefetchDepth: 2,
		},
		Retention: RetentionConfig{
			MaxAge: 7 * 24 * time.Hour,
			Every:  time.Hour,
		},
		Log: LogConfig{Mode: "dev", Level: "info"},
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// PLACEMENT_CONFIG is consulted, and no file is read if both are empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PLACEMENT_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setStr(&cfg.Server.Addr, "PLACEMENT_ADDR")
	if v := os.Getenv("PLACEMENT_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	setStr(&cfg.Database.URL, "PLACEMENT_DATABASE_URL", "DATABASE_URL")
	setStr(&cfg.Redis.URL, "PLACEMENT_REDIS_URL", "REDIS_URL")

	setStr(&cfg.Auth.JWTSecret, "PLACEMENT_JWT_SECRET", "JWT_SECRET_KEY")
	setStr(&cfg.Auth.SeedUsername, "SEED_USERNAME")
	setStr(&cfg.Auth.SeedPassword, "SEED_PASSWORD")
	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		cfg.Auth.TokenTTL = time.Duration(n) * time.Minute
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&cfg.Sessions.IdleTTL, "PLACEMENT_SESSION_IDLE_TTL"},
		{&cfg.Sessions.SweepEvery, "PLACEMENT_SESSION_SWEEP_EVERY"},
		{&cfg.Retention.MaxAge, "PLACEMENT_RETENTION_MAX_AGE"},
		{&cfg.Retention.Every, "PLACEMENT_RETENTION_EVERY"},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}
	if v := os.Getenv("PLACEMENT_PREFETCH_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PLACEMENT_PREFETCH_DEPTH: %w", err)
		}
		cfg.Sessions.PrefetchDepth = n
	}

	if v := os.Getenv("PLACEMENT_SPEECH_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PLACEMENT_SPEECH_ENABLED: %w", err)
		}
		cfg.Speech.Enabled = b
	}
	setStr(&cfg.Speech.LanguageCode, "PLACEMENT_SPEECH_LANGUAGE")

	setStr(&cfg.Log.Mode, "PLACEMENT_LOG_MODE")
	setStr(&cfg.Log.Level, "PLACEMENT_LOG_LEVEL")

	llm.ApplyEnv(&cfg.LLM)
	return nil
}

// Validate checks settings the server cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server address is empty")
	case c.Auth.JWTSecret == "":
		return errors.New("JWT_SECRET_KEY is required")
	case c.Sessions.IdleTTL <= 0:
		return errors.New("sessions.idle_ttl must be positive")
	case c.Sessions.SweepEvery <= 0:
		return errors.New("sessions.sweep_every must be positive")
	case c.Retention.MaxAge <= 0 || c.Retention.Every <= 0:
		return errors.New("retention max_age and every must be positive")
	case c.Sessions.PrefetchDepth < 0:
		return errors.New("sessions.prefetch_depth must not be negative")
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

func setStr(dst *string, keys ...string) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
			return
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
