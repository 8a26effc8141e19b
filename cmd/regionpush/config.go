package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cyberinferno/regionpush/region"
	"github.com/cyberinferno/regionpush/session"
)

const (
	statsNone   = "none"
	statsMemory = "memory"
	statsRedis  = "redis"
)

// serveConfig is the runtime configuration of the serve command.
type serveConfig struct {
	ListenAddr   string
	LogLevel     string
	LogDir       string
	LogJSON      bool
	Session      session.Config
	Limits       region.Limits
	SnapshotPath string

	StatsBackend   string
	StatsTTL       time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

func defaultServeConfig() serveConfig {
	return serveConfig{
		ListenAddr:   ":80",
		LogLevel:     "info",
		Session:      session.DefaultConfig(),
		Limits:       region.DefaultLimits(),
		StatsBackend: statsNone,
		StatsTTL:     24 * time.Hour,
		RedisAddr:    "localhost:6379",
	}
}

// config.toml key mapping to serve settings.
type fileConfig struct {
	ListenAddr     string `toml:"listen_addr"`
	LogLevel       string `toml:"log_level"`
	LogDir         string `toml:"log_dir"`
	LogJSON        bool   `toml:"log_json"`
	AcceptWait     string `toml:"accept_wait"`
	ReadTimeout    string `toml:"read_timeout"`
	DrainTimeout   string `toml:"drain_timeout"`
	MaxRegions     int    `toml:"max_regions"`
	DisplayWidth   int    `toml:"display_width"`
	DisplayHeight  int    `toml:"display_height"`
	MaxChunk       int    `toml:"max_chunk"`
	SnapshotPath   string `toml:"snapshot_path"`
	StatsBackend   string `toml:"stats_backend"`
	StatsTTL       string `toml:"stats_ttl"`
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	RedisKeyPrefix string `toml:"redis_key_prefix"`
}

// loadServeConfig overlays the keys present in the TOML file at path onto
// the defaults. An empty path returns the defaults.
func loadServeConfig(path string) (serveConfig, error) {
	cfg := defaultServeConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.validate()
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serveConfig{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return serveConfig{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_dir") {
		cfg.LogDir = strings.TrimSpace(raw.LogDir)
	}
	if meta.IsDefined("log_json") {
		cfg.LogJSON = raw.LogJSON
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"accept_wait", raw.AcceptWait, &cfg.Session.AcceptWait},
		{"read_timeout", raw.ReadTimeout, &cfg.Session.ReadTimeout},
		{"drain_timeout", raw.DrainTimeout, &cfg.Session.DrainTimeout},
		{"stats_ttl", raw.StatsTTL, &cfg.StatsTTL},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return serveConfig{}, fmt.Errorf("load config: %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if meta.IsDefined("max_regions") {
		cfg.Session.MaxRegions = raw.MaxRegions
	}
	if meta.IsDefined("display_width") {
		cfg.Limits.DisplayWidth = raw.DisplayWidth
	}
	if meta.IsDefined("display_height") {
		cfg.Limits.DisplayHeight = raw.DisplayHeight
	}
	if meta.IsDefined("max_chunk") {
		cfg.Limits.MaxChunk = raw.MaxChunk
	}
	if meta.IsDefined("snapshot_path") {
		cfg.SnapshotPath = strings.TrimSpace(raw.SnapshotPath)
	}
	if meta.IsDefined("stats_backend") {
		cfg.StatsBackend = strings.ToLower(strings.TrimSpace(raw.StatsBackend))
	}
	if meta.IsDefined("redis_addr") {
		cfg.RedisAddr = strings.TrimSpace(raw.RedisAddr)
	}
	if meta.IsDefined("redis_password") {
		cfg.RedisPassword = raw.RedisPassword
	}
	if meta.IsDefined("redis_db") {
		cfg.RedisDB = raw.RedisDB
	}
	if meta.IsDefined("redis_key_prefix") {
		cfg.RedisKeyPrefix = strings.TrimSpace(raw.RedisKeyPrefix)
	}

	if err := cfg.validate(); err != nil {
		return serveConfig{}, err
	}
	return cfg, nil
}

func (c serveConfig) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("load config: listen_addr is required")
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	switch c.StatsBackend {
	case statsNone, statsMemory:
	case statsRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("load config: redis_addr is required when stats_backend=redis")
		}
	default:
		return fmt.Errorf("load config: unsupported stats_backend %q (expected none, memory or redis)", c.StatsBackend)
	}
	return nil
}
