// Package config loads stepflow settings from TOML or YAML files.
//
// Values not present in a file keep their [Default]. Command-line flags are
// applied on top by the caller. A typical file:
//
//	workers = 5
//	base_duration = 60
//
//	[durations]
//	deploy = 120
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stepflow/pkg/duration"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Run store backends.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// Config holds every setting the CLI and the HTTP server read.
type Config struct {
	// Workers is the default pool size for simulations.
	Workers int `toml:"workers" yaml:"workers"`
	// BaseDuration is added to a single-letter task's alphabet rank.
	BaseDuration int `toml:"base_duration" yaml:"base_duration"`
	// DefaultDuration applies to tasks that are neither listed in Durations
	// nor single letters. Zero leaves them invalid.
	DefaultDuration int `toml:"default_duration" yaml:"default_duration"`
	// Durations overrides individual tasks.
	Durations map[string]int `toml:"durations" yaml:"durations"`

	Input  InputConfig  `toml:"input" yaml:"input"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Store  StoreConfig  `toml:"store" yaml:"store"`
	Server ServerConfig `toml:"server" yaml:"server"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

type InputConfig struct {
	Lenient bool `toml:"lenient" yaml:"lenient"`
}

type CacheConfig struct {
	Backend   string   `toml:"backend" yaml:"backend"`
	Dir       string   `toml:"dir" yaml:"dir"`
	TTL       Duration `toml:"ttl" yaml:"ttl"`
	RedisAddr string   `toml:"redis_addr" yaml:"redis_addr"`
	RedisDB   int      `toml:"redis_db" yaml:"redis_db"`
	// Size bounds the in-memory cache, in entries.
	Size int64 `toml:"size" yaml:"size"`
}

type StoreConfig struct {
	Backend    string `toml:"backend" yaml:"backend"`
	Dir        string `toml:"dir" yaml:"dir"`
	MongoURI   string `toml:"mongo_uri" yaml:"mongo_uri"`
	Database   string `toml:"database" yaml:"database"`
	Collection string `toml:"collection" yaml:"collection"`
}

type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Duration is a time.Duration written as a string like "90s" or "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings: five workers and a 60 tick base,
// a file cache under the user cache directory and a file run store under
// the user config directory.
func Default() *Config {
	return &Config{
		Workers:      5,
		BaseDuration: 60,
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     defaultCacheDir(),
			TTL:     Duration{24 * time.Hour},
			Size:    1 << 12,
		},
		Store: StoreConfig{
			Backend:    StoreFile,
			Dir:        defaultRunDir(),
			Database:   "stepflow",
			Collection: "runs",
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "stepflow")
	}
	return filepath.Join(dir, "stepflow")
}

func defaultRunDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "stepflow", "runs")
	}
	return filepath.Join(dir, "stepflow", "runs")
}

// DurationFunc builds the task duration model described by the config:
// explicit overrides first, then the letter rule, then DefaultDuration.
func (c *Config) DurationFunc() duration.Func {
	letter := duration.Letter(c.BaseDuration)
	fallback := func(task string) int {
		if d := letter(task); d > 0 {
			return d
		}
		return c.DefaultDuration
	}
	return duration.Table(c.Durations, fallback)
}

// MaxBaseDuration keeps letter durations (base + 26 at most) within
// duration.Max.
const MaxBaseDuration = duration.Max - 26

// Validate reports the first invalid setting as an INVALID_CONFIG error.
func (c *Config) Validate() error {
	if err := apperr.ValidateWorkers(c.Workers); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "workers: %s", apperr.UserMessage(err))
	}
	if c.BaseDuration < 0 || c.BaseDuration > MaxBaseDuration {
		return apperr.New(apperr.ErrCodeInvalidConfig, "base_duration must be between 0 and %d, got %d", MaxBaseDuration, c.BaseDuration)
	}
	if c.DefaultDuration < 0 || c.DefaultDuration > duration.Max {
		return apperr.New(apperr.ErrCodeInvalidConfig, "default_duration must be between 0 and %d, got %d", duration.Max, c.DefaultDuration)
	}
	for task, d := range c.Durations {
		if err := apperr.ValidateTaskID(task); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "durations: invalid task %q", task)
		}
		if d <= 0 || d > duration.Max {
			return apperr.New(apperr.ErrCodeInvalidConfig, "durations: task %q must take between 1 and %d ticks, got %d", task, duration.Max, d)
		}
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheFile:
		if c.Cache.Dir == "" {
			return apperr.New(apperr.ErrCodeInvalidConfig, "cache.dir is required for the file backend")
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return apperr.New(apperr.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return apperr.New(apperr.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return apperr.New(apperr.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}

	switch c.Store.Backend {
	case StoreNone, StoreMemory:
	case StoreFile:
		if c.Store.Dir == "" {
			return apperr.New(apperr.ErrCodeInvalidConfig, "store.dir is required for the file backend")
		}
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return apperr.New(apperr.ErrCodeInvalidConfig, "store.mongo_uri is required for the mongo backend")
		}
	default:
		return apperr.New(apperr.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// Load reads the file at path over [Default] and validates the result. The
// format follows the extension: ".toml", ".yaml" or ".yml".
func Load(path string) (*Config, error) {
	if err := apperr.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "read %s", path)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, apperr.New(apperr.ErrCodeUnsupported, "unsupported config format %q", ext)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/stepflow/config.toml (or the
// platform equivalent), or "" if the config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "stepflow", "config.toml")
}

// Discover loads explicit when set. Otherwise it loads [DefaultPath] if that
// file exists and falls back to [Default]. The returned path is the file
// actually read, or "" for built-in defaults.
func Discover(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}
	if p := DefaultPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	return Default(), "", nil
}
