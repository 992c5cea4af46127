// Package config loads rillweb settings from flags, environment and an optional file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/rillweb/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. RILLWEB_RUNTIME_URL.
const EnvPrefix = "RILLWEB"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the resolved application configuration.
type Config struct {
	RuntimeURL     string        `mapstructure:"runtime_url"`
	InstanceID     string        `mapstructure:"instance_id"`
	Listen         string        `mapstructure:"listen"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Cache          CacheConfig   `mapstructure:"cache"`
	Queue          QueueConfig   `mapstructure:"queue"`
}

// CacheConfig selects the query cache backend.
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	Password  string        `mapstructure:"redis_password"`
	DB        int           `mapstructure:"redis_db"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`

	// EncryptionKey is a base64 AES-256 key sealing cached values at rest.
	EncryptionKey string   `mapstructure:"encryption_key"`
	PreviousKeys  []string `mapstructure:"previous_keys"`
}

// QueueConfig sizes the runtime request queue.
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("runtime_url", "http://localhost:9009")
	v.SetDefault("instance_id", "default")
	v.SetDefault("listen", "localhost:9010")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", string(logging.FormatText))
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.prefix", "rillweb:query:")
	v.SetDefault("cache.ttl", time.Duration(0))
	v.SetDefault("cache.encryption_key", "")
	v.SetDefault("cache.previous_keys", []string{})
	v.SetDefault("queue.workers", 4)
}

// New creates a viper instance reading RILLWEB_* variables.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// FlagKeys maps command line flags to config keys.
var FlagKeys = map[string]string{
	"runtime-url":     "runtime_url",
	"instance-id":     "instance_id",
	"listen":          "listen",
	"log-level":       "log_level",
	"log-format":      "log_format",
	"request-timeout": "request_timeout",
	"cache-backend":   "cache.backend",
	"redis-addr":      "cache.redis_addr",
	"cache-prefix":    "cache.prefix",
	"cache-ttl":       "cache.ttl",
	"queue-workers":   "queue.workers",
}

// Load reads the optional config file at path, binds the flags named in
// FlagKeys and resolves the Config. Precedence: flag, env, file, default.
func Load(v *viper.Viper, path string, flags *pflag.FlagSet) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key, ok := FlagKeys[f.Name]
			if !ok {
				return
			}
			if err := v.BindPFlag(key, f); err != nil {
				bindErr = errors.Join(bindErr, err)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that have no usable fallback.
func (c *Config) Validate() error {
	var errs error
	if c.RuntimeURL == "" {
		errs = errors.Join(errs, errors.New("runtime_url is required"))
	}
	if c.InstanceID == "" {
		errs = errors.Join(errs, errors.New("instance_id is required"))
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if _, _, err := c.Cache.Keys(); err != nil {
		errs = errors.Join(errs, err)
	}
	if c.Queue.Workers < 1 {
		errs = errors.Join(errs, fmt.Errorf("queue.workers must be positive, got %d", c.Queue.Workers))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() slog.Level {
	l, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// Keys decodes the cache encryption keys. A nil active key disables encryption.
func (c CacheConfig) Keys() (active []byte, previous [][]byte, err error) {
	if c.EncryptionKey == "" {
		return nil, nil, nil
	}
	decode := func(name, s string) ([]byte, error) {
		k, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%s is not base64: %w", name, err)
		}
		if len(k) != 32 {
			return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(k))
		}
		return k, nil
	}
	if active, err = decode("cache.encryption_key", c.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for i, s := range c.PreviousKeys {
		k, err := decode(fmt.Sprintf("cache.previous_keys[%d]", i), s)
		if err != nil {
			return nil, nil, err
		}
		previous = append(previous, k)
	}
	return active, previous, nil
}
