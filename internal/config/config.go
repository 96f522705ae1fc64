// Package config loads the application configuration with viper.
//
// Precedence, lowest first: defaults, the config file, TODOSOA_* environment
// variables (dots become underscores: TODOSOA_STORE_BACKEND), bound flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TODOSOA"

// Backend names accepted by store.backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Host   HostConfig   `mapstructure:"host"`
	Render RenderConfig `mapstructure:"render"`
	Log    LogConfig    `mapstructure:"log"`
	Admin  AdminConfig  `mapstructure:"admin"`
}

// StoreConfig selects the collection and where it lives.
type StoreConfig struct {
	Name          string `mapstructure:"name"`
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys decrypt documents written before a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	// Lock serializes writers across processes with a redis lock.
	Lock bool          `mapstructure:"lock"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// HostConfig tunes the resource host.
type HostConfig struct {
	Domain      string        `mapstructure:"domain"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// RenderConfig points at optional template overrides.
type RenderConfig struct {
	Templates string `mapstructure:"templates"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AdminConfig holds the admin HTTP listener.
type AdminConfig struct {
	Addr string `mapstructure:"addr"`
}

// New returns a viper instance with defaults and environment overrides set.
// Callers may bind flags on it before calling Decode.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("store.name", "todos-hypermedia")
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.path", ".todosoa")
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "todosoa:collection:")
	v.SetDefault("redis.lock", false)
	v.SetDefault("redis.ttl", time.Duration(0))
	v.SetDefault("host.domain", "todo")
	v.SetDefault("host.timeout", 5*time.Second)
	v.SetDefault("host.concurrency", 0)
	v.SetDefault("render.templates", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("admin.addr", ":8080")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges a config file into v. An empty path looks for an optional
// todosoa.yaml in the working directory.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("todosoa")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load is New, ReadFile and Decode in one call.
func Load(path string) (Config, error) {
	v := New()
	if err := ReadFile(v, path); err != nil {
		return Config{}, err
	}
	return Decode(v)
}

// Validate rejects settings no component can honour.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Host.Domain == "" {
		return errors.New("host.domain must not be empty")
	}
	if c.Host.Timeout < 0 {
		return errors.New("host.timeout must not be negative")
	}
	return nil
}
