package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the root configuration for the state cache and its optional
// collaborators.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Mirror  MirrorConfig  `mapstructure:"mirror"`
}

// LoggingConfig controls the zap logger construction.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`  // debug, info, warn, error, fatal
	Format   string `mapstructure:"format"` // json or text
	Output   string `mapstructure:"output"` // stdout or file
	FilePath string `mapstructure:"file_path"`
}

// CacheConfig controls the in-memory registry.
type CacheConfig struct {
	// MessageLimit bounds the message cache; the oldest message is evicted
	// once the limit is exceeded. Non-positive disables eviction.
	MessageLimit int `mapstructure:"message_limit"`
}

// MirrorConfig controls the optional Redis read-replica of the cache.
type MirrorConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	// BufferSize is the capacity of the change queue between the registry
	// and the mirror writer. When full, records are dropped, never blocked
	// on.
	BufferSize int `mapstructure:"buffer_size"`
}

// LoadConfig reads and unmarshals the configuration file at path, applying
// defaults for anything not set.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("cache.message_limit", 100)
	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.host", "127.0.0.1")
	v.SetDefault("mirror.port", 6379)
	v.SetDefault("mirror.pool_size", 10)
	v.SetDefault("mirror.buffer_size", 1024)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &config, nil
}
