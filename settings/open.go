package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" toml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" toml:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" toml:"prefix" mapstructure:"prefix"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path" mapstructure:"path"`
}

// Config selects and configures a Store backend. An empty Backend means memory.
type Config struct {
	Backend string       `yaml:"backend" toml:"backend" mapstructure:"backend"`
	Redis   RedisConfig  `yaml:"redis" toml:"redis" mapstructure:"redis"`
	SQLite  SQLiteConfig `yaml:"sqlite" toml:"sqlite" mapstructure:"sqlite"`
	Badger  BadgerConfig `yaml:"badger" toml:"badger" mapstructure:"badger"`
}

// Open builds the store described by cfg. The memory backend returns the
// process-wide Shared store so adapters without an explicit store see it too.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return Shared(), nil
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("settings: redis addr is required")
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("settings: redis ping %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStore(rdb, cfg.Redis.Prefix), nil
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLite.Path)
	case BackendBadger:
		return OpenBadger(cfg.Badger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
