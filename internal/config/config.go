// Package config loads the storefront configuration from an optional file
// with STOREFRONT_* environment overrides.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fjod/go_cart/storefront/internal/logger"
)

const EnvPrefix = "STOREFRONT"

type Config struct {
	// Origin scopes every persisted key, like a browser origin scopes localStorage.
	Origin    string         `mapstructure:"origin"`
	ProductID string         `mapstructure:"product_id"`
	HTTP      HTTPConfig     `mapstructure:"http"`
	Storage   StorageConfig  `mapstructure:"storage"`
	Catalog   CatalogConfig  `mapstructure:"catalog"`
	Shipping  ShippingConfig `mapstructure:"shipping"`
	Page      PageConfig     `mapstructure:"page"`
	Kafka     KafkaConfig    `mapstructure:"kafka"`
	Logger    logger.Config  `mapstructure:"logger"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	// memory, redis, sqlite or mongo
	Backend    string `mapstructure:"backend"`
	RedisAddr  string `mapstructure:"redis_addr"`
	SQLitePath string `mapstructure:"sqlite_path"`
	MongoURI   string `mapstructure:"mongo_uri"`
	MongoDB    string `mapstructure:"mongo_db"`
}

type CatalogConfig struct {
	// static or sqlite
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type ShippingConfig struct {
	ViaCEPURL   string        `mapstructure:"viacep_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	// CacheAddr enables the redis address cache when set.
	CacheAddr string        `mapstructure:"cache_addr"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

type PageConfig struct {
	EnableCart         bool          `mapstructure:"enable_cart"`
	SnapshotWindow     time.Duration `mapstructure:"snapshot_window"`
	NotifyLifetime     time.Duration `mapstructure:"notify_lifetime"`
	StrictAvailability bool          `mapstructure:"strict_availability"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

var (
	storageBackends = []string{"memory", "redis", "sqlite", "mongo"}
	catalogBackends = []string{"static", "sqlite"}
)

// Load reads configPath when it is not empty, then applies environment
// overrides such as STOREFRONT_STORAGE_BACKEND=redis.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Origin == "" {
		return fmt.Errorf("origin is required")
	}
	if !slices.Contains(storageBackends, c.Storage.Backend) {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if !slices.Contains(catalogBackends, c.Catalog.Backend) {
		return fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend)
	}
	switch c.Storage.Backend {
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis backend")
		}
	case "mongo":
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for the mongo backend")
		}
	}
	if c.Page.SnapshotWindow <= 0 {
		return fmt.Errorf("invalid snapshot window: %s", c.Page.SnapshotWindow)
	}
	if c.Shipping.Timeout <= 0 {
		return fmt.Errorf("invalid shipping timeout: %s", c.Shipping.Timeout)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("origin", "http://localhost:8080")
	v.SetDefault("product_id", "1")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.request_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.sqlite_path", "storefront.db")
	v.SetDefault("storage.mongo_uri", "")
	v.SetDefault("storage.mongo_db", "storefront")

	v.SetDefault("catalog.backend", "static")
	v.SetDefault("catalog.sqlite_path", "catalog.db")

	v.SetDefault("shipping.viacep_url", "https://viacep.com.br")
	v.SetDefault("shipping.timeout", 5*time.Second)
	v.SetDefault("shipping.max_failures", 5)
	v.SetDefault("shipping.open_timeout", 30*time.Second)
	v.SetDefault("shipping.cache_addr", "")
	v.SetDefault("shipping.cache_ttl", 24*time.Hour)

	v.SetDefault("page.enable_cart", true)
	v.SetDefault("page.snapshot_window", 15*time.Minute)
	v.SetDefault("page.notify_lifetime", 3*time.Second)
	v.SetDefault("page.strict_availability", false)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "storefront-cart-events")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/storefront.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)
}
