// config предоставляет структуру конфигурации catchup-сервиса
// и функции загрузки из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы локального хранилища.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env      string        `yaml:"env"     env:"ENV"        env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	GRPC     GRPCConfig    `yaml:"grpc"`
	Storage  StorageConfig `yaml:"storage"`
	Cache    CacheConfig   `yaml:"cache"`
	Sources  SourcesConfig `yaml:"sources"`
	Limits   LimitsConfig  `yaml:"limits"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Warmup   WarmupConfig  `yaml:"warmup"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	// Service — дедлайн обработки одного HTTP-запроса.
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
	// Upstream — таймаут HTTP-клиента источников.
	Upstream time.Duration `yaml:"upstream" env:"UPSTREAM_TIMEOUT" env-default:"10s"`
}

// GRPCConfig — сетевые настройки gRPC-сервера (health-проверки).
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50053"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// Addr возвращает адрес в формате host:port.
func (g HTTPConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// StorageConfig — выбор и настройки локального хранилища.
type StorageConfig struct {
	Driver      string        `yaml:"driver"       env:"STORAGE_DRIVER" env-default:"memory"`
	PostgresURL string        `yaml:"postgres_url" env:"DATABASE_URL"`
	RedisURL    string        `yaml:"redis_url"    env:"REDIS_URL"`
	RedisPrefix string        `yaml:"redis_prefix" env:"REDIS_PREFIX"   env-default:"catchup:"`
	RedisTTL    time.Duration `yaml:"redis_ttl"    env:"REDIS_TTL"      env-default:"168h"`
	MemorySize  int           `yaml:"memory_size"  env:"MEMORY_SIZE"    env-default:"10000"`
}

// CacheConfig — параметры постраничного кэша.
type CacheConfig struct {
	// Expiration — срок годности страницы 0 после загрузки.
	Expiration time.Duration `yaml:"expiration" env:"CACHE_EXPIRATION" env-default:"2h"`
}

// SourcesConfig — удалённые источники лент.
type SourcesConfig struct {
	PageSize      int     `yaml:"page_size"       env:"PAGE_SIZE"       env-default:"25"`
	MaxConcurrent int     `yaml:"max_concurrent"  env:"MAX_CONCURRENT"  env-default:"8"`
	RatePerSecond float64 `yaml:"rate_per_second" env:"RATE_PER_SECOND" env-default:"10"`

	HackerNews HackerNewsConfig `yaml:"hackernews"`
	// RSS задаётся только в YAML.
	RSS []RSSFeedConfig `yaml:"rss"`
}

// HackerNewsConfig — источник Hacker News.
type HackerNewsConfig struct {
	Enabled bool   `yaml:"enabled"  env:"HN_ENABLED"  env-default:"true"`
	BaseURL string `yaml:"base_url" env:"HN_BASE_URL" env-default:"https://hacker-news.firebaseio.com/v0/"`
}

// RSSFeedConfig — одна RSS/Atom-лента; Type — имя сервиса в API.
type RSSFeedConfig struct {
	Type string `yaml:"type"`
	URL  string `yaml:"url"`
}

// LimitsConfig — серверные лимиты на выдачу.
type LimitsConfig struct {
	// Верхняя граница номера страницы (в том числе для multipage).
	MaxPage int `yaml:"max_page" env:"MAX_PAGE" env-default:"20"`
}

// WarmupConfig — фоновое обновление страницы 0; 0 — выключено.
type WarmupConfig struct {
	Interval time.Duration `yaml:"interval" env:"WARMUP_INTERVAL" env-default:"0s"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", p)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		c, err := tryRead(path)
		if err != nil {
			return nil, err
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return c, nil
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		c, err := tryRead(envPath)
		if err != nil {
			return nil, err
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return c, nil
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required for driver %q", DriverRedis)
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("storage.postgres_url is required for driver %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, redis, postgres: got %q", c.Storage.Driver)
	}

	if c.Cache.Expiration <= 0 {
		return fmt.Errorf("cache.expiration must be > 0")
	}
	if c.Sources.PageSize <= 0 {
		return fmt.Errorf("sources.page_size must be > 0")
	}
	if c.Sources.MaxConcurrent <= 0 {
		return fmt.Errorf("sources.max_concurrent must be > 0")
	}
	if c.Sources.RatePerSecond < 0 {
		return fmt.Errorf("sources.rate_per_second must be >= 0")
	}
	if c.Limits.MaxPage < 0 {
		return fmt.Errorf("limits.max_page must be >= 0")
	}
	if c.Warmup.Interval != 0 && c.Warmup.Interval < 10*time.Second {
		return fmt.Errorf("warmup.interval must be 0 or at least 10s")
	}

	if !c.Sources.HackerNews.Enabled && len(c.Sources.RSS) == 0 {
		return fmt.Errorf("sources: at least one source must be configured")
	}

	seen := make(map[string]struct{}, len(c.Sources.RSS)+1)
	if c.Sources.HackerNews.Enabled {
		if err := validateURL(c.Sources.HackerNews.BaseURL); err != nil {
			return fmt.Errorf("sources.hackernews.base_url: %w", err)
		}
		seen["hackernews"] = struct{}{}
	}

	for i, f := range c.Sources.RSS {
		if f.Type == "" {
			return fmt.Errorf("sources.rss[%d].type is required", i)
		}
		if _, dup := seen[f.Type]; dup {
			return fmt.Errorf("sources.rss[%d].type %q is duplicated", i, f.Type)
		}
		seen[f.Type] = struct{}{}

		if err := validateURL(f.URL); err != nil {
			return fmt.Errorf("sources.rss[%d].url: %w", i, err)
		}
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL: %q", raw)
	}
	return nil
}
