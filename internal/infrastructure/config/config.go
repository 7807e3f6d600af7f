package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Session     SessionConfig   `mapstructure:"session"`
	Scene       SceneConfig     `mapstructure:"scene"`
	Static      StaticConfig    `mapstructure:"static"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	// TrustedProxies 允許提供 X-Forwarded-For 的代理（IP 或 CIDR），預設不信任任何代理
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// CatalogConfig 食材目錄來源設定
type CatalogConfig struct {
	Source      string        `mapstructure:"source"` // file 或 http
	DataDir     string        `mapstructure:"data_dir"`
	BaseURL     string        `mapstructure:"base_url"`
	AssetPrefix string        `mapstructure:"asset_prefix"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig Redis 目錄快取配置
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// SessionConfig 工作區會話設定
type SessionConfig struct {
	MaxSessions     int           `mapstructure:"max_sessions"`
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// SceneConfig 場景尺寸
type SceneConfig struct {
	Width    float64 `mapstructure:"width"`
	Height   float64 `mapstructure:"height"`
	BaseSize float64 `mapstructure:"base_size"`
}

// StaticConfig 靜態檔案目錄
type StaticConfig struct {
	ImagesDir string `mapstructure:"images_dir"`
	SoundsDir string `mapstructure:"sounds_dir"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時忽略）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	v.BindEnv("catalog.source", "CATALOG_SOURCE")
	v.BindEnv("catalog.data_dir", "CATALOG_DATA_DIR")
	v.BindEnv("catalog.base_url", "CATALOG_BASE_URL")
	v.BindEnv("server.trusted_proxies", "TRUSTED_PROXIES")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	v.BindEnv("dedup_window", "DEDUP_WINDOW")
	v.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

// decode 解析並驗證設定
func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Default 回傳只含預設值的設定（測試與工具使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "virtual-kitchen")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB
	v.SetDefault("server.trusted_proxies", []string{})

	// 目錄設定
	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.data_dir", "data")
	v.SetDefault("catalog.base_url", "http://localhost:3000")
	v.SetDefault("catalog.asset_prefix", "/images/")
	v.SetDefault("catalog.timeout", "10s")

	// 快取設定
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.key_prefix", "kitchen:catalog")
	v.SetDefault("cache.ttl", "1h")

	// 會話設定
	v.SetDefault("session.max_sessions", 500)
	v.SetDefault("session.idle_ttl", "2h")
	v.SetDefault("session.cleanup_interval", "10m")

	// 場景設定
	v.SetDefault("scene.width", 600)
	v.SetDefault("scene.height", 400)
	v.SetDefault("scene.base_size", 300)

	// 靜態檔案
	v.SetDefault("static.images_dir", "data/images")
	v.SetDefault("static.sounds_dir", "data/sounds")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 300)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}
	for _, p := range config.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("invalid trusted proxy %q", p)
			}
		}
	}

	// 驗證目錄來源
	switch config.Catalog.Source {
	case "file":
		if config.Catalog.DataDir == "" {
			return fmt.Errorf("catalog data dir is required for file source")
		}
	case "http":
		if config.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog base url is required for http source")
		}
	default:
		return fmt.Errorf("unknown catalog source %q", config.Catalog.Source)
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.RedisAddr == "" {
			return fmt.Errorf("redis addr is required when cache is enabled")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	// 驗證會話設定
	if config.Session.MaxSessions <= 0 {
		return fmt.Errorf("invalid max sessions")
	}
	if config.Session.IdleTTL <= 0 || config.Session.CleanupInterval <= 0 {
		return fmt.Errorf("invalid session ttl or cleanup interval")
	}

	// 驗證限流設定
	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit requests or window")
	}

	// 驗證場景設定
	if config.Scene.Width <= 0 || config.Scene.Height <= 0 || config.Scene.BaseSize <= 0 {
		return fmt.Errorf("invalid scene dimensions")
	}

	return nil
}
