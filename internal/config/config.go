// Package config 负责从环境变量（可选 .env 文件）加载并校验应用配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置根结构
type Config struct {
	App        AppConfig
	Log        LogConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Trending   TrendingConfig
	ViewLimit  ViewLimitConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Migrations MigrationsConfig
	Storage    StorageConfig
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name            string
	Env             string
	Version         string
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string
	Encoding string
}

// DatabaseConfig MySQL 连接配置
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig 缓存配置
// ListTTL 为商品列表缓存的固定过期时间，ProductTTL 为单个商品缓存的过期时间。
type CacheConfig struct {
	Enabled    bool
	Type       string // redis | memory
	ProductTTL time.Duration
	ListTTL    time.Duration
}

// TrendingConfig 热门榜配置
type TrendingConfig struct {
	Key           string
	TTL           time.Duration
	TopN          int
	RecordTimeout time.Duration
}

// ViewLimitConfig 浏览上报限流配置
type ViewLimitConfig struct {
	Enabled bool
	Rate    int
	Window  time.Duration
}

// JWTConfig 令牌配置
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// MigrationsConfig 数据库迁移配置
type MigrationsConfig struct {
	Dir string
}

// StorageConfig 对象存储配置，用于拼接图片原始地址
type StorageConfig struct {
	BaseURL string
}

// Load 加载配置：先尝试读取 .env，再从环境变量覆盖默认值，最后校验。
func Load() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:            getString("APP_NAME", "cherry-market"),
			Env:             getString("APP_ENV", "dev"),
			Version:         getString("APP_VERSION", "0.1.0"),
			Port:            getInt("APP_PORT", 8080),
			RequestTimeout:  getDuration("APP_REQUEST_TIMEOUT", 5*time.Second),
			ShutdownTimeout: getDuration("APP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Database: DatabaseConfig{
			Host:            getString("DB_HOST", "127.0.0.1"),
			Port:            getInt("DB_PORT", 3306),
			User:            getString("DB_USER", "root"),
			Password:        getString("DB_PASSWORD", ""),
			DBName:          getString("DB_NAME", "cherry_market"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getString("REDIS_HOST", "127.0.0.1"),
			Port:     getInt("REDIS_PORT", 6379),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled:    getBool("CACHE_ENABLED", true),
			Type:       getString("CACHE_TYPE", "redis"),
			ProductTTL: getDuration("CACHE_PRODUCT_TTL", 10*time.Minute),
			ListTTL:    getDuration("CACHE_LIST_TTL", 5*time.Minute),
		},
		Trending: TrendingConfig{
			Key:           getString("TRENDING_KEY", "trending:views:24h"),
			TTL:           getDuration("TRENDING_TTL", 24*time.Hour),
			TopN:          getInt("TRENDING_TOP_N", 10),
			RecordTimeout: getDuration("TRENDING_RECORD_TIMEOUT", 2*time.Second),
		},
		ViewLimit: ViewLimitConfig{
			Enabled: getBool("VIEW_LIMIT_ENABLED", true),
			Rate:    getInt("VIEW_LIMIT_RATE", 5),
			Window:  getDuration("VIEW_LIMIT_WINDOW", time.Minute),
		},
		JWT: JWTConfig{
			Secret:          getString("JWT_SECRET", ""),
			Issuer:          getString("JWT_ISSUER", "cherry-market"),
			AccessTokenTTL:  getDuration("JWT_ACCESS_TOKEN_TTL", 30*time.Minute),
			RefreshTokenTTL: getDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getList("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Request-ID"}),
		},
		Migrations: MigrationsConfig{
			Dir: getString("MIGRATIONS_DIR", "migrations"),
		},
		Storage: StorageConfig{
			BaseURL: getString("STORAGE_BASE_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置的合法性
func (c *Config) Validate() error {
	var errs []error

	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT out of range: %d", c.App.Port))
	}
	switch c.App.Env {
	case "dev", "test", "prod":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be one of dev|test|prod, got %q", c.App.Env))
	}
	if c.App.RequestTimeout <= 0 {
		errs = append(errs, errors.New("APP_REQUEST_TIMEOUT must be positive"))
	}
	if c.Database.DBName == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.Cache.Enabled {
		switch c.Cache.Type {
		case "redis", "memory":
		default:
			errs = append(errs, fmt.Errorf("CACHE_TYPE must be redis or memory, got %q", c.Cache.Type))
		}
		if c.Cache.ListTTL <= 0 {
			errs = append(errs, errors.New("CACHE_LIST_TTL must be positive"))
		}
	}
	if c.Trending.Key == "" {
		errs = append(errs, errors.New("TRENDING_KEY is required"))
	}
	if c.Trending.TTL <= 0 {
		errs = append(errs, errors.New("TRENDING_TTL must be positive"))
	}
	if c.Trending.TopN <= 0 {
		errs = append(errs, errors.New("TRENDING_TOP_N must be positive"))
	}
	if c.ViewLimit.Enabled && (c.ViewLimit.Rate <= 0 || c.ViewLimit.Window <= 0) {
		errs = append(errs, errors.New("VIEW_LIMIT_RATE and VIEW_LIMIT_WINDOW must be positive"))
	}
	if c.App.Env == "prod" && c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in prod"))
	}

	return errors.Join(errs...)
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(key string, def int) int {
	v := getString(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := getString(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getDuration 支持 "5m" 形式，也接受纯数字（按秒计）
func getDuration(key string, def time.Duration) time.Duration {
	v := getString(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func getList(key string, def []string) []string {
	v := getString(key, "")
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
