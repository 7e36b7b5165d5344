package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the console.
type Config struct {
	App     AppConfig
	Backend BackendConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Logger  LoggerConfig
	Auth    AuthConfig
	Search  SearchConfig
	Notices NoticeConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	PublicTickets         bool
}

// BackendConfig points at the helpdesk REST backend.
type BackendConfig struct {
	BaseURL        string
	TimeoutSeconds int
	UserAgent      string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// CacheConfig selects the server-state cache backend.
type CacheConfig struct {
	Driver     string
	TTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session token verification parameters.
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
}

// SearchConfig tunes ticket search.
type SearchConfig struct {
	DebounceMillis int
	PageSize       int
}

// NoticeConfig bounds the per-user notice feed.
type NoticeConfig struct {
	FeedSize      int
	MaxAgeMinutes int
	SweepSeconds  int
}

const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-console"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			PublicTickets:         getEnvAsBool("APP_PUBLIC_TICKETS", true),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://127.0.0.1:3000"), "/"),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 15),
			UserAgent:      getEnv("BACKEND_USER_AGENT", "helpdesk-console"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "helpdesk:"),
		},
		Cache: CacheConfig{
			Driver:     strings.ToLower(getEnv("CACHE_DRIVER", CacheDriverMemory)),
			TTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
		},
		Search: SearchConfig{
			DebounceMillis: getEnvAsInt("SEARCH_DEBOUNCE_MILLIS", 500),
			PageSize:       getEnvAsInt("SEARCH_PAGE_SIZE", 20),
		},
		Notices: NoticeConfig{
			FeedSize:      getEnvAsInt("NOTICE_FEED_SIZE", 50),
			MaxAgeMinutes: getEnvAsInt("NOTICE_MAX_AGE_MINUTES", 30),
			SweepSeconds:  getEnvAsInt("NOTICE_SWEEP_SECONDS", 60),
		},
	}

	if cfg.Cache.Driver != CacheDriverMemory && cfg.Cache.Driver != CacheDriverRedis {
		return nil, fmt.Errorf("invalid CACHE_DRIVER %q", cfg.Cache.Driver)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call backend timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// Debounce returns the search debounce window.
func (s SearchConfig) Debounce() time.Duration {
	if s.DebounceMillis <= 0 {
		return 0
	}
	return time.Duration(s.DebounceMillis) * time.Millisecond
}

// MaxAge returns how long an undrained notice is kept.
func (n NoticeConfig) MaxAge() time.Duration {
	if n.MaxAgeMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(n.MaxAgeMinutes) * time.Minute
}

// SweepInterval returns how often expired notices are evicted; zero
// disables sweeping.
func (n NoticeConfig) SweepInterval() time.Duration {
	if n.SweepSeconds <= 0 {
		return 0
	}
	return time.Duration(n.SweepSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
