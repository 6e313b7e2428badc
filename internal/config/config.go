package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Rate limiter backends.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// Config holds runtime configuration values for the comments API and CLI.
type Config struct {
	AppName  string
	AppEnv   string
	AppPort  string
	LogLevel string

	DatabaseURL string
	AutoMigrate bool

	SupabaseURL      string
	SupabaseAnonKey  string
	IdentityTimeout  time.Duration
	AdminJWTSecret   string
	AdminTokenTTL    time.Duration
	RedisURL         string
	NATSURL          string
	EventsChannel    string
	ListCacheTTL     time.Duration
	LegacyTableName  string
	ShutdownTimeout  time.Duration
	RateLimitBackend string
	RateLimitMax     int
	RateLimitWindow  time.Duration
	RateLimitSize    int
	RateLimitSweep   time.Duration
	IPRateLimitMax   int
	IPRateLimitSpan  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// ValidateServer reports settings the HTTP server cannot start without.
func (c Config) ValidateServer() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("Database not configured"))
	}
	if strings.TrimSpace(c.SupabaseURL) == "" || strings.TrimSpace(c.SupabaseAnonKey) == "" {
		errs = append(errs, errors.New("Supabase auth not configured"))
	}
	if c.RateLimitBackend == RateLimitBackendRedis && strings.TrimSpace(c.RedisURL) == "" {
		errs = append(errs, errors.New("redis rate limiter selected without COMMENTS_REDIS_URL"))
	}
	return errors.Join(errs...)
}

// Load reads configuration values from environment variables and an optional .env file.
// The unprefixed names used by the previous deployment are accepted as fallbacks.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COMMENTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindings := map[string][]string{
		"database.url":      {"COMMENTS_DATABASE_URL", "NEON_DATABASE_URL"},
		"supabase.url":      {"COMMENTS_SUPABASE_URL", "SUPABASE_URL"},
		"supabase.anon_key": {"COMMENTS_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY"},
		"admin.jwt_secret":  {"COMMENTS_ADMIN_JWT_SECRET", "ADMIN_JWT_SECRET"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetDefault("app.name", "Comics Comments API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("identity.timeout", "10s")
	v.SetDefault("admin.token_ttl", "12h")
	v.SetDefault("events.channel", "comments")
	v.SetDefault("cache.list_ttl", "30s")
	v.SetDefault("legacy.table", "comments_legacy")
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("ratelimit.backend", RateLimitBackendMemory)
	v.SetDefault("ratelimit.max", 5)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("ratelimit.capacity", 10000)
	v.SetDefault("ratelimit.sweep_interval", "1m")
	v.SetDefault("ip_ratelimit.max", 120)
	v.SetDefault("ip_ratelimit.window", "1m")

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		LogLevel:         strings.ToLower(v.GetString("log.level")),
		DatabaseURL:      strings.TrimSpace(v.GetString("database.url")),
		AutoMigrate:      v.GetBool("database.auto_migrate"),
		SupabaseURL:      strings.TrimSpace(v.GetString("supabase.url")),
		SupabaseAnonKey:  strings.TrimSpace(v.GetString("supabase.anon_key")),
		AdminJWTSecret:   v.GetString("admin.jwt_secret"),
		RedisURL:         strings.TrimSpace(v.GetString("redis.url")),
		NATSURL:          strings.TrimSpace(v.GetString("nats.url")),
		EventsChannel:    strings.TrimSpace(v.GetString("events.channel")),
		LegacyTableName:  strings.TrimSpace(v.GetString("legacy.table")),
		RateLimitBackend: strings.ToLower(strings.TrimSpace(v.GetString("ratelimit.backend"))),
		RateLimitMax:     v.GetInt("ratelimit.max"),
		RateLimitSize:    v.GetInt("ratelimit.capacity"),
		IPRateLimitMax:   v.GetInt("ip_ratelimit.max"),
	}

	durations := map[string]*time.Duration{
		"identity.timeout":         &cfg.IdentityTimeout,
		"admin.token_ttl":          &cfg.AdminTokenTTL,
		"cache.list_ttl":           &cfg.ListCacheTTL,
		"shutdown.timeout":         &cfg.ShutdownTimeout,
		"ratelimit.window":         &cfg.RateLimitWindow,
		"ratelimit.sweep_interval": &cfg.RateLimitSweep,
		"ip_ratelimit.window":      &cfg.IPRateLimitSpan,
	}

	for key, target := range durations {
		parsed, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be positive", key)
		}
		*target = parsed
	}

	switch cfg.RateLimitBackend {
	case RateLimitBackendMemory, RateLimitBackendRedis:
	default:
		return Config{}, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimitBackend)
	}

	if cfg.RateLimitMax <= 0 {
		return Config{}, fmt.Errorf("ratelimit.max must be positive")
	}
	if cfg.RateLimitSize <= 0 {
		cfg.RateLimitSize = 10000
	}
	if cfg.IPRateLimitMax <= 0 {
		cfg.IPRateLimitMax = 120
	}

	return cfg, nil
}
