package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearCommentsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"COMMENTS_DATABASE_URL", "NEON_DATABASE_URL",
		"COMMENTS_SUPABASE_URL", "SUPABASE_URL",
		"COMMENTS_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY",
		"COMMENTS_ADMIN_JWT_SECRET", "ADMIN_JWT_SECRET",
		"COMMENTS_REDIS_URL", "COMMENTS_RATELIMIT_BACKEND",
		"COMMENTS_RATELIMIT_WINDOW", "COMMENTS_RATELIMIT_MAX",
		"COMMENTS_CACHE_LIST_TTL", "COMMENTS_APP_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearCommentsEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Comics Comments API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, RateLimitBackendMemory, cfg.RateLimitBackend)
	require.Equal(t, 5, cfg.RateLimitMax)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 10000, cfg.RateLimitSize)
	require.Equal(t, 120, cfg.IPRateLimitMax)
	require.Equal(t, 30*time.Second, cfg.ListCacheTTL)
	require.Equal(t, 10*time.Second, cfg.IdentityTimeout)
	require.Equal(t, "comments", cfg.EventsChannel)
	require.False(t, cfg.AutoMigrate)

	require.Error(t, cfg.ValidateServer())
}

func TestLoadAcceptsLegacyVariableNames(t *testing.T) {
	clearCommentsEnv(t)
	t.Setenv("NEON_DATABASE_URL", "postgres://neon/comments")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("ADMIN_JWT_SECRET", "legacy-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://neon/comments", cfg.DatabaseURL)
	require.Equal(t, "https://project.supabase.co", cfg.SupabaseURL)
	require.Equal(t, "anon", cfg.SupabaseAnonKey)
	require.Equal(t, "legacy-secret", cfg.AdminJWTSecret)
	require.NoError(t, cfg.ValidateServer())
}

func TestLoadPrefersPrefixedVariables(t *testing.T) {
	clearCommentsEnv(t)
	t.Setenv("NEON_DATABASE_URL", "postgres://legacy")
	t.Setenv("COMMENTS_DATABASE_URL", "postgres://current")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://current", cfg.DatabaseURL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearCommentsEnv(t)
	t.Setenv("COMMENTS_RATELIMIT_BACKEND", "memcached")
	_, err := Load()
	require.Error(t, err)

	clearCommentsEnv(t)
	t.Setenv("COMMENTS_RATELIMIT_WINDOW", "soon")
	_, err = Load()
	require.Error(t, err)
}

func TestValidateServerRequiresRedisForRedisLimiter(t *testing.T) {
	clearCommentsEnv(t)
	t.Setenv("COMMENTS_DATABASE_URL", "postgres://db")
	t.Setenv("COMMENTS_SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("COMMENTS_SUPABASE_ANON_KEY", "anon")
	t.Setenv("COMMENTS_RATELIMIT_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	require.ErrorContains(t, cfg.ValidateServer(), "redis")
}
