package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("JWT_COOKIE_EXPIRES_IN", "")

	env := LoadEnv()
	assert.Equal(t, ":8080", env.AppAddr)
	assert.Equal(t, ModeDevelopment, env.AppEnv)
	assert.True(t, env.IsDevelopment())
	assert.Equal(t, 90*24*time.Hour, env.JWTExpiresIn)
	assert.Equal(t, 90, env.JWTCookieExpiresDays)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("JWT_COOKIE_EXPIRES_IN", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.test , ,https://b.test")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	env := LoadEnv()
	assert.Equal(t, ModeProduction, env.AppEnv)
	assert.False(t, env.IsDevelopment())
	assert.Equal(t, 2*time.Hour, env.JWTExpiresIn)
	assert.Equal(t, 7, env.JWTCookieExpiresDays)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, env.CORSAllowedOrigins)
	assert.Equal(t, 30*time.Second, env.RateLimit.Window)
}

func TestParseDurationDaySuffix(t *testing.T) {
	d, err := parseDuration("90d")
	require.NoError(t, err)
	assert.Equal(t, 90*24*time.Hour, d)

	_, err = parseDuration("xd")
	assert.Error(t, err)
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 5, getEnvAsInt("SOME_INT", 5))
}

func TestValidate(t *testing.T) {
	env := Env{AppEnv: ModeProduction, JWTExpiresIn: time.Hour, DatabaseDSN: "dsn"}
	assert.Error(t, env.Validate())

	env.JWTSecret = "short"
	assert.Error(t, env.Validate())

	env.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, env.Validate())

	dev := Env{AppEnv: ModeDevelopment, JWTExpiresIn: time.Hour, DatabaseDSN: "dsn"}
	assert.NoError(t, dev.Validate())
}
