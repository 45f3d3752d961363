package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BOOKING_LOCK_TIMEOUT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, time.Duration(0), cfg.BookingLockTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("BOOKING_LOCK_TIMEOUT", "250ms")
	t.Setenv("SEAT_CACHE_TTL", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.BookingLockTimeout)
	assert.Equal(t, time.Minute, cfg.SeatCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("BOOKING_LOCK_TIMEOUT", "-1s")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("BOOKING_LOCK_TIMEOUT", "")
	t.Setenv("BCRYPT_COST", "ten")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}
