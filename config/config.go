package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/qs-lzh/movie-booking/internal/util"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Env         string
	Addr        string
	DatabaseDSN string
	CacheURL    string
	MQURL       string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// BookingLockTimeout bounds how long a booking waits for seat row locks.
	// Zero waits until the holder commits or rolls back.
	BookingLockTimeout time.Duration
	SeatCacheTTL       time.Duration

	LogLevel string
	LogFile  string

	// OTLPEndpoint is the OTLP/HTTP collector address. Empty disables tracing.
	OTLPEndpoint string

	CORSAllowedOrigins []string

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func LoadConfig() (*Config, error) {
	if err := util.LoadEnv(); err != nil {
		return nil, err
	}

	tokenTTL, err := envDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	lockTimeout, err := envDuration("BOOKING_LOCK_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}
	seatCacheTTL, err := envDuration("SEAT_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	bcryptCost, err := envInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                envString("APP_ENV", "development"),
		Addr:               envString("ADDR", ":8080"),
		DatabaseDSN:        os.Getenv("DATABASE_DSN"),
		CacheURL:           os.Getenv("CACHE_URL"),
		MQURL:              os.Getenv("RABBIT_MQ_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           tokenTTL,
		BcryptCost:         bcryptCost,
		BookingLockTimeout: lockTimeout,
		SeatCacheTTL:       seatCacheTTL,
		LogLevel:           envString("LOG_LEVEL", "info"),
		LogFile:            os.Getenv("LOG_FILE"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSAllowedOrigins: splitList(envString("CORS_ALLOWED_ORIGINS", "*")),
		AdminName:          envString("ADMIN_NAME", "Admin"),
		AdminEmail:         envString("ADMIN_EMAIL", "admin@movie.com"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
