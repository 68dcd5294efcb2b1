package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

type Env struct {
	AppAddr string
	GinMode string
	AppEnv  string

	DatabaseDSN   string
	DBAutoMigrate bool

	JWTSecret            string
	JWTExpiresIn         time.Duration
	JWTCookieExpiresDays int

	CORSAllowedOrigins []string

	Redis     RedisConfig
	RateLimit RateLimitConfig
	S3        S3Config
	Stripe    StripeConfig
	Email     EmailConfig

	GoogleAPIKey  string
	TemplatesGlob string
	StaticDir     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type StripeConfig struct {
	SecretKey      string
	EndpointSecret string
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// IsDevelopment reports whether detailed errors may be exposed to clients.
func (e Env) IsDevelopment() bool {
	return e.AppEnv != ModeProduction
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config: failed to read .env", "error", err)
	}

	appEnv := strings.ToLower(getEnv("APP_ENV", ModeDevelopment))
	if appEnv != ModeProduction {
		appEnv = ModeDevelopment
	}

	return Env{
		AppAddr: getEnv("APP_ADDR", ":8080"),
		GinMode: getEnv("GIN_MODE", ""),
		AppEnv:  appEnv,

		DatabaseDSN:   getEnv("DB_DSN", "root:@tcp(127.0.0.1:3306)/tour_booking?parseTime=true&loc=UTC&charset=utf8mb4"),
		DBAutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTExpiresIn:         getEnvAsDuration("JWT_EXPIRES_IN", 90*24*time.Hour),
		JWTCookieExpiresDays: getEnvAsInt("JWT_COOKIE_EXPIRES_IN", 90),

		CORSAllowedOrigins: utils.SplitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 20),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		S3: S3Config{
			Bucket:        getEnv("S3_BUCKET", ""),
			Region:        getEnv("S3_REGION", "us-east-1"),
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			AccessKey:     getEnv("S3_ACCESS_KEY", ""),
			SecretKey:     getEnv("S3_SECRET_KEY", ""),
			PublicBaseURL: strings.TrimRight(getEnv("IMAGE_STORAGE", "/img"), "/"),
		},
		Stripe: StripeConfig{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			EndpointSecret: getEnv("STRIPE_ENDPOINT_SECRET", ""),
		},
		Email: EmailConfig{
			Host:     getEnv("EMAIL_HOST", ""),
			Port:     getEnvAsInt("EMAIL_PORT", 587),
			Username: getEnv("EMAIL_USERNAME", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", "Tour Booking <hello@tour-booking.local>"),
		},

		GoogleAPIKey:  getEnv("GOOGLE_API_KEY", ""),
		TemplatesGlob: getEnv("TEMPLATES_GLOB", "templates/*.html"),
		StaticDir:     getEnv("STATIC_DIR", "public"),
	}
}

// Validate rejects configurations that cannot run safely.
func (e Env) Validate() error {
	if e.JWTSecret == "" {
		if e.AppEnv == ModeProduction {
			return errors.New("JWT_SECRET must be set in production")
		}
	} else if len(e.JWTSecret) < 32 && e.AppEnv == ModeProduction {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if e.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	if e.DatabaseDSN == "" {
		return errors.New("DB_DSN must be set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvAsBool(key string, defaultValue bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvAsDuration accepts Go durations plus a day suffix ("90d").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	d, err := parseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseDuration(v string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}
