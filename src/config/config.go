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

type Config struct {
	Port     string
	PushAddr string
	AppEnv   string

	MongoURI      string
	MongoDatabase string

	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	DefaultLocale string
	TemplatesPath string

	NotificationRetention time.Duration
	NotificationListLimit int64

	PushWorkers int
	PushTimeout time.Duration

	LogLevel    string
	LogFormat   string
	CORSOrigins string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	// A missing .env is fine, the process environment still applies.
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		PushAddr:      getEnv("PUSH_ADDR", ":3001"),
		AppEnv:        getEnv("APP_ENV", "development"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "pitchreview"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisChannel:  getEnv("REDIS_CHANNEL", "pitchreview:push"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		TemplatesPath: os.Getenv("TEMPLATES_PATH"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
	}

	var err error
	if cfg.NotificationRetention, err = getDuration("NOTIFICATION_RETENTION", 90*24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.PushTimeout, err = getDuration("PUSH_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	limit, err := getInt("NOTIFICATION_LIST_LIMIT", 200)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.NotificationListLimit = int64(limit)
	if cfg.PushWorkers, err = getInt("PUSH_WORKERS", 8); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		} else {
			c.JWTSecret = "fallback-secret-key"
		}
	}
	if c.NotificationRetention < 0 {
		errs = append(errs, errors.New("NOTIFICATION_RETENTION must not be negative"))
	}
	if c.NotificationListLimit < 0 {
		errs = append(errs, errors.New("NOTIFICATION_LIST_LIMIT must not be negative"))
	}
	if c.PushWorkers < 1 {
		errs = append(errs, errors.New("PUSH_WORKERS must be at least 1"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not json or console", c.LogFormat))
	}
	return errors.Join(errs...)
}

// AllowedOrigins splits CORS_ORIGINS. "*" yields nil.
func (c *Config) AllowedOrigins() []string {
	if c.CORSOrigins == "" || c.CORSOrigins == "*" {
		return nil
	}
	var out []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
