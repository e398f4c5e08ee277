package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config represents application configuration. Values come from an optional
// YAML file named by CONFIG_FILE and are overridden by environment variables.
type Config struct {
	AppEnv             string        `yaml:"app_env"`
	Port               string        `yaml:"port"`
	StoreDriver        string        `yaml:"store_driver"`
	DatabaseURL        string        `yaml:"database_url"`
	JWTSecret          string        `yaml:"jwt_secret"`
	RedisAddr          string        `yaml:"redis_addr"`
	RedisPassword      string        `yaml:"redis_password"`
	RedisDB            int           `yaml:"redis_db"`
	DedupTTL           time.Duration `yaml:"-"`
	AMQPURL            string        `yaml:"amqp_url"`
	AMQPExchange       string        `yaml:"amqp_exchange"`
	OutboxInterval     time.Duration `yaml:"-"`
	OutboxBatchSize    int           `yaml:"outbox_batch_size"`
	OutboxMaxRetries   int           `yaml:"outbox_max_retries"`
	RelayInAPI         bool          `yaml:"relay_in_api"`
	FeedbackWindow     time.Duration `yaml:"-"`
	HTTPReadTimeout    time.Duration `yaml:"-"`
	HTTPWriteTimeout   time.Duration `yaml:"-"`
	HTTPIdleTimeout    time.Duration `yaml:"-"`
	RateLimitPerMin    int           `yaml:"rate_limit_per_minute"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`

	// second/day based knobs as they appear in the YAML file
	DedupTTLSeconds         int `yaml:"dedup_ttl_seconds"`
	OutboxIntervalMillis    int `yaml:"outbox_interval_ms"`
	FeedbackWindowDays      int `yaml:"feedback_window_days"`
	HTTPReadTimeoutSeconds  int `yaml:"http_read_timeout_seconds"`
	HTTPWriteTimeoutSeconds int `yaml:"http_write_timeout_seconds"`
	HTTPIdleTimeoutSeconds  int `yaml:"http_idle_timeout_seconds"`
}

// LoadConfig loads configuration and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                  "development",
		Port:                    "8080",
		StoreDriver:             StoreDriverPostgres,
		AMQPExchange:            "charitymatch.notifications",
		DedupTTLSeconds:         24 * 60 * 60,
		OutboxIntervalMillis:    1000,
		OutboxBatchSize:         100,
		OutboxMaxRetries:        5,
		RelayInAPI:              true,
		FeedbackWindowDays:      30,
		HTTPReadTimeoutSeconds:  15,
		HTTPWriteTimeoutSeconds: 30,
		HTTPIdleTimeoutSeconds:  60,
		RateLimitPerMin:         120,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", cfg.StoreDriver))
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.DedupTTLSeconds = getEnvInt("DEDUP_TTL_SECONDS", cfg.DedupTTLSeconds)
	cfg.OutboxIntervalMillis = getEnvInt("OUTBOX_INTERVAL_MS", cfg.OutboxIntervalMillis)
	cfg.OutboxBatchSize = getEnvInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxRetries = getEnvInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
	cfg.RelayInAPI = getEnvBool("RELAY_IN_API", cfg.RelayInAPI)
	cfg.FeedbackWindowDays = getEnvInt("FEEDBACK_WINDOW_DAYS", cfg.FeedbackWindowDays)
	cfg.HTTPReadTimeoutSeconds = getEnvInt("HTTP_READ_TIMEOUT_SECONDS", cfg.HTTPReadTimeoutSeconds)
	cfg.HTTPWriteTimeoutSeconds = getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", cfg.HTTPWriteTimeoutSeconds)
	cfg.HTTPIdleTimeoutSeconds = getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", cfg.HTTPIdleTimeoutSeconds)
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMin)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	cfg.DedupTTL = time.Duration(cfg.DedupTTLSeconds) * time.Second
	cfg.OutboxInterval = time.Duration(cfg.OutboxIntervalMillis) * time.Millisecond
	cfg.FeedbackWindow = time.Duration(cfg.FeedbackWindowDays) * 24 * time.Hour
	cfg.HTTPReadTimeout = time.Duration(cfg.HTTPReadTimeoutSeconds) * time.Second
	cfg.HTTPWriteTimeout = time.Duration(cfg.HTTPWriteTimeoutSeconds) * time.Second
	cfg.HTTPIdleTimeout = time.Duration(cfg.HTTPIdleTimeoutSeconds) * time.Second

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
