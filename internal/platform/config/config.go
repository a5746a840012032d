package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr                string        `yaml:"addr"`
	DatabaseURL         string        `yaml:"database_url"`
	JWTSecret           string        `yaml:"jwt_secret"`
	Environment         string        `yaml:"environment"`
	DefaultLocale       string        `yaml:"default_locale"`
	SeedCompanyName     string        `yaml:"seed_company_name"`
	SeedAdminEmail      string        `yaml:"seed_admin_email"`
	SeedAdminPassword   string        `yaml:"seed_admin_password"`
	RunMigrations       bool          `yaml:"run_migrations"`
	RunSeed             bool          `yaml:"run_seed"`
	MaxBodyBytes        int64         `yaml:"max_body_bytes"`
	RateLimitPerSecond  float64       `yaml:"rate_limit_per_second"`
	RateLimitBurst      int           `yaml:"rate_limit_burst"`
	PermissionCacheTTL  time.Duration `yaml:"permission_cache_ttl"`
	IdempotencyTTL      time.Duration `yaml:"idempotency_ttl"`
	StreamHeartbeat     time.Duration `yaml:"stream_heartbeat"`
	RolloverInterval    time.Duration `yaml:"rollover_interval"`
	EmailEnabled        bool          `yaml:"email_enabled"`
	EmailFrom           string        `yaml:"email_from"`
	SMTPHost            string        `yaml:"smtp_host"`
	SMTPPort            int           `yaml:"smtp_port"`
	SMTPUser            string        `yaml:"smtp_user"`
	SMTPPassword        string        `yaml:"smtp_password"`
	SMTPUseTLS          bool          `yaml:"smtp_use_tls"`
	PushEnabled         bool          `yaml:"push_enabled"`
	PushWorkers         int           `yaml:"push_workers"`
	VAPIDPublicKey      string        `yaml:"vapid_public_key"`
	VAPIDPrivateKey     string        `yaml:"vapid_private_key"`
	VAPIDSubject        string        `yaml:"vapid_subject"`
	MetricsEnabled      bool          `yaml:"metrics_enabled"`
	LeaveStore          string        `yaml:"leave_store"`
}

func Load() Config {
	cfg := Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		Environment:        getEnv("APP_ENV", "development"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		SeedCompanyName:    getEnv("SEED_COMPANY_NAME", "Default Company"),
		SeedAdminEmail:     getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            getEnvBool("RUN_SEED", true),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
		PermissionCacheTTL: getEnvDuration("PERMISSION_CACHE_TTL", time.Minute),
		IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 10*time.Minute),
		StreamHeartbeat:    getEnvDuration("STREAM_HEARTBEAT", 25*time.Second),
		RolloverInterval:   getEnvDuration("ROLLOVER_INTERVAL", time.Hour),
		EmailEnabled:       getEnvBool("EMAIL_ENABLED", false),
		EmailFrom:          getEnv("EMAIL_FROM", "no-reply@example.com"),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:         getEnvBool("SMTP_USE_TLS", true),
		PushEnabled:        getEnvBool("PUSH_ENABLED", false),
		PushWorkers:        getEnvInt("PUSH_WORKERS", 4),
		VAPIDPublicKey:     getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:    getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:       getEnv("VAPID_SUBJECT", "mailto:admin@example.com"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		LeaveStore:         getEnv("LEAVE_STORE", "memory"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "config file %s ignored: %v\n", path, err)
		}
	}
	return cfg
}

// applyFile overlays values from a YAML file on top of the env-derived config.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.PushEnabled && (c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "") {
		return fmt.Errorf("VAPID keys must be set when PUSH_ENABLED is true")
	}
	if c.LeaveStore != "memory" && c.LeaveStore != "postgres" {
		return fmt.Errorf("LEAVE_STORE must be memory or postgres")
	}
	return nil
}
