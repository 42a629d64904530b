package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Certification CertificationConfig
	Reporting     ReportingConfig
	Mailer        MailerConfig
	Webhook       WebhookConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CertificationConfig holds the per-discipline validity period in years.
type CertificationConfig struct {
	IcePeriodYears   int
	WaterPeriodYears int
}

// ReportingConfig governs statistics caching.
type ReportingConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// MailerConfig configures outbound admin notifications.
type MailerConfig struct {
	Enabled    bool
	APIKey     string
	From       string
	AdminEmail string
	EntryURL   string
}

// WebhookConfig secures the inbound form submission endpoint.
type WebhookConfig struct {
	Secret string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Certification = CertificationConfig{
		IcePeriodYears:   v.GetInt("CERT_PERIOD_ICE"),
		WaterPeriodYears: v.GetInt("CERT_PERIOD_WATER"),
	}

	cfg.Reporting = ReportingConfig{
		CacheEnabled: v.GetBool("ENABLE_REPORT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("REPORT_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Mailer = MailerConfig{
		Enabled:    v.GetBool("ENABLE_NOTIFICATIONS"),
		APIKey:     v.GetString("RESEND_API_KEY"),
		From:       v.GetString("MAIL_FROM"),
		AdminEmail: v.GetString("ADMIN_EMAIL"),
		EntryURL:   v.GetString("FORM_ENTRY_URL"),
	}

	cfg.Webhook = WebhookConfig{
		Secret: v.GetString("FORM_WEBHOOK_SECRET"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "instructor_manager")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CERT_PERIOD_ICE", 3)
	v.SetDefault("CERT_PERIOD_WATER", 3)

	v.SetDefault("ENABLE_REPORT_CACHE", false)
	v.SetDefault("REPORT_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_NOTIFICATIONS", false)
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("MAIL_FROM", "no-reply@lifesaving.example")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("FORM_ENTRY_URL", "")

	v.SetDefault("FORM_WEBHOOK_SECRET", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// PeriodYears returns the certification period for the discipline name,
// falling back to three years.
func (c CertificationConfig) PeriodYears(discipline string) int {
	switch discipline {
	case "ice":
		if c.IcePeriodYears > 0 {
			return c.IcePeriodYears
		}
	case "water":
		if c.WaterPeriodYears > 0 {
			return c.WaterPeriodYears
		}
	}
	return 3
}
