package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultEncryptionKey = "change-me-encryption-key"
	defaultDatabaseURL   = "file:shortlets.db?_pragma=busy_timeout(5000)"
)

const (
	UnreachableFail  = "fail"
	UnreachableDefer = "defer"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	RedisURL    string

	JWTSecret     string
	JWTTTL        time.Duration
	EncryptionKey string

	CORSAllowedOrigins []string

	Stripe     StripeConfig
	Currencies CurrencyConfig
	Confirm    ConfirmConfig
	Reconciler ReconcilerConfig
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

type CurrencyConfig struct {
	Supported []string
	Default   string
}

type ConfirmConfig struct {
	MaxAttempts int
}

type ReconcilerConfig struct {
	Enabled           bool
	Interval          time.Duration
	StaleAfter        time.Duration
	BatchSize         int
	UnreachablePolicy string
}

// Load reads .env (if present), an optional shortlets.yaml and the
// environment. Environment variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("shortlets")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/shortlets")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("database_url", defaultDatabaseURL)
	v.SetDefault("redis_url", "")
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("encryption_key", defaultEncryptionKey)
	v.SetDefault("cors_allowed_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("stripe_secret_key", "")
	v.SetDefault("stripe_publishable_key", "")
	v.SetDefault("stripe_webhook_secret", "")
	v.SetDefault("currencies_supported", "USD,EUR,GBP,NGN")
	v.SetDefault("currencies_default", "NGN")
	v.SetDefault("confirm_max_attempts", 3)
	v.SetDefault("reconciler_enabled", true)
	v.SetDefault("reconciler_interval", "15m")
	v.SetDefault("reconciler_stale_after", "1h")
	v.SetDefault("reconciler_batch_size", 100)
	v.SetDefault("reconciler_unreachable_policy", UnreachableFail)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:        strings.ToLower(strings.TrimSpace(v.GetString("app_env"))),
		HTTPAddr:      strings.TrimSpace(v.GetString("http_addr")),
		LogLevel:      strings.TrimSpace(v.GetString("log_level")),
		DatabaseURL:   strings.TrimSpace(v.GetString("database_url")),
		RedisURL:      strings.TrimSpace(v.GetString("redis_url")),
		JWTSecret:     strings.TrimSpace(v.GetString("jwt_secret")),
		EncryptionKey: strings.TrimSpace(v.GetString("encryption_key")),

		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),

		Stripe: StripeConfig{
			SecretKey:      strings.TrimSpace(v.GetString("stripe_secret_key")),
			PublishableKey: strings.TrimSpace(v.GetString("stripe_publishable_key")),
			WebhookSecret:  strings.TrimSpace(v.GetString("stripe_webhook_secret")),
		},
		Currencies: CurrencyConfig{
			Supported: upper(splitList(v.GetString("currencies_supported"))),
			Default:   strings.ToUpper(strings.TrimSpace(v.GetString("currencies_default"))),
		},
		Confirm: ConfirmConfig{
			MaxAttempts: v.GetInt("confirm_max_attempts"),
		},
		Reconciler: ReconcilerConfig{
			Enabled:           v.GetBool("reconciler_enabled"),
			BatchSize:         v.GetInt("reconciler_batch_size"),
			UnreachablePolicy: strings.ToLower(strings.TrimSpace(v.GetString("reconciler_unreachable_policy"))),
		},
	}

	var err error
	cfg.JWTTTL, err = parseDuration(v, "jwt_ttl")
	if err != nil {
		return nil, err
	}
	cfg.Reconciler.Interval, err = parseDuration(v, "reconciler_interval")
	if err != nil {
		return nil, err
	}
	cfg.Reconciler.StaleAfter, err = parseDuration(v, "reconciler_stale_after")
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.Confirm.MaxAttempts < 1 {
		return fmt.Errorf("CONFIRM_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.Reconciler.Interval <= 0 {
		return fmt.Errorf("RECONCILER_INTERVAL must be > 0")
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		return fmt.Errorf("RECONCILER_STALE_AFTER must be > 0")
	}
	if cfg.Reconciler.BatchSize < 1 {
		return fmt.Errorf("RECONCILER_BATCH_SIZE must be >= 1")
	}
	switch cfg.Reconciler.UnreachablePolicy {
	case UnreachableFail, UnreachableDefer:
	default:
		return fmt.Errorf("RECONCILER_UNREACHABLE_POLICY must be one of: fail, defer")
	}

	if len(cfg.Currencies.Supported) == 0 {
		return fmt.Errorf("CURRENCIES_SUPPORTED must not be empty")
	}
	if !contains(cfg.Currencies.Supported, cfg.Currencies.Default) {
		return fmt.Errorf("CURRENCIES_DEFAULT %q is not in CURRENCIES_SUPPORTED", cfg.Currencies.Default)
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.EncryptionKey, defaultEncryptionKey) {
			return fmt.Errorf("in prod/release ENCRYPTION_KEY must be set and not default")
		}
		if cfg.Stripe.SecretKey == "" {
			return fmt.Errorf("in prod/release STRIPE_SECRET_KEY must be set")
		}
		if cfg.Stripe.WebhookSecret == "" {
			return fmt.Errorf("in prod/release STRIPE_WEBHOOK_SECRET must be set")
		}
	}

	return nil
}

func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", strings.ToUpper(key), value, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func upper(items []string) []string {
	for i := range items {
		items[i] = strings.ToUpper(items[i])
	}
	return items
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
