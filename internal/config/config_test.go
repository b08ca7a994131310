package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"USD", "EUR", "GBP", "NGN"}, cfg.Currencies.Supported)
	assert.Equal(t, "NGN", cfg.Currencies.Default)
	assert.Equal(t, time.Hour, cfg.Reconciler.StaleAfter)
	assert.Equal(t, 100, cfg.Reconciler.BatchSize)
	assert.Equal(t, UnreachableFail, cfg.Reconciler.UnreachablePolicy)
	assert.Equal(t, 3, cfg.Confirm.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("CURRENCIES_SUPPORTED", "usd, eur")
	t.Setenv("CURRENCIES_DEFAULT", "usd")
	t.Setenv("RECONCILER_STALE_AFTER", "30m")
	t.Setenv("RECONCILER_UNREACHABLE_POLICY", "defer")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"USD", "EUR"}, cfg.Currencies.Supported)
	assert.Equal(t, "USD", cfg.Currencies.Default)
	assert.Equal(t, 30*time.Minute, cfg.Reconciler.StaleAfter)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, UnreachableDefer, cfg.Reconciler.UnreachablePolicy)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"RECONCILER_INTERVAL": "soon"}},
		{"bad policy", map[string]string{"RECONCILER_UNREACHABLE_POLICY": "retry"}},
		{"default not supported", map[string]string{"CURRENCIES_DEFAULT": "JPY"}},
		{"zero attempts", map[string]string{"CONFIRM_MAX_ATTEMPTS": "0"}},
		{"bad token ttl", map[string]string{"JWT_TTL": "forever"}},
		{"zero token ttl", map[string]string{"JWT_TTL": "0s"}},
		{"prod default secrets", map[string]string{"APP_ENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "dev")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProdWithSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ENCRYPTION_KEY", "k3y")
	t.Setenv("STRIPE_SECRET_KEY", "sk_live_x")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProdLike())
}
