package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const validPasetoKey = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PASETO_KEY", validPasetoKey)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "dev", cfg.Server.Env)
	require.True(t, cfg.Server.IsDevelopment())

	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	require.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenDuration)
	require.Equal(t, 15*time.Minute, cfg.Auth.ResetCodeDuration)
	require.Equal(t, 10*time.Minute, cfg.Auth.ResetTicketDuration)

	require.Equal(t, 10, cfg.Inventory.LowStockThreshold)
	require.Equal(t, 10, cfg.Inventory.TopValueCount)
}

func TestLoad_RejectsBadPasetoKey(t *testing.T) {
	t.Setenv("PASETO_KEY", "too-short")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsNegativeLowStockThreshold(t *testing.T) {
	t.Setenv("PASETO_KEY", validPasetoKey)
	t.Setenv("LOW_STOCK_THRESHOLD", "-1")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PASETO_KEY", validPasetoKey)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("RESET_CODE_DURATION", "600")
	t.Setenv("LOW_STOCK_THRESHOLD", "5")
	t.Setenv("TRUSTED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.False(t, cfg.Server.IsDevelopment())
	require.Equal(t, 10*time.Minute, cfg.Auth.ResetCodeDuration)
	require.Equal(t, 5, cfg.Inventory.LowStockThreshold)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.TrustedOrigins)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: "5432", User: "app", Password: "pw",
		DBName: "stocktrack", SSLMode: "disable",
	}
	require.Equal(t,
		"host=db port=5432 user=app password=pw dbname=stocktrack sslmode=disable",
		cfg.ConnectionString(),
	)
}

func TestRedisConfig_Address(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: "6379"}
	require.Equal(t, "cache:6379", cfg.Address())
}
