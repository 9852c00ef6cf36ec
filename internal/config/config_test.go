package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/minibank")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "@every 1h", cfg.IdempotencyCleanupSchedule)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Empty(t, cfg.KafkaBrokers)

	max, err := cfg.MaxAmountDecimal()
	require.NoError(t, err)
	assert.Equal(t, "1000000000", max.String())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	// registered with t.Setenv so the originals come back after the file load
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("KAFKA_BROKERS")

	path := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_URL=postgres://file/minibank\nJWT_SECRET=from-file\nKAFKA_BROKERS=k1:9092,k2:9092\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://file/minibank", cfg.DatabaseURL)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_InvalidMaxAmount(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/minibank")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAX_AMOUNT", "lots")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
