package config_test

import (
	"testing"
	"time"

	"github.com/jmcallister/riskgate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret")
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_RejectsShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	cfg, err := config.Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_RejectsWeakJWTSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "only-twenty-one-chars")

	cfg, err := config.Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Risk.NewDeviceWeight)
	assert.Equal(t, 15, cfg.Risk.NewLocationWeight)
	assert.Equal(t, 30, cfg.Risk.ImpossibleTravelWeight)
	assert.Equal(t, 30, cfg.Risk.MFAThreshold)
	assert.Equal(t, 70, cfg.Risk.BlockThreshold)
	assert.Equal(t, 50.0, cfg.Risk.KnownLocationRadiusKm)
	assert.Equal(t, 1000.0, cfg.Risk.MaxTravelSpeedKmh)
	assert.Equal(t, 100, cfg.History.MaxRecordsPerUser)
	assert.Equal(t, 90*24*time.Hour, cfg.History.MaxRecordAge)
	assert.Equal(t, 5, cfg.Lockout.FailureThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Window)
	assert.False(t, cfg.Database.Enabled)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RISK_MFA_THRESHOLD", "40")
	t.Setenv("RISK_BLOCK_THRESHOLD", "85")
	t.Setenv("RISK_WEIGHT_NEW_DEVICE", "25")
	t.Setenv("LOCKOUT_WINDOW", "30m")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Risk.MFAThreshold)
	assert.Equal(t, 85, cfg.Risk.BlockThreshold)
	assert.Equal(t, 25, cfg.Risk.NewDeviceWeight)
	assert.Equal(t, 30*time.Minute, cfg.Lockout.Window)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_RejectsInvertedThresholds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RISK_MFA_THRESHOLD", "80")
	t.Setenv("RISK_BLOCK_THRESHOLD", "50")

	cfg, err := config.Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_ArchiveRequiresPassword(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("DB_PASSWORD", "")

	cfg, err := config.Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "riskgate",
		Password: "pw",
		Name:     "riskgate",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=riskgate password=pw dbname=riskgate sslmode=require",
		cfg.DSN())
}
