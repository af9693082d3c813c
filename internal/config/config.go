package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Risk     RiskConfig
	History  HistoryConfig
	Lockout  LockoutConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string

	// TrustedProxies lists CIDR ranges whose forwarding headers are honored
	// when extracting client IPs.
	TrustedProxies []string
}

type AuthConfig struct {
	// JWTSecret signs the service-to-service bearer tokens that guard the
	// risk API.
	JWTSecret   string
	TokenExpiry time.Duration
}

// RiskConfig holds the analyzer weights and decision thresholds.
type RiskConfig struct {
	NewDeviceWeight         int
	NewLocationWeight       int
	ImpossibleTravelWeight  int
	OddTimeWeight           int
	ExcessiveFailuresWeight int

	MFAThreshold   int
	BlockThreshold int

	KnownLocationRadiusKm    float64
	MaxTravelSpeedKmh        float64
	MinSamplesForTimeProfile int
	UnusualHourFrequency     float64
	ClockSkewTolerance       time.Duration
}

// HistoryConfig bounds per-user history retention.
type HistoryConfig struct {
	MaxRecordsPerUser int
	MaxRecordAge      time.Duration
	SweepInterval     time.Duration
}

// LockoutConfig tunes the failed-attempt counter.
type LockoutConfig struct {
	FailureThreshold int
	Window           time.Duration
}

type DatabaseConfig struct {
	// Enabled switches on the durable archive of login records. The engine
	// runs fully in-memory without it.
	Enabled           bool
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type RedisConfig struct {
	// Addr, when set, moves the failed-attempt counter to Redis so multiple
	// engine instances share one view of an identity's failures.
	Addr     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES"),
		},
		Auth: AuthConfig{
			JWTSecret:   jwtSecret,
			TokenExpiry: getEnvAsDuration("TOKEN_EXPIRY", 1*time.Hour),
		},
		Risk: RiskConfig{
			NewDeviceWeight:          getEnvAsInt("RISK_WEIGHT_NEW_DEVICE", 20),
			NewLocationWeight:        getEnvAsInt("RISK_WEIGHT_NEW_LOCATION", 15),
			ImpossibleTravelWeight:   getEnvAsInt("RISK_WEIGHT_IMPOSSIBLE_TRAVEL", 30),
			OddTimeWeight:            getEnvAsInt("RISK_WEIGHT_ODD_TIME", 15),
			ExcessiveFailuresWeight:  getEnvAsInt("RISK_WEIGHT_EXCESSIVE_FAILURES", 20),
			MFAThreshold:             getEnvAsInt("RISK_MFA_THRESHOLD", 30),
			BlockThreshold:           getEnvAsInt("RISK_BLOCK_THRESHOLD", 70),
			KnownLocationRadiusKm:    getEnvAsFloat("RISK_KNOWN_LOCATION_RADIUS_KM", 50),
			MaxTravelSpeedKmh:        getEnvAsFloat("RISK_MAX_TRAVEL_SPEED_KMH", 1000),
			MinSamplesForTimeProfile: getEnvAsInt("RISK_TIME_PROFILE_MIN_SAMPLES", 5),
			UnusualHourFrequency:     getEnvAsFloat("RISK_UNUSUAL_HOUR_FREQUENCY", 0.10),
			ClockSkewTolerance:       getEnvAsDuration("RISK_CLOCK_SKEW_TOLERANCE", 5*time.Minute),
		},
		History: HistoryConfig{
			MaxRecordsPerUser: getEnvAsInt("HISTORY_MAX_RECORDS_PER_USER", 100),
			MaxRecordAge:      getEnvAsDuration("HISTORY_MAX_RECORD_AGE", 90*24*time.Hour),
			SweepInterval:     getEnvAsDuration("HISTORY_SWEEP_INTERVAL", 1*time.Hour),
		},
		Lockout: LockoutConfig{
			FailureThreshold: getEnvAsInt("LOCKOUT_FAILURE_THRESHOLD", 5),
			Window:           getEnvAsDuration("LOCKOUT_WINDOW", 15*time.Minute),
		},
		Database: DatabaseConfig{
			Enabled:           getEnvAsBool("ARCHIVE_ENABLED", false),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "riskgate"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	if cfg.Database.Enabled && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required when ARCHIVE_ENABLED is set")
	}

	if cfg.Risk.MFAThreshold > cfg.Risk.BlockThreshold {
		return nil, fmt.Errorf("RISK_MFA_THRESHOLD (%d) must not exceed RISK_BLOCK_THRESHOLD (%d)",
			cfg.Risk.MFAThreshold, cfg.Risk.BlockThreshold)
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	// Minimum length based on environment
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires stronger secret (256 bits)
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	// Check against common weak secrets
	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
