package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the pipeline.
type Config struct {
	App       AppConfig
	Paths     PathsConfig
	Generator GeneratorConfig
	Forecast  ForecastConfig
	RootCause RootCauseConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
}

// AppConfig identifies the running application.
type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// PathsConfig locates pipeline inputs and outputs on disk.
type PathsConfig struct {
	DataDir   string
	OutputDir string
	ChartsDir string
}

// GeneratorConfig controls synthetic dataset generation.
type GeneratorConfig struct {
	TicketCount int
	Seed        int
}

// ForecastConfig controls the moving-average forecaster.
type ForecastConfig struct {
	Window int
}

// RootCauseConfig controls recurring-issue reporting.
type RootCauseConfig struct {
	TopN int
}

// PostgresConfig holds warehouse connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	EnsureSchema   bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds KPI snapshot connection values.
type RedisConfig struct {
	Addr             string
	Password         string
	DB               int
	SnapshotTTLHours int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	ensureSchema := getEnvAsBool("POSTGRES_ENSURE_SCHEMA", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "servicedesk-analytics"),
			Env:     getEnv("APP_ENV", "development"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Paths: PathsConfig{
			DataDir:   getEnv("DATA_DIR", "data"),
			OutputDir: getEnv("OUTPUT_DIR", "outputs"),
			ChartsDir: getEnv("CHARTS_DIR", filepath.Join("outputs", "charts")),
		},
		Generator: GeneratorConfig{
			TicketCount: getEnvAsInt("TICKET_COUNT", 2000),
			Seed:        getEnvAsInt("GENERATOR_SEED", 42),
		},
		Forecast: ForecastConfig{
			Window: getEnvAsInt("FORECAST_WINDOW", 4),
		},
		RootCause: RootCauseConfig{
			TopN: getEnvAsInt("RECURRING_TOP_N", 15),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			EnsureSchema:   ensureSchema,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:             getEnv("REDIS_ADDR", ""),
			Password:         os.Getenv("REDIS_PASSWORD"),
			DB:               redisDB,
			SnapshotTTLHours: getEnvAsInt("KPI_SNAPSHOT_TTL_HOURS", 24),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// RawTickets returns the raw dataset path.
func (p PathsConfig) RawTickets() string {
	return filepath.Join(p.DataDir, "raw_service_tickets.csv")
}

// CleanedTickets returns the cleaned dataset path.
func (p PathsConfig) CleanedTickets() string {
	return filepath.Join(p.DataDir, "cleaned_service_tickets.csv")
}

// EngineeredTickets returns the engineered dataset path.
func (p PathsConfig) EngineeredTickets() string {
	return filepath.Join(p.DataDir, "engineered_service_tickets.csv")
}

// OutputFile returns the path of a named report table.
func (p PathsConfig) OutputFile(name string) string {
	return filepath.Join(p.OutputDir, name)
}

// ChartFile returns the path of a named chart image.
func (p PathsConfig) ChartFile(name string) string {
	return filepath.Join(p.ChartsDir, name)
}

// Enabled reports whether the warehouse export is configured.
func (pc PostgresConfig) Enabled() bool {
	return pc.DSN != ""
}

// Enabled reports whether the KPI snapshot export is configured.
func (rc RedisConfig) Enabled() bool {
	return rc.Addr != ""
}

// SnapshotTTL returns the snapshot expiry as a duration.
func (rc RedisConfig) SnapshotTTL() time.Duration {
	if rc.SnapshotTTLHours <= 0 {
		return 0
	}
	return time.Duration(rc.SnapshotTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
