package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	Sim SimConfig

	CommissionRate decimal.Decimal

	DataDir     string
	InsightsDir string

	DBType     string
	DBPath     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	OTLPEndpoint string

	Metrics MetricsConfig
}

// SimConfig is the run configuration surface of the generator.
type SimConfig struct {
	Seed           uint64
	Customers      int
	Days           int
	SalesPerDayMin int
	SalesPerDayMax int
	// AnchorDate is the exclusive end of the horizon. Zero means today (UTC).
	AnchorDate time.Time
	RulesFile  string
}

type MetricsConfig struct {
	Exporter  string
	Endpoint  string
	AuthToken string
}

const anchorDateLayout = "2006-01-02"

// Load loads configuration from environment variables and .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := Config{
		AppName:     getenv("APP_SERVICE", "telcostore"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		Sim: SimConfig{
			Seed:           p.uint64("SIM_SEED", 7),
			Customers:      p.int("SIM_CUSTOMERS", 250),
			Days:           p.int("SIM_DAYS", 60),
			SalesPerDayMin: p.int("SIM_SALES_PER_DAY_MIN", 6),
			SalesPerDayMax: p.int("SIM_SALES_PER_DAY_MAX", 16),
			AnchorDate:     p.date("SIM_ANCHOR_DATE"),
			RulesFile:      strings.TrimSpace(getenv("SIM_RULES_FILE", "")),
		},
		CommissionRate: p.decimal("COMMISSION_RATE", decimal.RequireFromString("0.02")),
		DataDir:        getenv("DATA_DIR", "raw_store"),
		InsightsDir:    getenv("INSIGHTS_DIR", "insights"),
		DBType:         strings.ToLower(getenv("DATABASE_TYPE", "sqlite")),
		DBPath:         getenv("DATABASE_PATH", "raw_store/telecom_store.db"),
		DBHost:         getenv("DATABASE_HOST", "localhost"),
		DBPort:         getenv("DATABASE_PORT", "5432"),
		DBName:         getenv("DATABASE_NAME", "telcostore"),
		DBUser:         getenv("DATABASE_USER", "postgres"),
		DBPassword:     getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:      getenv("DATABASE_SSLMODE", "disable"),
		OTLPEndpoint:   getenv("OTLP_ENDPOINT", "localhost:4317"),
		Metrics: MetricsConfig{
			Exporter:  strings.ToLower(strings.TrimSpace(getenv("METRICS_EXPORTER", ""))),
			Endpoint:  strings.TrimSpace(getenv("METRICS_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("METRICS_AUTH_TOKEN", "")),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a consistent dataset.
func (c Config) Validate() error {
	if err := c.Sim.Validate(); err != nil {
		return err
	}
	if c.CommissionRate.IsNegative() {
		return fmt.Errorf("%w: COMMISSION_RATE must not be negative", domain.ErrInvalidConfig)
	}
	switch c.DBType {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("%w: DATABASE_PATH is required for sqlite", domain.ErrInvalidConfig)
		}
	case "postgres":
	default:
		return fmt.Errorf("%w: unsupported DATABASE_TYPE %q", domain.ErrInvalidConfig, c.DBType)
	}
	return nil
}

func (s SimConfig) Validate() error {
	if s.Customers < 1 {
		return fmt.Errorf("%w: SIM_CUSTOMERS must be at least 1", domain.ErrInvalidConfig)
	}
	if s.Days < 1 {
		return fmt.Errorf("%w: SIM_DAYS must be at least 1", domain.ErrInvalidConfig)
	}
	if s.SalesPerDayMin < 0 || s.SalesPerDayMax < s.SalesPerDayMin {
		return fmt.Errorf("%w: sales per day range [%d, %d] is invalid",
			domain.ErrInvalidConfig, s.SalesPerDayMin, s.SalesPerDayMax)
	}
	return nil
}

// Anchor returns the configured anchor date, falling back to the day of now.
func (s SimConfig) Anchor(now time.Time) time.Time {
	if !s.AnchorDate.IsZero() {
		return s.AnchorDate
	}
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (c Config) IsSQLite() bool {
	return c.DBType == "sqlite"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parser keeps the first parse failure so Load can report it as a config error.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q: %v", domain.ErrInvalidConfig, key, value, err)
	}
}

func (p *parser) int(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}
	return parsed
}

func (p *parser) uint64(key string, def uint64) uint64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		p.fail(key, value, err)
		return def
	}
	return parsed
}

func (p *parser) decimal(key string, def decimal.Decimal) decimal.Decimal {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}
	return parsed
}

func (p *parser) date(key string) time.Time {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.ParseInLocation(anchorDateLayout, value, time.UTC)
	if err != nil {
		p.fail(key, value, err)
		return time.Time{}
	}
	return parsed
}
