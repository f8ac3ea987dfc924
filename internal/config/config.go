package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	PredictorPort  string        `mapstructure:"PREDICTOR_PORT"`
	RegistryPort   string        `mapstructure:"REGISTRY_PORT"`
	ModelPath      string        `mapstructure:"MODEL_PATH"`
	ModelURL       string        `mapstructure:"MODEL_URL"`
	ModelTimeout   time.Duration `mapstructure:"MODEL_TIMEOUT"`
	ModelStatic    string        `mapstructure:"MODEL_STATIC"`
	DataFile       string        `mapstructure:"DATA_FILE"`
	StoreDriver    string        `mapstructure:"STORE_DRIVER"`
	StoreLocking   bool          `mapstructure:"STORE_LOCKING"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
}

var keys = []string{
	"ENV",
	"PREDICTOR_PORT",
	"REGISTRY_PORT",
	"MODEL_PATH",
	"MODEL_URL",
	"MODEL_TIMEOUT",
	"MODEL_STATIC",
	"DATA_FILE",
	"STORE_DRIVER",
	"STORE_LOCKING",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"CORS_ORIGINS",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"BODY_LIMIT",
	"REQUEST_TIMEOUT",
	"AUTH_SIGNING_KEY",
	"AUTH_ISSUER",
	"AUTH_AUDIENCE",
}

// Load reads configuration from the environment, falling back to a .env file
// in the working directory and then to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PREDICTOR_PORT", "8000")
	v.SetDefault("REGISTRY_PORT", "8001")
	v.SetDefault("MODEL_PATH", "model.json")
	v.SetDefault("MODEL_TIMEOUT", "10s")
	v.SetDefault("DATA_FILE", "patients.json")
	v.SetDefault("STORE_DRIVER", DriverFile)
	v.SetDefault("STORE_LOCKING", true)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")

	// Unmarshal only sees env vars that are bound explicitly.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 0 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration can actually serve. Outside
// development the registry write routes need a signing key.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required when STORE_DRIVER is %q", DriverFile)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverFile, DriverPostgres, c.StoreDriver)
	}

	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY must be set when ENV is %q", c.Env)
	}

	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	return nil
}
