// Package config loads runtime settings from .env, the process environment
// and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Timezone    string `mapstructure:"TIMEZONE"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBPort      string `mapstructure:"DB_PORT"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	MetricsExporter string `mapstructure:"METRICS_EXPORTER"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	location *time.Location
}

var defaults = map[string]any{
	"PORT":             "3000",
	"ENVIRONMENT":      "development",
	"LOG_LEVEL":        "info",
	"TIMEZONE":         "UTC",
	"STORE_DRIVER":     DriverPostgres,
	"DATABASE_URL":     "",
	"DB_HOST":          "localhost",
	"DB_USER":          "postgres",
	"DB_PASSWORD":      "",
	"DB_NAME":          "shop",
	"DB_PORT":          "5432",
	"JWT_SECRET":       "your-super-secret-key-change-in-production",
	"JWT_TTL":          "24h",
	"METRICS_EXPORTER": "prometheus",
	"ADMIN_EMAIL":      "admin@example.com",
	"ADMIN_PASSWORD":   "admin123",
}

// Load reads .env (if present), then the optional file at path, then the
// environment. Later sources win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in settings without touching the environment.
func Default() *Config {
	cfg := &Config{
		Port:            defaults["PORT"].(string),
		Environment:     defaults["ENVIRONMENT"].(string),
		LogLevel:        defaults["LOG_LEVEL"].(string),
		Timezone:        defaults["TIMEZONE"].(string),
		StoreDriver:     DriverMemory,
		JWTSecret:       defaults["JWT_SECRET"].(string),
		JWTTTL:          24 * time.Hour,
		MetricsExporter: "none",
		AdminEmail:      defaults["ADMIN_EMAIL"].(string),
		AdminPassword:   defaults["ADMIN_PASSWORD"].(string),
	}
	_ = cfg.finish()
	return cfg
}

func (c *Config) finish() error {
	c.StoreDriver = strings.ToLower(c.StoreDriver)
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	c.MetricsExporter = strings.ToLower(c.MetricsExporter)
	switch c.MetricsExporter {
	case "prometheus", "otlp", "none":
	default:
		return fmt.Errorf("unknown METRICS_EXPORTER %q", c.MetricsExporter)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc
	if c.JWTTTL <= 0 {
		c.JWTTTL = 24 * time.Hour
	}
	return nil
}

// Location is the timezone used for calendar-month report windows.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// PostgresDSN prefers DATABASE_URL and falls back to the discrete DB_* keys.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.Timezone,
	)
}
