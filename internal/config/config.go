// Package config loads server settings from an optional YAML file and the environment.
// Environment variables always win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable holding the YAML file path.
const EnvConfigPath = "PHYSIO_CONFIG"

// Config is the full server configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Security SecurityConfig `yaml:"security"`
	Audit    AuditConfig    `yaml:"audit"`
}

type AppConfig struct {
	Env             string        `yaml:"env"`
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`

	// IdempotencyTTL is how long POST responses are kept for replay (0 disables).
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	Issuer         string        `yaml:"issuer"`
}

type SecurityConfig struct {
	// AccessCSV is the path to the ir.model.access.csv style table.
	AccessCSV string `yaml:"access_csv"`
}

type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
	// CompressThreshold is the payload size in bytes above which zstd is applied.
	CompressThreshold int `yaml:"compress_threshold"`
}

// Default returns a config usable for local development.
func Default() Config {
	return Config{
		App: AppConfig{
			Env:             "development",
			Port:            "8080",
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdempotencyTTL:  24 * time.Hour,
		},
		Database: DatabaseConfig{MaxConns: 10, MinConns: 1},
		Log:      LogConfig{Level: "info"},
		Auth: AuthConfig{
			AccessTokenTTL: 15 * time.Minute,
			Issuer:         "physio",
		},
		Security: SecurityConfig{AccessCSV: "security/ir.model.access.csv"},
		Audit:    AuditConfig{Enabled: true, CompressThreshold: 10 * 1024},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// PHYSIO_CONFIG (if set), then environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.App.Port, "APP_PORT")
	setString(&c.App.Env, "APP_ENV")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Security.AccessCSV, "ACCESS_CSV")

	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("DB_MAX_CONNS: %w", err)
		}
		c.Database.MaxConns = int32(n)
	}
	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
		}
		c.Auth.AccessTokenTTL = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// IsDevelopment reports whether the server runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// Validate checks the settings required by the API server.
func (c Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url (DATABASE_URL) is required"))
	}
	if c.App.Port == "" {
		errs = append(errs, errors.New("app.port is required"))
	}
	if !c.IsDevelopment() && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required outside development"))
	}
	return errors.Join(errs...)
}
