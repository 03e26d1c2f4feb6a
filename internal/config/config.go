package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // America/Sao_Paulo on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

type Config struct {
	// Server
	APIPort int `yaml:"api_port" validate:"min=1,max=65535"`

	// Database
	DatabasePath string `yaml:"database_path" validate:"required"`

	// Public URLs
	FrontendURL string `yaml:"frontend_url" validate:"required,url"`
	SiteURL     string `yaml:"site_url" validate:"required,url"`

	// Admin routes are only mounted when a token is configured
	AdminToken string `yaml:"admin_token"`

	// Zone used for dates in backups
	Timezone string `yaml:"timezone" validate:"required"`

	Backup BackupConfig `yaml:"backup"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

type BackupConfig struct {
	History int      `yaml:"history" validate:"min=1,max=100"`
	CRC32   bool     `yaml:"crc32"`
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" validate:"required_with=AccessKeyID"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// Enabled reports whether backups should be uploaded
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		APIPort:      8080,
		DatabasePath: "./data/cartas.duckdb",
		FrontendURL:  "http://localhost:5173",
		SiteURL:      "https://www.kleverson.xyz",
		Timezone:     "America/Sao_Paulo",
		Backup: BackupConfig{
			History: 4,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CARTAS_CONFIG_FILE and CARTAS_* environment variables, in that order of
// precedence (environment wins).
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CARTAS_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.APIPort = getEnvInt("CARTAS_API_PORT", cfg.APIPort)
	cfg.DatabasePath = getEnv("CARTAS_DATABASE_PATH", cfg.DatabasePath)
	cfg.FrontendURL = getEnv("CARTAS_FRONTEND_URL", cfg.FrontendURL)
	cfg.SiteURL = strings.TrimRight(getEnv("CARTAS_SITE_URL", cfg.SiteURL), "/")
	cfg.AdminToken = getEnv("CARTAS_ADMIN_TOKEN", cfg.AdminToken)
	cfg.Timezone = getEnv("CARTAS_TIMEZONE", cfg.Timezone)
	cfg.LogLevel = strings.ToLower(getEnv("CARTAS_LOG_LEVEL", cfg.LogLevel))

	cfg.Backup.History = getEnvInt("CARTAS_BACKUP_HISTORY", cfg.Backup.History)
	cfg.Backup.CRC32 = getEnvBool("CARTAS_BACKUP_CRC32", cfg.Backup.CRC32)

	s3 := &cfg.Backup.S3
	s3.Bucket = getEnv("CARTAS_S3_BUCKET", s3.Bucket)
	s3.Prefix = getEnv("CARTAS_S3_PREFIX", s3.Prefix)
	s3.Region = getEnv("CARTAS_S3_REGION", s3.Region)
	s3.Endpoint = getEnv("CARTAS_S3_ENDPOINT", s3.Endpoint)
	s3.AccessKeyID = getEnv("CARTAS_S3_ACCESS_KEY_ID", s3.AccessKeyID)
	s3.SecretAccessKey = getEnv("CARTAS_S3_SECRET_ACCESS_KEY", s3.SecretAccessKey)
	s3.ForcePathStyle = getEnvBool("CARTAS_S3_FORCE_PATH_STYLE", s3.ForcePathStyle)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks field constraints and that the timezone exists
func (c *Config) Validate() error {
	if err := defaultValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
