package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CARTAS_CONFIG_FILE", "")
	t.Setenv("CARTAS_API_PORT", "")
	t.Setenv("CARTAS_DATABASE_PATH", "")
	t.Setenv("CARTAS_ADMIN_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.DatabasePath != "./data/cartas.duckdb" {
		t.Errorf("DatabasePath = %s, want ./data/cartas.duckdb", cfg.DatabasePath)
	}
	if cfg.FrontendURL != "http://localhost:5173" {
		t.Errorf("FrontendURL = %s, want http://localhost:5173", cfg.FrontendURL)
	}
	if cfg.SiteURL != "https://www.kleverson.xyz" {
		t.Errorf("SiteURL = %s, want https://www.kleverson.xyz", cfg.SiteURL)
	}
	if cfg.Backup.History != 4 {
		t.Errorf("Backup.History = %d, want 4", cfg.Backup.History)
	}
	if cfg.Backup.CRC32 {
		t.Error("Backup.CRC32 should default to false")
	}
	if cfg.Backup.S3.Enabled() {
		t.Error("S3 upload should be disabled without a bucket")
	}
	if cfg.Location().String() != "America/Sao_Paulo" {
		t.Errorf("Location = %s, want America/Sao_Paulo", cfg.Location())
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("CARTAS_API_PORT", "3000")
	t.Setenv("CARTAS_DATABASE_PATH", "/custom/path.duckdb")
	t.Setenv("CARTAS_SITE_URL", "https://example.com/")
	t.Setenv("CARTAS_ADMIN_TOKEN", "s3cret")
	t.Setenv("CARTAS_BACKUP_HISTORY", "10")
	t.Setenv("CARTAS_BACKUP_CRC32", "true")
	t.Setenv("CARTAS_S3_BUCKET", "backups")
	t.Setenv("CARTAS_S3_FORCE_PATH_STYLE", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != 3000 {
		t.Errorf("APIPort = %d, want 3000", cfg.APIPort)
	}
	if cfg.DatabasePath != "/custom/path.duckdb" {
		t.Errorf("DatabasePath = %s, want /custom/path.duckdb", cfg.DatabasePath)
	}
	if cfg.SiteURL != "https://example.com" {
		t.Errorf("SiteURL = %s, want trailing slash trimmed", cfg.SiteURL)
	}
	if cfg.AdminToken != "s3cret" {
		t.Errorf("AdminToken = %s, want s3cret", cfg.AdminToken)
	}
	if cfg.Backup.History != 10 || !cfg.Backup.CRC32 {
		t.Errorf("Backup = %+v", cfg.Backup)
	}
	if !cfg.Backup.S3.Enabled() || !cfg.Backup.S3.ForcePathStyle {
		t.Errorf("S3 = %+v", cfg.Backup.S3)
	}
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("CARTAS_API_PORT", "not-a-number")
	t.Setenv("CARTAS_BACKUP_CRC32", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080 (default)", cfg.APIPort)
	}
	if cfg.Backup.CRC32 {
		t.Error("invalid bool should fall back to false")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartas.yaml")
	content := `
api_port: 9090
site_url: https://blog.example.com
timezone: UTC
backup:
  history: 2
  s3:
    bucket: from-file
    prefix: nightly
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("CARTAS_CONFIG_FILE", path)
	t.Setenv("CARTAS_S3_PREFIX", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.SiteURL != "https://blog.example.com" {
		t.Errorf("SiteURL = %s", cfg.SiteURL)
	}
	if cfg.Backup.History != 2 {
		t.Errorf("Backup.History = %d, want 2", cfg.Backup.History)
	}
	if cfg.Backup.S3.Bucket != "from-file" {
		t.Errorf("S3.Bucket = %s, want from-file", cfg.Backup.S3.Bucket)
	}
	if cfg.Backup.S3.Prefix != "from-env" {
		t.Errorf("S3.Prefix = %s, environment should win", cfg.Backup.S3.Prefix)
	}
	// untouched fields keep their defaults
	if cfg.DatabasePath != "./data/cartas.duckdb" {
		t.Errorf("DatabasePath = %s", cfg.DatabasePath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{"port out of range", map[string]string{"CARTAS_API_PORT": "70000"}, "APIPort"},
		{"bad site url", map[string]string{"CARTAS_SITE_URL": "not a url"}, "SiteURL"},
		{"zero history", map[string]string{"CARTAS_BACKUP_HISTORY": "0"}, "History"},
		{"unknown timezone", map[string]string{"CARTAS_TIMEZONE": "Mars/Olympus"}, "timezone"},
		{"key without secret", map[string]string{"CARTAS_S3_ACCESS_KEY_ID": "AKIA"}, "SecretAccessKey"},
		{"bad log level", map[string]string{"CARTAS_LOG_LEVEL": "chatty"}, "LogLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CARTAS_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}
