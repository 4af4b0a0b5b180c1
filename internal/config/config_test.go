package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "data/dossiers.db", cfg.Database.Path)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Workflow.StrictCBValidation)
	assert.Equal(t, "DC", cfg.Workflow.NumberingCode)
	assert.Equal(t, 30*24*time.Hour, cfg.Worker.NotificationRetention)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
server:
  port: 9090
  allowed_origins: ["https://tresor.example"]
auth:
  jwt_secret: "`+testSecret+`"
  token_ttl: 2h
workflow:
  strict_cb_validation: false
  numbering_code: ACC
logger:
  format: console
`)
	t.Setenv("DOSSIERS_SERVER_PORT", "9191")
	t.Setenv("DOSSIERS_DATABASE_PATH", "/var/lib/dossiers/app.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, []string{"https://tresor.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Workflow.StrictCBValidation)
	assert.Equal(t, "ACC", cfg.Workflow.NumberingCode)
	assert.Equal(t, "/var/lib/dossiers/app.db", cfg.Database.Path)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET="+testSecret+"\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("JWT_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "x.db"},
			Auth:     AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
			Storage:  StorageConfig{BaseDir: "files"},
			Workflow: WorkflowConfig{NumberingCode: "DC"},
			Worker:   WorkerConfig{CleanupEnabled: true, CleanupInterval: time.Hour, NotificationRetention: time.Hour},
			Logger:   LoggerConfig{Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "auth.jwt_secret"},
		{"no ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "auth.token_ttl"},
		{"no storage", func(c *Config) { c.Storage.BaseDir = "" }, "storage.base_dir"},
		{"no numbering code", func(c *Config) { c.Workflow.NumberingCode = "" }, "workflow.numbering_code"},
		{"cleanup without interval", func(c *Config) { c.Worker.CleanupInterval = 0 }, "worker.cleanup_interval"},
		{"cleanup disabled ignores interval", func(c *Config) {
			c.Worker.CleanupEnabled = false
			c.Worker.CleanupInterval = 0
		}, ""},
		{"unknown log format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Path: "x.db", BusyTimeout: time.Second},
		Auth:     AuthConfig{JWTSecret: testSecret, Issuer: "dossiers", TokenTTL: time.Hour, BcryptCost: 10},
		Storage:  StorageConfig{BaseDir: "files"},
		Quitus:   QuitusConfig{Institution: "Agence Comptable Centrale"},
		Workflow: WorkflowConfig{StrictCBValidation: true, NumberingCode: "DC"},
	}

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "x.db", cc.Database.Path)
	assert.Equal(t, time.Second, cc.Database.BusyTimeout)
	assert.Equal(t, 10, cc.Auth.BcryptCost)
	assert.Equal(t, "Agence Comptable Centrale", cc.Storage.Institution)
	assert.True(t, cc.Workflow.StrictCBValidation)
	assert.NoError(t, cc.Validate())
}
