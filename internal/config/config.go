package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const envPrefix = "DOSSIERS"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Quitus    QuitusConfig    `mapstructure:"quitus"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// AuthConfig holds token and password settings
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Issuer     string        `mapstructure:"issuer"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// StorageConfig holds file storage configuration
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// QuitusConfig holds quitus rendering configuration
type QuitusConfig struct {
	// TemplatePath is an optional .xlsx template; a blank workbook is used when empty
	TemplatePath string `mapstructure:"template_path"`
	Institution  string `mapstructure:"institution"`
}

// WorkflowConfig holds dossier workflow settings
type WorkflowConfig struct {
	StrictCBValidation bool   `mapstructure:"strict_cb_validation"`
	NumberingCode      string `mapstructure:"numbering_code"`
	DepensesTypeID     string `mapstructure:"depenses_type_id"`
	RecettesTypeID     string `mapstructure:"recettes_type_id"`
}

// RateLimitConfig holds login throttling settings
type RateLimitConfig struct {
	LoginRPS   float64 `mapstructure:"login_rps"`
	LoginBurst int     `mapstructure:"login_burst"`
}

// WorkerConfig holds background worker settings
type WorkerConfig struct {
	CleanupEnabled        bool          `mapstructure:"cleanup_enabled"`
	CleanupInterval       time.Duration `mapstructure:"cleanup_interval"`
	NotificationRetention time.Duration `mapstructure:"notification_retention"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from the optional YAML file at configPath, a .env
// file in the working directory and DOSSIERS_* environment variables, in
// increasing order of precedence
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 20<<20)
	v.SetDefault("server.allowed_origins", []string{})

	// Database defaults
	v.SetDefault("database.path", "data/dossiers.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	// Auth defaults
	v.SetDefault("auth.issuer", "dossiers")
	v.SetDefault("auth.token_ttl", 8*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)

	// Storage and quitus defaults
	v.SetDefault("storage.base_dir", "data/files")
	v.SetDefault("quitus.institution", "Agence Comptable")

	// Workflow defaults
	v.SetDefault("workflow.strict_cb_validation", true)
	v.SetDefault("workflow.numbering_code", "DC")
	v.SetDefault("workflow.depenses_type_id", "TO-DEP")
	v.SetDefault("workflow.recettes_type_id", "TO-REC")

	// Rate limit defaults: 5 attempts, then one every 5 seconds
	v.SetDefault("ratelimit.login_rps", 0.2)
	v.SetDefault("ratelimit.login_burst", 5)

	// Worker defaults
	v.SetDefault("worker.cleanup_enabled", true)
	v.SetDefault("worker.cleanup_interval", time.Hour)
	v.SetDefault("worker.notification_retention", 30*24*time.Hour)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the conventional names of secrets
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("auth.jwt_secret", envPrefix+"_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("database.path", envPrefix+"_DATABASE_PATH", "DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	if c.Workflow.NumberingCode == "" {
		return fmt.Errorf("workflow.numbering_code is required")
	}

	if c.RateLimit.LoginBurst < 0 {
		return fmt.Errorf("ratelimit.login_burst must not be negative")
	}
	if c.Worker.CleanupEnabled && (c.Worker.CleanupInterval <= 0 || c.Worker.NotificationRetention <= 0) {
		return fmt.Errorf("worker.cleanup_interval and worker.notification_retention must be positive")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console")
	}

	return nil
}
