// Package container provides dependency injection and lifecycle management
// for the dossier workflow service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Auth configuration
	Auth AuthConfig

	// Storage configuration
	Storage StorageConfig

	// Workflow configuration
	Workflow WorkflowConfig

	// Worker configuration
	Worker WorkerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// BusyTimeout is how long a writer waits for the database lock
	BusyTimeout time.Duration
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// BaseDir is the root of documents and quitus files
	BaseDir string

	// QuitusTemplatePath is an optional .xlsx quitus template
	QuitusTemplatePath string

	// Institution is printed on the quitus
	Institution string
}

// WorkflowConfig holds dossier workflow settings.
type WorkflowConfig struct {
	StrictCBValidation bool
	NumberingCode      string
	DepensesTypeID     string
	RecettesTypeID     string
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	CleanupEnabled        bool
	CleanupInterval       time.Duration
	NotificationRetention time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/dossiers.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		Auth: AuthConfig{
			Issuer:     "dossiers",
			TokenTTL:   8 * time.Hour,
			BcryptCost: 12,
		},
		Storage: StorageConfig{
			BaseDir:     "data/files",
			Institution: "Agence Comptable",
		},
		Workflow: WorkflowConfig{
			StrictCBValidation: true,
			NumberingCode:      "DC",
			DepensesTypeID:     "TO-DEP",
			RecettesTypeID:     "TO-REC",
		},
		Worker: WorkerConfig{
			CleanupEnabled:        true,
			CleanupInterval:       time.Hour,
			NotificationRetention: 30 * 24 * time.Hour,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	if c.Workflow.NumberingCode == "" {
		return fmt.Errorf("workflow.numbering_code is required")
	}
	return nil
}
