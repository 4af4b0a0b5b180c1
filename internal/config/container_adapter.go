package config

import (
	"github.com/ac-tresor/dossiers/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
		},
		Auth: container.AuthConfig{
			JWTSecret:  c.Auth.JWTSecret,
			Issuer:     c.Auth.Issuer,
			TokenTTL:   c.Auth.TokenTTL,
			BcryptCost: c.Auth.BcryptCost,
		},
		Storage: container.StorageConfig{
			BaseDir:            c.Storage.BaseDir,
			QuitusTemplatePath: c.Quitus.TemplatePath,
			Institution:        c.Quitus.Institution,
		},
		Workflow: container.WorkflowConfig{
			StrictCBValidation: c.Workflow.StrictCBValidation,
			NumberingCode:      c.Workflow.NumberingCode,
			DepensesTypeID:     c.Workflow.DepensesTypeID,
			RecettesTypeID:     c.Workflow.RecettesTypeID,
		},
		Worker: container.WorkerConfig{
			CleanupEnabled:        c.Worker.CleanupEnabled,
			CleanupInterval:       c.Worker.CleanupInterval,
			NotificationRetention: c.Worker.NotificationRetention,
		},
	}
}
