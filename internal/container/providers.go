package container

import (
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ac-tresor/dossiers/internal/application/dispatcher"
	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/application/service"
	"github.com/ac-tresor/dossiers/internal/application/workflow"
	"github.com/ac-tresor/dossiers/internal/infrastructure/auth"
	"github.com/ac-tresor/dossiers/internal/infrastructure/persistence/repository"
	"github.com/ac-tresor/dossiers/internal/infrastructure/persistence/sqlite"
	"github.com/ac-tresor/dossiers/internal/infrastructure/storage"
	"github.com/ac-tresor/dossiers/internal/infrastructure/worker"
	"github.com/ac-tresor/dossiers/internal/quitus"
	"github.com/ac-tresor/dossiers/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	User         port.UserRepository
	Folder       port.FolderRepository
	Dossier      port.DossierRepository
	History      port.HistoryRepository
	Notification port.NotificationRepository
	Quitus       port.QuitusRepository
	Referentiel  port.ReferentielRepository
	Validation   port.ValidationRepository
	Numbering    port.NumberingRepository
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	FileStorage port.FileStorage
	Renderer    port.QuitusRenderer
}

// AuthBundle holds the credential adapters.
type AuthBundle struct {
	Hasher port.PasswordHasher
	Tokens port.TokenIssuer
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Dossier      service.DossierService
	Notification service.NotificationService
	Referentiel  service.ReferentielService
	Auth         service.AuthService
}

// ProvideDatabase opens the SQLite database and applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).Run()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database migrations checked", zap.Int("applied", applied))

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		User:         repository.NewUserRepository(sqlDB, logger),
		Folder:       repository.NewFolderRepository(sqlDB, logger),
		Dossier:      repository.NewDossierRepository(sqlDB, logger),
		History:      repository.NewHistoryRepository(sqlDB, logger),
		Notification: repository.NewNotificationRepository(sqlDB, logger),
		Quitus:       repository.NewQuitusRepository(sqlDB, logger),
		Referentiel:  repository.NewReferentielRepository(sqlDB, logger),
		Validation:   repository.NewValidationRepository(sqlDB, logger),
		Numbering:    repository.NewNumberingRepository(sqlDB, logger),
	}, nil
}

// ProvideStorage creates the file storage and the quitus renderer.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	renderer, err := quitus.NewExcelRenderer(cfg.QuitusTemplatePath, cfg.Institution, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create quitus renderer: %w", err)
	}

	return &StorageBundle{
		FileStorage: storage.NewLocalFileStorage(cfg.BaseDir, logger),
		Renderer:    renderer,
	}, nil
}

// ProvideAuth creates the password hasher and the token issuer.
func ProvideAuth(cfg *AuthConfig) (*AuthBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config is required")
	}

	tokens, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	return &AuthBundle{
		Hasher: auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens: tokens,
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(NewZapLogger(logger)),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	Storage    *StorageBundle
	Auth       *AuthBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Workflow   *WorkflowConfig
	Logger     *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification service to the workflow events.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil || deps.Storage == nil || deps.Auth == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Dispatcher == nil || deps.Workflow == nil {
		return nil, fmt.Errorf("dispatcher and workflow config are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := NewZapLogger(deps.Logger.Named("service"))

	notifications := service.NewNotificationService(
		deps.Repos.Notification,
		deps.Repos.User,
		deps.TxManager,
		serviceLogger,
	)
	deps.Dispatcher.SubscribeMany(notifications.EventTypes(), "notifications", notifications.HandleEvent)

	return &ServiceBundle{
		Dossier: service.NewDossierService(
			deps.Repos.Dossier,
			deps.Repos.History,
			deps.Repos.Folder,
			deps.Repos.Quitus,
			service.NewNumberGenerator(deps.Repos.Numbering),
			deps.Storage.FileStorage,
			deps.TxManager,
			deps.Dispatcher,
			service.DossierServiceConfig{
				NumberingCode:  deps.Workflow.NumberingCode,
				DepensesTypeID: deps.Workflow.DepensesTypeID,
				RecettesTypeID: deps.Workflow.RecettesTypeID,
			},
			serviceLogger,
		),
		Notification: notifications,
		Referentiel:  service.NewReferentielService(deps.Repos.Referentiel),
		Auth:         service.NewAuthService(deps.Repos.User, deps.Auth.Hasher, deps.Auth.Tokens, serviceLogger),
	}, nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	Storage    *StorageBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Recorder   workflow.TransitionRecorder
	Config     *WorkflowConfig
}

// ProvideWorkflowEngine creates the dossier workflow engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.DossierEngine, error) {
	if deps == nil || deps.Repos == nil || deps.Storage == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.TxManager == nil || deps.Config == nil {
		return nil, fmt.Errorf("transaction manager and workflow config are required")
	}

	opts := []workflow.EngineOption{
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithStrictCBValidation(deps.Config.StrictCBValidation),
	}
	if deps.Recorder != nil {
		opts = append(opts, workflow.WithRecorder(deps.Recorder))
	}

	return workflow.NewEngine(workflow.Deps{
		Dossiers:    deps.Repos.Dossier,
		History:     deps.Repos.History,
		Referentiel: deps.Repos.Referentiel,
		Validations: deps.Repos.Validation,
		Quitus:      deps.Repos.Quitus,
		Users:       deps.Repos.User,
		Storage:     deps.Storage.FileStorage,
		Renderer:    deps.Storage.Renderer,
		TxManager:   deps.TxManager,
	}, opts...), nil
}

// ProvideWorkers creates the background workers enabled by the configuration.
func ProvideWorkers(cfg *WorkerConfig, repos *RepositoryBundle, logger *zap.Logger) (*worker.Manager, error) {
	if cfg == nil || repos == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}

	manager := worker.NewManager(logger)
	if cfg.CleanupEnabled {
		manager.Register(worker.NewNotificationCleanupWorker(worker.CleanupConfig{
			Interval:  cfg.CleanupInterval,
			Retention: cfg.NotificationRetention,
		}, repos.Notification, logger.Named("worker")))
	}
	return manager, nil
}
