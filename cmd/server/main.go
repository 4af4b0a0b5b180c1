package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ac-tresor/dossiers/internal/application/service"
	"github.com/ac-tresor/dossiers/internal/config"
	"github.com/ac-tresor/dossiers/internal/container"
	httpapi "github.com/ac-tresor/dossiers/internal/interfaces/http"
	"github.com/ac-tresor/dossiers/internal/metrics"
	"github.com/ac-tresor/dossiers/pkg/utils"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dossiers",
		Short:         "Dossier comptable approval service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("DOSSIERS_CONFIG"),
		"path to the YAML configuration file (environment only when empty)")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newCreateUserCmd(&configPath),
	)
	return root
}

// bootstrap loads the configuration and builds the logger shared by every command
func bootstrap(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "dossiers",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("Starting dossier service",
				zap.String("version", version),
				zap.Int("port", cfg.Server.Port))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			m := metrics.New()
			c, err := container.NewContainer(cfg.ToContainerConfig(), logger, m)
			if err != nil {
				return err
			}
			if err := c.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					logger.Error("Container shutdown failed", zap.Error(err))
				}
			}()

			services := c.Services()
			server := httpapi.NewServer(httpapi.ServerConfig{
				Host:            cfg.Server.Host,
				Port:            cfg.Server.Port,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				Mode:            cfg.Server.Mode,
				Version:         version,
				MaxUploadBytes:  cfg.Server.MaxUploadBytes,
				AllowedOrigins:  cfg.Server.AllowedOrigins,
				LoginRate:       cfg.RateLimit.LoginRPS,
				LoginBurst:      cfg.RateLimit.LoginBurst,
			}, httpapi.Services{
				Engine:        c.Engine(),
				Dossiers:      services.Dossier,
				Notifications: services.Notification,
				Referentiel:   services.Referentiel,
				Auth:          services.Auth,
				Health:        c.Ping,
			}, m, container.NewZapLogger(logger.Named("http")))

			if err := server.Start(ctx); err != nil {
				return fmt.Errorf("http server: %w", err)
			}

			logger.Info("Server exited successfully")
			return nil
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			dbCfg := cfg.ToContainerConfig().Database
			bundle, err := container.ProvideDatabase(&dbCfg, logger)
			if err != nil {
				return err
			}
			defer bundle.DB.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", cfg.Database.Path)
			return nil
		},
	}
}

func newCreateUserCmd(configPath *string) *cobra.Command {
	var in service.CreateUserInput

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account (password read from DOSSIERS_USER_PASSWORD when --password is empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("DOSSIERS_USER_PASSWORD")
			}

			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cc := cfg.ToContainerConfig()
			bundle, err := container.ProvideDatabase(&cc.Database, logger)
			if err != nil {
				return err
			}
			defer bundle.DB.Close()

			repos, err := container.ProvideRepositories(bundle.DB.DB, logger)
			if err != nil {
				return err
			}
			credentials, err := container.ProvideAuth(&cc.Auth)
			if err != nil {
				return err
			}

			auth := service.NewAuthService(repos.User, credentials.Hasher, credentials.Tokens, container.NewZapLogger(logger))
			user, err := auth.CreateUser(context.Background(), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) with id %s\n", user.Email, user.Role, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&in.Role, "role", "", "SECRETAIRE, CONTROLEUR_BUDGETAIRE, ORDONNATEUR or AGENT_COMPTABLE")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}
