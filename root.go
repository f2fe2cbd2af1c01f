package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"usersvc/internal/config"
	"usersvc/pkg/rabbitmq"
)

// NewRootCmd creates the root command. Flags override the matching
// environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "usersvc",
		Short: "Role-gated account and pet directory",
		Long: `usersvc serves a directory of accounts and their pets over HTTP,
with role-based access, bcrypt credentials and a read-through cache.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("port", "", "listen address (APP_PORT)")
	flags.String("db-driver", "", "sqlite, postgres or memory (DATABASE_DRIVER)")
	flags.String("db-dsn", "", "database connection string (DATABASE_DSN)")
	flags.String("rabbitmq-url", "", "AMQP URL, empty disables events (RABBITMQ_URL)")
	flags.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	for key, flag := range map[string]string{
		config.KeyAppPort:        "port",
		config.KeyDatabaseDriver: "db-driver",
		config.KeyDatabaseDSN:    "db-dsn",
		config.KeyRabbitMQURL:    "rabbitmq-url",
		config.KeyLogLevel:       "log-level",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(NewServeCmd(v))
	cmd.AddCommand(NewBootstrapCmd(v))
	cmd.AddCommand(NewEventsCmd(v))

	return cmd
}

func loadConfig(v *viper.Viper) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return cfg, logger, nil
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(v)
			if err != nil {
				return err
			}
			return serve(cfg, logger)
		},
	}
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close resources", "error", err)
		}
	}()

	if cfg.BootstrapOnStart {
		if err := app.Accounts.BootstrapAdmin(context.Background()); err != nil {
			logger.Error("bootstrap administrator failed", "error", err)
		}
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.AppPort)
		listenErr <- app.Fiber.Listen(cfg.AppPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return oops.Code("SERVER_FAILED").With("addr", cfg.AppPort).Wrap(err)
	case <-quit:
	}

	logger.Info("shutting down server")
	if err := app.Fiber.Shutdown(); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	logger.Info("server gracefully stopped")
	return nil
}

// NewBootstrapCmd creates the bootstrap subcommand.
func NewBootstrapCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the default administrator if no admin exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(v)
			if err != nil {
				return err
			}
			app, err := NewApp(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Accounts.BootstrapAdmin(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("bootstrap complete")
			return nil
		},
	}
}

// NewEventsCmd creates the events subcommand.
func NewEventsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Log account lifecycle events from RabbitMQ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(v)
			if err != nil {
				return err
			}
			if cfg.RabbitMQURL == "" {
				return oops.Code("CONFIG_INVALID").With("key", config.KeyRabbitMQURL).Errorf("RabbitMQ URL is required")
			}

			client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("waiting for account events")
			return client.ConsumeAccountEvents(ctx, func(ev rabbitmq.AccountEvent) error {
				logger.Info("account event",
					"type", ev.Type,
					"account_id", ev.AccountID,
					"username", ev.Username,
					"occurred_at", ev.OccurredAt,
				)
				return nil
			})
		},
	}
}
