package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/platform/postgres"
	"github.com/scheduler-platform/scheduler-api/internal/service/auth"
)

// migrateCommands are the goose operations exposed by "migrate".
var migrateCommands = []string{"up", "down", "status"}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "scheduler-api",
		Short:        "Task submission and dispatch API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newUserCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			logger, err := setupAppLogger(cfg)
			if err != nil {
				return err
			}
			db, err := setupAppDatabase(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return runMigrations(cmd.Context(), db, args[0], logger)
		},
	}
}

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login principals",
	}

	var username, password, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user with a bcrypt-hashed password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			logger, err := setupAppLogger(cfg)
			if err != nil {
				return err
			}
			db, err := setupAppDatabase(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			users := postgres.NewPostgresUserStore(db, logger)
			svc := auth.NewService(users, nil, nil, auth.NewBcryptVerifier(), logger)
			user, err := svc.CreateUser(cmd.Context(), username, password, domain.Role(role))
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.SSUUID)
			return err
		},
	}
	create.Flags().StringVar(&username, "username", "", "login name (4-19 characters)")
	create.Flags().StringVar(&password, "password", "", "password (8-20 characters)")
	create.Flags().StringVar(&role, "role", string(domain.RoleUser), "USER or ADMIN")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

// runServe wires the application and serves until SIGINT or SIGTERM.
func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}
	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
