package server

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/spendwise/internal/buildinfo"
	"github.com/dmitrijs2005/spendwise/internal/logging"
	"github.com/dmitrijs2005/spendwise/internal/server/config"
	"github.com/dmitrijs2005/spendwise/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the spendwise-server command. Without a subcommand
// it serves the REST API.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "spendwise-server",
		Short:         "SpendWise development backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	config.BindFlags(root.PersistentFlags())
	root.AddCommand(newMigrateCommand(), newVersionCommand())
	return root
}

func setup(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			db, err := repomanager.Open(cmd.Context(), cfg.DatabaseDSN)
			if err != nil {
				return fmt.Errorf("db init error: %w", err)
			}
			defer db.Close()

			if err := repomanager.NewPostgresRepositoryManager().RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrations error: %w", err)
			}
			logger.Info(cmd.Context(), "migrations applied")
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
