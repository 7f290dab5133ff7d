package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/spendwise/internal/buildinfo"
	"github.com/dmitrijs2005/spendwise/internal/client/config"
	"github.com/dmitrijs2005/spendwise/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the spendwise command. Without a subcommand it
// starts the interactive shell.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "spendwise",
		Short:         "SpendWise personal finance tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			app.reader.Reset(cmd.InOrStdin())
			app.out = cmd.OutOrStdout()
			return app.Run(ctx)
		},
	}
	config.BindFlags(root.Flags())
	root.AddCommand(newVersionCommand())
	return root
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
