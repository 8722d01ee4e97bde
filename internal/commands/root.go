// Package commands implements the accounting command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/SscSPs/erp_accounting/internal/metrics"
	"github.com/SscSPs/erp_accounting/internal/platform/config"
)

// cli carries the state shared by every subcommand of one invocation.
type cli struct {
	newEnv      EnvFactory
	cfg         *config.Config
	logger      *slog.Logger
	env         *Env
	metricsFile string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
// newEnv opens the store commands run against; nil selects PostgreSQL.
func NewRootCommand(newEnv EnvFactory) *cobra.Command {
	if newEnv == nil {
		newEnv = PostgresEnv
	}
	c := &cli{newEnv: newEnv}

	rootCmd := &cobra.Command{
		Use:   "accounting",
		Short: "Double-entry accounting core: chart of accounts, closing and reports",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			c.cfg = cfg
			c.logger = newLogger(cmd, cfg.LogLevel)
			slog.SetDefault(c.logger)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.env != nil && c.env.Close != nil {
				c.env.Close()
				c.env = nil
			}
			if c.metricsFile == "" {
				return nil
			}
			if err := metrics.WriteTextfile(c.metricsFile); err != nil {
				return fmt.Errorf("writing metrics: %w", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile when done")

	rootCmd.AddCommand(
		newMigrateCommand(c),
		newExerciseCommand(c),
		newPlanCommand(c),
		newCloseCommand(c),
		newReopenCommand(c),
		newVatRegularizeCommand(c),
		newReportCommand(c),
	)

	return rootCmd
}

func newLogger(cmd *cobra.Command, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
}

// open returns the environment and an operation scoped context for cmd.
// The environment is closed once the command has run.
func (c *cli) open(cmd *cobra.Command, attrs ...any) (context.Context, *Env, error) {
	ctx := logging.WithLogger(cmd.Context(), c.logger)
	if c.env == nil {
		env, err := c.newEnv(ctx, c.cfg)
		if err != nil {
			return nil, nil, err
		}
		c.env = env
	}
	ctx, _ = logging.WithOperation(ctx, strings.ReplaceAll(cmd.CommandPath(), " ", "_"), attrs...)
	logging.FromContext(ctx).Debug("command started")
	return ctx, c.env, nil
}
