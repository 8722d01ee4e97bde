package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newPlanCommand(c *cli) *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Install, import or export the chart of accounts of an exercise",
	}
	planCmd.AddCommand(newPlanInstallCommand(c), newPlanImportCommand(c), newPlanExportCommand(c))
	return planCmd
}

func newPlanInstallCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "install <exercise>",
		Short: "Install the default chart of accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, env, err := c.open(cmd, slog.String("exercise", args[0]))
			if err != nil {
				return err
			}
			result, err := env.Services.Plan.InstallDefault(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newPlanImportCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <exercise> <file|->",
		Short: "Import a semicolon separated chart of accounts: code;description;parent;special",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return fmt.Errorf("opening plan: %w", err)
				}
				defer f.Close()
				in = f
			}

			ctx, env, err := c.open(cmd, slog.String("exercise", args[0]))
			if err != nil {
				return err
			}
			result, err := env.Services.Plan.Import(ctx, args[0], in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newPlanExportCommand(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <exercise>",
		Short: "Export the chart of accounts in the import format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, env, err := c.open(cmd, slog.String("exercise", args[0]))
			if err != nil {
				return err
			}
			if out == "" {
				return env.Services.Plan.Export(ctx, args[0], cmd.OutOrStdout())
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := env.Services.Plan.Export(ctx, args[0], f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")

	return cmd
}
