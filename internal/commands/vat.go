package commands

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
)

func newVatRegularizeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "vat-regularize <regularization-id>",
		Short: "Post the entry settling the tax sub-accounts of a VAT period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid regularization id %q", args[0])
			}

			ctx, env, err := c.open(cmd, slog.Int64("regularization_id", id))
			if err != nil {
				return err
			}
			reg, err := env.Repos.DocumentRepo.FindVatRegularization(ctx, id)
			if err != nil {
				return err
			}
			if err := env.Services.VatRegularization.Post(ctx, reg); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), reg)
		},
	}
}
