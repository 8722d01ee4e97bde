package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SscSPs/erp_accounting/internal/dto"
)

const (
	stageAll        = "all"
	stageRegularize = "regularize"
	stageClose      = "close"
	stageOpen       = "open"
)

func newCloseCommand(c *cli) *cobra.Command {
	var (
		stage     string
		journalID int
		opts      dto.ClosingOptions
		copySubs  bool
	)

	cmd := &cobra.Command{
		Use:   "close <exercise>",
		Short: "Run the period closing: regularization, closing and opening of the successor",
		Long: "Runs the three closing stages in one transaction and closes the exercise.\n" +
			"--stage runs a single stage on its own, e.g. to inspect the regularization first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]
			opts.CopySubaccounts = copySubs || c.cfg.ClosingCopySubaccounts
			if cmd.Flags().Changed("journal") {
				opts.JournalID = &journalID
			}

			ctx, env, err := c.open(cmd, slog.String("exercise", code), slog.String("stage", stage))
			if err != nil {
				return err
			}
			closing := env.Services.Closing
			switch stage {
			case stageAll:
				err = closing.Exec(ctx, code, opts)
			case stageRegularize:
				err = closing.Regularize(ctx, code)
			case stageClose:
				err = closing.Close(ctx, code)
			case stageOpen:
				err = closing.Open(ctx, code, opts)
			default:
				return fmt.Errorf("--stage must be one of %s, %s, %s, %s", stageAll, stageRegularize, stageClose, stageOpen)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exercise %s: %s done\n", code, stage)
			return nil
		},
	}

	cmd.Flags().StringVar(&stage, "stage", stageAll, "stage to run: all, regularize, close or open")
	cmd.Flags().IntVar(&journalID, "journal", 0, "journal id the generated entries are tagged with")
	cmd.Flags().BoolVar(&copySubs, "copy-subaccounts", false, "copy the whole chart of accounts into the successor (CLOSING_COPY_SUBACCOUNTS)")
	cmd.Flags().StringVar(&opts.SuccessorCode, "successor", "", "code of the successor exercise when it has to be created")

	return cmd
}

func newReopenCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <exercise>",
		Short: "Undo a closing: delete opening, closing and regularization entries and reopen the exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, env, err := c.open(cmd, slog.String("exercise", args[0]))
			if err != nil {
				return err
			}
			if err := env.Services.Closing.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exercise %s reopened\n", args[0])
			return nil
		},
	}
}
