package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
)

func newExerciseCommand(c *cli) *cobra.Command {
	exerciseCmd := &cobra.Command{
		Use:   "exercise",
		Short: "Manage fiscal exercises",
	}
	exerciseCmd.AddCommand(newExerciseCreateCommand(c), newExerciseShowCommand(c))
	return exerciseCmd
}

func newExerciseCreateCommand(c *cli) *cobra.Command {
	var (
		name, start, end string
		companyID        int
		length           int
	)

	cmd := &cobra.Command{
		Use:   "create <code>",
		Short: "Create an open exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]
			startDate, err := parseDate("start", start)
			if err != nil {
				return err
			}
			endDate, err := parseDate("end", end)
			if err != nil {
				return err
			}
			if startDate.IsZero() {
				startDate = time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
			}
			if endDate.IsZero() {
				endDate = startDate.AddDate(1, 0, -1)
			}
			if endDate.Before(startDate) {
				return fmt.Errorf("--end %s is before --start %s", endDate.Format(dateLayout), startDate.Format(dateLayout))
			}
			if length == 0 {
				length = c.cfg.DefaultSubaccountLength
			}
			if name == "" {
				name = code
			}

			ctx, env, err := c.open(cmd, slog.String("exercise", code))
			if err != nil {
				return err
			}
			_, err = env.Repos.ExerciseRepo.FindExercise(ctx, code)
			switch {
			case err == nil:
				return fmt.Errorf("exercise %s: %w", code, apperrors.ErrDuplicate)
			case !errors.Is(err, apperrors.ErrNotFound):
				return err
			}
			exercise := domain.Exercise{
				Code: code, CompanyID: companyID, Name: name,
				StartDate: startDate, EndDate: endDate,
				State: domain.ExerciseOpen, SubaccountLength: length,
			}
			if err := env.Repos.ExerciseRepo.SaveExercise(ctx, exercise); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), exercise)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "exercise name (defaults to the code)")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (defaults to January 1st)")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (defaults to one year after start)")
	cmd.Flags().IntVar(&companyID, "company", 1, "company id")
	cmd.Flags().IntVar(&length, "subaccount-length", 0, "digits of sub-account codes (defaults to DEFAULT_SUBACCOUNT_LENGTH)")

	return cmd
}

func newExerciseShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Print an exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, env, err := c.open(cmd, slog.String("exercise", args[0]))
			if err != nil {
				return err
			}
			exercise, err := env.Repos.ExerciseRepo.FindExercise(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), exercise)
		},
	}
}
