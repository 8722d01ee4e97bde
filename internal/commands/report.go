package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/dto"
	"github.com/SscSPs/erp_accounting/internal/export/excel"
)

// reportFlags are the line filters every report accepts.
type reportFlags struct {
	from, to              string
	channel               int
	codeFrom, codeTo      string
	level                 int
	excludeRegularization bool
	excludeClosing        bool
	xlsx                  string
	company               string
}

func (f *reportFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last date, YYYY-MM-DD")
	cmd.Flags().IntVar(&f.channel, "channel", 0, "only lines of this channel")
	cmd.Flags().StringVar(&f.codeFrom, "code-from", "", "first sub-account code")
	cmd.Flags().StringVar(&f.codeTo, "code-to", "", "last sub-account code")
	cmd.Flags().BoolVar(&f.excludeRegularization, "exclude-regularization", false, "leave out the regularization entry")
	cmd.Flags().BoolVar(&f.excludeClosing, "exclude-closing", false, "leave out the closing entry")
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "write the report to this XLSX file instead of printing JSON")
	cmd.Flags().StringVar(&f.company, "company-name", "", "company shown in the XLSX properties")
}

func (f *reportFlags) request(cmd *cobra.Command, exerciseCode string) (dto.ReportRequest, error) {
	req := dto.ReportRequest{
		ExerciseCode:          exerciseCode,
		CodeFrom:              f.codeFrom,
		CodeTo:                f.codeTo,
		Level:                 f.level,
		ExcludeRegularization: f.excludeRegularization,
		ExcludeClosing:        f.excludeClosing,
	}
	var err error
	if req.DateFrom, err = parseDate("from", f.from); err != nil {
		return req, err
	}
	if req.DateTo, err = parseDate("to", f.to); err != nil {
		return req, err
	}
	if cmd.Flags().Changed("channel") {
		channel := f.channel
		req.Channel = &channel
	}
	return req, nil
}

// reportRunner builds one report and either prints it or adds it to a workbook.
type reportRunner func(ctx context.Context, svc portssvc.ReportingSvc, req dto.LedgerRequest, wb *excel.Workbook) (any, error)

func newReportCommand(c *cli) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Build the financial statements of an exercise",
	}

	balance, balanceFlags := newReportSubcommand(c, "balance", "Debit, credit and balance of every account and sub-account",
		func(ctx context.Context, svc portssvc.ReportingSvc, req dto.LedgerRequest, wb *excel.Workbook) (any, error) {
			report, err := svc.BalanceAmounts(ctx, req.ReportRequest)
			if err != nil || wb == nil {
				return report, err
			}
			return report, wb.AddBalanceAmounts("Balance", report)
		})
	balance.Flags().IntVar(&balanceFlags.level, "level", 0, "deepest account level listed, 0 lists everything")

	balanceSheet, _ := newReportSubcommand(c, "balance-sheet", "Assets, equity and liabilities",
		func(ctx context.Context, svc portssvc.ReportingSvc, req dto.LedgerRequest, wb *excel.Workbook) (any, error) {
			report, err := svc.BalanceSheet(ctx, req.ReportRequest)
			if err != nil || wb == nil {
				return report, err
			}
			return report, wb.AddBalanceSheet("Balance sheet", report)
		})
	profitLoss, _ := newReportSubcommand(c, "profit-loss", "Income and expenses of the period",
		func(ctx context.Context, svc portssvc.ReportingSvc, req dto.LedgerRequest, wb *excel.Workbook) (any, error) {
			report, err := svc.ProfitAndLoss(ctx, req.ReportRequest)
			if err != nil || wb == nil {
				return report, err
			}
			return report, wb.AddProfitAndLoss("Profit and loss", report)
		})
	incomeExpenditure, _ := newReportSubcommand(c, "income-expenditure", "Statement of recognised income and expense",
		func(ctx context.Context, svc portssvc.ReportingSvc, req dto.LedgerRequest, wb *excel.Workbook) (any, error) {
			report, err := svc.IncomeAndExpenditure(ctx, req.ReportRequest)
			if err != nil || wb == nil {
				return report, err
			}
			return report, wb.AddIncomeAndExpenditure("Income and expenditure", report)
		})

	reportCmd.AddCommand(balance, balanceSheet, profitLoss, incomeExpenditure, newLedgerCommand(c))
	return reportCmd
}

func newReportSubcommand(c *cli, use, short string, run reportRunner) (*cobra.Command, *reportFlags) {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   use + " <exercise>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runReport(cmd, flags, dto.LedgerRequest{ReportRequest: req}, run)
		},
	}
	flags.bind(cmd)
	return cmd, flags
}

func newLedgerCommand(c *cli) *cobra.Command {
	flags := &reportFlags{}
	var limit int
	var next string

	cmd := &cobra.Command{
		Use:   "ledger <exercise>",
		Short: "Posted lines per sub-account with their running balance",
		Long:  "Prints one page of the ledger. Pass the returned nextToken with --next to continue.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd, args[0])
			if err != nil {
				return err
			}
			ledger := dto.LedgerRequest{ReportRequest: req, Limit: limit, NextToken: next}
			return c.runReport(cmd, flags, ledger,
				func(ctx context.Context, svc portssvc.ReportingSvc, req dto.LedgerRequest, wb *excel.Workbook) (any, error) {
					report, err := svc.Ledger(ctx, req)
					if err != nil || wb == nil {
						return report, err
					}
					return report, wb.AddLedger("Ledger", report)
				})
		},
	}
	flags.bind(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "lines per page, 0 returns everything")
	cmd.Flags().StringVar(&next, "next", "", "continuation token of the previous page")

	return cmd
}

func (c *cli) runReport(cmd *cobra.Command, flags *reportFlags, req dto.LedgerRequest, run reportRunner) error {
	ctx, env, err := c.open(cmd, slog.String("exercise", req.ExerciseCode))
	if err != nil {
		return err
	}

	if flags.xlsx == "" {
		report, err := run(ctx, env.Services.Reporting, req, nil)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	}

	wb := excel.NewWorkbook(flags.company)
	defer wb.Close()
	if _, err := run(ctx, env.Services.Reporting, req, wb); err != nil {
		return err
	}
	f, err := os.Create(flags.xlsx)
	if err != nil {
		return fmt.Errorf("creating %s: %w", flags.xlsx, err)
	}
	if _, err := wb.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", flags.xlsx, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", flags.xlsx)
	return nil
}
