package services

import (
	"context"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/dto"
)

// ReportingSvc builds the financial statements. Data access failures are logged and
// yield empty reports; only invalid requests return an error.
type ReportingSvc interface {
	BalanceAmounts(ctx context.Context, req dto.ReportRequest) (*domain.BalanceAmountsReport, error)
	BalanceSheet(ctx context.Context, req dto.ReportRequest) (*domain.BalanceSheetReport, error)
	ProfitAndLoss(ctx context.Context, req dto.ReportRequest) (*domain.ProfitAndLossReport, error)
	IncomeAndExpenditure(ctx context.Context, req dto.ReportRequest) (*domain.IncomeAndExpenditureReport, error)
	Ledger(ctx context.Context, req dto.LedgerRequest) (*domain.LedgerReport, error)
}
