package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	"github.com/SscSPs/erp_accounting/internal/core/services"
	"github.com/SscSPs/erp_accounting/internal/dto"
	"github.com/SscSPs/erp_accounting/internal/logging"
)

// --- Mock BalanceReader ---
type MockBalanceReader struct {
	mock.Mock
}

var _ portsrepo.BalanceReader = (*MockBalanceReader)(nil)

func (m *MockBalanceReader) SubaccountBalances(ctx context.Context, q portsrepo.BalanceQuery) ([]domain.SubaccountBalance, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SubaccountBalance), args.Error(1)
}

func (m *MockBalanceReader) LedgerLines(ctx context.Context, q portsrepo.LedgerQuery) ([]domain.LedgerLine, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerLine), args.Error(1)
}

type ReportingServiceTestSuite struct {
	suite.Suite
	f *fixture
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}

// SetupTest posts a sale of 100 and a purchase of 50, both at 21% VAT.
func (s *ReportingServiceTestSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.Require().NoError(s.f.invoices.Post(s.f.ctx, salesInvoice(1, "FAC1", day(2024, 2, 1), "100")))
	s.Require().NoError(s.f.invoices.Post(s.f.ctx, purchaseInvoice(1, "P-1", day(2024, 2, 3), "50")))
}

func (s *ReportingServiceTestSuite) request() dto.ReportRequest {
	return dto.ReportRequest{ExerciseCode: "2024"}
}

func rowsByCode(rows []domain.BalanceRow) map[string]domain.BalanceRow {
	out := make(map[string]domain.BalanceRow, len(rows))
	for _, r := range rows {
		key := r.Code
		if r.IsSubaccount {
			key = "sub:" + r.Code
		}
		out[key] = r
	}
	return out
}

func (s *ReportingServiceTestSuite) TestBalanceAmounts_RollsUpAccounts() {
	report, err := s.f.reporting.BalanceAmounts(s.f.ctx, s.request())
	s.Require().NoError(err)

	s.True(report.TotalDebit.Equal(dec("181.5")))
	s.True(report.TotalDebit.Equal(report.TotalCredit))

	rows := rowsByCode(report.Rows)
	group4 := rows["4"]
	s.Equal(1, group4.Level)
	s.True(group4.Debit.Equal(dec("131.5")))
	s.True(group4.Credit.Equal(dec("81.5")))
	s.True(group4.Balance.Equal(dec("50")))

	s.True(rows["7"].Credit.Equal(dec("100")))
	s.Equal("100.00", rows["7"].Display.Credit)
	s.Equal(2, rows["43"].Level)
	s.Equal(3, rows["430"].Level)

	customer := rows["sub:"+subCustomer]
	s.True(customer.IsSubaccount)
	s.Equal(4, customer.Level)
	s.True(customer.Balance.Equal(dec("121")))

	// accounts come before their sub-accounts
	for i := 1; i < len(report.Rows); i++ {
		s.LessOrEqual(report.Rows[i-1].Code, report.Rows[i].Code)
	}
}

func (s *ReportingServiceTestSuite) TestBalanceAmounts_LevelFilter() {
	req := s.request()
	req.Level = 1
	report, err := s.f.reporting.BalanceAmounts(s.f.ctx, req)
	s.Require().NoError(err)

	codes := make([]string, 0, len(report.Rows))
	for _, r := range report.Rows {
		codes = append(codes, r.Code)
	}
	s.Equal([]string{"4", "6", "7"}, codes)
	s.True(report.TotalDebit.Equal(dec("181.5")))
}

func (s *ReportingServiceTestSuite) TestBalanceAmounts_CodeRange() {
	req := s.request()
	req.CodeFrom, req.CodeTo = "7", "7"
	report, err := s.f.reporting.BalanceAmounts(s.f.ctx, req)
	s.Require().NoError(err)

	s.True(report.TotalCredit.Equal(dec("100")))
	s.True(report.TotalDebit.IsZero())
}

func (s *ReportingServiceTestSuite) TestProfitAndLoss() {
	report, err := s.f.reporting.ProfitAndLoss(s.f.ctx, s.request())
	s.Require().NoError(err)

	s.Require().Len(report.Income.Lines, 1)
	s.Equal("700", report.Income.Lines[0].Code)
	s.True(report.Income.Lines[0].Amount.Equal(dec("100")))
	s.True(report.Income.Lines[0].Percentage.Equal(dec("100")))
	s.Equal("100.00%", report.Income.Lines[0].DisplayPct)

	s.Require().Len(report.Expenses.Lines, 1)
	s.Equal("600", report.Expenses.Lines[0].Code)
	s.True(report.Expenses.Lines[0].Percentage.Equal(dec("50")))

	s.True(report.Result.Equal(dec("50")))
	s.Equal("50.00", report.Display)
}

func (s *ReportingServiceTestSuite) TestBalanceSheet() {
	report, err := s.f.reporting.BalanceSheet(s.f.ctx, s.request())
	s.Require().NoError(err)

	s.True(report.TotalAssets.Equal(dec("131.5")))
	s.True(report.TotalEquityAndLiabilities.Equal(dec("131.5")))
	s.True(report.Result.Equal(dec("50")))

	s.Require().Len(report.Assets.Lines, 2)
	s.Equal("430", report.Assets.Lines[0].Code)
	s.Equal("472", report.Assets.Lines[1].Code)

	s.Require().Len(report.Liabilities.Lines, 2)
	s.Equal("400", report.Liabilities.Lines[0].Code)
	s.True(report.Liabilities.Lines[0].Amount.Equal(dec("60.5")))
	s.Equal("477", report.Liabilities.Lines[1].Code)

	s.Require().Len(report.Equity.Lines, 1)
	s.Equal("129", report.Equity.Lines[0].Code)
	s.True(report.Equity.Lines[0].Amount.Equal(dec("50")))
	s.True(report.Equity.Lines[0].Percentage.Equal(dec("38.02")))
}

func (s *ReportingServiceTestSuite) TestBalanceSheet_StableAcrossClosing() {
	f := s.f
	s.Require().NoError(f.closing.Exec(f.ctx, "2024", dto.ClosingOptions{}))

	report, err := f.reporting.BalanceSheet(f.ctx, s.request())
	s.Require().NoError(err)
	s.True(report.TotalAssets.Equal(dec("131.5")))
	s.True(report.TotalEquityAndLiabilities.Equal(dec("131.5")))
	// the result now sits on the regularized profit and loss account
	s.True(report.Result.IsZero())
	s.Require().Len(report.Equity.Lines, 1)
	s.Equal("129", report.Equity.Lines[0].Code)

	pl, err := f.reporting.ProfitAndLoss(f.ctx, s.request())
	s.Require().NoError(err)
	s.True(pl.Result.Equal(dec("50")))
}

func (s *ReportingServiceTestSuite) TestBalanceSheet_ExcludeRegularization() {
	f := s.f
	s.Require().NoError(f.closing.Exec(f.ctx, "2024", dto.ClosingOptions{}))

	req := s.request()
	req.ExcludeRegularization = true
	report, err := f.reporting.BalanceSheet(f.ctx, req)
	s.Require().NoError(err)

	// without the regularization the result is reported apart again
	s.True(report.Result.Equal(dec("50")))
	s.True(report.TotalAssets.Equal(dec("131.5")))
	s.True(report.TotalEquityAndLiabilities.Equal(dec("131.5")))
	s.Require().Len(report.Equity.Lines, 1)
	s.Equal("Result of the exercise", report.Equity.Lines[0].Description)
}

func (s *ReportingServiceTestSuite) TestIncomeAndExpenditure() {
	f := s.f
	gain := &domain.Invoice{
		ID: 5, Kind: domain.SalesDocument, Code: "G-1", Date: day(2024, 3, 1), ExerciseCode: "2024", CompanyID: 1,
		PartyCode: "1", Net: dec("40"), Total: dec("40"),
		Lines: []domain.InvoiceLine{{Net: dec("40"), SubaccountCode: "9000000000"}},
	}
	s.Require().NoError(f.invoices.Post(f.ctx, gain))

	report, err := f.reporting.IncomeAndExpenditure(f.ctx, s.request())
	s.Require().NoError(err)
	s.True(report.ProfitAndLossResult.Equal(dec("50")))
	s.Require().Len(report.EquityIncome.Lines, 1)
	s.Equal("900", report.EquityIncome.Lines[0].Code)
	s.True(report.EquityIncome.Total.Equal(dec("40")))
	s.Empty(report.EquityExpenses.Lines)
	s.True(report.Total.Equal(dec("90")))
	s.Equal("90.00", report.Display)
}

func (s *ReportingServiceTestSuite) TestLedger_PagesKeepRunningBalance() {
	f := s.f
	require.NoError(s.T(), f.payments.Post(f.ctx, receipt("121")))

	req := dto.LedgerRequest{ReportRequest: s.request()}
	full, err := f.reporting.Ledger(f.ctx, req)
	s.Require().NoError(err)
	s.Require().Len(full.Lines, 8)
	s.Nil(full.NextToken)

	var paged []domain.LedgerLine
	req.Limit = 2
	for pages := 0; ; pages++ {
		s.Require().Less(pages, 10)
		page, err := f.reporting.Ledger(f.ctx, req)
		s.Require().NoError(err)
		s.LessOrEqual(len(page.Lines), 2)
		paged = append(paged, page.Lines...)
		if page.NextToken == nil {
			break
		}
		req.NextToken = *page.NextToken
	}

	s.Require().Len(paged, len(full.Lines))
	for i := range full.Lines {
		s.Equal(full.Lines[i].LineID, paged[i].LineID)
		s.True(full.Lines[i].Balance.Equal(paged[i].Balance), "line %d balance", i)
	}

	var customer []domain.LedgerLine
	for _, l := range full.Lines {
		if l.SubaccountCode == subCustomer {
			customer = append(customer, l)
		}
	}
	s.Require().Len(customer, 2)
	s.True(customer[0].Balance.Equal(dec("121")))
	s.True(customer[1].Balance.IsZero())
}

func (s *ReportingServiceTestSuite) TestLedger_CarriesBalanceFromBeforeRange() {
	f := s.f
	require.NoError(s.T(), f.payments.Post(f.ctx, receipt("121")))

	req := dto.LedgerRequest{ReportRequest: s.request()}
	req.DateFrom = day(2024, 3, 1)
	report, err := f.reporting.Ledger(f.ctx, req)
	s.Require().NoError(err)

	var customer []domain.LedgerLine
	for _, l := range report.Lines {
		s.False(l.Date.Before(req.DateFrom))
		if l.SubaccountCode == subCustomer {
			customer = append(customer, l)
		}
	}
	// the invoice of February is not listed but its 121 still counts
	s.Require().Len(customer, 1)
	s.True(customer[0].Credit.Equal(dec("121")))
	s.True(customer[0].Balance.IsZero())
}

func (s *ReportingServiceTestSuite) TestInvalidRequests() {
	_, err := s.f.reporting.BalanceAmounts(s.f.ctx, dto.ReportRequest{})
	s.ErrorIs(err, apperrors.ErrValidation)

	req := s.request()
	req.DateFrom, req.DateTo = day(2024, 6, 1), day(2024, 1, 1)
	_, err = s.f.reporting.ProfitAndLoss(s.f.ctx, req)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.f.reporting.Ledger(s.f.ctx, dto.LedgerRequest{ReportRequest: s.request(), NextToken: "%%%"})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func TestReportingService_DataErrorsYieldEmptyReports(t *testing.T) {
	f := newFixture(t)
	reader := new(MockBalanceReader)
	reader.On("SubaccountBalances", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	reader.On("LedgerLines", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	repos := f.store.Provider()
	repos.ReportReader = reader
	reporting := services.NewReportingService(repos, f.messages)
	req := dto.ReportRequest{ExerciseCode: "2024"}

	amounts, err := reporting.BalanceAmounts(f.ctx, req)
	require.NoError(t, err)
	assert.Empty(t, amounts.Rows)

	sheet, err := reporting.BalanceSheet(f.ctx, req)
	require.NoError(t, err)
	assert.Empty(t, sheet.Assets.Lines)
	assert.True(t, sheet.TotalAssets.IsZero())

	ledger, err := reporting.Ledger(f.ctx, dto.LedgerRequest{ReportRequest: req})
	require.NoError(t, err)
	assert.Empty(t, ledger.Lines)

	assert.True(t, f.messages.Has(logging.KeyReportDataError))
	reader.AssertExpectations(t)
}

func TestReportingService_FormatsForLanguage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.invoices.Post(f.ctx, salesInvoice(1, "FAC1", day(2024, 2, 1), "1234.5")))

	reporting := services.NewReportingService(f.store.Provider(), f.messages, services.WithReportLanguage("de"))
	report, err := reporting.ProfitAndLoss(f.ctx, dto.ReportRequest{ExerciseCode: "2024"})
	require.NoError(t, err)
	assert.Equal(t, "1.234,50", report.Display)
}
