package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"github.com/SscSPs/erp_accounting/internal/adapters/database/memory"
	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/commands"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/core/services"
	"github.com/SscSPs/erp_accounting/internal/dto"
	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/SscSPs/erp_accounting/internal/platform/config"
)

type CommandsTestSuite struct {
	suite.Suite
	store  *memory.Store
	opened int
}

func TestCommandsTestSuite(t *testing.T) {
	suite.Run(t, new(CommandsTestSuite))
}

func (s *CommandsTestSuite) SetupTest() {
	s.T().Setenv("LOG_LEVEL", "error")
	s.store = memory.NewStore()
	s.opened = 0
}

func (s *CommandsTestSuite) env(ctx context.Context, cfg *config.Config) (*commands.Env, error) {
	s.opened++
	repos := s.store.Provider()
	return &commands.Env{
		Repos:    repos,
		Services: services.NewServiceContainer(cfg, repos, logging.NewRecorder()),
	}, nil
}

func (s *CommandsTestSuite) run(args ...string) (string, error) {
	cmd := commands.NewRootCommand(s.env)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (s *CommandsTestSuite) mustRun(args ...string) string {
	out, err := s.run(args...)
	s.Require().NoError(err, strings.Join(args, " "))
	return out
}

// setup creates exercise 2024 with the default plan and posts a sales invoice of 100 + 21% VAT.
func (s *CommandsTestSuite) setup() {
	s.mustRun("exercise", "create", "2024", "--start", "2024-01-01", "--end", "2024-12-31")
	s.mustRun("plan", "install", "2024")

	s.store.AddCustomer(domain.Customer{Code: "1", Name: "Acme Retail", TaxNumber: "B12345678"})
	s.store.AddTax(domain.Tax{Code: "IVA21", Description: "VAT 21%", Rate: decimal.NewFromInt(21)})
	repos := s.store.Provider()
	container := services.NewServiceContainer(&config.Config{MoneyDecimals: 2, ReportLanguage: "en"}, repos, logging.NewRecorder())
	base := decimal.NewFromInt(100)
	tax := decimal.NewFromInt(21)
	s.Require().NoError(container.Invoices.Post(context.Background(), &domain.Invoice{
		ID: 1, Kind: domain.SalesDocument, Code: "FAC1", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		ExerciseCode: "2024", CompanyID: 1, PartyCode: "1", PartyName: "Acme Retail", TaxNumber: "B12345678",
		Net: base, TotalTax: tax, Total: base.Add(tax),
		Lines: []domain.InvoiceLine{{Description: "Goods", Net: base, TaxCode: "IVA21", TaxRate: tax}},
	}))
}

func (s *CommandsTestSuite) TestExerciseCreateAndShow() {
	out := s.mustRun("exercise", "create", "2024", "--start", "2024-01-01", "--subaccount-length", "8")
	var created domain.Exercise
	s.Require().NoError(json.Unmarshal([]byte(out), &created))
	s.Equal("2024", created.Code)
	s.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), created.EndDate)
	s.Equal(8, created.SubaccountLength)
	s.Equal(domain.ExerciseOpen, created.State)

	out = s.mustRun("exercise", "show", "2024")
	var shown domain.Exercise
	s.Require().NoError(json.Unmarshal([]byte(out), &shown))
	s.Equal(created, shown)

	_, err := s.run("exercise", "create", "2024")
	s.ErrorIs(err, apperrors.ErrDuplicate)

	_, err = s.run("exercise", "create", "2025", "--start", "2025-01-01", "--end", "2024-01-01")
	s.Error(err)

	// a second open exercise may not cover days of the first one
	_, err = s.run("exercise", "create", "2024B", "--start", "2024-06-01", "--end", "2025-05-31")
	s.ErrorIs(err, apperrors.ErrDuplicate)
	_, err = s.run("exercise", "show", "2024B")
	s.ErrorIs(err, apperrors.ErrNotFound)

	// another company may
	s.mustRun("exercise", "create", "2024B", "--start", "2024-06-01", "--end", "2025-05-31", "--company", "2")
}

func (s *CommandsTestSuite) TestPlanImportExport() {
	s.mustRun("exercise", "create", "2024", "--start", "2024-01-01")
	s.mustRun("exercise", "create", "2025", "--start", "2025-01-01")

	out := s.mustRun("plan", "install", "2024")
	var installed dto.PlanImportResult
	s.Require().NoError(json.Unmarshal([]byte(out), &installed))
	s.NotZero(installed.Accounts)
	s.NotZero(installed.Subaccounts)

	path := filepath.Join(s.T().TempDir(), "plan.csv")
	s.mustRun("plan", "export", "2024", "--out", path)
	content, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(string(content), "code;description;parent;special"))

	out = s.mustRun("plan", "import", "2025", path)
	var imported dto.PlanImportResult
	s.Require().NoError(json.Unmarshal([]byte(out), &imported))
	s.Equal(installed.Accounts, imported.Accounts)
	s.Equal(installed.Subaccounts, imported.Subaccounts)
	s.Zero(imported.Skipped)

	s.Equal(string(content), s.mustRun("plan", "export", "2025"))

	_, err = s.run("plan", "import", "2025", filepath.Join(s.T().TempDir(), "missing.csv"))
	s.Error(err)
}

func (s *CommandsTestSuite) TestReports() {
	s.setup()

	var balance domain.BalanceAmountsReport
	s.Require().NoError(json.Unmarshal([]byte(s.mustRun("report", "balance", "2024")), &balance))
	s.NotEmpty(balance.Rows)
	s.True(balance.TotalDebit.Equal(balance.TotalCredit))
	s.False(balance.TotalDebit.IsZero())

	var pl domain.ProfitAndLossReport
	s.Require().NoError(json.Unmarshal([]byte(s.mustRun("report", "profit-loss", "2024", "--to", "2024-12-31")), &pl))
	s.True(pl.Result.Equal(decimal.NewFromInt(100)), pl.Result.String())

	var ledger domain.LedgerReport
	s.Require().NoError(json.Unmarshal([]byte(s.mustRun("report", "ledger", "2024", "--limit", "1")), &ledger))
	s.Len(ledger.Lines, 1)
	s.Require().NotNil(ledger.NextToken)

	var next domain.LedgerReport
	s.Require().NoError(json.Unmarshal([]byte(s.mustRun("report", "ledger", "2024", "--limit", "1", "--next", *ledger.NextToken)), &next))
	s.Require().Len(next.Lines, 1)
	s.NotEqual(ledger.Lines[0].LineID, next.Lines[0].LineID)

	_, err := s.run("report", "balance", "2024", "--from", "2024-13-01")
	s.Error(err)
}

func (s *CommandsTestSuite) TestReportToXLSX() {
	s.setup()
	path := filepath.Join(s.T().TempDir(), "pl.xlsx")

	out := s.mustRun("report", "profit-loss", "2024", "--xlsx", path, "--company-name", "ACME")
	s.Contains(out, path)

	xlsx, err := excelize.OpenFile(path)
	s.Require().NoError(err)
	defer xlsx.Close()
	s.Equal([]string{"Profit and loss"}, xlsx.GetSheetList())
}

func (s *CommandsTestSuite) TestCloseAndReopen() {
	s.setup()

	s.Contains(s.mustRun("close", "2024"), "exercise 2024: all done")
	var successor domain.Exercise
	s.Require().NoError(json.Unmarshal([]byte(s.mustRun("exercise", "show", "2025")), &successor))
	s.Equal(domain.ExerciseOpen, successor.State)

	_, err := s.run("close", "2024")
	s.ErrorIs(err, apperrors.ErrExerciseClosed)

	s.Contains(s.mustRun("reopen", "2024"), "exercise 2024 reopened")
	var reopened domain.Exercise
	s.Require().NoError(json.Unmarshal([]byte(s.mustRun("exercise", "show", "2024")), &reopened))
	s.Equal(domain.ExerciseOpen, reopened.State)

	s.mustRun("close", "2024", "--stage", "regularize")
	entries, err := s.store.FindEntriesByOperation(context.Background(), "2024", domain.OperationRegularization)
	s.Require().NoError(err)
	s.Len(entries, 1)

	_, err = s.run("close", "2024", "--stage", "bogus")
	s.Error(err)
	_, err = s.run("close", "2024", "--journal", "0")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *CommandsTestSuite) TestVatRegularize() {
	s.setup()
	s.store.AddVatRegularization(&domain.VatRegularization{
		ID: 7, ExerciseCode: "2024", CompanyID: 1, Period: "T1",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	})

	var reg domain.VatRegularization
	s.Require().NoError(json.Unmarshal([]byte(s.mustRun("vat-regularize", "7")), &reg))
	s.Require().NotNil(reg.JournalEntryID)

	stored, err := s.store.FindVatRegularization(context.Background(), 7)
	s.Require().NoError(err)
	s.Equal(reg.JournalEntryID, stored.JournalEntryID)

	_, err = s.run("vat-regularize", "7")
	s.ErrorIs(err, apperrors.ErrAlreadyPosted)
	_, err = s.run("vat-regularize", "x")
	s.Error(err)
	_, err = s.run("vat-regularize", "99")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *CommandsTestSuite) TestMetricsFile() {
	path := filepath.Join(s.T().TempDir(), "accounting.prom")
	s.mustRun("exercise", "create", "2024", "--metrics-file", path)

	_, err := os.Stat(path)
	s.NoError(err)
	s.Equal(1, s.opened)
}
