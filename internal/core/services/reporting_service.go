package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/dto"
	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/SscSPs/erp_accounting/internal/utils"
	"github.com/SscSPs/erp_accounting/internal/utils/accounting"
	"github.com/SscSPs/erp_accounting/internal/utils/pagination"
)

const (
	defaultLedgerLimit = 100
	resultCode         = "129"
)

// ReportingService builds the financial statements from posted journal lines.
type ReportingService struct {
	BaseService
	reader   portsrepo.BalanceReader
	accounts portsrepo.AccountReader
	validate *validator.Validate
	format   *utils.MoneyFormatter
	language string
	decimals int32
}

// ReportingServiceOption is a functional option for configuring the reporting service
type ReportingServiceOption func(*ReportingService)

// WithReportLanguage sets the language amounts and percentages are formatted for.
func WithReportLanguage(lang string) ReportingServiceOption {
	return func(s *ReportingService) {
		s.language = lang
	}
}

// WithReportDecimals sets the number of decimals amounts are rounded to.
func WithReportDecimals(decimals int32) ReportingServiceOption {
	return func(s *ReportingService) {
		s.decimals = decimals
	}
}

// NewReportingService creates a new reporting service with the provided options.
// Balances are read from repos.ReportReader, falling back to repos.BalanceReader.
func NewReportingService(repos portsrepo.RepositoryProvider, messages logging.MessageLog, options ...ReportingServiceOption) *ReportingService {
	reader := repos.ReportReader
	if reader == nil {
		reader = repos.BalanceReader
	}
	svc := &ReportingService{
		BaseService: newBaseService(messages),
		reader:      reader,
		accounts:    repos.AccountRepo,
		validate:    validator.New(),
		language:    "en",
		decimals:    accounting.DefaultDecimals,
	}
	for _, option := range options {
		option(svc)
	}
	svc.format = utils.NewMoneyFormatter(svc.language, svc.decimals)
	return svc
}

// Ensure ReportingService implements the ReportingSvc interface
var _ portssvc.ReportingSvc = (*ReportingService)(nil)

func (s *ReportingService) checkRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return nil
}

// reportQuery maps a request to the balance query shared by every report.
func reportQuery(req dto.ReportRequest) portsrepo.BalanceQuery {
	q := portsrepo.BalanceQuery{
		ExerciseCode: req.ExerciseCode,
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
		Channel:      req.Channel,
		CodeFrom:     req.CodeFrom,
		CodeTo:       req.CodeTo,
	}
	if req.ExcludeRegularization {
		q.ExcludeOperations = append(q.ExcludeOperations, domain.OperationRegularization)
	}
	if req.ExcludeClosing {
		q.ExcludeOperations = append(q.ExcludeOperations, domain.OperationClosing)
	}
	return q
}

// withGroups narrows q to the account groups from..to and adds exclude to the operations
// the request already excludes.
func withGroups(q portsrepo.BalanceQuery, from, to string, exclude ...domain.Operation) portsrepo.BalanceQuery {
	q.CodeFrom, q.CodeTo = from, to
	merged := slices.Clone(q.ExcludeOperations)
	for _, op := range exclude {
		if !slices.Contains(merged, op) {
			merged = append(merged, op)
		}
	}
	q.ExcludeOperations = merged
	return q
}

// carriedBalances returns the net of each sub-account before the first day of the
// request, so a ledger starting mid-exercise continues from the earlier balance.
func (s *ReportingService) carriedBalances(ctx context.Context, req dto.ReportRequest) map[string]decimal.Decimal {
	if req.DateFrom.IsZero() {
		return nil
	}
	q := reportQuery(req)
	q.DateFrom, q.DateTo = time.Time{}, req.DateFrom.AddDate(0, 0, -1)
	carried := make(map[string]decimal.Decimal)
	for _, row := range s.balances(ctx, "ledger", q) {
		carried[row.SubaccountCode] = carried[row.SubaccountCode].Add(row.Net())
	}
	return carried
}

// balances reads balances, logging a failure and degrading to no rows.
func (s *ReportingService) balances(ctx context.Context, report string, q portsrepo.BalanceQuery) []domain.SubaccountBalance {
	rows, err := s.reader.SubaccountBalances(ctx, q)
	if err != nil {
		s.Messages.Warning(ctx, logging.KeyReportDataError,
			slog.String("report", report),
			slog.String("exercise", q.ExerciseCode),
			slog.String("error", err.Error()))
		return nil
	}
	return rows
}

func (s *ReportingService) chart(ctx context.Context, report, exerciseCode string) map[string]domain.Account {
	accounts, err := s.accounts.ListAccounts(ctx, exerciseCode)
	if err != nil {
		s.Messages.Warning(ctx, logging.KeyReportDataError,
			slog.String("report", report),
			slog.String("exercise", exerciseCode),
			slog.String("error", err.Error()))
		return map[string]domain.Account{}
	}
	byCode := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	return byCode
}

// BalanceAmounts lists the debit, credit and balance of every sub-account and of every
// account above it.
func (s *ReportingService) BalanceAmounts(ctx context.Context, req dto.ReportRequest) (*domain.BalanceAmountsReport, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}
	ctx, _ = logging.WithOperation(ctx, "report_balance_amounts", slog.String("exercise", req.ExerciseCode))

	report := &domain.BalanceAmountsReport{Rows: []domain.BalanceRow{}}
	rows := s.balances(ctx, "balance_amounts", reportQuery(req))
	if len(rows) == 0 {
		return report, nil
	}
	chart := s.chart(ctx, "balance_amounts", req.ExerciseCode)

	for _, row := range s.combineData(rows, chart) {
		if req.Level > 0 && row.Level > req.Level {
			continue
		}
		report.Rows = append(report.Rows, row)
	}
	for _, row := range rows {
		report.TotalDebit = report.TotalDebit.Add(row.Debit)
		report.TotalCredit = report.TotalCredit.Add(row.Credit)
	}

	s.LogInfo(ctx, "Balance amounts report generated", slog.Int("row_count", len(report.Rows)))
	return report, nil
}

// combineData rolls the sub-account rows up into every ancestor account. Rows come out
// in code order, so each account precedes its children.
func (s *ReportingService) combineData(rows []domain.SubaccountBalance, chart map[string]domain.Account) []domain.BalanceRow {
	byID := make(map[int64]domain.Account, len(chart))
	for _, a := range chart {
		byID[a.ID] = a
	}
	depth := func(a domain.Account) int {
		level := 1
		for a.ParentID != nil {
			parent, ok := byID[*a.ParentID]
			if !ok {
				break
			}
			a = parent
			level++
		}
		return level
	}

	totals := make(map[string]*domain.BalanceRow)
	subs := make(map[string]*domain.BalanceRow)
	for _, row := range rows {
		sub, ok := subs[row.SubaccountCode]
		if !ok {
			sub = &domain.BalanceRow{Code: row.SubaccountCode, Description: row.Description, IsSubaccount: true}
			subs[row.SubaccountCode] = sub
		}
		sub.Debit = sub.Debit.Add(row.Debit)
		sub.Credit = sub.Credit.Add(row.Credit)

		account, ok := byID[row.AccountID]
		if !ok {
			account, ok = chart[row.AccountCode]
		}
		if !ok {
			continue
		}
		sub.Level = depth(account) + 1
		for {
			total, seen := totals[account.Code]
			if !seen {
				total = &domain.BalanceRow{Code: account.Code, Description: account.Description, Level: depth(account)}
				totals[account.Code] = total
			}
			total.Debit = total.Debit.Add(row.Debit)
			total.Credit = total.Credit.Add(row.Credit)
			if account.ParentID == nil {
				break
			}
			parent, ok := byID[*account.ParentID]
			if !ok {
				break
			}
			account = parent
		}
	}

	out := make([]domain.BalanceRow, 0, len(totals)+len(subs))
	for _, group := range []map[string]*domain.BalanceRow{totals, subs} {
		for _, row := range group {
			row.Balance = row.Debit.Sub(row.Credit)
			row.Display = domain.BalanceDisplay{
				Debit:   s.format.Money(row.Debit),
				Credit:  s.format.Money(row.Credit),
				Balance: s.format.Money(row.Balance),
			}
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return !out[i].IsSubaccount && out[j].IsSubaccount
	})
	return out
}

// accountTotal is the net balance of one account, built from its sub-accounts.
type accountTotal struct {
	code        string
	description string
	net         decimal.Decimal
}

// byAccount sums rows per direct parent account, in account code order.
func byAccount(rows []domain.SubaccountBalance, chart map[string]domain.Account) []accountTotal {
	totals := make(map[string]*accountTotal)
	for _, row := range rows {
		t, ok := totals[row.AccountCode]
		if !ok {
			description := row.Description
			if account, found := chart[row.AccountCode]; found {
				description = account.Description
			}
			t = &accountTotal{code: row.AccountCode, description: description}
			totals[row.AccountCode] = t
		}
		t.net = t.net.Add(row.Net())
	}
	out := make([]accountTotal, 0, len(totals))
	for _, t := range totals {
		if !t.net.IsZero() {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].code < out[j].code })
	return out
}

// section builds a report section whose line percentages are relative to base.
func (s *ReportingService) section(label string, lines []domain.ReportLine, base *decimal.Decimal) domain.ReportSection {
	sec := domain.ReportSection{Label: label, Lines: lines}
	if sec.Lines == nil {
		sec.Lines = []domain.ReportLine{}
	}
	for _, l := range sec.Lines {
		sec.Total = sec.Total.Add(l.Amount)
	}
	total := sec.Total
	if base != nil {
		total = *base
	}
	for i := range sec.Lines {
		sec.Lines[i].Percentage = accounting.Percentage(sec.Lines[i].Amount, total)
		sec.Lines[i].Display = s.format.Money(sec.Lines[i].Amount)
		sec.Lines[i].DisplayPct = s.format.Percent(sec.Lines[i].Percentage)
	}
	sec.Display = s.format.Money(sec.Total)
	return sec
}

func reportLine(t accountTotal, amount decimal.Decimal) domain.ReportLine {
	return domain.ReportLine{Code: t.code, Description: t.description, Amount: amount}
}

// BalanceSheet splits the balance-sheet groups into assets, equity and liabilities.
// Closing entries are never included. Customer and supplier groups are classified by
// the sign of their balance.
func (s *ReportingService) BalanceSheet(ctx context.Context, req dto.ReportRequest) (*domain.BalanceSheetReport, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}
	ctx, _ = logging.WithOperation(ctx, "report_balance_sheet", slog.String("exercise", req.ExerciseCode))

	base := reportQuery(req)
	chart := s.chart(ctx, "balance_sheet", req.ExerciseCode)
	rows := s.balances(ctx, "balance_sheet", withGroups(base, "1", "5", domain.OperationClosing))
	resultRows := s.balances(ctx, "balance_sheet", withGroups(base, "6", "7", domain.OperationClosing))

	result := decimal.Zero
	for _, row := range resultRows {
		result = result.Sub(row.Net())
	}

	var assets, equity, liabilities []domain.ReportLine
	for _, t := range byAccount(rows, chart) {
		switch {
		case strings.HasPrefix(t.code, "2"), strings.HasPrefix(t.code, "3"):
			assets = append(assets, reportLine(t, t.net))
		case strings.HasPrefix(t.code, "4"), strings.HasPrefix(t.code, "5"):
			if t.net.IsPositive() {
				assets = append(assets, reportLine(t, t.net))
			} else {
				liabilities = append(liabilities, reportLine(t, t.net.Neg()))
			}
		case len(t.code) >= 2 && t.code[:2] >= "10" && t.code[:2] <= "13":
			equity = append(equity, reportLine(t, t.net.Neg()))
		default:
			liabilities = append(liabilities, reportLine(t, t.net.Neg()))
		}
	}
	if !result.IsZero() {
		equity = append(equity, domain.ReportLine{Code: resultCode, Description: "Result of the exercise", Amount: result})
	}

	totalAssets := decimal.Zero
	for _, l := range assets {
		totalAssets = totalAssets.Add(l.Amount)
	}
	totalOther := decimal.Zero
	for _, l := range append(append([]domain.ReportLine{}, equity...), liabilities...) {
		totalOther = totalOther.Add(l.Amount)
	}

	report := &domain.BalanceSheetReport{
		Assets:                    s.section("Assets", assets, &totalAssets),
		Equity:                    s.section("Equity", equity, &totalOther),
		Liabilities:               s.section("Liabilities", liabilities, &totalOther),
		Result:                    result,
		TotalAssets:               totalAssets,
		TotalEquityAndLiabilities: totalOther,
	}

	s.LogInfo(ctx, "Balance sheet report generated",
		slog.Int("asset_accounts", len(assets)),
		slog.Int("equity_accounts", len(equity)),
		slog.Int("liability_accounts", len(liabilities)))
	return report, nil
}

// profitAndLoss reads groups 6 and 7 without the regularization and closing entries.
func (s *ReportingService) profitAndLoss(ctx context.Context, req dto.ReportRequest, report string) *domain.ProfitAndLossReport {
	base := reportQuery(req)
	chart := s.chart(ctx, report, req.ExerciseCode)
	rows := s.balances(ctx, report, withGroups(base, "6", "7", domain.OperationRegularization, domain.OperationClosing))

	var income, expenses []domain.ReportLine
	for _, t := range byAccount(rows, chart) {
		if strings.HasPrefix(t.code, "7") {
			income = append(income, reportLine(t, t.net.Neg()))
		} else {
			expenses = append(expenses, reportLine(t, t.net))
		}
	}

	totalIncome := decimal.Zero
	for _, l := range income {
		totalIncome = totalIncome.Add(l.Amount)
	}
	pl := &domain.ProfitAndLossReport{
		Income:   s.section("Income", income, &totalIncome),
		Expenses: s.section("Expenses", expenses, &totalIncome),
	}
	pl.Result = pl.Income.Total.Sub(pl.Expenses.Total)
	pl.Display = s.format.Money(pl.Result)
	return pl
}

// ProfitAndLoss lists income (group 7) and expenses (group 6) with their percentage of income.
func (s *ReportingService) ProfitAndLoss(ctx context.Context, req dto.ReportRequest) (*domain.ProfitAndLossReport, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}
	ctx, _ = logging.WithOperation(ctx, "report_profit_and_loss", slog.String("exercise", req.ExerciseCode))

	report := s.profitAndLoss(ctx, req, "profit_and_loss")
	s.LogInfo(ctx, "Profit and loss report generated",
		slog.Int("income_accounts", len(report.Income.Lines)),
		slog.Int("expense_accounts", len(report.Expenses.Lines)))
	return report, nil
}

// IncomeAndExpenditure adds the income (group 9) and expenses (group 8) booked directly
// to equity to the profit and loss result.
func (s *ReportingService) IncomeAndExpenditure(ctx context.Context, req dto.ReportRequest) (*domain.IncomeAndExpenditureReport, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}
	ctx, _ = logging.WithOperation(ctx, "report_income_and_expenditure", slog.String("exercise", req.ExerciseCode))

	pl := s.profitAndLoss(ctx, req, "income_and_expenditure")
	chart := s.chart(ctx, "income_and_expenditure", req.ExerciseCode)
	rows := s.balances(ctx, "income_and_expenditure",
		withGroups(reportQuery(req), "8", "9", domain.OperationRegularization, domain.OperationClosing))

	var income, expenses []domain.ReportLine
	for _, t := range byAccount(rows, chart) {
		if strings.HasPrefix(t.code, "9") {
			income = append(income, reportLine(t, t.net.Neg()))
		} else {
			expenses = append(expenses, reportLine(t, t.net))
		}
	}

	report := &domain.IncomeAndExpenditureReport{
		ProfitAndLossResult: pl.Result,
		EquityIncome:        s.section("Income recognised in equity", income, nil),
		EquityExpenses:      s.section("Expenses recognised in equity", expenses, nil),
	}
	report.Total = report.ProfitAndLossResult.Add(report.EquityIncome.Total).Sub(report.EquityExpenses.Total)
	report.Display = s.format.Money(report.Total)

	s.LogInfo(ctx, "Income and expenditure report generated", slog.String("total", report.Total.String()))
	return report, nil
}

// Ledger lists posted lines per sub-account with their running balance. The running
// balance of a sub-account continues across pages through the pagination token.
func (s *ReportingService) Ledger(ctx context.Context, req dto.LedgerRequest) (*domain.LedgerReport, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}
	ctx, _ = logging.WithOperation(ctx, "report_ledger", slog.String("exercise", req.ExerciseCode))

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	q := portsrepo.LedgerQuery{BalanceQuery: reportQuery(req.ReportRequest), Limit: limit + 1}

	var cursor pagination.LedgerCursor
	if req.NextToken != "" {
		var err error
		if cursor, err = pagination.DecodeLedgerToken(req.NextToken); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		q.AfterCode, q.AfterDate, q.AfterLineID = cursor.SubaccountCode, cursor.Date, cursor.LineID
	}

	report := &domain.LedgerReport{Lines: []domain.LedgerLine{}}
	lines, err := s.reader.LedgerLines(ctx, q)
	if err != nil {
		s.Messages.Warning(ctx, logging.KeyReportDataError,
			slog.String("report", "ledger"),
			slog.String("error", err.Error()))
		return report, nil
	}

	more := len(lines) > limit
	if more {
		lines = lines[:limit]
	}

	carried := s.carriedBalances(ctx, req.ReportRequest)
	code, balance := cursor.SubaccountCode, cursor.Balance
	for _, line := range lines {
		if line.SubaccountCode != code {
			code, balance = line.SubaccountCode, carried[line.SubaccountCode]
		}
		balance = balance.Add(line.Debit).Sub(line.Credit)
		line.Balance = balance
		report.Lines = append(report.Lines, line)
	}

	if more && len(report.Lines) > 0 {
		last := report.Lines[len(report.Lines)-1]
		token := pagination.EncodeLedgerToken(pagination.LedgerCursor{
			SubaccountCode: last.SubaccountCode,
			Date:           last.Date,
			LineID:         last.LineID,
			Balance:        last.Balance,
		})
		report.NextToken = &token
	}
	return report, nil
}
