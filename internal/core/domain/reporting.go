package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubaccountBalance is the aggregate of the posted lines of one sub-account in one channel.
type SubaccountBalance struct {
	Channel        int             `json:"channel" db:"canal"`
	SubaccountID   int64           `json:"subaccountID" db:"idsubcuenta"`
	SubaccountCode string          `json:"subaccountCode" db:"codsubcuenta"`
	AccountID      int64           `json:"accountID" db:"idcuenta"`
	AccountCode    string          `json:"accountCode" db:"codcuenta"`
	Description    string          `json:"description" db:"descripcion"`
	Debit          decimal.Decimal `json:"debit" db:"debe"`
	Credit         decimal.Decimal `json:"credit" db:"haber"`
}

// Net returns debit minus credit.
func (b SubaccountBalance) Net() decimal.Decimal {
	return b.Debit.Sub(b.Credit)
}

// BalanceRow is one line of the sums and balances report, either an account or a sub-account.
type BalanceRow struct {
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	Level        int             `json:"level"`
	IsSubaccount bool            `json:"isSubaccount"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Balance      decimal.Decimal `json:"balance"`
	Display      BalanceDisplay  `json:"display"`
}

// BalanceDisplay holds the formatted amounts of a BalanceRow.
type BalanceDisplay struct {
	Debit   string `json:"debit"`
	Credit  string `json:"credit"`
	Balance string `json:"balance"`
}

// BalanceAmountsReport is the sums and balances report.
type BalanceAmountsReport struct {
	Rows        []BalanceRow    `json:"rows"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
}

// ReportLine is one amount of a financial statement section.
type ReportLine struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Percentage  decimal.Decimal `json:"percentage"`
	Display     string          `json:"display"`
	DisplayPct  string          `json:"displayPct"`
}

// ReportSection is a titled group of report lines with its total.
type ReportSection struct {
	Label   string          `json:"label"`
	Lines   []ReportLine    `json:"lines"`
	Total   decimal.Decimal `json:"total"`
	Display string          `json:"display"`
}

// BalanceSheetReport splits balance-sheet sub-accounts into assets and equity plus liabilities.
type BalanceSheetReport struct {
	Assets                    ReportSection   `json:"assets"`
	Equity                    ReportSection   `json:"equity"`
	Liabilities               ReportSection   `json:"liabilities"`
	Result                    decimal.Decimal `json:"result"` // not yet regularized P&L result
	TotalAssets               decimal.Decimal `json:"totalAssets"`
	TotalEquityAndLiabilities decimal.Decimal `json:"totalEquityAndLiabilities"`
}

// ProfitAndLossReport lists income (group 7) and expenses (group 6).
type ProfitAndLossReport struct {
	Income   ReportSection   `json:"income"`
	Expenses ReportSection   `json:"expenses"`
	Result   decimal.Decimal `json:"result"`
	Display  string          `json:"display"`
}

// IncomeAndExpenditureReport is the statement of recognised income and expense:
// the P&L result plus the income (group 9) and expenses (group 8) booked straight to equity.
type IncomeAndExpenditureReport struct {
	ProfitAndLossResult decimal.Decimal `json:"profitAndLossResult"`
	EquityIncome        ReportSection   `json:"equityIncome"`
	EquityExpenses      ReportSection   `json:"equityExpenses"`
	Total               decimal.Decimal `json:"total"`
	Display             string          `json:"display"`
}

// LedgerLine is a posted line with its entry header and the running balance of its sub-account.
type LedgerLine struct {
	LineID          int64           `json:"lineID" db:"idpartida"`
	EntryID         int64           `json:"entryID" db:"idasiento"`
	EntryNumber     int64           `json:"entryNumber" db:"numero"`
	Date            time.Time       `json:"date" db:"fecha"`
	Concept         string          `json:"concept" db:"concepto"`
	Document        string          `json:"document" db:"documento"`
	SubaccountCode  string          `json:"subaccountCode" db:"codsubcuenta"`
	CounterpartCode string          `json:"counterpartCode" db:"codcontrapartida"`
	Debit           decimal.Decimal `json:"debit" db:"debe"`
	Credit          decimal.Decimal `json:"credit" db:"haber"`
	Balance         decimal.Decimal `json:"balance" db:"-"`
}

// LedgerReport is a page of ledger lines.
type LedgerReport struct {
	Lines     []LedgerLine `json:"lines"`
	NextToken *string      `json:"nextToken,omitempty"`
}
