package excel

import (
	"github.com/shopspring/decimal"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
)

// AddBalanceAmounts writes the debit, credit and balance of every account and sub-account.
func (w *Workbook) AddBalanceAmounts(name string, report *domain.BalanceAmountsReport) error {
	s, err := w.newSheet(name)
	if err != nil {
		return err
	}
	s.widths(map[string]float64{"A": 14, "B": 50, "C": 16, "D": 16, "E": 16})
	s.header("Code", "Description", "Debit", "Credit", "Balance")
	s.freezeHeader()

	for _, row := range report.Rows {
		s.set('A', row.Code)
		s.set('B', row.Description)
		s.set('C', amount(row.Debit))
		s.set('D', amount(row.Credit))
		s.set('E', amount(row.Balance))
		if row.IsSubaccount {
			s.style('A', 'B', indent(row.Level))
			s.style('C', 'E', numberFormat())
		} else {
			s.style('A', 'B', fontBold(), indent(row.Level))
			s.style('C', 'E', fontBold(), numberFormat())
		}
		s.skip()
	}

	s.set('B', "Total")
	s.set('C', amount(report.TotalDebit))
	s.set('D', amount(report.TotalCredit))
	s.set('E', amount(report.TotalDebit.Sub(report.TotalCredit)))
	s.style('A', 'B', fontBold(), thickBorder("top"))
	s.style('C', 'E', fontBold(), numberFormat(), thickBorder("top"))
	return s.err
}

// AddBalanceSheet writes assets, equity and liabilities with their totals.
func (w *Workbook) AddBalanceSheet(name string, report *domain.BalanceSheetReport) error {
	s, err := w.newSheet(name)
	if err != nil {
		return err
	}
	s.widths(map[string]float64{"A": 14, "B": 50, "C": 16, "D": 10})

	writeSection(s, report.Assets)
	writeTotal(s, "Total assets", report.TotalAssets)
	s.skip()
	writeSection(s, report.Equity)
	if !report.Result.IsZero() {
		s.set('B', "Result of the exercise")
		s.set('C', amount(report.Result))
		s.style('A', 'B', fontItalic())
		s.style('C', 'C', fontItalic(), numberFormat())
		s.skip()
	}
	writeSection(s, report.Liabilities)
	writeTotal(s, "Total equity and liabilities", report.TotalEquityAndLiabilities)
	return s.err
}

// AddProfitAndLoss writes income and expenses and the result of the period.
func (w *Workbook) AddProfitAndLoss(name string, report *domain.ProfitAndLossReport) error {
	s, err := w.newSheet(name)
	if err != nil {
		return err
	}
	s.widths(map[string]float64{"A": 14, "B": 50, "C": 16, "D": 10})

	writeSection(s, report.Income)
	writeSection(s, report.Expenses)
	writeTotal(s, "Result", report.Result)
	return s.err
}

// AddIncomeAndExpenditure writes the P&L result and the income and expenses booked to equity.
func (w *Workbook) AddIncomeAndExpenditure(name string, report *domain.IncomeAndExpenditureReport) error {
	s, err := w.newSheet(name)
	if err != nil {
		return err
	}
	s.widths(map[string]float64{"A": 14, "B": 50, "C": 16, "D": 10})

	s.set('B', "Profit and loss result")
	s.set('C', amount(report.ProfitAndLossResult))
	s.style('A', 'B', fontBold())
	s.style('C', 'C', fontBold(), numberFormat())
	s.skip()
	s.skip()
	writeSection(s, report.EquityIncome)
	writeSection(s, report.EquityExpenses)
	writeTotal(s, "Total recognised income and expenses", report.Total)
	return s.err
}

// AddLedger writes a page of ledger lines with their running balance.
func (w *Workbook) AddLedger(name string, report *domain.LedgerReport) error {
	s, err := w.newSheet(name)
	if err != nil {
		return err
	}
	s.widths(map[string]float64{"A": 14, "B": 12, "C": 10, "D": 40, "E": 14, "F": 14, "G": 16, "H": 16, "I": 16})
	s.header("Sub-account", "Date", "Entry", "Concept", "Document", "Counterpart", "Debit", "Credit", "Balance")
	s.freezeHeader()

	previous := ""
	for _, line := range report.Lines {
		if previous != "" && line.SubaccountCode != previous {
			s.skip()
		}
		previous = line.SubaccountCode

		s.set('A', line.SubaccountCode)
		s.set('B', line.Date)
		s.set('C', line.EntryNumber)
		s.set('D', line.Concept)
		s.set('E', line.Document)
		s.set('F', line.CounterpartCode)
		s.set('G', amount(line.Debit))
		s.set('H', amount(line.Credit))
		s.set('I', amount(line.Balance))
		s.style('B', 'B', dateFormat())
		s.style('G', 'I', numberFormat())
		s.skip()
	}
	return s.err
}

func writeSection(s *sheetWriter, section domain.ReportSection) {
	s.set('B', section.Label)
	s.style('A', 'D', fontBold(), thinBorder("bottom"))
	s.skip()

	for _, line := range section.Lines {
		s.set('A', line.Code)
		s.set('B', line.Description)
		s.set('C', amount(line.Amount))
		s.set('D', amount(line.Percentage.Div(decimal.NewFromInt(100))))
		s.style('C', 'C', numberFormat())
		s.style('D', 'D', percentStyle())
		s.skip()
	}

	s.set('B', "Total "+section.Label)
	s.set('C', amount(section.Total))
	s.style('A', 'B', fontBold(), thinBorder("top"))
	s.style('C', 'D', fontBold(), numberFormat(), thinBorder("top"))
	s.skip()
	s.skip()
}

func writeTotal(s *sheetWriter, label string, total decimal.Decimal) {
	s.set('B', label)
	s.set('C', amount(total))
	s.style('A', 'B', fontBold(), thickBorder("top", "bottom"))
	s.style('C', 'D', fontBold(), numberFormat(), thickBorder("top", "bottom"))
	s.skip()
}
