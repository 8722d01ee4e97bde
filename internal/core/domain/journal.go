package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operation marks the journal entries generated by the period closing stages.
type Operation string

const (
	OperationNone           Operation = ""
	OperationRegularization Operation = "R"
	OperationClosing        Operation = "C"
	OperationOpening        Operation = "A"
)

// JournalEntry is the header of a double-entry accounting transaction (asientos).
type JournalEntry struct {
	ID           int64           `json:"id"`
	Number       int64           `json:"number"` // sequential per exercise
	ExerciseCode string          `json:"exerciseCode"`
	CompanyID    int             `json:"companyID"`
	Date         time.Time       `json:"date"`
	Concept      string          `json:"concept"`
	Document     string          `json:"document"`
	Amount       decimal.Decimal `json:"amount"` // max(total debit, total credit)
	Channel      *int            `json:"channel"`
	JournalID    *int            `json:"journalID"`
	Operation    Operation       `json:"operation"`
	Editable     bool            `json:"editable"`
	Lines        []JournalLine   `json:"lines,omitempty"`
}

// TotalDebit sums the debit column of the loaded lines.
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit column of the loaded lines.
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced reports whether debits equal credits at the given number of decimals.
func (e *JournalEntry) IsBalanced(decimals int32) bool {
	return e.TotalDebit().Round(decimals).Equal(e.TotalCredit().Round(decimals))
}

// UpdateAmount sets Amount to the larger of both columns.
func (e *JournalEntry) UpdateAmount() {
	debit, credit := e.TotalDebit(), e.TotalCredit()
	if debit.GreaterThan(credit) {
		e.Amount = debit
		return
	}
	e.Amount = credit
}

// ChannelKey returns the channel as a comparable value, 0 meaning no channel.
func (e *JournalEntry) ChannelKey() int {
	if e.Channel == nil {
		return 0
	}
	return *e.Channel
}
