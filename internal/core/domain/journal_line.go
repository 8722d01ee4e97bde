package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// JournalLine is a single debit or credit posting of a journal entry (partidas).
type JournalLine struct {
	ID              int64           `json:"id"`
	EntryID         int64           `json:"entryID"`
	SubaccountID    int64           `json:"subaccountID"`
	SubaccountCode  string          `json:"subaccountCode"`
	CounterpartID   *int64          `json:"counterpartID"`
	CounterpartCode string          `json:"counterpartCode"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Concept         string          `json:"concept"`
	Document        string          `json:"document"`
	TaxBase         decimal.Decimal `json:"taxBase"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	SurchargeRate   decimal.Decimal `json:"surchargeRate"`
	TaxNumber       string          `json:"taxNumber"`
	Sort            int             `json:"sort"`
}

// Validate checks the column invariant: no negative amounts and at most one non-zero column.
func (l JournalLine) Validate() error {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return fmt.Errorf("line for sub-account %s has a negative amount", l.SubaccountCode)
	}
	if !l.Debit.IsZero() && !l.Credit.IsZero() {
		return fmt.Errorf("line for sub-account %s has both debit and credit", l.SubaccountCode)
	}
	if l.SubaccountID == 0 || l.SubaccountCode == "" {
		return fmt.Errorf("line has no sub-account")
	}
	return nil
}

// Net returns debit minus credit.
func (l JournalLine) Net() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// SetAmount puts amount on the requested side. A negative amount is moved to the
// opposite column so both columns stay non-negative.
func (l *JournalLine) SetAmount(amount decimal.Decimal, debit bool) {
	if amount.IsNegative() {
		amount = amount.Neg()
		debit = !debit
	}
	if debit {
		l.Debit, l.Credit = amount, decimal.Zero
		return
	}
	l.Debit, l.Credit = decimal.Zero, amount
}
