package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Account is a grouping node of the chart of accounts, scoped to one exercise.
type Account struct {
	ID             int64              `json:"id"`
	Code           string             `json:"code"`         // unique within ExerciseCode
	ExerciseCode   string             `json:"exerciseCode"` // FK -> ejercicios.codejercicio
	Description    string             `json:"description"`
	SpecialAccount SpecialAccountRole `json:"specialAccount"`
	ParentID       *int64             `json:"parentID"` // nil for top level accounts
	ParentCode     string             `json:"parentCode"`
}

// Subaccount is the posting leaf of the chart of accounts.
type Subaccount struct {
	ID             int64              `json:"id"`
	Code           string             `json:"code"`
	ExerciseCode   string             `json:"exerciseCode"`
	AccountID      int64              `json:"accountID"` // always an account of the same exercise
	AccountCode    string             `json:"accountCode"`
	Description    string             `json:"description"`
	SpecialAccount SpecialAccountRole `json:"specialAccount"`
	Debit          decimal.Decimal    `json:"debit"`
	Credit         decimal.Decimal    `json:"credit"`
	Balance        decimal.Decimal    `json:"balance"`
}

// Exists reports whether the sub-account has been persisted.
func (s Subaccount) Exists() bool {
	return s.ID != 0
}

// Exists reports whether the account has been persisted.
func (a Account) Exists() bool {
	return a.ID != 0
}

// IsProfitAndLoss reports whether code belongs to the P&L groups 6 and 7.
func IsProfitAndLoss(code string) bool {
	return strings.HasPrefix(code, "6") || strings.HasPrefix(code, "7")
}

// IsBalanceSheet reports whether code belongs to the balance-sheet groups 1 to 5.
func IsBalanceSheet(code string) bool {
	return code != "" && code[0] >= '1' && code[0] <= '5'
}
