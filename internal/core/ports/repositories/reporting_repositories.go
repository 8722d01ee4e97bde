package repositories

import (
	"context"
	"slices"
	"time"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
)

// BalanceQuery selects the posted lines aggregated by the closing stages, the VAT
// regularization and the reports. Zero values disable a filter.
type BalanceQuery struct {
	ExerciseCode string
	DateFrom     time.Time
	DateTo       time.Time
	// Channel filters by entry channel when non-nil.
	Channel *int
	// CodeFrom and CodeTo bound the sub-account code range; codes are compared on a prefix
	// of the bound length, so "6" to "7" selects groups 6 and 7.
	CodeFrom string
	CodeTo   string
	// SpecialAccounts keeps only sub-accounts tagged with one of these roles.
	SpecialAccounts []domain.SpecialAccountRole
	// ExcludeOperations drops lines of entries tagged with these operations.
	ExcludeOperations []domain.Operation
	// GroupByChannel aggregates per (channel, sub-account) instead of per sub-account.
	GroupByChannel bool
}

// InCodeRange reports whether a sub-account code falls inside CodeFrom..CodeTo.
func (q BalanceQuery) InCodeRange(code string) bool {
	if q.CodeFrom != "" && prefix(code, len(q.CodeFrom)) < q.CodeFrom {
		return false
	}
	if q.CodeTo != "" && prefix(code, len(q.CodeTo)) > q.CodeTo {
		return false
	}
	return true
}

// InDateRange reports whether date falls inside DateFrom..DateTo, both ends included.
func (q BalanceQuery) InDateRange(date time.Time) bool {
	if !q.DateFrom.IsZero() && date.Before(q.DateFrom) {
		return false
	}
	if !q.DateTo.IsZero() && date.After(q.DateTo) {
		return false
	}
	return true
}

// Excludes reports whether lines of entries tagged with op are dropped.
func (q BalanceQuery) Excludes(op domain.Operation) bool {
	return op != domain.OperationNone && slices.Contains(q.ExcludeOperations, op)
}

// AcceptsRole reports whether a sub-account tagged with role passes the special account filter.
func (q BalanceQuery) AcceptsRole(role domain.SpecialAccountRole) bool {
	return len(q.SpecialAccounts) == 0 || slices.Contains(q.SpecialAccounts, role)
}

func prefix(code string, n int) string {
	if len(code) <= n {
		return code
	}
	return code[:n]
}

// LedgerQuery selects the lines listed by the ledger report.
type LedgerQuery struct {
	BalanceQuery
	Limit int
	// AfterCode, AfterDate and AfterLineID continue a listing after the given position.
	AfterCode   string
	AfterDate   time.Time
	AfterLineID int64
}

// IsAfter reports whether a line sorts after the continuation position.
func (q LedgerQuery) IsAfter(code string, date time.Time, lineID int64) bool {
	if q.AfterCode == "" {
		return true
	}
	if code != q.AfterCode {
		return code > q.AfterCode
	}
	if !date.Equal(q.AfterDate) {
		return date.After(q.AfterDate)
	}
	return lineID > q.AfterLineID
}

// BalanceReader aggregates posted journal lines.
type BalanceReader interface {
	// SubaccountBalances returns one row per sub-account (or per channel and sub-account),
	// ordered by channel then sub-account code. Rows whose debit and credit are both zero are omitted.
	SubaccountBalances(ctx context.Context, q BalanceQuery) ([]domain.SubaccountBalance, error)

	// LedgerLines returns posted lines ordered by sub-account code, date and line ID.
	LedgerLines(ctx context.Context, q LedgerQuery) ([]domain.LedgerLine, error)
}
