package accounting

import (
	"fmt"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultDecimals is the money precision used when none is configured.
const DefaultDecimals int32 = 2

// Round rounds an amount half away from zero to the given number of decimals.
func Round(amount decimal.Decimal, decimals int32) decimal.Decimal {
	return amount.Round(decimals)
}

// Split returns the debit and credit columns that post a signed balance.
// A positive net goes to the debit column, a negative one to the credit column.
func Split(net decimal.Decimal) (debit, credit decimal.Decimal) {
	if net.IsNegative() {
		return decimal.Zero, net.Neg()
	}
	return net, decimal.Zero
}

// Reverse returns the columns that cancel a signed balance.
func Reverse(net decimal.Decimal) (debit, credit decimal.Decimal) {
	return Split(net.Neg())
}

// ValidateEntryBalance checks that the lines of an entry are well formed and that
// total debit equals total credit at the given precision.
func ValidateEntryBalance(lines []domain.JournalLine, decimals int32) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: entry must have at least two lines", apperrors.ErrUnbalancedEntry)
	}

	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrUnbalancedEntry, err)
		}
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}

	if !debit.Round(decimals).Equal(credit.Round(decimals)) {
		return fmt.Errorf("%w: debit %s, credit %s", apperrors.ErrUnbalancedEntry, debit.StringFixed(decimals), credit.StringFixed(decimals))
	}
	return nil
}

// Percentage returns part as a percentage of total, or zero when total is zero.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}
