package utils

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyFormatter renders amounts and percentages following the conventions of one language.
type MoneyFormatter struct {
	printer  *message.Printer
	decimals int32
}

// NewMoneyFormatter creates a formatter for a BCP 47 language tag. Unknown tags fall back to English.
func NewMoneyFormatter(lang string, decimals int32) *MoneyFormatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return &MoneyFormatter{printer: message.NewPrinter(tag), decimals: decimals}
}

// Money formats an amount with grouping separators and a fixed number of decimals.
// Example: 1234.5 in "en" returns "1,234.50", in "de" returns "1.234,50"
func (f *MoneyFormatter) Money(amount decimal.Decimal) string {
	value := amount.Round(f.decimals).InexactFloat64()
	return f.printer.Sprint(number.Decimal(value, number.Scale(int(f.decimals))))
}

// Percent formats a percentage expressed on a 0-100 scale.
// Example: 21 in "en" returns "21.00%"
func (f *MoneyFormatter) Percent(pct decimal.Decimal) string {
	value := pct.Div(decimal.NewFromInt(100)).InexactFloat64()
	return f.printer.Sprint(number.Percent(value, number.Scale(2)))
}
