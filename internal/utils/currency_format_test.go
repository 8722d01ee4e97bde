package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoneyFormatter(t *testing.T) {
	amount := decimal.RequireFromString("1234.5")

	tests := []struct {
		lang  string
		money string
	}{
		{"en", "1,234.50"},
		{"de", "1.234,50"},
		{"not a tag", "1,234.50"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.money, NewMoneyFormatter(tt.lang, 2).Money(amount))
		})
	}

	assert.Equal(t, "21.00%", NewMoneyFormatter("en", 2).Percent(decimal.NewFromInt(21)))

	assert.Equal(t, "-0.33", NewMoneyFormatter("en", 2).Money(decimal.RequireFromString("-0.333")))
}
