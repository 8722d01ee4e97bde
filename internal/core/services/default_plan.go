package services

import (
	"fmt"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/dto"
)

// defaultAccounts is a compact chart: the nine groups, their main accounts and the
// accounts every special role needs. Customer, supplier and creditor roles sit on accounts
// because party sub-accounts are created under them.
var defaultAccounts = []dto.PlanRow{
	{Code: "1", Description: "Basic financing"},
	{Code: "2", Description: "Non-current assets"},
	{Code: "3", Description: "Inventories"},
	{Code: "4", Description: "Creditors and debtors from trade operations"},
	{Code: "5", Description: "Financial accounts"},
	{Code: "6", Description: "Purchases and expenses"},
	{Code: "7", Description: "Sales and income"},
	{Code: "8", Description: "Expenses charged to equity"},
	{Code: "9", Description: "Income charged to equity"},

	{Code: "10", Description: "Capital"},
	{Code: "12", Description: "Results pending application"},
	{Code: "17", Description: "Long-term debts"},
	{Code: "21", Description: "Tangible fixed assets"},
	{Code: "30", Description: "Commercial stocks"},
	{Code: "40", Description: "Suppliers"},
	{Code: "41", Description: "Creditors for services"},
	{Code: "43", Description: "Customers"},
	{Code: "47", Description: "Public administrations"},
	{Code: "55", Description: "Other non-bank accounts"},
	{Code: "57", Description: "Cash"},
	{Code: "60", Description: "Purchases"},
	{Code: "62", Description: "External services"},
	{Code: "70", Description: "Sales"},
	{Code: "80", Description: "Financial expenses on valuation"},
	{Code: "90", Description: "Financial income on valuation"},

	{Code: "100", Description: "Share capital"},
	{Code: "120", Description: "Retained earnings"},
	{Code: "121", Description: "Losses from previous years"},
	{Code: "129", Description: "Result of the exercise"},
	{Code: "170", Description: "Long-term bank loans"},
	{Code: "210", Description: "Land and natural assets"},
	{Code: "300", Description: "Goods"},
	{Code: "400", Description: "Suppliers", Special: string(domain.RoleSupplier)},
	{Code: "410", Description: "Creditors for services", Special: string(domain.RoleCreditor)},
	{Code: "430", Description: "Customers", Special: string(domain.RoleCustomer)},
	{Code: "470", Description: "Public treasury, debtor"},
	{Code: "4700", Description: "Public treasury, VAT debtor"},
	{Code: "472", Description: "Input VAT"},
	{Code: "473", Description: "Public treasury, withholdings"},
	{Code: "475", Description: "Public treasury, creditor"},
	{Code: "4750", Description: "Public treasury, VAT creditor"},
	{Code: "4751", Description: "Public treasury, withholdings practised"},
	{Code: "477", Description: "Output VAT"},
	{Code: "555", Description: "Items pending application"},
	{Code: "570", Description: "Cash, euros"},
	{Code: "572", Description: "Banks"},
	{Code: "600", Description: "Purchases of goods"},
	{Code: "608", Description: "Purchase returns"},
	{Code: "626", Description: "Bank services"},
	{Code: "628", Description: "Supplies"},
	{Code: "700", Description: "Sales of goods"},
	{Code: "708", Description: "Sales returns"},
	{Code: "800", Description: "Losses on financial assets"},
	{Code: "900", Description: "Gains on financial assets"},
}

// defaultSubaccount is a sub-account of the default chart: the account code padded with
// zeros up to the sub-account length and ending in seq.
type defaultSubaccount struct {
	account     string
	seq         int
	description string
	special     domain.SpecialAccountRole
}

var defaultSubaccounts = []defaultSubaccount{
	{account: "100", description: "Share capital"},
	{account: "120", description: "Retained earnings", special: domain.RolePreviousPositiveResult},
	{account: "121", description: "Losses from previous years", special: domain.RolePreviousNegativeResult},
	{account: "129", description: "Profit and loss", special: domain.RoleProfitLoss},
	{account: "170", description: "Long-term bank loans"},
	{account: "210", description: "Land"},
	{account: "300", description: "Goods"},
	{account: "4700", description: "VAT debtor", special: domain.RoleTaxReceivable},
	{account: "472", description: "Input VAT", special: domain.RoleTaxInput},
	{account: "472", seq: 1, description: "Input VAT intra-community", special: domain.RoleTaxInputIntra},
	{account: "472", seq: 2, description: "Input VAT surcharge", special: domain.RoleSurchargeInput},
	{account: "473", description: "Withholdings and payments on account", special: domain.RoleWithholdingSales},
	{account: "4750", description: "VAT creditor", special: domain.RoleTaxPayable},
	{account: "4751", description: "Withholdings practised", special: domain.RoleWithholdingPurchases},
	{account: "477", description: "Output VAT", special: domain.RoleTaxOutput},
	{account: "477", seq: 1, description: "Output VAT intra-community", special: domain.RoleTaxOutputIntra},
	{account: "477", seq: 2, description: "Output VAT surcharge", special: domain.RoleSurchargeOutput},
	{account: "555", description: "Supplied expenses", special: domain.RoleSuppliedExpenses},
	{account: "570", description: "Cash", special: domain.RoleCash},
	{account: "572", description: "Bank"},
	{account: "600", description: "Purchases of goods", special: domain.RolePurchases},
	{account: "608", description: "Purchase returns", special: domain.RolePurchaseReturns},
	{account: "626", description: "Bank services", special: domain.RoleBankExpenses},
	{account: "628", description: "Supplies"},
	{account: "700", description: "Sales of goods", special: domain.RoleSales},
	{account: "708", description: "Sales returns", special: domain.RoleSalesReturns},
	{account: "800", description: "Losses on financial assets"},
	{account: "900", description: "Gains on financial assets"},
}

// defaultPlanRows returns the default chart with sub-account codes of the given length.
func defaultPlanRows(length int) []dto.PlanRow {
	rows := make([]dto.PlanRow, 0, len(defaultAccounts)+len(defaultSubaccounts))
	rows = append(rows, defaultAccounts...)
	for _, sub := range defaultSubaccounts {
		width := length - len(sub.account)
		if width <= 0 {
			continue
		}
		rows = append(rows, dto.PlanRow{
			Code:        sub.account + fmt.Sprintf("%0*d", width, sub.seq),
			Description: sub.description,
			Parent:      sub.account,
			Special:     string(sub.special),
		})
	}
	return rows
}
