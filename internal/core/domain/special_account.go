package domain

// SpecialAccountRole tags the account or sub-account that acts as the canonical target of a business
// role inside an exercise. The string values are the codes stored in cuentas/subcuentas.codcuentaesp.
type SpecialAccountRole string

const (
	RoleNone                   SpecialAccountRole = ""
	RoleCustomer               SpecialAccountRole = "CLIENT"
	RoleSupplier               SpecialAccountRole = "PROVEE"
	RoleCreditor               SpecialAccountRole = "ACREED"
	RoleSales                  SpecialAccountRole = "VENTAS"
	RolePurchases              SpecialAccountRole = "COMPRA"
	RoleSalesReturns           SpecialAccountRole = "DEVVEN"
	RolePurchaseReturns        SpecialAccountRole = "DEVCOM"
	RoleTaxOutput              SpecialAccountRole = "IVAREP"
	RoleTaxInput               SpecialAccountRole = "IVASOP"
	RoleTaxOutputIntra         SpecialAccountRole = "IVARUE"
	RoleTaxInputIntra          SpecialAccountRole = "IVASUE"
	RoleSurchargeOutput        SpecialAccountRole = "IVARRE"
	RoleSurchargeInput         SpecialAccountRole = "IVASRE"
	RoleTaxPayable             SpecialAccountRole = "IVAACR"
	RoleTaxReceivable          SpecialAccountRole = "IVADEU"
	RoleWithholdingSales       SpecialAccountRole = "IRPF"
	RoleWithholdingPurchases   SpecialAccountRole = "IRPFPR"
	RoleSuppliedExpenses       SpecialAccountRole = "SUPLID"
	RoleCash                   SpecialAccountRole = "CAJA"
	RoleBankExpenses           SpecialAccountRole = "GTOBAN"
	RoleProfitLoss             SpecialAccountRole = "PYG"
	RolePreviousPositiveResult SpecialAccountRole = "REMANE"
	RolePreviousNegativeResult SpecialAccountRole = "RESNEG"
)

var specialAccountRoles = []SpecialAccountRole{
	RoleCustomer, RoleSupplier, RoleCreditor, RoleSales, RolePurchases, RoleSalesReturns,
	RolePurchaseReturns, RoleTaxOutput, RoleTaxInput, RoleTaxOutputIntra, RoleTaxInputIntra,
	RoleSurchargeOutput, RoleSurchargeInput, RoleTaxPayable, RoleTaxReceivable, RoleWithholdingSales,
	RoleWithholdingPurchases, RoleSuppliedExpenses, RoleCash, RoleBankExpenses, RoleProfitLoss,
	RolePreviousPositiveResult, RolePreviousNegativeResult,
}

// SpecialAccountRoles lists every known role.
func SpecialAccountRoles() []SpecialAccountRole {
	out := make([]SpecialAccountRole, len(specialAccountRoles))
	copy(out, specialAccountRoles)
	return out
}

// ParseSpecialAccountRole maps a persisted code to its role. Empty input is RoleNone.
func ParseSpecialAccountRole(code string) (SpecialAccountRole, bool) {
	if code == "" {
		return RoleNone, true
	}
	for _, r := range specialAccountRoles {
		if string(r) == code {
			return r, true
		}
	}
	return RoleNone, false
}

func (r SpecialAccountRole) String() string {
	return string(r)
}

// OutputTaxRoles are the roles whose balance is debited by a VAT regularization.
var OutputTaxRoles = []SpecialAccountRole{RoleTaxOutput, RoleTaxOutputIntra, RoleSurchargeOutput}

// InputTaxRoles are the roles whose balance is credited by a VAT regularization.
var InputTaxRoles = []SpecialAccountRole{RoleTaxInput, RoleTaxInputIntra, RoleSurchargeInput}
