package domain

// LedgerAccountHolder is implemented by every business party that owns a sub-account
// (customers, suppliers and customer groups).
type LedgerAccountHolder interface {
	PartyCode() string
	PartyName() string
	// Role is the special account whose account parents the party sub-accounts.
	Role() SpecialAccountRole
	// GroupCode returns the party group, or "" when the party has none.
	GroupCode() string
	SubaccountCode() string
	SetSubaccountCode(code string)
}

// Customer is a sales party (clientes).
type Customer struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	TaxNumber     string `json:"taxNumber"`
	GroupCodeVal  string `json:"groupCode"`
	SubaccountVal string `json:"subaccountCode"`
}

func (c *Customer) PartyCode() string             { return c.Code }
func (c *Customer) PartyName() string             { return c.Name }
func (c *Customer) Role() SpecialAccountRole      { return RoleCustomer }
func (c *Customer) GroupCode() string             { return c.GroupCodeVal }
func (c *Customer) SubaccountCode() string        { return c.SubaccountVal }
func (c *Customer) SetSubaccountCode(code string) { c.SubaccountVal = code }

// Supplier is a purchases party (proveedores). Creditors use RoleCreditor.
type Supplier struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	TaxNumber     string `json:"taxNumber"`
	IsCreditor    bool   `json:"isCreditor"`
	SubaccountVal string `json:"subaccountCode"`
}

func (s *Supplier) PartyCode() string { return s.Code }
func (s *Supplier) PartyName() string { return s.Name }
func (s *Supplier) Role() SpecialAccountRole {
	if s.IsCreditor {
		return RoleCreditor
	}
	return RoleSupplier
}
func (s *Supplier) GroupCode() string             { return "" }
func (s *Supplier) SubaccountCode() string        { return s.SubaccountVal }
func (s *Supplier) SetSubaccountCode(code string) { s.SubaccountVal = code }

// CustomerGroup lets several customers share one sub-account (gruposclientes).
type CustomerGroup struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	SubaccountVal string `json:"subaccountCode"`
}

func (g *CustomerGroup) PartyCode() string             { return g.Code }
func (g *CustomerGroup) PartyName() string             { return g.Name }
func (g *CustomerGroup) Role() SpecialAccountRole      { return RoleCustomer }
func (g *CustomerGroup) GroupCode() string             { return "" }
func (g *CustomerGroup) SubaccountCode() string        { return g.SubaccountVal }
func (g *CustomerGroup) SetSubaccountCode(code string) { g.SubaccountVal = code }

var (
	_ LedgerAccountHolder = (*Customer)(nil)
	_ LedgerAccountHolder = (*Supplier)(nil)
	_ LedgerAccountHolder = (*CustomerGroup)(nil)
)
