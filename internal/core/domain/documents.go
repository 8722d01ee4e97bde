package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind tells sales documents from purchase documents.
type DocumentKind string

const (
	SalesDocument    DocumentKind = "sales"
	PurchaseDocument DocumentKind = "purchase"
)

// Invoice is a customer (facturascli) or supplier (facturasprov) invoice.
type Invoice struct {
	ID                 int64           `json:"id"`
	Kind               DocumentKind    `json:"kind" validate:"required,oneof=sales purchase"`
	Code               string          `json:"code" validate:"required"`
	Date               time.Time       `json:"date" validate:"required"`
	ExerciseCode       string          `json:"exerciseCode" validate:"required"`
	CompanyID          int             `json:"companyID"`
	PartyCode          string          `json:"partyCode" validate:"required"`
	PartyName          string          `json:"partyName"`
	TaxNumber          string          `json:"taxNumber"`
	Net                decimal.Decimal `json:"net"`
	TotalTax           decimal.Decimal `json:"totalTax"`
	TotalSurcharge     decimal.Decimal `json:"totalSurcharge"`
	TotalWithholding   decimal.Decimal `json:"totalWithholding"`
	WithholdingRate    decimal.Decimal `json:"withholdingRate"`
	TotalSupplied      decimal.Decimal `json:"totalSupplied"`
	Total              decimal.Decimal `json:"total"`
	RectifiedInvoiceID *int64          `json:"rectifiedInvoiceID"`
	IntraCommunity     bool            `json:"intraCommunity"`
	Channel            *int            `json:"channel"`
	JournalID          *int            `json:"journalID"` // from the invoice series
	Lines              []InvoiceLine   `json:"lines" validate:"dive"`
	JournalEntryID     *int64          `json:"journalEntryID"`
}

// IsRectification reports whether the invoice corrects a previous one.
func (i *Invoice) IsRectification() bool {
	return i.RectifiedInvoiceID != nil
}

// InvoiceLine is a line of an invoice, already net of discounts.
type InvoiceLine struct {
	ProductRef     string          `json:"productRef"`
	Description    string          `json:"description"`
	FamilyCode     string          `json:"familyCode"`
	SubaccountCode string          `json:"subaccountCode"` // product specific goods sub-account
	Net            decimal.Decimal `json:"net"`
	TaxCode        string          `json:"taxCode"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	SurchargeRate  decimal.Decimal `json:"surchargeRate"`
	Supplied       bool            `json:"supplied"` // suplido: expense paid on behalf of the party
}

// Payment is a receipt from a customer or a payment to a supplier.
type Payment struct {
	ID                int64           `json:"id"`
	Kind              DocumentKind    `json:"kind" validate:"required,oneof=sales purchase"`
	InvoiceCode       string          `json:"invoiceCode"`
	PartyCode         string          `json:"partyCode" validate:"required"`
	PartyName         string          `json:"partyName"`
	CompanyID         int             `json:"companyID"`
	Date              time.Time       `json:"date" validate:"required"`
	Amount            decimal.Decimal `json:"amount"`
	BankExpense       decimal.Decimal `json:"bankExpense"`
	PaymentMethodCode string          `json:"paymentMethodCode" validate:"required"`
	Channel           *int            `json:"channel"`
	JournalEntryID    *int64          `json:"journalEntryID"`
}

// VatRegularization settles the tax sub-accounts of one period (regularizacionimpuestos).
type VatRegularization struct {
	ID             int64     `json:"id"`
	ExerciseCode   string    `json:"exerciseCode" validate:"required"`
	CompanyID      int       `json:"companyID"`
	Period         string    `json:"period"`
	StartDate      time.Time `json:"startDate" validate:"required"`
	EndDate        time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	JournalEntryID *int64    `json:"journalEntryID"`
}

// Tax is a VAT rate with its dedicated sub-accounts (impuestos).
type Tax struct {
	Code                      string          `json:"code"`
	Description               string          `json:"description"`
	Rate                      decimal.Decimal `json:"rate"`
	SurchargeRate             decimal.Decimal `json:"surchargeRate"`
	OutputSubaccount          string          `json:"outputSubaccount"`
	InputSubaccount           string          `json:"inputSubaccount"`
	SurchargeOutputSubaccount string          `json:"surchargeOutputSubaccount"`
	SurchargeInputSubaccount  string          `json:"surchargeInputSubaccount"`
}

// Retention is an IRPF withholding percentage (retenciones).
type Retention struct {
	Code               string          `json:"code"`
	Percentage         decimal.Decimal `json:"percentage"`
	SalesSubaccount    string          `json:"salesSubaccount"`
	PurchaseSubaccount string          `json:"purchaseSubaccount"`
}

// PaymentMethod links a payment method with its bank and bank expense sub-accounts (formaspago).
type PaymentMethod struct {
	Code              string `json:"code"`
	Description       string `json:"description"`
	Subaccount        string `json:"subaccount"`
	ExpenseSubaccount string `json:"expenseSubaccount"`
}

// Family groups products and carries their default goods sub-accounts (familias).
type Family struct {
	Code               string `json:"code"`
	Description        string `json:"description"`
	SalesSubaccount    string `json:"salesSubaccount"`
	PurchaseSubaccount string `json:"purchaseSubaccount"`
}
