package memory

import (
	"context"
	"fmt"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Seeding helpers --------------------------------------------------------------

// AddCustomer stores or replaces a customer.
func (m *Store) AddCustomer(c domain.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.customers[c.Code] = c
}

// AddSupplier stores or replaces a supplier.
func (m *Store) AddSupplier(s domain.Supplier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.suppliers[s.Code] = s
}

// AddCustomerGroup stores or replaces a customer group.
func (m *Store) AddCustomerGroup(g domain.CustomerGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.groups[g.Code] = g
}

// AddTax stores or replaces a tax.
func (m *Store) AddTax(t domain.Tax) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.taxes[t.Code] = t
}

// AddRetention stores or replaces a withholding retention.
func (m *Store) AddRetention(r domain.Retention) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.retentions[r.Code] = r
}

// AddPaymentMethod stores or replaces a payment method.
func (m *Store) AddPaymentMethod(p domain.PaymentMethod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.paymentMethods[p.Code] = p
}

// AddFamily stores or replaces a product family.
func (m *Store) AddFamily(f domain.Family) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.families[f.Code] = f
}

// AddVatRegularization stores a regularization period, assigning an ID when missing.
func (m *Store) AddVatRegularization(reg *domain.VatRegularization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reg.ID == 0 {
		reg.ID = m.nextIDLocked()
	}
	m.st.vatRegs[reg.ID] = *reg
}

// PartyRepository implementation ------------------------------------------------

func (m *Store) FindParty(_ context.Context, kind domain.DocumentKind, code string) (domain.LedgerAccountHolder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch kind {
	case domain.SalesDocument:
		if c, ok := m.st.customers[code]; ok {
			return &c, nil
		}
	case domain.PurchaseDocument:
		if s, ok := m.st.suppliers[code]; ok {
			return &s, nil
		}
	default:
		return nil, fmt.Errorf("unknown document kind %q: %w", kind, apperrors.ErrValidation)
	}
	return nil, fmt.Errorf("%s party %s: %w", kind, code, apperrors.ErrNotFound)
}

func (m *Store) FindCustomerGroup(_ context.Context, code string) (*domain.CustomerGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.st.groups[code]
	if !ok {
		return nil, fmt.Errorf("customer group %s: %w", code, apperrors.ErrNotFound)
	}
	return &g, nil
}

func (m *Store) IsSubaccountCodeAssigned(_ context.Context, code string, except domain.LedgerAccountHolder) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	isSelf := func(p domain.LedgerAccountHolder) bool {
		return except != nil && p.PartyCode() == except.PartyCode() && p.Role() == except.Role()
	}
	for _, c := range m.st.customers {
		if c.SubaccountVal == code && !isSelf(&c) {
			return true, nil
		}
	}
	for _, s := range m.st.suppliers {
		if s.SubaccountVal == code && !isSelf(&s) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Store) SavePartySubaccount(_ context.Context, party domain.LedgerAccountHolder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch p := party.(type) {
	case *domain.Customer:
		m.st.customers[p.Code] = *p
	case *domain.Supplier:
		m.st.suppliers[p.Code] = *p
	case *domain.CustomerGroup:
		m.st.groups[p.Code] = *p
	default:
		return fmt.Errorf("unsupported party type %T: %w", party, apperrors.ErrValidation)
	}
	return nil
}

// MasterDataRepository implementation -------------------------------------------

func (m *Store) FindTax(_ context.Context, code string) (*domain.Tax, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.st.taxes[code]
	if !ok {
		return nil, fmt.Errorf("tax %s: %w", code, apperrors.ErrNotFound)
	}
	return &t, nil
}

func (m *Store) FindRetentionByPercentage(_ context.Context, percentage decimal.Decimal) (*domain.Retention, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *domain.Retention
	for _, r := range m.st.retentions {
		if r.Percentage.Equal(percentage) && (found == nil || r.Code < found.Code) {
			found = &r
		}
	}
	if found == nil {
		return nil, fmt.Errorf("retention %s%%: %w", percentage, apperrors.ErrNotFound)
	}
	return found, nil
}

func (m *Store) FindPaymentMethod(_ context.Context, code string) (*domain.PaymentMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.st.paymentMethods[code]
	if !ok {
		return nil, fmt.Errorf("payment method %s: %w", code, apperrors.ErrNotFound)
	}
	return &p, nil
}

func (m *Store) FindFamily(_ context.Context, code string) (*domain.Family, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.st.families[code]
	if !ok {
		return nil, fmt.Errorf("family %s: %w", code, apperrors.ErrNotFound)
	}
	return &f, nil
}

// DocumentRepository implementation ---------------------------------------------

func (m *Store) SetInvoiceEntry(_ context.Context, invoice *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *invoice
	stored.Lines = append([]domain.InvoiceLine(nil), invoice.Lines...)
	m.st.invoices[documentKey{Kind: invoice.Kind, ID: invoice.ID}] = stored
	return nil
}

func (m *Store) SetPaymentEntry(_ context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.payments[documentKey{Kind: payment.Kind, ID: payment.ID}] = *payment
	return nil
}

func (m *Store) SetVatRegularizationEntry(_ context.Context, reg *domain.VatRegularization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.vatRegs[reg.ID] = *reg
	return nil
}

func (m *Store) FindVatRegularization(_ context.Context, id int64) (*domain.VatRegularization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.st.vatRegs[id]
	if !ok {
		return nil, fmt.Errorf("vat regularization %d: %w", id, apperrors.ErrNotFound)
	}
	return &reg, nil
}

// InvoiceEntry returns the journal entry stored for an invoice, if any.
func (m *Store) InvoiceEntry(kind domain.DocumentKind, id int64) *int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.invoices[documentKey{Kind: kind, ID: id}].JournalEntryID
}
