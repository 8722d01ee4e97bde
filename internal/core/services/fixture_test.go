package services_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/erp_accounting/internal/adapters/database/memory"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/core/services"
	"github.com/SscSPs/erp_accounting/internal/logging"
)

// Sub-account codes of the default chart with length 10.
const (
	subCustomer    = "4300000001"
	subSupplier    = "4000000001"
	subSales       = "7000000000"
	subSalesRet    = "7080000000"
	subPurchases   = "6000000000"
	subOutputVAT   = "4770000000"
	subOutputIntra = "4770000001"
	subInputVAT    = "4720000000"
	subInputIntra  = "4720000001"
	subInputSurch  = "4720000002"
	subWithholding = "4751000000"
	subVATPayable  = "4750000000"
	subVATDebtor   = "4700000000"
	subProfitLoss  = "1290000000"
	subRetained    = "1200000000"
	subLosses      = "1210000000"
	subCash        = "5700000000"
	subBank        = "5720000000"
	subBankFees    = "6260000000"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixture wires every service on a memory store holding exercise 2024 with the default chart,
// customer "1" and supplier "1".
type fixture struct {
	ctx       context.Context
	store     *memory.Store
	messages  *logging.Recorder
	creator   *services.AccountCreator
	resolver  *services.SubaccountResolver
	invoices  *services.InvoicePoster
	payments  *services.PaymentPoster
	vat       *services.VatRegularizationPoster
	closing   *services.ClosingService
	reporting *services.ReportingService
	plan      *services.PlanService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Provider()
	messages := logging.NewRecorder()

	creator := services.NewAccountCreator(repos, messages, services.WithRandSource(rand.NewPCG(1, 2)))
	resolver := services.NewSubaccountResolver(repos, creator, messages)
	f := &fixture{
		ctx:       ctx,
		store:     store,
		messages:  messages,
		creator:   creator,
		resolver:  resolver,
		invoices:  services.NewInvoicePoster(repos, resolver, messages),
		payments:  services.NewPaymentPoster(repos, resolver, messages),
		vat:       services.NewVatRegularizationPoster(repos, resolver, messages),
		closing:   services.NewClosingService(repos, resolver, creator, messages, 2),
		reporting: services.NewReportingService(repos, messages),
		plan:      services.NewPlanService(repos, messages),
	}

	require.NoError(t, store.SaveExercise(ctx, domain.Exercise{
		Code: "2024", CompanyID: 1, Name: "2024",
		StartDate: day(2024, 1, 1), EndDate: day(2024, 12, 31),
		State: domain.ExerciseOpen, SubaccountLength: 10,
	}))
	_, err := f.plan.InstallDefault(ctx, "2024")
	require.NoError(t, err)

	store.AddCustomer(domain.Customer{Code: "1", Name: "Acme Retail", TaxNumber: "B12345678"})
	store.AddSupplier(domain.Supplier{Code: "1", Name: "Iberian Supplies", TaxNumber: "A87654321"})
	store.AddTax(domain.Tax{Code: "IVA21", Description: "VAT 21%", Rate: dec("21")})
	messages.Reset()
	return f
}

func (f *fixture) exercise(t *testing.T, code string) domain.Exercise {
	t.Helper()
	ex, err := f.store.FindExercise(f.ctx, code)
	require.NoError(t, err)
	return *ex
}

// salesInvoice returns a customer invoice of net at 21% VAT.
func salesInvoice(id int64, code string, date time.Time, net string) *domain.Invoice {
	base := dec(net)
	tax := base.Mul(dec("0.21")).Round(2)
	return &domain.Invoice{
		ID: id, Kind: domain.SalesDocument, Code: code, Date: date, ExerciseCode: "2024", CompanyID: 1,
		PartyCode: "1", PartyName: "Acme Retail", TaxNumber: "B12345678",
		Net: base, TotalTax: tax, Total: base.Add(tax),
		Lines: []domain.InvoiceLine{{Description: "Goods", Net: base, TaxCode: "IVA21", TaxRate: dec("21")}},
	}
}

// purchaseInvoice returns a supplier invoice of net at 21% VAT.
func purchaseInvoice(id int64, code string, date time.Time, net string) *domain.Invoice {
	base := dec(net)
	tax := base.Mul(dec("0.21")).Round(2)
	return &domain.Invoice{
		ID: id, Kind: domain.PurchaseDocument, Code: code, Date: date, ExerciseCode: "2024", CompanyID: 1,
		PartyCode: "1", PartyName: "Iberian Supplies", TaxNumber: "A87654321",
		Net: base, TotalTax: tax, Total: base.Add(tax),
		Lines: []domain.InvoiceLine{{Description: "Stock", Net: base, TaxCode: "IVA21", TaxRate: dec("21")}},
	}
}

// entryLines returns the lines of an entry keyed by sub-account code.
func (f *fixture) entryLines(t *testing.T, entryID int64) map[string]domain.JournalLine {
	t.Helper()
	lines, err := f.store.FindEntryLines(f.ctx, entryID)
	require.NoError(t, err)
	out := make(map[string]domain.JournalLine, len(lines))
	for _, l := range lines {
		require.NotContains(t, out, l.SubaccountCode, "one line per sub-account expected")
		out[l.SubaccountCode] = l
	}
	return out
}

func (f *fixture) subaccount(t *testing.T, exercise, code string) domain.Subaccount {
	t.Helper()
	sub, err := f.store.FindSubaccountByCode(f.ctx, exercise, code)
	require.NoError(t, err)
	return *sub
}

func (f *fixture) entries(t *testing.T, exercise string, op domain.Operation) []domain.JournalEntry {
	t.Helper()
	entries, err := f.store.FindEntriesByOperation(f.ctx, exercise, op)
	require.NoError(t, err)
	return entries
}

// requireDebit asserts line is a debit of amount.
func requireDebit(t *testing.T, lines map[string]domain.JournalLine, code, amount string) {
	t.Helper()
	line, ok := lines[code]
	require.True(t, ok, "no line for %s", code)
	require.True(t, line.Debit.Equal(dec(amount)), "%s debit: want %s, got %s", code, amount, line.Debit)
	require.True(t, line.Credit.IsZero(), "%s credit: want 0, got %s", code, line.Credit)
}

// requireCredit asserts line is a credit of amount.
func requireCredit(t *testing.T, lines map[string]domain.JournalLine, code, amount string) {
	t.Helper()
	line, ok := lines[code]
	require.True(t, ok, "no line for %s", code)
	require.True(t, line.Credit.Equal(dec(amount)), "%s credit: want %s, got %s", code, amount, line.Credit)
	require.True(t, line.Debit.IsZero(), "%s debit: want 0, got %s", code, line.Debit)
}

func requireBalanced(t *testing.T, lines map[string]domain.JournalLine) {
	t.Helper()
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	require.True(t, debit.Equal(credit), "entry unbalanced: debit %s credit %s", debit, credit)
}
