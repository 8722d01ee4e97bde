package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/logging"
)

func TestInvoicePoster_SalesInvoice(t *testing.T) {
	f := newFixture(t)
	invoice := salesInvoice(1, "FAC2024A1", day(2024, 3, 15), "100")

	require.NoError(t, f.invoices.Post(f.ctx, invoice))
	require.NotNil(t, invoice.JournalEntryID)
	assert.Equal(t, invoice.JournalEntryID, f.store.InvoiceEntry(domain.SalesDocument, 1))

	entry, err := f.store.FindEntry(f.ctx, *invoice.JournalEntryID)
	require.NoError(t, err)
	assert.True(t, entry.Amount.Equal(dec("121")))
	assert.Equal(t, "FAC2024A1", entry.Document)
	assert.Equal(t, "Customer invoice FAC2024A1 - Acme Retail", entry.Concept)
	assert.Equal(t, day(2024, 3, 15), entry.Date)

	lines := f.entryLines(t, entry.ID)
	require.Len(t, lines, 3)
	requireDebit(t, lines, subCustomer, "121")
	requireCredit(t, lines, subOutputVAT, "21")
	requireCredit(t, lines, subSales, "100")
	requireBalanced(t, lines)

	// every line after the first points back to the party sub-account
	assert.Empty(t, lines[subCustomer].CounterpartCode)
	assert.Equal(t, subCustomer, lines[subSales].CounterpartCode)
	assert.Equal(t, subCustomer, lines[subOutputVAT].CounterpartCode)
	assert.True(t, lines[subOutputVAT].TaxBase.Equal(dec("100")))
	assert.True(t, lines[subOutputVAT].TaxRate.Equal(dec("21")))
	assert.Equal(t, "B12345678", lines[subOutputVAT].TaxNumber)

	// the party got its sub-account on the fly
	party, err := f.store.FindParty(f.ctx, domain.SalesDocument, "1")
	require.NoError(t, err)
	assert.Equal(t, subCustomer, party.SubaccountCode())
	assert.True(t, f.subaccount(t, "2024", subCustomer).Balance.Equal(dec("121")))
	assert.True(t, f.messages.Has(logging.KeyEntryPosted))
}

func TestInvoicePoster_AlreadyPosted(t *testing.T) {
	f := newFixture(t)
	invoice := salesInvoice(1, "FAC2024A1", day(2024, 3, 15), "100")
	require.NoError(t, f.invoices.Post(f.ctx, invoice))
	entries, lines := f.store.EntryCount(), f.store.LineCount()
	first := *invoice.JournalEntryID

	err := f.invoices.Post(f.ctx, invoice)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPosted)
	assert.Equal(t, entries, f.store.EntryCount())
	assert.Equal(t, lines, f.store.LineCount())
	assert.Equal(t, first, *invoice.JournalEntryID)
	assert.True(t, f.messages.Has(logging.KeyAlreadyAccounted))
}

func TestInvoicePoster_PurchaseWithSurchargeAndWithholding(t *testing.T) {
	f := newFixture(t)
	invoice := &domain.Invoice{
		ID: 7, Kind: domain.PurchaseDocument, Code: "P-77", Date: day(2024, 5, 2), ExerciseCode: "2024", CompanyID: 1,
		PartyCode: "1", PartyName: "Iberian Supplies",
		Net: dec("200"), TotalTax: dec("42"), TotalSurcharge: dec("10.4"),
		WithholdingRate: dec("15"), TotalWithholding: dec("30"),
		Total: dec("222.4"),
		Lines: []domain.InvoiceLine{
			{Net: dec("120"), TaxCode: "IVA21", TaxRate: dec("21"), SurchargeRate: dec("5.2")},
			{Net: dec("80"), TaxCode: "IVA21", TaxRate: dec("21"), SurchargeRate: dec("5.2")},
		},
	}

	require.NoError(t, f.invoices.Post(f.ctx, invoice))
	lines := f.entryLines(t, *invoice.JournalEntryID)
	require.Len(t, lines, 5)
	requireCredit(t, lines, subSupplier, "222.4")
	requireDebit(t, lines, subInputVAT, "42")
	requireDebit(t, lines, subInputSurch, "10.4")
	requireCredit(t, lines, subWithholding, "30")
	requireDebit(t, lines, subPurchases, "200")
	requireBalanced(t, lines)
}

func TestInvoicePoster_CreditNoteUsesReturns(t *testing.T) {
	f := newFixture(t)
	rectified := int64(1)
	invoice := &domain.Invoice{
		ID: 2, Kind: domain.SalesDocument, Code: "R-1", Date: day(2024, 4, 1), ExerciseCode: "2024", CompanyID: 1,
		PartyCode: "1", PartyName: "Acme Retail", RectifiedInvoiceID: &rectified,
		Net: dec("-100"), TotalTax: dec("-21"), Total: dec("-121"),
		Lines: []domain.InvoiceLine{{Net: dec("-100"), TaxCode: "IVA21", TaxRate: dec("21")}},
	}

	require.NoError(t, f.invoices.Post(f.ctx, invoice))
	lines := f.entryLines(t, *invoice.JournalEntryID)
	requireCredit(t, lines, subCustomer, "121")
	requireDebit(t, lines, subOutputVAT, "21")
	requireDebit(t, lines, subSalesRet, "100")
	requireBalanced(t, lines)

	entry, err := f.store.FindEntry(f.ctx, *invoice.JournalEntryID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(entry.Concept, "Customer credit note R-1"))
}

func TestInvoicePoster_IntraCommunityPurchase(t *testing.T) {
	f := newFixture(t)
	invoice := &domain.Invoice{
		ID: 3, Kind: domain.PurchaseDocument, Code: "EU-1", Date: day(2024, 6, 10), ExerciseCode: "2024", CompanyID: 1,
		PartyCode: "1", PartyName: "Iberian Supplies", IntraCommunity: true,
		Net: dec("100"), Total: dec("100"),
		Lines: []domain.InvoiceLine{{Net: dec("100"), TaxCode: "IVA21", TaxRate: dec("21")}},
	}

	require.NoError(t, f.invoices.Post(f.ctx, invoice))
	lines := f.entryLines(t, *invoice.JournalEntryID)
	require.Len(t, lines, 4)
	requireCredit(t, lines, subSupplier, "100")
	requireDebit(t, lines, subInputIntra, "21")
	requireCredit(t, lines, subOutputIntra, "21")
	requireDebit(t, lines, subPurchases, "100")
	requireBalanced(t, lines)
}

func TestInvoicePoster_Guards(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture, inv *domain.Invoice)
		wantErr error
		wantKey string
	}{
		{
			name: "zero total",
			prepare: func(_ *fixture, inv *domain.Invoice) {
				inv.Net, inv.TotalTax, inv.Total = dec("0"), dec("0"), dec("0")
				inv.Lines[0].Net = dec("0")
			},
			wantErr: apperrors.ErrZeroTotal,
			wantKey: logging.KeyZeroTotal,
		},
		{
			name: "unknown exercise",
			prepare: func(_ *fixture, inv *domain.Invoice) {
				inv.ExerciseCode = "1999"
			},
			wantErr: apperrors.ErrNotFound,
			wantKey: logging.KeyExerciseNotFound,
		},
		{
			name: "closed exercise",
			prepare: func(f *fixture, _ *domain.Invoice) {
				ex := f.exercise(t, "2024")
				ex.State = domain.ExerciseClosed
				require.NoError(t, f.store.SaveExercise(f.ctx, ex))
			},
			wantErr: apperrors.ErrExerciseClosed,
			wantKey: logging.KeyClosedExercise,
		},
		{
			name: "exercise without chart",
			prepare: func(f *fixture, _ *domain.Invoice) {
				ex := f.exercise(t, "2024")
				ex.HasAccountingPlan = false
				require.NoError(t, f.store.SaveExercise(f.ctx, ex))
			},
			wantErr: apperrors.ErrNoAccountingPlan,
			wantKey: logging.KeyNoAccountingPlan,
		},
		{
			name: "tax total mismatch",
			prepare: func(_ *fixture, inv *domain.Invoice) {
				inv.TotalTax = dec("20")
				inv.Total = dec("120")
			},
			wantErr: apperrors.ErrTaxSubtotals,
			wantKey: logging.KeyTaxSubtotalsError,
		},
		{
			name: "missing party",
			prepare: func(_ *fixture, inv *domain.Invoice) {
				inv.PartyCode = "404"
			},
			wantErr: apperrors.ErrNotFound,
			wantKey: logging.KeyPartySubaccountNotFound,
		},
		{
			name: "invalid document",
			prepare: func(_ *fixture, inv *domain.Invoice) {
				inv.Kind = "transfer"
			},
			wantErr: apperrors.ErrValidation,
			wantKey: logging.KeyInvalidDocument,
		},
		{
			name: "date outside exercise",
			prepare: func(_ *fixture, inv *domain.Invoice) {
				inv.Date = day(2026, 3, 1)
			},
			wantErr: apperrors.ErrValidation,
			wantKey: logging.KeyDateOutsideExercise,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			invoice := salesInvoice(1, "FAC1", day(2024, 2, 1), "100")
			tt.prepare(f, invoice)

			err := f.invoices.Post(f.ctx, invoice)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, f.messages.Has(tt.wantKey), "logged keys: %v", f.messages.Keys())
			assert.Nil(t, invoice.JournalEntryID)
			assert.Zero(t, f.store.EntryCount())
		})
	}
}

func TestInvoicePoster_MissingSpecialAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveExercise(f.ctx, domain.Exercise{
		Code: "2023", CompanyID: 1, StartDate: day(2023, 1, 1), EndDate: day(2023, 12, 31),
		State: domain.ExerciseOpen, SubaccountLength: 10,
	}))
	// a chart with customers and output VAT but no sales account
	plan := "code;description;parent;special\n" +
		"4;Trade\n43;Customers\n430;Customers;;CLIENT\n" +
		"477;Output VAT;4\n4770000000;Output VAT;477;IVAREP\n"
	_, err := f.plan.Import(f.ctx, "2023", strings.NewReader(plan))
	require.NoError(t, err)
	f.messages.Reset()

	invoice := salesInvoice(1, "FAC1", day(2023, 2, 1), "100")
	invoice.ExerciseCode = "2023"
	err = f.invoices.Post(f.ctx, invoice)
	assert.ErrorIs(t, err, apperrors.ErrMissingSpecialAccount)
	assert.True(t, f.messages.Has(logging.KeySpecialAccountNotFound))
	assert.Zero(t, f.store.EntryCount())
	assert.Zero(t, f.store.LineCount())

	// the party sub-account created on the way was rolled back with the entry
	_, err = f.store.FindSubaccountByCode(f.ctx, "2023", subCustomer)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestInvoicePoster_RollsBackOnLineFailure(t *testing.T) {
	f := newFixture(t)
	f.store.SetLineFault(func(line domain.JournalLine) error {
		if line.SubaccountCode == subOutputVAT {
			return errors.New("connection reset")
		}
		return nil
	})
	invoice := salesInvoice(1, "FAC1", day(2024, 2, 1), "100")

	err := f.invoices.Post(f.ctx, invoice)
	require.Error(t, err)
	assert.Nil(t, invoice.JournalEntryID)
	assert.Nil(t, f.store.InvoiceEntry(domain.SalesDocument, 1))
	assert.Zero(t, f.store.EntryCount())
	assert.Zero(t, f.store.LineCount())
	assert.True(t, f.messages.Has(logging.KeyAccountingLinesError))
}

func TestInvoicePoster_DiscardsInsideCallerTransaction(t *testing.T) {
	f := newFixture(t)
	f.store.SetLineFault(func(line domain.JournalLine) error {
		if line.SubaccountCode == subSales {
			return errors.New("connection reset")
		}
		return nil
	})
	invoice := salesInvoice(1, "FAC1", day(2024, 2, 1), "100")

	err := f.store.WithinTransaction(f.ctx, func(ctx context.Context) error {
		require.Error(t, f.invoices.Post(ctx, invoice))
		// the caller keeps its transaction, the partial entry is already gone
		assert.Zero(t, f.store.EntryCount())
		assert.Zero(t, f.store.LineCount())
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, f.store.EntryCount())
	assert.Nil(t, invoice.JournalEntryID)
}

func TestInvoicePoster_SuppliedExpensesAndChannel(t *testing.T) {
	f := newFixture(t)
	channel := 3
	invoice := salesInvoice(1, "FAC1", day(2024, 2, 1), "100")
	invoice.Channel = &channel
	invoice.Lines = append(invoice.Lines, domain.InvoiceLine{Description: "Customs paid on behalf", Net: dec("15"), Supplied: true})
	invoice.TotalSupplied = dec("15")
	invoice.Total = dec("136")

	require.NoError(t, f.invoices.Post(f.ctx, invoice))
	lines := f.entryLines(t, *invoice.JournalEntryID)
	requireDebit(t, lines, subCustomer, "136")
	requireCredit(t, lines, "5550000000", "15")
	requireCredit(t, lines, subSales, "100")
	requireBalanced(t, lines)

	entry, err := f.store.FindEntry(f.ctx, *invoice.JournalEntryID)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.ChannelKey())
}
