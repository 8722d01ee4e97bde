package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/logging"
)

func firstQuarter() *domain.VatRegularization {
	return &domain.VatRegularization{
		ID: 1, ExerciseCode: "2024", CompanyID: 1, Period: "T1",
		StartDate: day(2024, 1, 1), EndDate: day(2024, 3, 31),
	}
}

func TestVatRegularization_PayableResult(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.invoices.Post(f.ctx, salesInvoice(1, "FAC1", day(2024, 2, 1), "100")))
	require.NoError(t, f.invoices.Post(f.ctx, purchaseInvoice(1, "P-1", day(2024, 2, 3), "50")))
	// outside the period
	require.NoError(t, f.invoices.Post(f.ctx, salesInvoice(2, "FAC2", day(2024, 4, 1), "1000")))

	reg := firstQuarter()
	require.NoError(t, f.vat.Post(f.ctx, reg))
	require.NotNil(t, reg.JournalEntryID)

	entry, err := f.store.FindEntry(f.ctx, *reg.JournalEntryID)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 31), entry.Date)
	assert.Equal(t, "VAT regularization 2024 T1", entry.Concept)

	lines := f.entryLines(t, entry.ID)
	require.Len(t, lines, 3)
	requireDebit(t, lines, subOutputVAT, "21")
	requireCredit(t, lines, subInputVAT, "10.5")
	requireCredit(t, lines, subVATPayable, "10.5")
	requireBalanced(t, lines)

	stored, err := f.store.FindVatRegularization(f.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, reg.JournalEntryID, stored.JournalEntryID)
}

func TestVatRegularization_ReceivableResult(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.invoices.Post(f.ctx, purchaseInvoice(1, "P-1", day(2024, 2, 3), "50")))

	reg := firstQuarter()
	require.NoError(t, f.vat.Post(f.ctx, reg))

	lines := f.entryLines(t, *reg.JournalEntryID)
	require.Len(t, lines, 2)
	requireCredit(t, lines, subInputVAT, "10.5")
	requireDebit(t, lines, subVATDebtor, "10.5")
}

func TestVatRegularization_NothingToSettle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.invoices.Post(f.ctx, salesInvoice(1, "FAC1", day(2024, 2, 1), "100")))
	first := firstQuarter()
	require.NoError(t, f.vat.Post(f.ctx, first))
	entries := f.store.EntryCount()

	// a second run over the same period finds the tax accounts already settled
	again := firstQuarter()
	again.ID = 2
	err := f.vat.Post(f.ctx, again)
	assert.ErrorIs(t, err, apperrors.ErrZeroTotal)
	assert.True(t, f.messages.Has(logging.KeyZeroTotal))
	assert.Equal(t, entries, f.store.EntryCount())
	assert.Nil(t, again.JournalEntryID)
}

func TestVatRegularization_InvalidPeriod(t *testing.T) {
	f := newFixture(t)
	reg := firstQuarter()
	reg.EndDate = day(2023, 12, 31)

	err := f.vat.Post(f.ctx, reg)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.True(t, f.messages.Has(logging.KeyInvalidDocument))
}

func TestVatRegularization_PeriodOutsideExercise(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.invoices.Post(f.ctx, salesInvoice(1, "FAC1", day(2024, 2, 1), "100")))
	entries := f.store.EntryCount()

	reg := firstQuarter()
	reg.EndDate = day(2025, 3, 31)
	err := f.vat.Post(f.ctx, reg)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.True(t, f.messages.Has(logging.KeyDateOutsideExercise))
	assert.Equal(t, entries, f.store.EntryCount())
	assert.Nil(t, reg.JournalEntryID)
}
