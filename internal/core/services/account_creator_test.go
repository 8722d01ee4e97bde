package services_test

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/core/services"
	"github.com/SscSPs/erp_accounting/internal/logging"
)

// letters spells n in base 26 so party codes carry no digits.
func letters(n int) string {
	var b strings.Builder
	for n >= 0 {
		b.WriteByte(byte('A' + n%26))
		n = n/26 - 1
	}
	return b.String()
}

func (f *fixture) account(t *testing.T, exercise, code string) domain.Account {
	t.Helper()
	account, err := f.store.FindAccountByCode(f.ctx, exercise, code)
	require.NoError(t, err)
	return *account
}

func TestAccountCreator_AllocatesUniqueCodes(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates a thousand sub-accounts")
	}
	f := newFixture(t)
	ex := f.exercise(t, "2024")

	seen := make(map[string]string, 1000)
	for i := 0; i < 1000; i++ {
		customer := domain.Customer{Code: "C-" + letters(i), Name: fmt.Sprintf("Customer %d", i)}
		f.store.AddCustomer(customer)
		party, err := f.store.FindParty(f.ctx, domain.SalesDocument, customer.Code)
		require.NoError(t, err)

		sub, err := f.resolver.ResolveForParty(f.ctx, ex, party, true)
		require.NoError(t, err, "party %d", i)
		require.Len(t, sub.Code, 10)
		require.True(t, strings.HasPrefix(sub.Code, "430"))
		require.NotContains(t, seen, sub.Code, "code %s allocated twice", sub.Code)
		seen[sub.Code] = customer.Code
	}
	assert.Len(t, seen, 1000)
}

func TestAccountCreator_PrefersPartyNumber(t *testing.T) {
	f := newFixture(t)
	ex := f.exercise(t, "2024")
	parent := f.account(t, "2024", "430")

	code, err := f.creator.AllocateFreeCode(f.ctx, ex, &domain.Customer{Code: "000123"}, parent)
	require.NoError(t, err)
	assert.Equal(t, "4300000123", code)

	// a party code that already is a full sub-account code is used as is
	code, err = f.creator.AllocateFreeCode(f.ctx, ex, &domain.Customer{Code: "4300007777"}, parent)
	require.NoError(t, err)
	assert.Equal(t, "4300007777", code)

	// a code assigned to someone else is skipped
	f.store.AddCustomer(domain.Customer{Code: "OTHER", SubaccountVal: "4300000123"})
	code, err = f.creator.AllocateFreeCode(f.ctx, ex, &domain.Customer{Code: "123"}, parent)
	require.NoError(t, err)
	assert.Equal(t, "4300000001", code)
}

func TestAccountCreator_AllocationExhausted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveExercise(f.ctx, domain.Exercise{
		Code: "2031", CompanyID: 1, StartDate: day(2031, 1, 1), EndDate: day(2031, 12, 31),
		State: domain.ExerciseOpen, SubaccountLength: 4,
	}))
	_, err := f.plan.Import(f.ctx, "2031", strings.NewReader("4;Trade\n43;Customers\n430;Customers;;CLIENT\n"))
	require.NoError(t, err)
	ex := f.exercise(t, "2031")
	parent := f.account(t, "2031", "430")

	for i := 1; i <= 9; i++ {
		_, err := f.creator.CreateUnder(f.ctx, ex, parent, fmt.Sprintf("430%d", i), "")
		require.NoError(t, err)
	}
	f.messages.Reset()

	code, err := f.creator.AllocateFreeCode(f.ctx, ex, &domain.Customer{Code: "X"}, parent)
	assert.Empty(t, code)
	assert.ErrorIs(t, err, apperrors.ErrAllocationExhausted)
	assert.Equal(t, []string{logging.KeyNoFreeSubaccountCode}, f.messages.Keys(slog.LevelError))
}

func TestAccountCreator_CreateUnder(t *testing.T) {
	f := newFixture(t)
	ex := f.exercise(t, "2024")
	parent := f.account(t, "2024", "572")

	sub, err := f.creator.CreateUnder(f.ctx, ex, parent, "5720000009", "")
	require.NoError(t, err)
	assert.Equal(t, "Banks", sub.Description)
	assert.Equal(t, "572", sub.AccountCode)

	again, err := f.creator.CreateUnder(f.ctx, ex, parent, "5720000009", "Other")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)

	for _, code := range []string{"572000009", "5730000009", "57200000A9"} {
		_, err := f.creator.CreateUnder(f.ctx, ex, parent, code, "")
		assert.ErrorIs(t, err, apperrors.ErrValidation, code)
	}

	ex.State = domain.ExerciseClosed
	_, err = f.creator.CreateUnder(f.ctx, ex, parent, "5720000010", "")
	assert.ErrorIs(t, err, apperrors.ErrExerciseClosed)
	assert.True(t, f.messages.Has(logging.KeyClosedExercise))
}

func TestAccountCreator_CopyToExercise(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveExercise(f.ctx, domain.Exercise{
		Code: "2025", CompanyID: 1, StartDate: day(2025, 1, 1), EndDate: day(2025, 12, 31),
		State: domain.ExerciseOpen, SubaccountLength: 10,
	}))
	source := f.subaccount(t, "2024", subProfitLoss)

	copied, err := f.creator.CopySubaccountToExercise(f.ctx, source, "2025")
	require.NoError(t, err)
	assert.Equal(t, "2025", copied.ExerciseCode)
	assert.Equal(t, domain.RoleProfitLoss, copied.SpecialAccount)
	assert.NotEqual(t, source.ID, copied.ID)

	// the whole parent chain came along
	for _, code := range []string{"1", "12", "129"} {
		f.account(t, "2025", code)
	}
	account := f.account(t, "2025", "129")
	assert.Equal(t, "12", account.ParentCode)

	again, err := f.creator.CopySubaccountToExercise(f.ctx, source, "2025")
	require.NoError(t, err)
	assert.Equal(t, copied.ID, again.ID)

	_, err = f.creator.CopyAccountToExercise(f.ctx, f.account(t, "2024", "570"), "1999")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAccountCreator_SeededSourceIsDeterministic(t *testing.T) {
	allocate := func() string {
		f := newFixture(t)
		ex := f.exercise(t, "2024")
		parent := f.account(t, "2024", "430")
		for i := 1; i < 50; i++ {
			_, err := f.creator.CreateUnder(f.ctx, ex, parent, fmt.Sprintf("430%07d", i), "")
			require.NoError(t, err)
		}
		creator := services.NewAccountCreator(f.store.Provider(), f.messages, services.WithRandSource(rand.NewPCG(7, 7)))
		code, err := creator.AllocateFreeCode(f.ctx, ex, &domain.Customer{Code: "ZZ"}, parent)
		require.NoError(t, err)
		return code
	}

	first := allocate()
	assert.Equal(t, first, allocate())
	assert.True(t, strings.HasPrefix(first, "430"))
	assert.GreaterOrEqual(t, first, "4300000050")
}
