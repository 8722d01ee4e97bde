package services_test

import (
	"bytes"
	"encoding/csv"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/logging"
)

func TestPlanService_DefaultPlanResolvesEveryRole(t *testing.T) {
	f := newFixture(t)
	ex := f.exercise(t, "2024")
	assert.True(t, ex.HasAccountingPlan)

	partyRoles := []domain.SpecialAccountRole{domain.RoleCustomer, domain.RoleSupplier, domain.RoleCreditor}
	for _, role := range domain.SpecialAccountRoles() {
		if slices.Contains(partyRoles, role) {
			// party roles tag accounts, their sub-accounts are created per party
			continue
		}
		sub, err := f.resolver.ResolveSpecial(f.ctx, ex, role)
		if assert.NoError(t, err, "role %s", role) {
			assert.Len(t, sub.Code, 10)
		}
	}
	for _, role := range partyRoles {
		_, err := f.resolver.ResolveSpecialAccount(f.ctx, ex, role)
		assert.NoError(t, err, "role %s", role)
	}
}

func TestPlanService_InstallDefaultIsIdempotent(t *testing.T) {
	f := newFixture(t)
	accounts, err := f.store.ListAccounts(f.ctx, "2024")
	require.NoError(t, err)
	subs, err := f.store.ListSubaccounts(f.ctx, "2024")
	require.NoError(t, err)

	result, err := f.plan.InstallDefault(f.ctx, "2024")
	require.NoError(t, err)
	assert.Zero(t, result.Accounts)
	assert.Zero(t, result.Subaccounts)
	assert.Equal(t, len(accounts)+len(subs), result.Skipped)
}

func TestPlanService_InstallDefaultHonoursLength(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveExercise(f.ctx, domain.Exercise{
		Code: "2030", CompanyID: 1, StartDate: day(2030, 1, 1), EndDate: day(2030, 12, 31),
		State: domain.ExerciseOpen, SubaccountLength: 8,
	}))

	result, err := f.plan.InstallDefault(f.ctx, "2030")
	require.NoError(t, err)
	assert.NotZero(t, result.Subaccounts)

	sub, err := f.resolver.ResolveSpecial(f.ctx, f.exercise(t, "2030"), domain.RoleTaxOutputIntra)
	require.NoError(t, err)
	assert.Equal(t, "47700001", sub.Code)
}

func TestPlanService_ImportSkipsInvalidRows(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveExercise(f.ctx, domain.Exercise{
		Code: "2023", CompanyID: 1, StartDate: day(2023, 1, 1), EndDate: day(2023, 12, 31),
		State: domain.ExerciseOpen, SubaccountLength: 6,
	}))
	plan := strings.Join([]string{
		"code;description;parent;special",
		"5;Financial accounts",
		"57;Cash;5",
		"570;Cash, euros;57;",
		"570000;Cash;;CAJA",
		"570001",
		"571000;Orphan;999",
		"57A;Not a number",
		"572000;Bank;;NOPE",
		"5700000;Too long",
	}, "\n")

	result, err := f.plan.Import(f.ctx, "2023", strings.NewReader(plan))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Accounts)
	assert.Equal(t, 2, result.Subaccounts)
	assert.Equal(t, 4, result.Skipped)
	assert.Len(t, f.messages.Keys(), 4)
	assert.True(t, f.messages.Has(logging.KeyPlanRowInvalid))

	cash := f.subaccount(t, "2023", "570000")
	assert.Equal(t, domain.RoleCash, cash.SpecialAccount)
	assert.Equal(t, "570", cash.AccountCode)
	// an empty description takes the account's
	assert.Equal(t, "Cash, euros", f.subaccount(t, "2023", "570001").Description)
	assert.True(t, f.exercise(t, "2023").HasAccountingPlan)
}

func TestPlanService_ImportRejectsClosedExercise(t *testing.T) {
	f := newFixture(t)
	ex := f.exercise(t, "2024")
	ex.State = domain.ExerciseClosed
	require.NoError(t, f.store.SaveExercise(f.ctx, ex))

	_, err := f.plan.Import(f.ctx, "2024", strings.NewReader("6;Purchases\n"))
	assert.ErrorIs(t, err, apperrors.ErrExerciseClosed)

	_, err = f.plan.Import(f.ctx, "1999", strings.NewReader("6;Purchases\n"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPlanService_ExportRoundTrip(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	require.NoError(t, f.plan.Export(f.ctx, "2024", &buf))

	records, err := csvRecords(buf.String())
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, []string{"code", "description", "parent", "special"}, records[0])
	assert.Contains(t, records, []string{"1290000000", "Profit and loss", "129", "PYG"})
	for i := 2; i < len(records); i++ {
		assert.LessOrEqual(t, records[i-1][0], records[i][0])
	}

	require.NoError(t, f.store.SaveExercise(f.ctx, domain.Exercise{
		Code: "2025", CompanyID: 1, StartDate: day(2025, 1, 1), EndDate: day(2025, 12, 31),
		State: domain.ExerciseOpen, SubaccountLength: 10,
	}))
	result, err := f.plan.Import(f.ctx, "2025", strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, len(records)-1, result.Accounts+result.Subaccounts)

	var again bytes.Buffer
	require.NoError(t, f.plan.Export(f.ctx, "2025", &again))
	assert.Equal(t, buf.String(), again.String())
}

func csvRecords(s string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = ';'
	return r.ReadAll()
}
