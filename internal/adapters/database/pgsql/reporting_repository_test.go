package pgsql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
)

func newMockReporting(t *testing.T) (portsrepo.BalanceReader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newReportingRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestBalanceSQL_Filters(t *testing.T) {
	two := 2
	query, args := balanceSQL(portsrepo.BalanceQuery{
		ExerciseCode:      "2024",
		DateFrom:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Channel:           &two,
		CodeFrom:          "6",
		CodeTo:            "7",
		SpecialAccounts:   []domain.SpecialAccountRole{domain.RoleTaxOutput},
		ExcludeOperations: []domain.Operation{domain.OperationNone, domain.OperationClosing},
		GroupByChannel:    true,
	})

	assert.Contains(t, query, "a.codejercicio = $1")
	assert.Contains(t, query, "a.fecha >= $2")
	assert.Contains(t, query, "COALESCE(a.canal, 0) = $3")
	assert.Contains(t, query, "LEFT(s.codsubcuenta, 1) >= $4")
	assert.Contains(t, query, "LEFT(s.codsubcuenta, 1) <= $5")
	assert.Contains(t, query, "s.codcuentaesp = ANY($6)")
	assert.Contains(t, query, "NOT (a.operacion = ANY($7))")
	assert.Contains(t, query, "GROUP BY COALESCE(a.canal, 0), s.idsubcuenta")
	assert.NotContains(t, query, "a.fecha <=")
	require.Len(t, args, 7)
	assert.Equal(t, []string{"IVAREP"}, args[5])
	assert.Equal(t, []string{"C"}, args[6])
}

func TestBalanceSQL_NoFilters(t *testing.T) {
	query, args := balanceSQL(portsrepo.BalanceQuery{})
	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "0 AS canal")
	assert.Empty(t, args)
}

func TestLedgerSQL_Continuation(t *testing.T) {
	after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	query, args := ledgerSQL(portsrepo.LedgerQuery{
		BalanceQuery: portsrepo.BalanceQuery{ExerciseCode: "2024"},
		Limit:        50,
		AfterCode:    "4300000001",
		AfterDate:    after,
		AfterLineID:  17,
	})

	assert.Contains(t, query, "(s.codsubcuenta, a.fecha, p.idpartida) > ($2, $3, $4)")
	assert.Contains(t, query, "LIMIT $5")
	assert.Equal(t, []any{"2024", "4300000001", after, int64(17), 50}, args)
}

func TestReportingRepository_SubaccountBalances(t *testing.T) {
	repo, mock := newMockReporting(t)

	rows := sqlmock.NewRows([]string{"canal", "idsubcuenta", "codsubcuenta", "idcuenta", "codcuenta", "descripcion", "debe", "haber"}).
		AddRow(0, 10, "4300000001", 4, "430", "Acme Retail", "121.00", "0").
		AddRow(0, 11, "7000000000", 7, "700", "Sales", "0", "100.00")
	mock.ExpectQuery(regexp.QuoteMeta("FROM partidas p")).
		WithArgs("2024").
		WillReturnRows(rows)

	result, err := repo.SubaccountBalances(context.Background(), portsrepo.BalanceQuery{ExerciseCode: "2024"})

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "4300000001", result[0].SubaccountCode)
	assert.Equal(t, "430", result[0].AccountCode)
	assert.True(t, result[0].Debit.Equal(decimal.NewFromInt(121)))
	assert.True(t, result[1].Net().Equal(decimal.NewFromInt(-100)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingRepository_LedgerLines(t *testing.T) {
	repo, mock := newMockReporting(t)
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"idpartida", "idasiento", "numero", "fecha", "concepto", "documento", "codsubcuenta", "codcontrapartida", "debe", "haber"}).
		AddRow(5, 1, 1, date, "Customer invoice FAC1", "FAC1", "4300000001", "", "121", "0")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.codsubcuenta, a.fecha, p.idpartida LIMIT $2")).
		WithArgs("2024", 1).
		WillReturnRows(rows)

	result, err := repo.LedgerLines(context.Background(), portsrepo.LedgerQuery{
		BalanceQuery: portsrepo.BalanceQuery{ExerciseCode: "2024"},
		Limit:        1,
	})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(5), result[0].LineID)
	assert.Equal(t, date, result[0].Date)
	assert.True(t, result[0].Balance.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingRepository_QueryError(t *testing.T) {
	repo, mock := newMockReporting(t)
	mock.ExpectQuery("FROM partidas p").WillReturnError(assert.AnError)

	_, err := repo.SubaccountBalances(context.Background(), portsrepo.BalanceQuery{})

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
