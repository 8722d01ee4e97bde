package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"
)

// lineFilter accumulates the WHERE conditions of a balance query with positional arguments.
type lineFilter struct {
	conds []string
	args  []any
}

func (f *lineFilter) arg(v any) string {
	f.args = append(f.args, v)
	return "$" + strconv.Itoa(len(f.args))
}

func (f *lineFilter) where(cond string) {
	f.conds = append(f.conds, cond)
}

func (f *lineFilter) sql() string {
	if len(f.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conds, "\n\t\t\tAND ")
}

func newLineFilter(q portsrepo.BalanceQuery) *lineFilter {
	f := &lineFilter{}
	if q.ExerciseCode != "" {
		f.where("a.codejercicio = " + f.arg(q.ExerciseCode))
	}
	if !q.DateFrom.IsZero() {
		f.where("a.fecha >= " + f.arg(q.DateFrom))
	}
	if !q.DateTo.IsZero() {
		f.where("a.fecha <= " + f.arg(q.DateTo))
	}
	if q.Channel != nil {
		f.where("COALESCE(a.canal, 0) = " + f.arg(*q.Channel))
	}
	if q.CodeFrom != "" {
		f.where(fmt.Sprintf("LEFT(s.codsubcuenta, %d) >= %s", len(q.CodeFrom), f.arg(q.CodeFrom)))
	}
	if q.CodeTo != "" {
		f.where(fmt.Sprintf("LEFT(s.codsubcuenta, %d) <= %s", len(q.CodeTo), f.arg(q.CodeTo)))
	}
	if len(q.SpecialAccounts) > 0 {
		roles := make([]string, len(q.SpecialAccounts))
		for i, role := range q.SpecialAccounts {
			roles[i] = string(role)
		}
		f.where("s.codcuentaesp = ANY(" + f.arg(roles) + ")")
	}
	var excluded []string
	for _, op := range q.ExcludeOperations {
		if op != domain.OperationNone {
			excluded = append(excluded, string(op))
		}
	}
	if len(excluded) > 0 {
		f.where("NOT (a.operacion = ANY(" + f.arg(excluded) + "))")
	}
	return f
}

// balanceSQL builds the aggregate behind SubaccountBalances.
func balanceSQL(q portsrepo.BalanceQuery) (string, []any) {
	channel, groupBy := "0", ""
	if q.GroupByChannel {
		channel, groupBy = "COALESCE(a.canal, 0)", "COALESCE(a.canal, 0), "
	}
	f := newLineFilter(q)
	query := `
		SELECT
			` + channel + ` AS canal,
			s.idsubcuenta,
			s.codsubcuenta,
			s.idcuenta,
			s.codcuenta,
			s.descripcion,
			COALESCE(SUM(p.debe), 0) AS debe,
			COALESCE(SUM(p.haber), 0) AS haber
		FROM partidas p
		JOIN asientos a ON a.idasiento = p.idasiento
		JOIN subcuentas s ON s.idsubcuenta = p.idsubcuenta
		` + f.sql() + `
		GROUP BY ` + groupBy + `s.idsubcuenta, s.codsubcuenta, s.idcuenta, s.codcuenta, s.descripcion
		HAVING SUM(p.debe) <> 0 OR SUM(p.haber) <> 0
		ORDER BY canal, s.codsubcuenta`
	return query, f.args
}

// ledgerSQL builds the listing behind LedgerLines.
func ledgerSQL(q portsrepo.LedgerQuery) (string, []any) {
	f := newLineFilter(q.BalanceQuery)
	if q.AfterCode != "" {
		f.where(fmt.Sprintf("(s.codsubcuenta, a.fecha, p.idpartida) > (%s, %s, %s)",
			f.arg(q.AfterCode), f.arg(q.AfterDate), f.arg(q.AfterLineID)))
	}
	query := `
		SELECT
			p.idpartida,
			a.idasiento,
			a.numero,
			a.fecha,
			p.concepto,
			p.documento,
			s.codsubcuenta,
			p.codcontrapartida,
			p.debe,
			p.haber
		FROM partidas p
		JOIN asientos a ON a.idasiento = p.idasiento
		JOIN subcuentas s ON s.idsubcuenta = p.idsubcuenta
		` + f.sql() + `
		ORDER BY s.codsubcuenta, a.fecha, p.idpartida`
	if q.Limit > 0 {
		query += " LIMIT " + f.arg(q.Limit)
	}
	return query, f.args
}

// pgxBalanceReader aggregates lines on the write pool, inside the ambient transaction
// when there is one, so the closing stages see the entries they just posted.
type pgxBalanceReader struct {
	BaseRepository
}

var _ portsrepo.BalanceReader = (*pgxBalanceReader)(nil)

func (r *pgxBalanceReader) SubaccountBalances(ctx context.Context, q portsrepo.BalanceQuery) ([]domain.SubaccountBalance, error) {
	query, args := balanceSQL(q)
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying subaccount balances: %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.SubaccountBalance])
	if err != nil {
		return nil, fmt.Errorf("error scanning subaccount balance rows: %w", err)
	}
	return result, nil
}

func (r *pgxBalanceReader) LedgerLines(ctx context.Context, q portsrepo.LedgerQuery) ([]domain.LedgerLine, error) {
	query, args := ledgerSQL(q)
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying ledger lines: %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.LedgerLine])
	if err != nil {
		return nil, fmt.Errorf("error scanning ledger rows: %w", err)
	}
	return result, nil
}

// reportingRepository serves the read-only reports through database/sql.
type reportingRepository struct {
	db *sqlx.DB
}

// newReportingRepository creates a new reporting repository
func newReportingRepository(db *sqlx.DB) portsrepo.BalanceReader {
	return &reportingRepository{db: db}
}

// NewReportingRepository exposes the sqlx reader for callers that only need reports.
func NewReportingRepository(db *sqlx.DB) portsrepo.BalanceReader {
	return newReportingRepository(db)
}

func (r *reportingRepository) SubaccountBalances(ctx context.Context, q portsrepo.BalanceQuery) ([]domain.SubaccountBalance, error) {
	query, args := balanceSQL(q)
	result := []domain.SubaccountBalance{}
	if err := r.db.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, fmt.Errorf("error querying subaccount balances: %w", err)
	}
	return result, nil
}

func (r *reportingRepository) LedgerLines(ctx context.Context, q portsrepo.LedgerQuery) ([]domain.LedgerLine, error) {
	query, args := ledgerSQL(q)
	result := []domain.LedgerLine{}
	if err := r.db.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, fmt.Errorf("error querying ledger lines: %w", err)
	}
	return result, nil
}
