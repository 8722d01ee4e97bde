package pgsql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxAccountRepository struct {
	BaseRepository
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepository
var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

const accountColumns = `idcuenta, codcuenta, codejercicio, descripcion, codcuentaesp, parent_idcuenta, parent_codcuenta`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var special string
	var parentID sql.NullInt64
	if err := row.Scan(&a.ID, &a.Code, &a.ExerciseCode, &a.Description, &special, &parentID, &a.ParentCode); err != nil {
		return nil, err
	}
	a.SpecialAccount = domain.SpecialAccountRole(special)
	if parentID.Valid {
		a.ParentID = &parentID.Int64
	}
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	defer rows.Close()
	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, exerciseCode, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM cuentas WHERE codejercicio = $1 AND codcuenta = $2`
	a, err := scanAccount(r.db(ctx).QueryRow(ctx, query, exerciseCode, code))
	if err != nil {
		return nil, mapError(err, "account %s in exercise %s", code, exerciseCode)
	}
	return a, nil
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM cuentas WHERE idcuenta = $1`
	a, err := scanAccount(r.db(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "account %d", id)
	}
	return a, nil
}

func (r *PgxAccountRepository) FindAccountsBySpecial(ctx context.Context, exerciseCode string, role domain.SpecialAccountRole) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM cuentas WHERE codejercicio = $1 AND codcuentaesp = $2 ORDER BY codcuenta`
	rows, err := r.db(ctx).Query(ctx, query, exerciseCode, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts tagged %s: %w", role, err)
	}
	return collectAccounts(rows)
}

func (r *PgxAccountRepository) ListAccounts(ctx context.Context, exerciseCode string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM cuentas WHERE codejercicio = $1 ORDER BY codcuenta`
	rows, err := r.db(ctx).Query(ctx, query, exerciseCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts of exercise %s: %w", exerciseCode, err)
	}
	return collectAccounts(rows)
}

func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	if account.ID == 0 {
		query := `
			INSERT INTO cuentas (codcuenta, codejercicio, descripcion, codcuentaesp, parent_idcuenta, parent_codcuenta)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING idcuenta;
		`
		err := r.db(ctx).QueryRow(ctx, query,
			account.Code, account.ExerciseCode, account.Description, string(account.SpecialAccount),
			account.ParentID, account.ParentCode,
		).Scan(&account.ID)
		return mapError(err, "saving account %s in %s", account.Code, account.ExerciseCode)
	}

	query := `
		UPDATE cuentas
		SET descripcion = $2, codcuentaesp = $3, parent_idcuenta = $4, parent_codcuenta = $5
		WHERE idcuenta = $1;
	`
	tag, err := r.db(ctx).Exec(ctx, query,
		account.ID, account.Description, string(account.SpecialAccount), account.ParentID, account.ParentCode)
	if err != nil {
		return mapError(err, "updating account %s", account.Code)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", account.ID, apperrors.ErrNotFound)
	}
	return nil
}

type PgxSubaccountRepository struct {
	BaseRepository
}

var _ portsrepo.SubaccountRepository = (*PgxSubaccountRepository)(nil)

const subaccountColumns = `idsubcuenta, codsubcuenta, codejercicio, idcuenta, codcuenta, descripcion, codcuentaesp, debe, haber, saldo`

func scanSubaccount(row pgx.Row) (*domain.Subaccount, error) {
	var s domain.Subaccount
	var special string
	if err := row.Scan(&s.ID, &s.Code, &s.ExerciseCode, &s.AccountID, &s.AccountCode, &s.Description,
		&special, &s.Debit, &s.Credit, &s.Balance); err != nil {
		return nil, err
	}
	s.SpecialAccount = domain.SpecialAccountRole(special)
	return &s, nil
}

func collectSubaccounts(rows pgx.Rows) ([]domain.Subaccount, error) {
	defer rows.Close()
	subs := []domain.Subaccount{}
	for rows.Next() {
		s, err := scanSubaccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subaccount row: %w", err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subaccount rows: %w", err)
	}
	return subs, nil
}

func (r *PgxSubaccountRepository) FindSubaccountByCode(ctx context.Context, exerciseCode, code string) (*domain.Subaccount, error) {
	query := `SELECT ` + subaccountColumns + ` FROM subcuentas WHERE codejercicio = $1 AND codsubcuenta = $2`
	s, err := scanSubaccount(r.db(ctx).QueryRow(ctx, query, exerciseCode, code))
	if err != nil {
		return nil, mapError(err, "subaccount %s in exercise %s", code, exerciseCode)
	}
	return s, nil
}

func (r *PgxSubaccountRepository) FindSubaccountsBySpecial(ctx context.Context, exerciseCode string, role domain.SpecialAccountRole) ([]domain.Subaccount, error) {
	query := `SELECT ` + subaccountColumns + ` FROM subcuentas WHERE codejercicio = $1 AND codcuentaesp = $2 ORDER BY codsubcuenta`
	rows, err := r.db(ctx).Query(ctx, query, exerciseCode, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to query subaccounts tagged %s: %w", role, err)
	}
	return collectSubaccounts(rows)
}

func (r *PgxSubaccountRepository) FindFirstSubaccountOfAccount(ctx context.Context, accountID int64) (*domain.Subaccount, error) {
	query := `SELECT ` + subaccountColumns + ` FROM subcuentas WHERE idcuenta = $1 ORDER BY idsubcuenta LIMIT 1`
	s, err := scanSubaccount(r.db(ctx).QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, mapError(err, "first subaccount of account %d", accountID)
	}
	return s, nil
}

func (r *PgxSubaccountRepository) CountSubaccountsOfAccount(ctx context.Context, accountID int64) (int, error) {
	var count int
	err := r.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM subcuentas WHERE idcuenta = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count subaccounts of account %d: %w", accountID, err)
	}
	return count, nil
}

func (r *PgxSubaccountRepository) ListSubaccounts(ctx context.Context, exerciseCode string) ([]domain.Subaccount, error) {
	query := `SELECT ` + subaccountColumns + ` FROM subcuentas WHERE codejercicio = $1 ORDER BY codsubcuenta`
	rows, err := r.db(ctx).Query(ctx, query, exerciseCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list subaccounts of exercise %s: %w", exerciseCode, err)
	}
	return collectSubaccounts(rows)
}

// SaveSubaccount never writes the totals; they are maintained from the journal lines.
func (r *PgxSubaccountRepository) SaveSubaccount(ctx context.Context, sub *domain.Subaccount) error {
	if sub.ID == 0 {
		query := `
			INSERT INTO subcuentas (codsubcuenta, codejercicio, idcuenta, codcuenta, descripcion, codcuentaesp)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING idsubcuenta;
		`
		err := r.db(ctx).QueryRow(ctx, query,
			sub.Code, sub.ExerciseCode, sub.AccountID, sub.AccountCode, sub.Description, string(sub.SpecialAccount),
		).Scan(&sub.ID)
		return mapError(err, "saving subaccount %s in %s", sub.Code, sub.ExerciseCode)
	}

	query := `UPDATE subcuentas SET descripcion = $2, codcuentaesp = $3 WHERE idsubcuenta = $1`
	tag, err := r.db(ctx).Exec(ctx, query, sub.ID, sub.Description, string(sub.SpecialAccount))
	if err != nil {
		return mapError(err, "updating subaccount %s", sub.Code)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subaccount %d: %w", sub.ID, apperrors.ErrNotFound)
	}
	return nil
}
