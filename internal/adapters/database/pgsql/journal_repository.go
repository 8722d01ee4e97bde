package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxEntryRepository struct {
	BaseRepository
}

var _ portsrepo.EntryRepository = (*PgxEntryRepository)(nil)

const entryColumns = `idasiento, numero, codejercicio, idempresa, fecha, concepto, documento, importe, canal, iddiario, operacion, editable`

const lineColumns = `idpartida, idasiento, idsubcuenta, codsubcuenta, idcontrapartida, codcontrapartida, debe, haber,
	concepto, documento, baseimponible, iva, recargo, cifnif, orden`

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	var op string
	if err := row.Scan(&e.ID, &e.Number, &e.ExerciseCode, &e.CompanyID, &e.Date, &e.Concept, &e.Document,
		&e.Amount, &e.Channel, &e.JournalID, &op, &e.Editable); err != nil {
		return nil, err
	}
	e.Operation = domain.Operation(op)
	return &e, nil
}

func (r *PgxEntryRepository) FindEntry(ctx context.Context, id int64) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM asientos WHERE idasiento = $1`
	e, err := scanEntry(r.db(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "entry %d", id)
	}
	return e, nil
}

func (r *PgxEntryRepository) FindEntryLines(ctx context.Context, entryID int64) ([]domain.JournalLine, error) {
	query := `SELECT ` + lineColumns + ` FROM partidas WHERE idasiento = $1 ORDER BY orden, idpartida`
	rows, err := r.db(ctx).Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of entry %d: %w", entryID, err)
	}
	defer rows.Close()

	lines := []domain.JournalLine{}
	for rows.Next() {
		var l domain.JournalLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.SubaccountID, &l.SubaccountCode, &l.CounterpartID, &l.CounterpartCode,
			&l.Debit, &l.Credit, &l.Concept, &l.Document, &l.TaxBase, &l.TaxRate, &l.SurchargeRate, &l.TaxNumber, &l.Sort); err != nil {
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows: %w", err)
	}
	return lines, nil
}

func (r *PgxEntryRepository) FindEntriesByOperation(ctx context.Context, exerciseCode string, op domain.Operation) ([]domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM asientos
		WHERE codejercicio = $1 AND operacion = $2
		ORDER BY COALESCE(canal, 0), idasiento;
	`
	rows, err := r.db(ctx).Query(ctx, query, exerciseCode, string(op))
	if err != nil {
		return nil, fmt.Errorf("failed to query %q entries of %s: %w", op, exerciseCode, err)
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entries, nil
}

func (r *PgxEntryRepository) SaveEntry(ctx context.Context, entry *domain.JournalEntry) error {
	if entry.ID == 0 {
		// numbers are sequential per exercise; the unique index rejects concurrent duplicates
		query := `
			INSERT INTO asientos (numero, codejercicio, idempresa, fecha, concepto, documento, importe, canal, iddiario, operacion, editable)
			SELECT COALESCE(MAX(numero), 0) + 1, $1, $2::integer, $3::date, $4::varchar, $5::varchar, $6::numeric,
				$7::integer, $8::integer, $9::varchar, $10::boolean
			FROM asientos WHERE codejercicio = $1
			RETURNING idasiento, numero;
		`
		err := r.db(ctx).QueryRow(ctx, query,
			entry.ExerciseCode, entry.CompanyID, entry.Date, entry.Concept, entry.Document, entry.Amount,
			entry.Channel, entry.JournalID, string(entry.Operation), entry.Editable,
		).Scan(&entry.ID, &entry.Number)
		return mapError(err, "saving entry of exercise %s", entry.ExerciseCode)
	}

	query := `
		UPDATE asientos
		SET fecha = $2, concepto = $3, documento = $4, importe = $5, canal = $6, iddiario = $7, operacion = $8, editable = $9
		WHERE idasiento = $1;
	`
	tag, err := r.db(ctx).Exec(ctx, query,
		entry.ID, entry.Date, entry.Concept, entry.Document, entry.Amount,
		entry.Channel, entry.JournalID, string(entry.Operation), entry.Editable)
	if err != nil {
		return mapError(err, "updating entry %d", entry.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %d: %w", entry.ID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxEntryRepository) SaveLine(ctx context.Context, line *domain.JournalLine) error {
	db := r.db(ctx)
	if err := db.QueryRow(ctx, `SELECT codsubcuenta FROM subcuentas WHERE idsubcuenta = $1`, line.SubaccountID).
		Scan(&line.SubaccountCode); err != nil {
		return mapError(err, "subaccount %d of line", line.SubaccountID)
	}

	var previousSub int64
	if line.ID == 0 {
		query := `
			INSERT INTO partidas (` + lineColumns + `)
			VALUES (DEFAULT, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING idpartida;
		`
		err := db.QueryRow(ctx, query,
			line.EntryID, line.SubaccountID, line.SubaccountCode, line.CounterpartID, line.CounterpartCode,
			line.Debit, line.Credit, line.Concept, line.Document, line.TaxBase, line.TaxRate, line.SurchargeRate,
			line.TaxNumber, line.Sort,
		).Scan(&line.ID)
		if err != nil {
			return mapError(err, "saving line of entry %d", line.EntryID)
		}
	} else {
		if err := db.QueryRow(ctx, `SELECT idsubcuenta FROM partidas WHERE idpartida = $1`, line.ID).Scan(&previousSub); err != nil {
			return mapError(err, "line %d", line.ID)
		}
		query := `
			UPDATE partidas
			SET idsubcuenta = $2, codsubcuenta = $3, idcontrapartida = $4, codcontrapartida = $5, debe = $6, haber = $7,
				concepto = $8, documento = $9, baseimponible = $10, iva = $11, recargo = $12, cifnif = $13, orden = $14
			WHERE idpartida = $1;
		`
		if _, err := db.Exec(ctx, query,
			line.ID, line.SubaccountID, line.SubaccountCode, line.CounterpartID, line.CounterpartCode,
			line.Debit, line.Credit, line.Concept, line.Document, line.TaxBase, line.TaxRate, line.SurchargeRate,
			line.TaxNumber, line.Sort); err != nil {
			return mapError(err, "updating line %d", line.ID)
		}
	}

	if err := r.refreshSubaccount(ctx, line.SubaccountID); err != nil {
		return err
	}
	if previousSub != 0 && previousSub != line.SubaccountID {
		return r.refreshSubaccount(ctx, previousSub)
	}
	return nil
}

func (r *PgxEntryRepository) DeleteEntry(ctx context.Context, id int64) error {
	db := r.db(ctx)
	rows, err := db.Query(ctx, `DELETE FROM partidas WHERE idasiento = $1 RETURNING idsubcuenta`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lines of entry %d: %w", id, err)
	}
	touched, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return fmt.Errorf("failed to collect subaccounts of entry %d: %w", id, err)
	}

	if _, err := db.Exec(ctx, `DELETE FROM asientos WHERE idasiento = $1`, id); err != nil {
		return fmt.Errorf("failed to delete entry %d: %w", id, err)
	}

	refreshed := make(map[int64]bool, len(touched))
	for _, subID := range touched {
		if refreshed[subID] {
			continue
		}
		refreshed[subID] = true
		if err := r.refreshSubaccount(ctx, subID); err != nil {
			return err
		}
	}
	return nil
}

// refreshSubaccount recomputes the totals of a sub-account from its lines.
func (r *PgxEntryRepository) refreshSubaccount(ctx context.Context, subID int64) error {
	query := `
		UPDATE subcuentas s
		SET debe = t.debe, haber = t.haber, saldo = t.debe - t.haber
		FROM (
			SELECT COALESCE(SUM(debe), 0) AS debe, COALESCE(SUM(haber), 0) AS haber
			FROM partidas WHERE idsubcuenta = $1
		) t
		WHERE s.idsubcuenta = $1;
	`
	if _, err := r.db(ctx).Exec(ctx, query, subID); err != nil {
		return fmt.Errorf("failed to refresh totals of subaccount %d: %w", subID, err)
	}
	return nil
}
