package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxExerciseRepository struct {
	BaseRepository
}

var _ portsrepo.ExerciseRepository = (*PgxExerciseRepository)(nil)

const exerciseColumns = `codejercicio, idempresa, nombre, fechainicio, fechafin, estado, longsubcuenta, tieneplan`

func scanExercise(row pgx.Row) (*domain.Exercise, error) {
	var e domain.Exercise
	var state string
	if err := row.Scan(&e.Code, &e.CompanyID, &e.Name, &e.StartDate, &e.EndDate, &state, &e.SubaccountLength, &e.HasAccountingPlan); err != nil {
		return nil, err
	}
	e.State = domain.ExerciseState(state)
	return &e, nil
}

func (r *PgxExerciseRepository) FindExercise(ctx context.Context, code string) (*domain.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM ejercicios WHERE codejercicio = $1`
	e, err := scanExercise(r.db(ctx).QueryRow(ctx, query, code))
	if err != nil {
		return nil, mapError(err, "exercise %s", code)
	}
	return e, nil
}

func (r *PgxExerciseRepository) FindExerciseForDate(ctx context.Context, companyID int, date time.Time) (*domain.Exercise, error) {
	query := `
		SELECT ` + exerciseColumns + `
		FROM ejercicios
		WHERE idempresa = $1 AND $2::date BETWEEN fechainicio AND fechafin
		ORDER BY (estado = 'ABIERTO') DESC, fechainicio
		LIMIT 1;
	`
	e, err := scanExercise(r.db(ctx).QueryRow(ctx, query, companyID, date))
	if err != nil {
		return nil, mapError(err, "exercise of company %d for %s", companyID, date.Format(time.DateOnly))
	}
	return e, nil
}

// openOverlap returns the code of another open exercise of the company sharing a day with exercise.
func (r *PgxExerciseRepository) openOverlap(ctx context.Context, exercise domain.Exercise) (string, error) {
	query := `
		SELECT codejercicio
		FROM ejercicios
		WHERE idempresa = $1 AND estado = $2 AND codejercicio <> $3
			AND fechainicio <= $5::date AND fechafin >= $4::date
		ORDER BY fechainicio
		LIMIT 1;
	`
	var code string
	err := r.db(ctx).QueryRow(ctx, query,
		exercise.CompanyID, string(domain.ExerciseOpen), exercise.Code, exercise.StartDate, exercise.EndDate,
	).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return code, err
}

func (r *PgxExerciseRepository) SaveExercise(ctx context.Context, exercise domain.Exercise) error {
	if exercise.IsOpen() {
		other, err := r.openOverlap(ctx, exercise)
		if err != nil {
			return mapError(err, "checking overlap of exercise %s", exercise.Code)
		}
		if other != "" {
			return fmt.Errorf("exercise %s overlaps open exercise %s: %w", exercise.Code, other, apperrors.ErrDuplicate)
		}
	}
	query := `
		INSERT INTO ejercicios (` + exerciseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (codejercicio) DO UPDATE SET
			idempresa = EXCLUDED.idempresa,
			nombre = EXCLUDED.nombre,
			fechainicio = EXCLUDED.fechainicio,
			fechafin = EXCLUDED.fechafin,
			estado = EXCLUDED.estado,
			longsubcuenta = EXCLUDED.longsubcuenta,
			tieneplan = EXCLUDED.tieneplan;
	`
	_, err := r.db(ctx).Exec(ctx, query,
		exercise.Code,
		exercise.CompanyID,
		exercise.Name,
		exercise.StartDate,
		exercise.EndDate,
		string(exercise.State),
		exercise.SubaccountLen(),
		exercise.HasAccountingPlan,
	)
	return mapError(err, "saving exercise %s", exercise.Code)
}
