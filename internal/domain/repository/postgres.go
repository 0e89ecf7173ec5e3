package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"risk_service/internal/domain/model"
)

// historyMonths bounds how many monthly rows feed the trend factor.
const historyMonths = 12

// CrimeRepository reads the crime_data table. Matching is accent and case
// insensitive on both columns; state spellings are expanded through the
// resolver before querying.
type CrimeRepository struct {
	db     *sqlx.DB
	states *model.StateResolver
}

func NewPostgresRepository(connStr string, states *model.StateResolver) (*CrimeRepository, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataSourceUnavailable, err)
	}
	return NewCrimeRepository(db, states), nil
}

func NewCrimeRepository(db *sqlx.DB, states *model.StateResolver) *CrimeRepository {
	return &CrimeRepository{db: db, states: states}
}

func (r *CrimeRepository) DB() *sqlx.DB {
	return r.db
}

// Lookup returns the most recent month of data for the location together with
// up to a year of monthly totals.
func (r *CrimeRepository) Lookup(ctx context.Context, municipio, estado string) (model.CrimeContext, error) {
	mun := model.NormalizeName(municipio)
	if mun == "" {
		return model.CrimeContext{}, fmt.Errorf("%w: empty municipio", model.ErrLocationNotResolved)
	}
	state, ok := r.states.Resolve(estado)
	if !ok {
		return model.CrimeContext{}, fmt.Errorf("%w: unknown estado %q", model.ErrLocationNotResolved, estado)
	}

	// Нормализация на стороне БД повторяет NormalizeName для испанских имён:
	// без диакритики, верхний регистр, пунктуация и пробелы схлопнуты в один.
	const query = `
		SELECT
			estado,
			municipio,
			year,
			month,
			robo_comun,
			robo_negocio,
			robo_vehiculo,
			robo_casa_habitacion,
			lesiones,
			homicidio_doloso,
			homicidio_culposo,
			extorsion,
			secuestro,
			total_delitos,
			fuente,
			confiabilidad,
			fecha_actualizacion
		FROM crime_data
		WHERE btrim(regexp_replace(upper(translate(municipio, 'áéíóúÁÉÍÓÚüÜñÑ', 'aeiouAEIOUuUnN')), '[^A-Z0-9]+', ' ', 'g')) = $1
		AND btrim(regexp_replace(upper(translate(estado, 'áéíóúÁÉÍÓÚüÜñÑ', 'aeiouAEIOUuUnN')), '[^A-Z0-9]+', ' ', 'g')) = ANY($2)
		ORDER BY year DESC, month DESC, estado, municipio
		LIMIT $3`

	var rows []model.CrimeRecord
	err := r.db.SelectContext(ctx, &rows, query, mun, pq.Array(r.states.Variants(state)), historyMonths*4)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.CrimeContext{}, fmt.Errorf("%w: %v", model.ErrDataSourceUnavailable, err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return model.CrimeContext{}, model.ErrNotFound
		}
		return model.CrimeContext{}, fmt.Errorf("%w: failed to query crime data: %v", model.ErrDataSourceUnavailable, err)
	}
	if len(rows) == 0 {
		return model.CrimeContext{}, fmt.Errorf("%w: %s, %s", model.ErrNotFound, municipio, estado)
	}

	return model.ContextFromRecords(dedupeMonths(rows, historyMonths)), nil
}

// dedupeMonths keeps the first row of every (year, month) pair, preserving the
// most-recent-first order, and stops after limit distinct months. Several
// spellings of one state can produce more than one row per month.
func dedupeMonths(rows []model.CrimeRecord, limit int) []model.CrimeRecord {
	seen := make(map[[2]int]bool)
	out := make([]model.CrimeRecord, 0, limit)
	for _, row := range rows {
		key := [2]int{row.Year, row.Month}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out
}
