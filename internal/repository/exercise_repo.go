package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeremykhd/mycoaching/internal/domain"
)

// ExerciseRepository define la lectura del catálogo de ejercicios.
type ExerciseRepository interface {
	ListExercises(ctx context.Context) ([]domain.Exercise, error)
	ListExerciseTypes(ctx context.Context) ([]domain.ExerciseType, error)
}

// PgExerciseRepository implementa ExerciseRepository leyendo Postgres directamente.
type PgExerciseRepository struct {
	pool *pgxpool.Pool
}

func NewPgExerciseRepository(pool *pgxpool.Pool) *PgExerciseRepository {
	return &PgExerciseRepository{pool: pool}
}

func (r *PgExerciseRepository) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	const query = `
		SELECT e.id, COALESCE(e.title, ''), COALESCE(e.subtitle, ''),
		       COALESCE(e.body_weight, 0), COALESCE(e.weight, 0),
		       COALESCE(e.repetitions, 0), COALESCE(e.set, 0), COALESCE(e.rest, 0),
		       t.id, t.name
		FROM workout_exercise e
		LEFT JOIN exercise_type t ON t.id = e.type_id
		ORDER BY e.id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]domain.Exercise, 0)
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

func (r *PgExerciseRepository) ListExerciseTypes(ctx context.Context) ([]domain.ExerciseType, error) {
	const query = `
		SELECT id, name
		FROM exercise_type
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]domain.ExerciseType, 0)
	for rows.Next() {
		var t domain.ExerciseType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func scanExercise(row pgx.Row) (domain.Exercise, error) {
	var (
		ex       domain.Exercise
		typeID   *int64
		typeName *string
	)
	err := row.Scan(
		&ex.ID,
		&ex.Title,
		&ex.Subtitle,
		&ex.BodyWeight,
		&ex.Weight,
		&ex.Repetitions,
		&ex.Set,
		&ex.Rest,
		&typeID,
		&typeName,
	)
	if err != nil {
		return domain.Exercise{}, err
	}
	if typeID != nil {
		ex.Type = &domain.ExerciseType{ID: *typeID}
		if typeName != nil {
			ex.Type.Name = *typeName
		}
	}
	return ex, nil
}
