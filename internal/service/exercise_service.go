package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/domain"
	"github.com/jeremykhd/mycoaching/internal/repository"
)

const (
	exerciseTable     = "workout_exercise"
	exerciseTypeTable = "exercise_type"
	exerciseColumns   = "*, type:exercise_type(id, name)"
)

// ExerciseService lee el catálogo de ejercicios. Con un repositorio configurado
// consulta Postgres directamente; si no, pasa por el backend.
type ExerciseService struct {
	logger  *zap.Logger
	backend *backend.Client
	repo    repository.ExerciseRepository
}

func NewExerciseService(logger *zap.Logger, client *backend.Client, repo repository.ExerciseRepository) *ExerciseService {
	return &ExerciseService{logger: logger, backend: client, repo: repo}
}

func (s *ExerciseService) GetExercises(ctx context.Context) ([]domain.Exercise, error) {
	if s.repo != nil {
		return s.repo.ListExercises(ctx)
	}
	var exercises []domain.Exercise
	if err := s.backend.From(exerciseTable).Select(exerciseColumns).Order("id", true).Execute(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (s *ExerciseService) GetExerciseTypes(ctx context.Context) ([]domain.ExerciseType, error) {
	if s.repo != nil {
		return s.repo.ListExerciseTypes(ctx)
	}
	var types []domain.ExerciseType
	if err := s.backend.From(exerciseTypeTable).Select("id, name").Order("id", true).Execute(ctx, &types); err != nil {
		return nil, err
	}
	return types, nil
}
