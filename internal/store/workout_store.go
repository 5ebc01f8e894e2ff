package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/domain"
	"github.com/jeremykhd/mycoaching/internal/notify"
)

type WorkoutState struct {
	Exercises      []domain.Exercise     `json:"exercises"`
	ExerciseTypes  []domain.ExerciseType `json:"exercise_types"`
	ExercisesState Status                `json:"exercises_status"`
	TypesState     Status                `json:"exercise_types_status"`
	Error          string                `json:"error,omitempty"`
}

// WorkoutStore cachea el catálogo de ejercicios.
type WorkoutStore struct {
	mu        sync.Mutex
	exercises ExerciseService
	notifier  notify.Notifier
	logger    *zap.Logger
	token     func(context.Context) string

	state WorkoutState
}

func NewWorkoutStore(exercises ExerciseService, notifier notify.Notifier, logger *zap.Logger) *WorkoutStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewQueue(logger, 1)
	}
	return &WorkoutStore{
		exercises: exercises,
		notifier:  notifier,
		logger:    logger.With(zap.String("store", "workout")),
		token:     func(context.Context) string { return "" },
		state: WorkoutState{
			Exercises:      []domain.Exercise{},
			ExerciseTypes:  []domain.ExerciseType{},
			ExercisesState: StatusUnloaded,
			TypesState:     StatusUnloaded,
		},
	}
}

// FetchExercises reemplaza la colección de ejercicios.
func (s *WorkoutStore) FetchExercises(ctx context.Context) ([]domain.Exercise, error) {
	s.mu.Lock()
	s.state.ExercisesState = StatusLoading
	s.mu.Unlock()

	exercises, err := s.exercises.GetExercises(backend.WithAccessToken(ctx, s.token(ctx)))
	if err != nil {
		return nil, s.fail(err, "fetch exercises", func(st *WorkoutState) { st.ExercisesState = StatusFailed })
	}
	if exercises == nil {
		exercises = []domain.Exercise{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Exercises = exercises
	s.state.ExercisesState = StatusLoaded
	return exercises, nil
}

// FetchExerciseTypes reemplaza la colección de tipos de ejercicio.
func (s *WorkoutStore) FetchExerciseTypes(ctx context.Context) ([]domain.ExerciseType, error) {
	s.mu.Lock()
	s.state.TypesState = StatusLoading
	s.mu.Unlock()

	types, err := s.exercises.GetExerciseTypes(backend.WithAccessToken(ctx, s.token(ctx)))
	if err != nil {
		return nil, s.fail(err, "fetch exercise types", func(st *WorkoutState) { st.TypesState = StatusFailed })
	}
	if types == nil {
		types = []domain.ExerciseType{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ExerciseTypes = types
	s.state.TypesState = StatusLoaded
	return types, nil
}

func (s *WorkoutStore) fail(err error, action string, mark func(*WorkoutState)) error {
	serr := classify(err)
	s.mu.Lock()
	mark(&s.state)
	s.state.Error = serr.Message
	s.mu.Unlock()

	s.logger.Warn(action+" failed", zap.String("kind", serr.Kind.String()), zap.Error(err))
	s.notifier.Error("Error: " + serr.Message)
	return serr
}

func (s *WorkoutStore) Snapshot() WorkoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Exercises = append([]domain.Exercise{}, s.state.Exercises...)
	out.ExerciseTypes = append([]domain.ExerciseType{}, s.state.ExerciseTypes...)
	return out
}
