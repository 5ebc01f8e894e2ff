package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/domain"
)

var (
	ErrInvalidHealthID     = errors.New("health id is required")
	ErrInvalidObjectivesID = errors.New("objectives id is required")
)

// HealthService escribe las métricas de salud de una cuenta.
type HealthService struct {
	logger  *zap.Logger
	backend *backend.Client
}

func NewHealthService(logger *zap.Logger, client *backend.Client) *HealthService {
	return &HealthService{logger: logger, backend: client}
}

func (s *HealthService) PostHealth(ctx context.Context, health domain.Health) (*domain.Health, error) {
	health.ID = 0
	var created domain.Health
	if err := s.backend.From(healthTable).Select("*").Single().Insert(ctx, health, &created); err != nil {
		return nil, err
	}
	s.logger.Info("health created", zap.Int64("health_id", created.ID))
	return &created, nil
}

func (s *HealthService) PatchHealth(ctx context.Context, healthID int64, patch domain.HealthPatch) (*domain.Health, error) {
	if healthID <= 0 {
		return nil, ErrInvalidHealthID
	}
	var updated domain.Health
	err := s.backend.From(healthTable).
		Select("*").
		Eq("id", healthID).
		Single().
		Update(ctx, patch, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ObjectivesService escribe los objetivos de entrenamiento.
type ObjectivesService struct {
	logger  *zap.Logger
	backend *backend.Client
}

func NewObjectivesService(logger *zap.Logger, client *backend.Client) *ObjectivesService {
	return &ObjectivesService{logger: logger, backend: client}
}

func (s *ObjectivesService) PostObjectives(ctx context.Context, objectives domain.Objectives) (*domain.Objectives, error) {
	objectives.ID = 0
	var created domain.Objectives
	if err := s.backend.From(objectivesTable).Select("*").Single().Insert(ctx, objectives, &created); err != nil {
		return nil, err
	}
	s.logger.Info("objectives created", zap.Int64("objectives_id", created.ID))
	return &created, nil
}

func (s *ObjectivesService) PatchObjectives(ctx context.Context, objectivesID int64, patch domain.ObjectivesPatch) (*domain.Objectives, error) {
	if objectivesID <= 0 {
		return nil, ErrInvalidObjectivesID
	}
	var updated domain.Objectives
	err := s.backend.From(objectivesTable).
		Select("*").
		Eq("id", objectivesID).
		Single().
		Update(ctx, patch, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
