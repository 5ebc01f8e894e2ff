package store

import (
	"context"

	"github.com/jeremykhd/mycoaching/internal/domain"
)

// AuthBackend es la superficie de autenticación que consumen los stores.
type AuthBackend interface {
	GetSession(ctx context.Context, key string) (*domain.Session, error)
	SignInWithPassword(ctx context.Context, key, email, password string) (*domain.Session, error)
	SignInWithOTP(ctx context.Context, email string, createUser bool) error
	VerifyOTP(ctx context.Context, key, email, token, otpType string) (*domain.Session, error)
	SignOut(ctx context.Context, key string) error
}

type AccountService interface {
	GetAccount(ctx context.Context, userID string) (*domain.Account, error)
	GetAccounts(ctx context.Context) ([]domain.Account, error)
	PostAccount(ctx context.Context, input domain.AccountInput, email, userID string) (*domain.Account, error)
	PatchAccount(ctx context.Context, accountID int64, patch domain.AccountPatch) (*domain.Account, error)
}

type HealthService interface {
	PostHealth(ctx context.Context, health domain.Health) (*domain.Health, error)
	PatchHealth(ctx context.Context, healthID int64, patch domain.HealthPatch) (*domain.Health, error)
}

type ObjectivesService interface {
	PostObjectives(ctx context.Context, objectives domain.Objectives) (*domain.Objectives, error)
	PatchObjectives(ctx context.Context, objectivesID int64, patch domain.ObjectivesPatch) (*domain.Objectives, error)
}

type ExerciseService interface {
	GetExercises(ctx context.Context) ([]domain.Exercise, error)
	GetExerciseTypes(ctx context.Context) ([]domain.ExerciseType, error)
}

// RateLimiter limita la emisión de códigos por email.
type RateLimiter interface {
	Allow(key string) bool
}
