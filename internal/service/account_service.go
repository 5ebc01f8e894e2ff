package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/domain"
)

const (
	accountTable    = "account"
	healthTable     = "health"
	objectivesTable = "training_objectives"

	// accountColumns trae la cuenta junto con salud, objetivos y rol en una sola consulta.
	accountColumns = `*,
		health(id, height, weight, target_weight, target_training, measure_weight),
		training_objectives(id, training_per_week),
		role(name)`
)

var (
	ErrInvalidUserID    = errors.New("user id is required")
	ErrInvalidAccountID = errors.New("account id is required")
)

// AccountService envuelve las consultas sobre la tabla de cuentas.
type AccountService struct {
	logger  *zap.Logger
	backend *backend.Client
}

func NewAccountService(logger *zap.Logger, client *backend.Client) *AccountService {
	return &AccountService{logger: logger, backend: client}
}

// GetAccount devuelve la cuenta de userID o nil si todavía no existe.
func (s *AccountService) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	var account *domain.Account
	err := s.backend.From(accountTable).
		Select(accountColumns).
		Eq("user_id", userID).
		MaybeSingle().
		Execute(ctx, &account)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) GetAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := s.backend.From(accountTable).Select(accountColumns).Execute(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

type newAccountRow struct {
	Firstname string         `json:"firstname"`
	Lastname  string         `json:"lastname"`
	Birthday  string         `json:"birthday,omitempty"`
	Email     string         `json:"email"`
	Gender    *domain.Gender `json:"gender"`
	UserID    string         `json:"user_id"`
	RoleID    int64          `json:"role_id"`
}

// PostAccount crea la cuenta de userID con el rol estándar.
func (s *AccountService) PostAccount(ctx context.Context, input domain.AccountInput, email, userID string) (*domain.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	row := newAccountRow{
		Firstname: strings.TrimSpace(input.Firstname),
		Lastname:  strings.TrimSpace(input.Lastname),
		Birthday:  strings.TrimSpace(input.Birthday),
		Email:     strings.TrimSpace(email),
		Gender:    input.Gender,
		UserID:    userID,
		RoleID:    domain.DefaultRoleID,
	}
	var account domain.Account
	err := s.backend.From(accountTable).
		Select(accountColumns).
		Single().
		Insert(ctx, row, &account)
	if err != nil {
		return nil, err
	}
	s.logger.Info("account created", zap.Int64("account_id", account.ID), zap.String("user_id", userID))
	return &account, nil
}

func (s *AccountService) PatchAccount(ctx context.Context, accountID int64, patch domain.AccountPatch) (*domain.Account, error) {
	if accountID <= 0 {
		return nil, ErrInvalidAccountID
	}
	var account domain.Account
	err := s.backend.From(accountTable).
		Select(accountColumns).
		Eq("id", accountID).
		Single().
		Update(ctx, patch, &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
