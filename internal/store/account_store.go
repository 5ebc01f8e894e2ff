package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/domain"
	"github.com/jeremykhd/mycoaching/internal/notify"
)

type AccountState struct {
	Account  *domain.Account `json:"account"`
	Accounts []domain.Account `json:"accounts"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
	Status   Status           `json:"status"`
}

// AccountStore cachea la cuenta actual, la lista de cuentas y sus sub-registros.
// Dos actualizaciones concurrentes no se serializan: gana la última respuesta en llegar.
type AccountStore struct {
	mu         sync.Mutex
	accounts   AccountService
	health     HealthService
	objectives ObjectivesService
	notifier   notify.Notifier
	logger     *zap.Logger
	token      func(context.Context) string

	// onAccount recibe cada cuenta que este store deja en caché.
	onAccount func(*domain.Account)

	state AccountState
}

func NewAccountStore(accounts AccountService, health HealthService, objectives ObjectivesService, notifier notify.Notifier, logger *zap.Logger) *AccountStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewQueue(logger, 1)
	}
	return &AccountStore{
		accounts:   accounts,
		health:     health,
		objectives: objectives,
		notifier:   notifier,
		logger:     logger.With(zap.String("store", "account")),
		token:      func(context.Context) string { return "" },
		state:      AccountState{Accounts: []domain.Account{}, Status: StatusUnloaded},
	}
}

func (s *AccountStore) withToken(ctx context.Context) context.Context {
	return backend.WithAccessToken(ctx, s.token(ctx))
}

func (s *AccountStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = true
}

// finish cierra una acción: registra y notifica el fallo o el éxito, y siempre baja loading.
func (s *AccountStore) finish(err error, action, success string) error {
	s.mu.Lock()
	s.state.Loading = false
	if err == nil {
		s.mu.Unlock()
		if success != "" {
			s.notifier.Success(success)
		}
		return nil
	}
	serr := classify(err)
	s.state.Error = serr.Message
	s.mu.Unlock()

	s.logger.Warn(action+" failed", zap.String("kind", serr.Kind.String()), zap.Error(err))
	s.notifier.Error("Error: " + serr.Message)
	return serr
}

func (s *AccountStore) cacheAccount(account *domain.Account) {
	s.mu.Lock()
	s.state.Account = account
	s.state.Status = StatusLoaded
	s.state.Error = ""
	hook := s.onAccount
	s.mu.Unlock()
	if hook != nil && account != nil {
		hook(account)
	}
}

// FetchAccount carga la cuenta de userID; nil si todavía no existe.
func (s *AccountStore) FetchAccount(ctx context.Context, userID string) (*domain.Account, error) {
	s.begin()
	account, err := s.fetchAccount(ctx, userID)
	return account, s.finish(err, "fetch account", "")
}

func (s *AccountStore) fetchAccount(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.accounts.GetAccount(s.withToken(ctx), userID)
	if err != nil {
		return nil, err
	}
	s.cacheAccount(account)
	return account, nil
}

// FetchAccounts reemplaza la lista completa de cuentas.
func (s *AccountStore) FetchAccounts(ctx context.Context) ([]domain.Account, error) {
	s.begin()
	s.mu.Lock()
	s.state.Status = StatusLoading
	s.mu.Unlock()

	accounts, err := s.accounts.GetAccounts(s.withToken(ctx))
	if err != nil {
		s.mu.Lock()
		s.state.Status = StatusFailed
		s.mu.Unlock()
		return nil, s.finish(err, "fetch accounts", "")
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}

	s.mu.Lock()
	s.state.Accounts = accounts
	s.state.Status = StatusLoaded
	s.mu.Unlock()
	return accounts, s.finish(nil, "fetch accounts", "Account list loaded.")
}

// CreateAccount crea la cuenta de la identidad userID en el primer inicio de sesión.
func (s *AccountStore) CreateAccount(ctx context.Context, input domain.AccountInput, email, userID string) (*domain.Account, error) {
	s.begin()
	account, err := s.accounts.PostAccount(s.withToken(ctx), input, email, userID)
	if err != nil {
		return nil, s.finish(err, "create account", "")
	}
	s.cacheAccount(account)
	return account, s.finish(nil, "create account", "Your account information has been saved.")
}

// UpdateAccount aplica patch y refleja la respuesta en la lista y en la cuenta actual.
func (s *AccountStore) UpdateAccount(ctx context.Context, accountID int64, patch domain.AccountPatch) (*domain.Account, error) {
	s.begin()
	account, err := s.accounts.PatchAccount(s.withToken(ctx), accountID, patch)
	if err != nil {
		return nil, s.finish(err, "update account", "")
	}

	s.mu.Lock()
	for i := range s.state.Accounts {
		if s.state.Accounts[i].ID == accountID {
			s.state.Accounts[i] = *account
		}
	}
	current := s.state.Account != nil && s.state.Account.ID == accountID
	s.mu.Unlock()
	if current {
		s.cacheAccount(account)
	}
	return account, s.finish(nil, "update account", "The account has been updated.")
}

// CreateHealth crea las métricas de salud y las enlaza a la cuenta actual.
func (s *AccountStore) CreateHealth(ctx context.Context, input domain.Health) (*domain.Account, error) {
	s.begin()
	current := s.currentAccount()
	if current == nil {
		return nil, s.finish(preconditionFailed(ErrNoAccount), "create health", "")
	}

	health, err := s.health.PostHealth(s.withToken(ctx), input)
	if err != nil {
		return nil, s.finish(err, "create health", "")
	}
	account, err := s.accounts.PatchAccount(s.withToken(ctx), current.ID, domain.AccountPatch{HealthID: &health.ID})
	if err != nil {
		return nil, s.finish(err, "create health", "")
	}
	s.cacheAccount(account)
	return account, s.finish(nil, "create health", "Your health information has been saved.")
}

// UpdateHealth actualiza las métricas y recarga la cuenta una vez para refrescar la copia embebida.
func (s *AccountStore) UpdateHealth(ctx context.Context, healthID int64, patch domain.HealthPatch) (*domain.Account, error) {
	s.begin()
	if _, err := s.health.PatchHealth(s.withToken(ctx), healthID, patch); err != nil {
		return nil, s.finish(err, "update health", "")
	}
	account, err := s.refetchCurrent(ctx)
	return account, s.finish(err, "update health", "Your health information has been updated.")
}

// CreateObjectives crea los objetivos y los enlaza a la cuenta actual.
func (s *AccountStore) CreateObjectives(ctx context.Context, input domain.Objectives) (*domain.Account, error) {
	s.begin()
	current := s.currentAccount()
	if current == nil {
		return nil, s.finish(preconditionFailed(ErrNoAccount), "create objectives", "")
	}

	objectives, err := s.objectives.PostObjectives(s.withToken(ctx), input)
	if err != nil {
		return nil, s.finish(err, "create objectives", "")
	}
	account, err := s.accounts.PatchAccount(s.withToken(ctx), current.ID, domain.AccountPatch{ObjectivesID: &objectives.ID})
	if err != nil {
		return nil, s.finish(err, "create objectives", "")
	}
	s.cacheAccount(account)
	return account, s.finish(nil, "create objectives", "Your objectives have been saved.")
}

// UpdateObjectives actualiza los objetivos y recarga la cuenta una vez.
func (s *AccountStore) UpdateObjectives(ctx context.Context, objectivesID int64, patch domain.ObjectivesPatch) (*domain.Account, error) {
	s.begin()
	if _, err := s.objectives.PatchObjectives(s.withToken(ctx), objectivesID, patch); err != nil {
		return nil, s.finish(err, "update objectives", "")
	}
	account, err := s.refetchCurrent(ctx)
	return account, s.finish(err, "update objectives", "Your objectives have been updated.")
}

// refetchCurrent recarga la cuenta en caché por su user_id; sin cuenta en caché no hace nada.
func (s *AccountStore) refetchCurrent(ctx context.Context) (*domain.Account, error) {
	current := s.currentAccount()
	if current == nil || current.UserID == "" {
		return nil, nil
	}
	return s.fetchAccount(ctx, current.UserID)
}

func (s *AccountStore) currentAccount() *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Account
}

// setAccount deja account en caché sin avisar a nadie.
func (s *AccountStore) setAccount(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Account = account
	if account != nil {
		s.state.Status = StatusLoaded
	}
}

func (s *AccountStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = AccountState{Accounts: []domain.Account{}, Status: StatusUnloaded}
}

func (s *AccountStore) Snapshot() AccountState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Accounts = append([]domain.Account(nil), s.state.Accounts...)
	if out.Accounts == nil {
		out.Accounts = []domain.Account{}
	}
	return out
}
