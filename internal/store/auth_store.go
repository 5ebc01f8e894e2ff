package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/domain"
	"github.com/jeremykhd/mycoaching/internal/notify"
	"github.com/jeremykhd/mycoaching/internal/service"
)

// AuthState es la vista del store de sesión que se entrega para renderizar.
type AuthState struct {
	Identity                 *domain.Identity `json:"identity"`
	Account                  *domain.Account  `json:"account"`
	Session                  *domain.Session  `json:"-"`
	Loading                  bool             `json:"loading"`
	LoadingSession           bool             `json:"loading_session"`
	Error                    string           `json:"error,omitempty"`
	PendingVerification      bool             `json:"pending_verification"`
	PendingVerificationEmail string           `json:"pending_verification_email,omitempty"`
	Status                   Status           `json:"status"`
}

// AuthStore media todas las formas de iniciar sesión y guarda la identidad actual.
type AuthStore struct {
	mu       sync.Mutex
	key      string
	auth     AuthBackend
	accounts AccountService
	limiter  RateLimiter
	notifier notify.Notifier
	logger   *zap.Logger
	group    singleflight.Group
	now      func() time.Time

	// onAccount recibe la cuenta cargada por el propio store.
	onAccount func(*domain.Account)

	state   AuthState
	lastErr *Error
}

// NewAuthStore crea el store de sesión de un contenedor; key identifica sus tokens guardados.
func NewAuthStore(key string, auth AuthBackend, accounts AccountService, limiter RateLimiter, notifier notify.Notifier, logger *zap.Logger) *AuthStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewQueue(logger, 1)
	}
	return &AuthStore{
		key:      key,
		auth:     auth,
		accounts: accounts,
		limiter:  limiter,
		notifier: notifier,
		logger:   logger.With(zap.String("store", "auth")),
		now:      time.Now,
		state:    AuthState{Status: StatusUnloaded},
	}
}

// FetchSessionAndIdentity carga la sesión guardada y la cuenta asociada. Solo trabaja si
// todavía no hay identidad ni cuenta; las llamadas concurrentes comparten una única carga.
func (s *AuthStore) FetchSessionAndIdentity(ctx context.Context) error {
	s.mu.Lock()
	s.state.LoadingSession = true
	if s.state.Identity != nil || s.state.Account != nil {
		s.state.LoadingSession = false
		s.mu.Unlock()
		return nil
	}
	s.state.Status = StatusLoading
	s.mu.Unlock()

	_, err, _ := s.group.Do("session", func() (any, error) {
		return nil, s.fetchSession(ctx)
	})
	return err
}

func (s *AuthStore) fetchSession(ctx context.Context) error {
	session, err := s.auth.GetSession(ctx, s.key)
	if err != nil {
		serr := classify(err)
		s.logger.Warn("session lookup failed", zap.Error(err))
		s.mu.Lock()
		s.state.Identity = nil
		s.state.Account = nil
		s.state.Session = nil
		s.state.Error = serr.Message
		s.state.Status = StatusFailed
		s.state.LoadingSession = false
		s.lastErr = serr
		s.mu.Unlock()
		s.notifier.Error("Error: " + serr.Message)
		return serr
	}

	if session == nil || session.User == nil {
		s.mu.Lock()
		s.state.Session = nil
		s.state.Identity = nil
		s.state.Status = StatusLoaded
		s.state.LoadingSession = false
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.state.Session = session
	s.state.Identity = session.User
	s.mu.Unlock()

	accErr := s.loadAccount(ctx, session)

	s.mu.Lock()
	s.state.Status = StatusLoaded
	s.state.LoadingSession = false
	s.mu.Unlock()
	return accErr
}

// loadAccount busca la cuenta de la identidad de session. Un fallo se registra pero
// conserva la identidad.
func (s *AuthStore) loadAccount(ctx context.Context, session *domain.Session) error {
	account, err := s.accounts.GetAccount(backend.WithAccessToken(ctx, session.AccessToken), session.User.ID)
	if err != nil {
		serr := classify(err)
		s.logger.Warn("account lookup failed", zap.String("user_id", session.User.ID), zap.Error(err))
		s.mu.Lock()
		s.state.Error = serr.Message
		s.lastErr = serr
		s.mu.Unlock()
		s.notifier.Error("Error: " + serr.Message)
		return serr
	}

	s.mu.Lock()
	s.state.Account = account
	hook := s.onAccount
	s.mu.Unlock()
	if hook != nil && account != nil {
		hook(account)
	}
	return nil
}

// SignInWithPassword abre una sesión con email y contraseña. No carga la cuenta.
func (s *AuthStore) SignInWithPassword(ctx context.Context, email, password string) error {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	session, err := s.auth.SignInWithPassword(ctx, s.key, strings.TrimSpace(email), password)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	if err != nil {
		serr := classify(err)
		s.logger.Warn("password sign-in failed", zap.Error(err))
		s.state.Error = serr.Message
		s.lastErr = serr
		s.notifier.Error("Error: " + serr.Message)
		return serr
	}

	s.applySessionLocked(session)
	s.state.Status = StatusLoaded
	s.notifier.Info("Welcome to the application.")
	return nil
}

// SignOut cierra la sesión. El estado se limpia aunque el backend falle.
func (s *AuthStore) SignOut(ctx context.Context) error {
	err := s.auth.SignOut(ctx, s.key)
	if err != nil {
		s.logger.Warn("backend sign-out failed", zap.Error(err))
	}

	s.mu.Lock()
	s.state.Identity = nil
	s.state.Account = nil
	s.state.Session = nil
	s.state.PendingVerification = false
	s.state.PendingVerificationEmail = ""
	s.state.Status = StatusUnloaded
	s.mu.Unlock()

	s.notifier.Info("You have been signed out.")
	if err != nil {
		return classify(err)
	}
	return nil
}

// SendOneTimeCode pide un código de un solo uso sin crear usuarios nuevos.
func (s *AuthStore) SendOneTimeCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	var err error
	if s.limiter != nil && !s.limiter.Allow(email) {
		err = service.ErrRateLimited
	} else {
		err = s.auth.SignInWithOTP(ctx, email, false)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	if err != nil {
		serr := classify(err)
		s.logger.Warn("one-time code request failed", zap.Error(err))
		s.state.Error = serr.Message
		s.lastErr = serr
		s.notifier.Error("Error: " + serr.Message)
		return serr
	}

	s.state.PendingVerification = true
	s.state.PendingVerificationEmail = email
	s.notifier.Info("An email with your verification code has been sent.")
	return nil
}

// VerifyOneTimeCode valida code contra la verificación pendiente y carga la cuenta.
// Sin verificación pendiente falla con ErrNoPendingVerification sin tocar el estado.
func (s *AuthStore) VerifyOneTimeCode(ctx context.Context, code string) error {
	s.mu.Lock()
	if !s.state.PendingVerification {
		s.mu.Unlock()
		return preconditionFailed(ErrNoPendingVerification)
	}
	email := s.state.PendingVerificationEmail
	s.state.LoadingSession = true
	s.state.Error = ""
	s.mu.Unlock()

	session, err := s.auth.VerifyOTP(ctx, s.key, email, strings.TrimSpace(code), backend.OTPTypeEmail)
	if err != nil {
		serr := classify(err)
		s.logger.Warn("one-time code verification failed", zap.Error(err))
		s.mu.Lock()
		s.state.Error = serr.Message
		s.state.LoadingSession = false
		s.lastErr = serr
		s.mu.Unlock()
		s.notifier.Error("Error: " + serr.Message)
		return serr
	}

	s.mu.Lock()
	s.applySessionLocked(session)
	s.mu.Unlock()

	var accErr error
	if session != nil && session.User != nil {
		accErr = s.loadAccount(ctx, session)
	}

	s.mu.Lock()
	s.state.PendingVerification = false
	s.state.PendingVerificationEmail = ""
	s.state.Status = StatusLoaded
	s.state.LoadingSession = false
	s.mu.Unlock()

	// El código ya se consumió: la identidad queda aunque la cuenta no haya cargado.
	if accErr != nil {
		return accErr
	}
	s.notifier.Success("Code verified, welcome to the application.")
	return nil
}

func (s *AuthStore) applySessionLocked(session *domain.Session) {
	s.state.Session = session
	if session == nil {
		s.state.Identity = nil
		return
	}
	s.state.Identity = session.User
	if s.state.Account != nil && (session.User == nil || s.state.Account.UserID != session.User.ID) {
		s.state.Account = nil
	}
}

func (s *AuthStore) ClearPendingVerification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PendingVerification = false
	s.state.PendingVerificationEmail = ""
}

// IsAdministrator indica si la cuenta cargada tiene rol de administrador.
func (s *AuthStore) IsAdministrator() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Account != nil &&
		s.state.Account.Role != nil &&
		s.state.Account.Role.Name == domain.RoleAdmin
}

// SetAccount publica una cuenta creada o recargada fuera de este store.
func (s *AuthStore) SetAccount(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Account = account
}

func (s *AuthStore) Snapshot() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError devuelve el último fallo clasificado, si lo hubo.
func (s *AuthStore) LastError() *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// AccessToken es el token con el que viajan las consultas del usuario actual. Si la sesión
// en caché caducó, la pide de nuevo al backend, que la renueva con el refresh token.
func (s *AuthStore) AccessToken(ctx context.Context) string {
	s.mu.Lock()
	session := s.state.Session
	s.mu.Unlock()
	if session == nil {
		return ""
	}
	if !session.Expired(s.now()) {
		return session.AccessToken
	}

	v, _, _ := s.group.Do("refresh", func() (any, error) {
		return s.refreshSession(ctx, session), nil
	})
	return v.(string)
}

// refreshSession reemplaza la sesión caducada. Si el backend ya no tiene sesión, la
// identidad se descarta y el guard vuelve a pedir login; un fallo de red conserva la vieja.
func (s *AuthStore) refreshSession(ctx context.Context, stale *domain.Session) string {
	fresh, err := s.auth.GetSession(ctx, s.key)
	if err != nil {
		s.logger.Warn("session refresh failed", zap.Error(err))
		if classify(err).Kind == KindTransportFailed {
			return stale.AccessToken
		}
		fresh = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Session != stale {
		if s.state.Session == nil {
			return ""
		}
		return s.state.Session.AccessToken
	}
	if fresh == nil {
		s.state.Session = nil
		s.state.Identity = nil
		s.state.Account = nil
		s.state.Status = StatusUnloaded
		return ""
	}
	if fresh.User == nil {
		fresh.User = stale.User
	}
	s.applySessionLocked(fresh)
	return fresh.AccessToken
}

// IdentityID devuelve el id de la identidad actual o "".
func (s *AuthStore) IdentityID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Identity == nil {
		return ""
	}
	return s.state.Identity.ID
}

// HasIdentity, HasAccount y PendingVerification alimentan al guard.
func (s *AuthStore) HasIdentity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Identity != nil
}

func (s *AuthStore) HasAccount() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Account != nil
}

func (s *AuthStore) PendingVerification() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PendingVerification
}
