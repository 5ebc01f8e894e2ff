package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/domain"
	"github.com/jeremykhd/mycoaching/internal/notify"
)

// Container agrupa los stores de una sesión de navegador.
type Container struct {
	ID            string
	Auth          *AuthStore
	Accounts      *AccountStore
	Workout       *WorkoutStore
	Notifications *notify.Queue

	mu       sync.Mutex
	lastSeen time.Time
}

func (c *Container) touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = now
}

func (c *Container) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Deps son los colaboradores compartidos por todos los contenedores.
type Deps struct {
	Auth               AuthBackend
	Accounts           AccountService
	Health             HealthService
	Objectives         ObjectivesService
	Exercises          ExerciseService
	Limiter            RateLimiter
	Logger             *zap.Logger
	NotificationBuffer int
}

// NewContainer arma los stores de la sesión id y los conecta entre sí.
func NewContainer(id string, deps Deps) *Container {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("sid", id))
	queue := notify.NewQueue(logger, deps.NotificationBuffer)

	auth := NewAuthStore(id, deps.Auth, deps.Accounts, deps.Limiter, queue, logger)
	accounts := NewAccountStore(deps.Accounts, deps.Health, deps.Objectives, queue, logger)
	workout := NewWorkoutStore(deps.Exercises, queue, logger)

	accounts.token = auth.AccessToken
	workout.token = auth.AccessToken

	auth.onAccount = accounts.setAccount
	accounts.onAccount = func(account *domain.Account) {
		if account.UserID != "" && account.UserID == auth.IdentityID() {
			auth.SetAccount(account)
		}
	}

	return &Container{
		ID:            id,
		Auth:          auth,
		Accounts:      accounts,
		Workout:       workout,
		Notifications: queue,
	}
}

// SignedOut limpia las cachés de cuenta tras cerrar sesión.
func (c *Container) SignedOut() {
	c.Accounts.reset()
}

// Registry mantiene un contenedor por sesión de navegador.
type Registry struct {
	mu         sync.Mutex
	deps       Deps
	idleTTL    time.Duration
	containers map[string]*Container
	logger     *zap.Logger
	now        func() time.Time
}

func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if idleTTL <= 0 {
		idleTTL = 12 * time.Hour
	}
	return &Registry{
		deps:       deps,
		idleTTL:    idleTTL,
		containers: make(map[string]*Container),
		logger:     logger,
		now:        time.Now,
	}
}

// NewID genera un id de sesión nuevo.
func (r *Registry) NewID() string {
	return uuid.NewString()
}

// Get devuelve el contenedor de sid, creándolo si no existe.
func (r *Registry) Get(sid string) *Container {
	now := r.now()
	r.mu.Lock()
	c, ok := r.containers[sid]
	if !ok {
		c = NewContainer(sid, r.deps)
		r.containers[sid] = c
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("container created", zap.String("sid", sid))
	}
	c.touch(now)
	return c
}

// Len devuelve la cantidad de contenedores vivos.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.containers)
}

// Sweep descarta los contenedores sin actividad durante más de idleTTL.
// Los tokens guardados sobreviven: un contenedor recreado con el mismo sid recupera la sesión.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	removed := 0
	for sid, c := range r.containers {
		if c.idleSince().Before(cutoff) {
			delete(r.containers, sid)
			removed++
		}
	}
	remaining := len(r.containers)
	r.mu.Unlock()

	if removed > 0 {
		r.logger.Info("containers swept", zap.Int("removed", removed), zap.Int("remaining", remaining))
	}
	return removed
}

// Schedule registra Sweep en c con la expresión spec (por ejemplo "@every 5m").
func (r *Registry) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() { r.Sweep() })
}
