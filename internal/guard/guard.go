package guard

import (
	"context"

	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/metrics"
)

// AuthState es lo que el guard necesita saber de la sesión actual.
type AuthState interface {
	HasIdentity() bool
	HasAccount() bool
	PendingVerification() bool
	FetchSessionAndIdentity(ctx context.Context) error
}

// Decision es el resultado de evaluar una navegación.
type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect *Route `json:"redirect,omitempty"`
}

// Guard evalúa la tabla de rutas contra el estado de sesión.
type Guard struct {
	logger  *zap.Logger
	metrics metrics.Recorder
}

func New(logger *zap.Logger, rec metrics.Recorder) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Guard{logger: logger, metrics: rec}
}

// Resolve decide la navegación hacia dest. La primera regla que aplica gana; redirigir a la
// propia ruta de destino se informa como permitido.
func (g *Guard) Resolve(ctx context.Context, dest Route, auth AuthState) Decision {
	if !auth.HasIdentity() {
		if err := auth.FetchSessionAndIdentity(ctx); err != nil {
			g.logger.Debug("session check failed during navigation", zap.String("destination", dest.Name), zap.Error(err))
		}
	}

	decision := g.decide(dest, auth)
	target := "allow"
	if !decision.Allow {
		target = decision.Redirect.Name
	}
	g.metrics.RecordGuardDecision(dest.Name, target)
	return decision
}

func (g *Guard) decide(dest Route, auth AuthState) Decision {
	hasIdentity := auth.HasIdentity()
	pending := auth.PendingVerification()

	var target string
	switch {
	case dest.RequiresAuth && !hasIdentity:
		target = RouteLogin
	case dest.RequiresAuth && !auth.HasAccount():
		target = RouteCreateAccount
	case (dest.RequiresAuth || dest.Name == RouteLogin) && pending:
		target = RouteVerifyOTP
	case dest.Name == RouteVerifyOTP && !pending:
		target = RouteDashboard
	case dest.Name == RouteLogin && hasIdentity:
		target = RouteDashboard
	}

	if target == "" || target == dest.Name {
		return Decision{Allow: true}
	}
	redirect := mustLookup(target)
	return Decision{Redirect: &redirect}
}
