package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/guard"
	"github.com/jeremykhd/mycoaching/internal/store"
)

// ViewHandler sirve el estado de cada vista después de pasar por el guard.
type ViewHandler struct {
	logger *zap.Logger
	guard  *guard.Guard
}

func NewViewHandler(logger *zap.Logger, g *guard.Guard) *ViewHandler {
	return &ViewHandler{logger: logger, guard: g}
}

// View devuelve el handler GET de la ruta name.
func (h *ViewHandler) View(name string) gin.HandlerFunc {
	route, ok := guard.Lookup(name)
	if !ok {
		panic("http: unknown view " + name)
	}

	return func(c *gin.Context) {
		container := mustContainer(c)
		if container == nil {
			return
		}
		ctx := actionContext(c)

		decision := h.guard.Resolve(ctx, route, container.Auth)
		if !decision.Allow {
			c.Redirect(http.StatusSeeOther, decision.Redirect.Path)
			return
		}
		if route.Name == guard.RouteAccounts && !container.Auth.IsAdministrator() {
			c.JSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			return
		}

		view := gin.H{
			"route": route,
			"auth":  container.Auth.Snapshot(),
		}
		switch route.Name {
		case guard.RouteDashboard, guard.RouteProfile, guard.RouteCreateAccount:
			view["account"] = container.Accounts.Snapshot()
		case guard.RouteAccounts:
			if len(container.Accounts.Snapshot().Accounts) == 0 {
				_, _ = container.Accounts.FetchAccounts(ctx)
			}
			view["account"] = container.Accounts.Snapshot()
		case guard.RouteWorkout, guard.RouteExercises:
			workout := container.Workout.Snapshot()
			if workout.ExercisesState == store.StatusUnloaded {
				_, _ = container.Workout.FetchExercises(ctx)
			}
			if workout.TypesState == store.StatusUnloaded {
				_, _ = container.Workout.FetchExerciseTypes(ctx)
			}
			view["workout"] = container.Workout.Snapshot()
		}
		c.JSON(http.StatusOK, view)
	}
}
