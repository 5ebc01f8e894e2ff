// Package guard decide, antes de cada navegación, si se permite o a dónde redirigir.
package guard

const (
	RouteHome          = "home"
	RouteDashboard     = "dashboard"
	RouteProfile       = "profil"
	RouteAccounts      = "accounts"
	RouteWorkout       = "workout"
	RouteExercises     = "exercises"
	RouteLogin         = "login"
	RouteVerifyOTP     = "verify-otp"
	RouteCreateAccount = "create-account"
)

// Route es una vista navegable.
type Route struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	RequiresAuth bool   `json:"requires_auth"`
}

var routes = []Route{
	{Name: RouteHome, Path: "/", RequiresAuth: true},
	{Name: RouteDashboard, Path: "/dashboard", RequiresAuth: true},
	{Name: RouteProfile, Path: "/profil", RequiresAuth: true},
	{Name: RouteAccounts, Path: "/accounts", RequiresAuth: true},
	{Name: RouteWorkout, Path: "/workout", RequiresAuth: true},
	{Name: RouteExercises, Path: "/exercises", RequiresAuth: true},
	{Name: RouteLogin, Path: "/login", RequiresAuth: false},
	{Name: RouteVerifyOTP, Path: "/verify-otp", RequiresAuth: false},
	{Name: RouteCreateAccount, Path: "/create-account", RequiresAuth: true},
}

// Routes devuelve una copia de la tabla de rutas.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup busca una ruta por nombre.
func Lookup(name string) (Route, bool) {
	for _, r := range routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

func mustLookup(name string) Route {
	r, ok := Lookup(name)
	if !ok {
		panic("guard: unknown route " + name)
	}
	return r
}
