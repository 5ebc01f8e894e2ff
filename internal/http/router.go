package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/guard"
)

// NewRouter configura el router de Gin con middlewares, vistas y acciones.
func NewRouter(
	logger *zap.Logger,
	session gin.HandlerFunc,
	views *ViewHandler,
	authH *AuthHandler,
	accountH *AccountHandler,
	workoutH *WorkoutHandler,
	metricsHandler http.Handler,
) *gin.Engine {
	r := gin.New()
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/healthz", Healthz)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	app := r.Group("", jsonContentTypeMiddleware(), session)

	for _, route := range guard.Routes() {
		app.GET(route.Path, views.View(route.Name))
	}
	app.GET("/notifications", Notifications)

	auth := app.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/otp/request", authH.RequestOTP)
	auth.POST("/otp/verify", authH.VerifyOTP)
	auth.POST("/otp/cancel", authH.CancelOTP)
	auth.POST("/logout", authH.Logout)

	account := app.Group("/account")
	account.POST("", accountH.CreateAccount)
	account.PATCH("/:id", accountH.UpdateAccount)
	account.POST("/health", accountH.CreateHealth)
	account.PATCH("/health/:id", accountH.UpdateHealth)
	account.POST("/objectives", accountH.CreateObjectives)
	account.PATCH("/objectives/:id", accountH.UpdateObjectives)

	app.POST("/accounts/refresh", accountH.RefreshAccounts)
	app.POST("/exercises/refresh", workoutH.RefreshExercises)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
