package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler expone las acciones de inicio y cierre de sesión.
type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	container := mustContainer(c)
	if container == nil {
		return
	}
	ctx := actionContext(c)

	if err := container.Auth.SignInWithPassword(ctx, req.Email, req.Password); err != nil {
		respondStoreError(c, err, http.StatusUnauthorized)
		return
	}
	// La cuenta no viaja con el login por contraseña; se carga aparte.
	if _, err := container.Accounts.FetchAccount(ctx, container.Auth.IdentityID()); err != nil {
		h.logger.Warn("account fetch after login failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"auth": container.Auth.Snapshot()})
}

// RequestOTP maneja POST /auth/otp/request.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	container := mustContainer(c)
	if container == nil {
		return
	}

	if err := container.Auth.SendOneTimeCode(actionContext(c), req.Email); err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "otp_sent", "auth": container.Auth.Snapshot()})
}

// VerifyOTP maneja POST /auth/otp/verify.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp verify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	container := mustContainer(c)
	if container == nil {
		return
	}

	if err := container.Auth.VerifyOneTimeCode(actionContext(c), req.Code); err != nil {
		respondStoreError(c, err, http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth": container.Auth.Snapshot()})
}

// CancelOTP maneja POST /auth/otp/cancel.
func (h *AuthHandler) CancelOTP(c *gin.Context) {
	container := mustContainer(c)
	if container == nil {
		return
	}
	container.Auth.ClearPendingVerification()
	c.JSON(http.StatusOK, gin.H{"auth": container.Auth.Snapshot()})
}

// Logout maneja POST /auth/logout. La sesión local se cierra aunque el backend falle.
func (h *AuthHandler) Logout(c *gin.Context) {
	container := mustContainer(c)
	if container == nil {
		return
	}

	err := container.Auth.SignOut(actionContext(c))
	container.SignedOut()
	if err != nil {
		h.logger.Warn("logout reached backend with errors", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"auth": container.Auth.Snapshot()})
}
