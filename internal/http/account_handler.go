package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/domain"
	"github.com/jeremykhd/mycoaching/internal/store"
)

// AccountHandler expone las acciones sobre la cuenta, la salud y los objetivos.
type AccountHandler struct {
	logger *zap.Logger
}

func NewAccountHandler(logger *zap.Logger) *AccountHandler {
	return &AccountHandler{logger: logger}
}

// CreateAccount maneja POST /account.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req domain.AccountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create account request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	container := mustContainer(c)
	if container == nil {
		return
	}
	identity, ok := requireIdentity(c, container)
	if !ok {
		return
	}

	account, err := container.Accounts.CreateAccount(actionContext(c), req, identity.Email, identity.ID)
	if err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// UpdateAccount maneja PATCH /account/:id.
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req domain.AccountPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update account request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	container := mustContainer(c)
	if container == nil {
		return
	}
	if _, ok := requireIdentity(c, container); !ok {
		return
	}

	account, err := container.Accounts.UpdateAccount(actionContext(c), id, req)
	if err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// CreateHealth maneja POST /account/health.
func (h *AccountHandler) CreateHealth(c *gin.Context) {
	var req domain.Health
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create health request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	container := mustContainer(c)
	if container == nil {
		return
	}
	if _, ok := requireIdentity(c, container); !ok {
		return
	}

	account, err := container.Accounts.CreateHealth(actionContext(c), req)
	if err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// UpdateHealth maneja PATCH /account/health/:id.
func (h *AccountHandler) UpdateHealth(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req domain.HealthPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update health request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	container := mustContainer(c)
	if container == nil {
		return
	}
	if _, ok := requireIdentity(c, container); !ok {
		return
	}

	account, err := container.Accounts.UpdateHealth(actionContext(c), id, req)
	if err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// CreateObjectives maneja POST /account/objectives.
func (h *AccountHandler) CreateObjectives(c *gin.Context) {
	var req domain.Objectives
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create objectives request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	container := mustContainer(c)
	if container == nil {
		return
	}
	if _, ok := requireIdentity(c, container); !ok {
		return
	}

	account, err := container.Accounts.CreateObjectives(actionContext(c), req)
	if err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// UpdateObjectives maneja PATCH /account/objectives/:id.
func (h *AccountHandler) UpdateObjectives(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req domain.ObjectivesPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update objectives request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	container := mustContainer(c)
	if container == nil {
		return
	}
	if _, ok := requireIdentity(c, container); !ok {
		return
	}

	account, err := container.Accounts.UpdateObjectives(actionContext(c), id, req)
	if err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// RefreshAccounts maneja POST /accounts/refresh. Solo administradores.
func (h *AccountHandler) RefreshAccounts(c *gin.Context) {
	container := mustContainer(c)
	if container == nil {
		return
	}
	if !container.Auth.IsAdministrator() {
		c.JSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
		return
	}

	accounts, err := container.Accounts.FetchAccounts(actionContext(c))
	if err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// requireIdentity corta con 401 las acciones de escritura de una sesión anónima.
func requireIdentity(c *gin.Context, container *store.Container) (*domain.Identity, bool) {
	identity := container.Auth.Snapshot().Identity
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return nil, false
	}
	return identity, true
}

func (h *AccountHandler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
