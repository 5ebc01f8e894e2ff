package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Healthz maneja GET /healthz.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Notifications maneja GET /notifications y vacía la cola de avisos de la sesión.
func Notifications(c *gin.Context) {
	container := mustContainer(c)
	if container == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": container.Notifications.Drain()})
}
