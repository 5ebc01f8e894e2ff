package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeremykhd/mycoaching/internal/store"
)

// respondStoreError traduce un *store.Error a un status HTTP. rejectedStatus se usa cuando
// el backend rechazó la operación.
func respondStoreError(c *gin.Context, err error, rejectedStatus int) {
	var serr *store.Error
	if !errors.As(err, &serr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusBadGateway
	switch serr.Kind {
	case store.KindPreconditionFailed:
		status = http.StatusConflict
	case store.KindBackendRejected:
		status = rejectedStatus
	}
	c.JSON(status, gin.H{"error": serr.Message, "kind": serr.Kind.String()})
}

// actionContext: una acción iniciada termina aunque el cliente corte el request.
func actionContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
