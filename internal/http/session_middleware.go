package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/service"
	"github.com/jeremykhd/mycoaching/internal/store"
)

const (
	sessionCookieName = "mycoaching_sid"
	containerKey      = "store_container"
)

// SessionMiddleware resuelve la cookie de sesión y guarda el contenedor de stores en el contexto.
// Sin cookie válida se abre una sesión nueva; pasada la mitad de su vida, la cookie se vuelve a firmar.
func SessionMiddleware(logger *zap.Logger, signer *service.CookieSigner, registry *store.Registry, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if signer == nil || registry == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session not configured"})
			c.Abort()
			return
		}

		var (
			sid   string
			renew bool
		)
		if raw, err := c.Cookie(sessionCookieName); err == nil {
			claims, err := signer.ParseClaims(raw)
			if err != nil {
				logger.Debug("discarding session cookie", zap.Error(err))
			} else {
				sid = claims.SessionID
				renew = signer.NeedsRenewal(claims)
			}
		}

		if sid == "" {
			sid = registry.NewID()
			renew = true
		}
		if renew {
			value, err := signer.Sign(sid)
			if err != nil {
				logger.Error("sign session cookie failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open session"})
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookieName, value, int(signer.TTL().Seconds()), "/", "", secure, true)
		}

		c.Set(containerKey, registry.Get(sid))
		c.Next()
	}
}

// GetContainer obtiene el contenedor de la sesión desde el contexto.
func GetContainer(c *gin.Context) (*store.Container, bool) {
	val, ok := c.Get(containerKey)
	if !ok {
		return nil, false
	}
	container, ok := val.(*store.Container)
	return container, ok
}

func mustContainer(c *gin.Context) *store.Container {
	container, ok := GetContainer(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session missing"})
		c.Abort()
		return nil
	}
	return container
}
