package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fleetwatch/internal/service"
)

const operatorKey = "fleet_operator"

// Operator es el usuario autenticado que actua sobre la flota.
type Operator struct {
	UserID   string
	Username string
}

// RequireOperator protege las rutas de flota: exige un access token valido y
// deja al Operator en el contexto para los handlers.
func RequireOperator(logger *zap.Logger, jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			logger.Debug("fleet token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(operatorKey, Operator{UserID: claims.UserID, Username: claims.Username})
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CurrentOperator devuelve el operador que fijo RequireOperator.
func CurrentOperator(c *gin.Context) (Operator, bool) {
	val, ok := c.Get(operatorKey)
	if !ok {
		return Operator{}, false
	}
	op, ok := val.(Operator)
	return op, ok
}

func operatorField(c *gin.Context) zap.Field {
	op, _ := CurrentOperator(c)
	return zap.String("operator", op.Username)
}
