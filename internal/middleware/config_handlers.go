package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RefetchInterval responde el intervalo de refresco del cliente en milisegundos
func RefetchInterval(intervalMs int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"interval": intervalMs})
	}
}
