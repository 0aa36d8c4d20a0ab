package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	cleaner *services.GuestCleaner
	logger  *zap.Logger
}

func NewAdminHandler(cleaner *services.GuestCleaner, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{cleaner: cleaner, logger: logger}
}

// CleanupGuests elimina ahora mismo los invitados vencidos
func (h *AdminHandler) CleanupGuests(c *gin.Context) {
	removed, err := h.cleaner.Cleanup(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Limpieza de invitados completada",
		"removed": removed,
	})
}

// GuestCleanupStatus informa cuándo fue la última limpieza y cuántos invitados eliminó
func (h *AdminHandler) GuestCleanupStatus(c *gin.Context) {
	at, removed := h.cleaner.LastCleanup()

	resp := gin.H{"removed": removed, "last_cleanup": nil}
	if !at.IsZero() {
		resp["last_cleanup"] = at.UTC()
	}
	c.JSON(http.StatusOK, resp)
}
