package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/models"
	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AssetHandler expone el portafolio del usuario autenticado
type AssetHandler struct {
	portfolio *services.PortfolioService
	logger    *zap.Logger
}

func NewAssetHandler(portfolio *services.PortfolioService, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{portfolio: portfolio, logger: logger}
}

// GetAssets devuelve las tenencias valuadas, el total y los datos del gráfico
func (h *AssetHandler) GetAssets(c *gin.Context) {
	snapshot, err := h.portfolio.GetPortfolio(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var input models.NewHoldingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	holding, err := h.portfolio.AddHolding(c.Request.Context(), ownerID(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Activo creado exitosamente",
		"asset":   holding,
	})
}

func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	var input models.UpdateAmountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	holding, err := h.portfolio.UpdateAmount(c.Request.Context(), ownerID(c), c.Param("id"), *input.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Activo actualizado exitosamente",
		"asset":   holding,
	})
}

func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	if err := h.portfolio.DeleteHolding(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Activo eliminado exitosamente"})
}
