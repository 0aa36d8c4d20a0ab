package routes

import (
	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers reúne todo lo que las rutas necesitan ya construido
type Handlers struct {
	Auth            *middleware.AuthHandler
	Assets          *middleware.AssetHandler
	Admin           *middleware.AdminHandler
	JWTSecret       string
	AdminKey        string
	RefetchInterval int64
}

func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.POST("/signup", h.Auth.Signup)
	router.POST("/login", h.Auth.Login)
	router.POST("/guest", h.Auth.Guest)

	router.GET("/config/refetch-interval", middleware.RefetchInterval(h.RefetchInterval))

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(h.JWTSecret))
	{
		protected.GET("/assets", h.Assets.GetAssets)
		protected.POST("/assets", h.Assets.CreateAsset)
		protected.PUT("/assets/:id", h.Assets.UpdateAsset)
		protected.DELETE("/assets/:id", h.Assets.DeleteAsset)
	}

	// Rutas de admin
	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuth(h.AdminKey))
	{
		admin.POST("/cleanup-guests", h.Admin.CleanupGuests)
		admin.GET("/cleanup-guests", h.Admin.GuestCleanupStatus)
	}
}
