package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	RegisterRoutes(router, Handlers{
		Auth:            &middleware.AuthHandler{},
		Assets:          &middleware.AssetHandler{},
		Admin:           &middleware.AdminHandler{},
		JWTSecret:       "secret",
		AdminKey:        "admin",
		RefetchInterval: 60000,
	})

	registered := map[string]bool{}
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, route := range []string{
		"POST /signup",
		"POST /login",
		"POST /guest",
		"GET /config/refetch-interval",
		"GET /assets",
		"POST /assets",
		"PUT /assets/:id",
		"DELETE /assets/:id",
		"POST /admin/cleanup-guests",
		"GET /admin/cleanup-guests",
	} {
		assert.True(t, registered[route], route)
	}

	// Protected routes reject requests without a token before reaching the handler
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config/refetch-interval", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"interval":60000}`, w.Body.String())
}
