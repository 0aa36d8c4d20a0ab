package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/models"
	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ownerKey es la clave del contexto de gin donde AuthMiddleware deja el id del usuario
const ownerKey = "userId"

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token no proporcionado"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		userID, _ := claims["userId"].(string)
		if !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
			c.Abort()
			return
		}

		c.Set(ownerKey, userID)
		c.Next()
	}
}

// ownerID devuelve el usuario autenticado o "" si la ruta no pasó por AuthMiddleware
func ownerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}

func GenerateToken(secret, userID string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(ttl).Unix(),
	})

	return token.SignedString([]byte(secret))
}

// AuthHandler agrupa el registro, el login y las cuentas de invitado
type AuthHandler struct {
	users    *repository.UserRepository
	secret   string
	tokenTTL time.Duration
	guestTTL time.Duration
	logger   *zap.Logger
}

func NewAuthHandler(users *repository.UserRepository, secret string, tokenTTL, guestTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		guestTTL: guestTTL,
		logger:   logger,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var login struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&login); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Verificar si el usuario existe
	user, err := h.users.GetUserByEmail(c.Request.Context(), login.Email)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuario no encontrado"})
		return
	}
	if err != nil {
		h.logger.Error("Error al buscar el usuario", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al buscar el usuario"})
		return
	}

	// Verificar la contraseña
	if !repository.CheckPassword(user, login.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Contraseña incorrecta"})
		return
	}

	h.respondWithToken(c, http.StatusOK, "Inicio de sesión exitoso", user)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var signup struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Name     string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&signup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	// Verificar si el email ya está registrado
	if _, err := h.users.GetUserByEmail(ctx, signup.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "El email ya está registrado"})
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		h.logger.Error("Error al buscar el usuario", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al crear usuario"})
		return
	}

	user := &models.User{
		Email: signup.Email,
		Name:  signup.Name,
	}

	if err := h.users.CreateUser(ctx, user, signup.Password); err != nil {
		h.logger.Error("Error al crear el usuario", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al crear usuario"})
		return
	}

	h.logger.Info("Usuario registrado", zap.String("user_id", user.ID))
	h.respondWithToken(c, http.StatusCreated, "Registro exitoso", user)
}

// Guest crea una cuenta descartable que vence después de guestTTL
func (h *AuthHandler) Guest(c *gin.Context) {
	id := uuid.NewString()
	expiresAt := time.Now().Add(h.guestTTL).UTC()

	user := &models.User{
		ID:        id,
		Email:     "guest-" + id + "@guest.local",
		Name:      "Invitado",
		IsGuest:   true,
		ExpiresAt: &expiresAt,
	}

	// Nadie conoce esta contraseña; el invitado solo entra con el token
	if err := h.users.CreateUser(c.Request.Context(), user, uuid.NewString()); err != nil {
		h.logger.Error("Error al crear el invitado", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al crear el invitado"})
		return
	}

	h.logger.Info("Cuenta de invitado creada", zap.String("user_id", user.ID), zap.Time("expires_at", expiresAt))
	h.respondWithToken(c, http.StatusCreated, "Invitado creado", user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, message string, user *models.User) {
	ttl := h.tokenTTL
	if user.IsGuest && user.ExpiresAt != nil {
		ttl = time.Until(*user.ExpiresAt)
	}

	token, err := GenerateToken(h.secret, user.ID, ttl)
	if err != nil {
		h.logger.Error("Error al firmar el token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al generar el token"})
		return
	}

	c.JSON(status, gin.H{
		"message": message,
		"token":   token,
		"user":    user,
	})
}
