package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/config"
	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/database"
	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/middleware"
	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/models"
	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/repository"
	routes "github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/server"
	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error al cargar la configuración: %v", err)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Error al crear el logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		// Solo en local: los tokens dejan de valer al reiniciar
		cfg.Auth.JWTSecret = uuid.NewString()
		logger.Warn("JWT_SECRET no configurado, se usa un secreto aleatorio para esta ejecución")
	}

	// Inicializar base de datos
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Error al inicializar la base de datos", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	holdingsRepo := repository.NewHoldingsRepository(db)

	cache := services.NewPriceCache(cfg.Prices.CacheTTL, services.SystemClock)
	fetcher := services.NewPriceFetcher(cfg.Prices, cache, nil, logger)
	portfolio := services.NewPortfolioService(holdingsRepo, fetcher, cache, cfg.Prices.WriteBack, logger)

	if cfg.App.SeedDemo {
		if err := seedDemo(context.Background(), userRepo, portfolio, logger); err != nil {
			logger.Fatal("Error al crear los datos de demostración", zap.Error(err))
		}
	}

	// Limpieza periódica de cuentas de invitado
	cleaner := services.NewGuestCleaner(cfg.Guests.CleanupInterval, userRepo, services.SystemClock, logger)
	cleaner.Start()
	defer cleaner.Stop()

	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	// Configurar CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Admin-Key"}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(corsConfig))

	routes.RegisterRoutes(router, routes.Handlers{
		Auth:            middleware.NewAuthHandler(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Guests.TTL, logger),
		Assets:          middleware.NewAssetHandler(portfolio, logger),
		Admin:           middleware.NewAdminHandler(cleaner, logger),
		JWTSecret:       cfg.Auth.JWTSecret,
		AdminKey:        cfg.Auth.AdminKey,
		RefetchInterval: cfg.ClientRefetchInterval(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Servidor iniciado", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Error en el servidor HTTP", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Error al detener el servidor", zap.Error(err))
	}
	logger.Info("Servidor detenido")
}

// seedDemo crea el usuario de demostración con dos tenencias si todavía no existe
func seedDemo(ctx context.Context, users *repository.UserRepository, portfolio *services.PortfolioService, logger *zap.Logger) error {
	const demoEmail = "jakob@mail.com"

	_, err := users.GetUserByEmail(ctx, demoEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	user := &models.User{Email: demoEmail, Name: "Jakob"}
	if err := users.CreateUser(ctx, user, "password"); err != nil {
		return err
	}

	seed := []models.NewHoldingInput{
		{Name: "Bitcoin", Symbol: "BTC", Amount: float64Ptr(0.5), PriceUSD: float64Ptr(100000)},
		{Name: "Ethereum", Symbol: "ETH", Amount: float64Ptr(1), PriceUSD: float64Ptr(30000)},
	}
	for _, in := range seed {
		if _, err := portfolio.AddHolding(ctx, user.ID, in); err != nil {
			return err
		}
	}

	logger.Info("Usuario de demostración creado", zap.String("email", demoEmail))
	return nil
}

func float64Ptr(f float64) *float64 { return &f }
