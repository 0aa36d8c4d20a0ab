package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultRefetchInterval es el intervalo de refresco del cliente en milisegundos (30 minutos)
const DefaultRefetchInterval = 1800000

// Config contiene toda la configuración de la aplicación
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Prices   PricesConfig   `mapstructure:"prices"`
	Guests   GuestsConfig   `mapstructure:"guests"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type AppConfig struct {
	Port     string `mapstructure:"port"`
	Env      string `mapstructure:"env"` // por ejemplo "local", "prod"
	SeedDemo bool   `mapstructure:"seed_demo"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite3" o "postgres"
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	AdminKey  string        `mapstructure:"admin_key"`
}

// PricesConfig controla el acceso a la API externa de precios
type PricesConfig struct {
	DisableAPICalls bool          `mapstructure:"disable_api_calls"`
	APIURL          string        `mapstructure:"api_url"`
	Currency        string        `mapstructure:"currency"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	WriteBack       bool          `mapstructure:"write_back"`
	RefetchInterval int64         `mapstructure:"refetch_interval"` // milisegundos
}

type GuestsConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" o "console"
}

// envAliases asocia cada clave con el nombre de variable de entorno que usa el despliegue
var envAliases = map[string]string{
	"app.port":                 "PORT",
	"app.env":                  "APP_ENV",
	"app.seed_demo":            "SEED_DEMO",
	"cors.allow_origins":       "CORS_ALLOW_ORIGINS",
	"database.driver":          "DATABASE_DRIVER",
	"database.dsn":             "DATABASE_URL",
	"auth.jwt_secret":          "JWT_SECRET",
	"auth.admin_key":           "ADMIN_SECRET_KEY",
	"prices.disable_api_calls": "DISABLE_API_CALLS",
	"prices.api_url":           "PRICE_API_URL",
	"prices.refetch_interval":  "API_REFETCH_INTERVAL",
}

// LoadConfig lee la configuración del archivo .env, las variables de entorno y los valores por defecto
func LoadConfig() (*Config, error) {
	// Cargar variables de entorno
	if err := godotenv.Load(); err != nil {
		log.Println("No se encontró el archivo .env, se usan las variables del sistema")
	}

	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("no se pudo asociar la variable de entorno para %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("no se pudo decodificar la configuración: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.seed_demo", false)

	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "database/portfolio.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_key", "")

	v.SetDefault("prices.disable_api_calls", false)
	v.SetDefault("prices.api_url", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("prices.currency", "usd")
	v.SetDefault("prices.timeout", 10*time.Second)
	v.SetDefault("prices.cache_ttl", 5*time.Minute)
	v.SetDefault("prices.write_back", false)
	v.SetDefault("prices.refetch_interval", DefaultRefetchInterval)

	v.SetDefault("guests.ttl", 24*time.Hour)
	v.SetDefault("guests.cleanup_interval", time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// Validate rechaza las configuraciones con las que el servidor no puede arrancar
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("driver de base de datos no soportado %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" && c.App.Env != "local" {
		return fmt.Errorf("JWT_SECRET es obligatorio cuando app.env es %q", c.App.Env)
	}

	if c.Prices.CacheTTL <= 0 {
		return fmt.Errorf("prices.cache_ttl debe ser positivo")
	}

	if c.Guests.TTL <= 0 {
		return fmt.Errorf("guests.ttl debe ser positivo")
	}

	// time.NewTicker no acepta intervalos <= 0
	if c.Guests.CleanupInterval <= 0 {
		return fmt.Errorf("guests.cleanup_interval debe ser positivo")
	}

	return nil
}

// ClientRefetchInterval devuelve el intervalo configurado o el valor por defecto si no es positivo
func (c *Config) ClientRefetchInterval() int64 {
	if c.Prices.RefetchInterval > 0 {
		return c.Prices.RefetchInterval
	}
	return DefaultRefetchInterval
}
