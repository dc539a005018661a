package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Admission AdmissionConfig
	Alerts    AlertsConfig
	Redis     RedisConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
	// AcquireTimeout espera máxima por una conexión libre del pool al abrir la transacción.
	AcquireTimeout time.Duration
	// StatementTimeout límite por sentencia (SET LOCAL statement_timeout).
	StatementTimeout time.Duration
	// TxTimeout límite total de ejecución de una transacción de ciclo de vida.
	TxTimeout time.Duration
	// AutoMigrate aplica las migraciones embebidas al arrancar la API.
	AutoMigrate bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT (solo validación de tokens emitidos por el servicio de identidad).
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AdmissionConfig capacidad del controlador de admisión.
type AdmissionConfig struct {
	MaxConcurrent int
}

// AlertsConfig ventana de vigencia del caché del catálogo de alertas.
type AlertsConfig struct {
	CatalogTTL time.Duration
}

// RedisConfig opcional: si Addr está vacío el catálogo se cachea en memoria.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, ADMISSION_MAX_CONCURRENT, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "pos-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL:      getString(v, "DATABASE_URL", ""),
			Host:             getString(v, "DB_HOST", "localhost"),
			Port:             getInt(v, "DB_PORT", 5432),
			User:             getString(v, "DB_USER", "postgres"),
			Password:         getString(v, "DB_PASSWORD", ""),
			DBName:           getString(v, "DB_NAME", "pos"),
			SSLMode:          getString(v, "DB_SSLMODE", "disable"),
			MaxConns:         getInt(v, "DB_MAX_CONNS", 25),
			MinConns:         getInt(v, "DB_MIN_CONNS", 2),
			AcquireTimeout:   getMillis(v, "DB_ACQUIRE_TIMEOUT_MS", 5000),
			StatementTimeout: getMillis(v, "DB_STATEMENT_TIMEOUT_MS", 10000),
			TxTimeout:        getMillis(v, "DB_TX_TIMEOUT_MS", 30000),
			AutoMigrate:      getBool(v, "DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 480),
			Issuer:     getString(v, "JWT_ISSUER", "pos-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Admission: AdmissionConfig{
			MaxConcurrent: getInt(v, "ADMISSION_MAX_CONCURRENT", 5),
		},
		Alerts: AlertsConfig{
			CatalogTTL: time.Duration(getInt(v, "ALERT_CATALOG_TTL_SECONDS", 30)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
	}

	if cfg.Admission.MaxConcurrent < 1 {
		return nil, fmt.Errorf("ADMISSION_MAX_CONCURRENT debe ser >= 1 (recibido %d)", cfg.Admission.MaxConcurrent)
	}
	// Un miss del catálogo de alertas dentro de una transacción pide una segunda conexión al pool.
	if cfg.DB.MaxConns <= cfg.Admission.MaxConcurrent {
		return nil, fmt.Errorf("DB_MAX_CONNS (%d) debe superar ADMISSION_MAX_CONCURRENT (%d)", cfg.DB.MaxConns, cfg.Admission.MaxConcurrent)
	}
	if cfg.DB.MinConns > cfg.DB.MaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS (%d) no puede superar DB_MAX_CONNS (%d)", cfg.DB.MinConns, cfg.DB.MaxConns)
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

func getMillis(v *viper.Viper, key string, def int) time.Duration {
	return time.Duration(getInt(v, key, def)) * time.Millisecond
}
