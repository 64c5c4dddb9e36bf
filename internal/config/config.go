package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/spf13/pflag"
)

// Backends de almacenamiento de credenciales soportados por el cliente.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// ClientConfig centraliza la configuracion del cliente fleetwatch.
type ClientConfig struct {
	APIBaseURL    string        `env:"FLEETWATCH_API_URL" envDefault:"http://127.0.0.1:8000/api"`
	Store         string        `env:"FLEETWATCH_STORE" envDefault:"file"`
	StorePath     string        `env:"FLEETWATCH_STORE_PATH"`
	PollInterval  time.Duration `env:"FLEETWATCH_POLL_INTERVAL" envDefault:"30s"`
	HTTPTimeout   time.Duration `env:"FLEETWATCH_HTTP_TIMEOUT" envDefault:"15s"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"warn"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
}

// ServerConfig centraliza la configuracion del simulador mockfleet.
type ServerConfig struct {
	HTTPPort             string `env:"HTTP_PORT" envDefault:"8000"`
	DatabaseURL          string `env:"DATABASE_URL"`
	JWTSecret            string `env:"JWT_SECRET" envDefault:"dev-secret"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"1440"`
	PageSize             int    `env:"PAGE_SIZE" envDefault:"0"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW" envDefault:"1m"`
}

// LoadClientConfig carga la configuracion del cliente desde variables de entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadServerConfig carga la configuracion del simulador desde variables de entorno.
func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BindFlags registra flags que sobreescriben los valores cargados del entorno.
func (c *ClientConfig) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.APIBaseURL, "api", c.APIBaseURL, "base URL of the fleet service")
	fs.StringVar(&c.Store, "store", c.Store, "credential store backend: file, memory or redis")
	fs.StringVar(&c.StorePath, "store-path", c.StorePath, "path of the credential file (file store)")
	fs.DurationVar(&c.PollInterval, "interval", c.PollInterval, "fleet refresh interval")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
}
