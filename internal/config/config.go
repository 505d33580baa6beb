package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Registry RegistryConfig `yaml:"registry"`
	Order    OrderConfig    `yaml:"order"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig selects the order store. Driver "memory" keeps everything in
// process; "mysql" uses the connection settings below.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RedisConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	Channel     string        `yaml:"channel"`
	DialTimeout time.Duration `yaml:"dialTimeout"`
}

type PaymentConfig struct {
	Provider    string `yaml:"provider"`
	AccessToken string `yaml:"accessToken"`
}

type RegistryConfig struct {
	CacheEnabled      bool   `yaml:"cacheEnabled"`
	Concurrency       int    `yaml:"concurrency"`
	CanonicalCategory string `yaml:"canonicalCategory"`
}

type OrderConfig struct {
	ConsultationFee  int64  `yaml:"consultationFee"`
	UrgentRate       string `yaml:"urgentRate"`
	MaxDocumentBytes int64  `yaml:"maxDocumentBytes"`
	MaxRetryAttempts int    `yaml:"maxRetryAttempts"`
}

// Defaults returns the configuration used for any key left unset.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: 30 * time.Second},
		Database: DatabaseConfig{
			Driver:          "memory",
			Host:            "localhost",
			Port:            3306,
			User:            "visaflow",
			Password:        "secret",
			Name:            "visaflow",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Log:      LogConfig{Level: "info"},
		Redis:    RedisConfig{Addr: "localhost:6379", Channel: "visaflow.order.events", DialTimeout: 5 * time.Second},
		Payment:  PaymentConfig{Provider: "stub"},
		Registry: RegistryConfig{CacheEnabled: true, Concurrency: 4, CanonicalCategory: "E-1"},
		Order:    OrderConfig{ConsultationFee: 100_000, UrgentRate: "0.5", MaxDocumentBytes: 10 << 20, MaxRetryAttempts: 3},
	}
}

func Load() (*Config, error) {
	d := Defaults()
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", d.Server.Port)
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", d.Server.ShutdownTimeout.String())
	viper.SetDefault("DB_DRIVER", d.Database.Driver)
	viper.SetDefault("DB_HOST", d.Database.Host)
	viper.SetDefault("DB_PORT", d.Database.Port)
	viper.SetDefault("DB_USER", d.Database.User)
	viper.SetDefault("DB_PASSWORD", d.Database.Password)
	viper.SetDefault("DB_NAME", d.Database.Name)
	viper.SetDefault("DB_MAX_OPEN_CONNS", d.Database.MaxOpenConns)
	viper.SetDefault("DB_MAX_IDLE_CONNS", d.Database.MaxIdleConns)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", d.Database.ConnMaxLifetime.String())
	viper.SetDefault("LOG_LEVEL", d.Log.Level)
	viper.SetDefault("REDIS_ENABLED", d.Redis.Enabled)
	viper.SetDefault("REDIS_ADDR", d.Redis.Addr)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", d.Redis.DB)
	viper.SetDefault("REDIS_CHANNEL", d.Redis.Channel)
	viper.SetDefault("REDIS_DIAL_TIMEOUT", d.Redis.DialTimeout.String())
	viper.SetDefault("PAYMENT_PROVIDER", d.Payment.Provider)
	viper.SetDefault("MERCADOPAGO_ACCESS_TOKEN", "")
	viper.SetDefault("REGISTRY_CACHE_ENABLED", d.Registry.CacheEnabled)
	viper.SetDefault("REGISTRY_CONCURRENCY", d.Registry.Concurrency)
	viper.SetDefault("REGISTRY_CANONICAL_CATEGORY", d.Registry.CanonicalCategory)
	viper.SetDefault("ORDER_CONSULTATION_FEE", d.Order.ConsultationFee)
	viper.SetDefault("ORDER_URGENT_RATE", d.Order.UrgentRate)
	viper.SetDefault("ORDER_MAX_DOCUMENT_BYTES", d.Order.MaxDocumentBytes)
	viper.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", d.Order.MaxRetryAttempts)

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := time.ParseDuration(viper.GetString("SERVER_SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, err
	}
	dialTimeout, err := time.ParseDuration(viper.GetString("REDIS_DIAL_TIMEOUT"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            viper.GetInt("SERVER_PORT"),
			ShutdownTimeout: shutdownTimeout,
		},
		Database: DatabaseConfig{
			Driver:          viper.GetString("DB_DRIVER"),
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Redis: RedisConfig{
			Enabled:     viper.GetBool("REDIS_ENABLED"),
			Addr:        viper.GetString("REDIS_ADDR"),
			Password:    viper.GetString("REDIS_PASSWORD"),
			DB:          viper.GetInt("REDIS_DB"),
			Channel:     viper.GetString("REDIS_CHANNEL"),
			DialTimeout: dialTimeout,
		},
		Payment: PaymentConfig{
			Provider:    viper.GetString("PAYMENT_PROVIDER"),
			AccessToken: viper.GetString("MERCADOPAGO_ACCESS_TOKEN"),
		},
		Registry: RegistryConfig{
			CacheEnabled:      viper.GetBool("REGISTRY_CACHE_ENABLED"),
			Concurrency:       viper.GetInt("REGISTRY_CONCURRENCY"),
			CanonicalCategory: viper.GetString("REGISTRY_CANONICAL_CATEGORY"),
		},
		Order: OrderConfig{
			ConsultationFee:  viper.GetInt64("ORDER_CONSULTATION_FEE"),
			UrgentRate:       viper.GetString("ORDER_URGENT_RATE"),
			MaxDocumentBytes: viper.GetInt64("ORDER_MAX_DOCUMENT_BYTES"),
			MaxRetryAttempts: viper.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "mysql":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Payment.Provider {
	case "stub":
	case "mercadopago":
		if c.Payment.AccessToken == "" {
			return fmt.Errorf("payment provider mercadopago requires an access token")
		}
	default:
		return fmt.Errorf("unknown payment provider %q", c.Payment.Provider)
	}
	if c.Order.MaxRetryAttempts < 1 {
		return fmt.Errorf("order.maxRetryAttempts must be at least 1")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}
