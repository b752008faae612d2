package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/storage/minio"
	"github.com/vasapolrittideah/bookstore-api/shared/mailer"
)

const (
	StorageDriverLocal = "local"
	StorageDriverMinIO = "minio"
)

// Config contains the bookstore service configuration.
type Config struct {
	HTTP    HTTPConfig    `envPrefix:"HTTP_"`
	Mongo   MongoConfig   `envPrefix:"MONGO_"`
	Token   TokenConfig   `envPrefix:"TOKEN_"`
	SMTP    mailer.Config `envPrefix:"SMTP_"`
	Storage StorageConfig `envPrefix:"STORAGE_"`
	App     AppConfig     `envPrefix:"APP_"`
	Log     LogConfig     `envPrefix:"LOG_"`
}

// HTTPConfig contains HTTP server parameters.
type HTTPConfig struct {
	Host           string        `env:"HOST"            envDefault:"0.0.0.0"`
	Port           string        `env:"PORT"            envDefault:"5000"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT"    envDefault:"15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT"   envDefault:"30s"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"*"     envSeparator:","`
}

// Addr returns the host:port the server listens on.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// MongoConfig contains database connection parameters.
type MongoConfig struct {
	URI            string        `env:"URI"             envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"DATABASE"        envDefault:"bookstore"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// TokenConfig contains bearer token, OTP and password reset lifetimes.
type TokenConfig struct {
	Secret                 string        `env:"SECRET"`
	Issuer                 string        `env:"ISSUER"                    envDefault:"bookstore-api"`
	ExpiresIn              time.Duration `env:"EXPIRES_IN"                envDefault:"720h"`
	OTPExpiresIn           time.Duration `env:"OTP_EXPIRES_IN"            envDefault:"10m"`
	PasswordResetExpiresIn time.Duration `env:"PASSWORD_RESET_EXPIRES_IN" envDefault:"10m"`
}

// StorageConfig selects where uploaded book images are kept.
type StorageConfig struct {
	Driver    string       `env:"DRIVER"     envDefault:"local"`
	LocalPath string       `env:"LOCAL_PATH" envDefault:"uploads"`
	MinIO     minio.Config `envPrefix:"MINIO_"`
}

// AppConfig contains client facing settings.
type AppConfig struct {
	PasswordResetURL string `env:"PASSWORD_RESET_URL" envDefault:"http://localhost:5173/reset-password"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Pretty bool   `env:"PRETTY" envDefault:"false"`
}

// NewConfig loads configuration from environment variables and validates it.
func NewConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that have no usable default.
func (c Config) Validate() error {
	if c.Token.Secret == "" {
		return errors.New("missing TOKEN_SECRET environment variable")
	}
	if c.Token.ExpiresIn <= 0 || c.Token.OTPExpiresIn <= 0 || c.Token.PasswordResetExpiresIn <= 0 {
		return errors.New("token lifetimes must be positive")
	}

	if err := c.SMTP.Validate(); err != nil {
		return err
	}

	switch c.Storage.Driver {
	case StorageDriverLocal:
		if c.Storage.LocalPath == "" {
			return errors.New("missing STORAGE_LOCAL_PATH environment variable")
		}
	case StorageDriverMinIO:
		if err := c.Storage.MinIO.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	return nil
}
