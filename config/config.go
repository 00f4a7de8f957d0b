package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultPort = 3000

type HTTP struct {
	Host           string        `yaml:"host" env:"HTTP_HOST"`
	Port           int           `yaml:"port" env:"PORT" validate:"gte=0,lte=65535"`
	StaticDir      string        `yaml:"staticDir" env:"STATIC_DIR"`
	AllowedOrigins []string      `yaml:"allowedOrigins" env:"CORS_ORIGINS" envSeparator:","`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
}

func (h HTTP) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// GRPC serves only the health service; an empty addr disables it.
type GRPC struct {
	Addr string `yaml:"addr" env:"GRPC_ADDR"`
}

type WS struct {
	PingEvery  time.Duration `yaml:"pingEvery" validate:"gte=0"`
	WriteWait  time.Duration `yaml:"writeWait" validate:"gte=0"`
	ReadLimit  int64         `yaml:"readLimit" validate:"gte=0"`
	SendBuffer int           `yaml:"sendBuffer" validate:"gte=0"`
}

type Relay struct {
	BindSender    bool   `yaml:"bindSender" env:"RELAY_BIND_SENDER"`
	SystemName    string `yaml:"systemName" env:"RELAY_SYSTEM_NAME"`
	MaxNameLength int    `yaml:"maxNameLength" validate:"gte=0"`
	InboxSize     int    `yaml:"inboxSize" validate:"gte=0"`
}

// Logging.Env is dev|stage|prod, Backend std|zap, Level debug|info|warn|error.
type Logging struct {
	Env       string `yaml:"env" env:"APP_ENV" validate:"omitempty,oneof=dev stage prod"`
	Service   string `yaml:"service"`
	Version   string `yaml:"version"`
	Backend   string `yaml:"backend" env:"LOG_BACKEND" validate:"omitempty,oneof=std zap"`
	Level     string `yaml:"level" env:"LOG_LEVEL"`
	AddSource bool   `yaml:"addSource"`
	Debug     bool   `yaml:"debug" env:"LOG_DEBUG"`
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	WS      WS      `yaml:"ws"`
	Relay   Relay   `yaml:"relay"`
	Logging Logging `yaml:"logging"`
}

// LoadConfig reads CONFIG_PATH (default ./config/config.yaml, optional),
// then .env and the environment, which win over the file.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables are never overwritten
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults and environment only
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = defaultPort
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "presence-relay"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
