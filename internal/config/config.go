package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPAddr  string    `yaml:"http-addr" env:"HTTP_ADDR" env-default:":8080"`
	StaticDir string    `yaml:"static-dir" env:"STATIC_DIR"`
	Redis     Redis     `yaml:"redis"`
	SQLite    SQLite    `yaml:"sqlite"`
	Auth      Auth      `yaml:"auth"`
	Telemetry Telemetry `yaml:"telemetry"`
	Game      Game      `yaml:"game"`
}

type Redis struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	ScoreTTL time.Duration `yaml:"score-ttl" env:"REDIS_SCORE_TTL" env-default:"24h"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"./master.db"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt-secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token-ttl" env:"JWT_TTL" env-default:"72h"`
}

type Telemetry struct {
	Enabled        bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint       string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"otel-collector:4317"`
	ServiceName    string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"tic-tac-toe"`
	ServiceVersion string `yaml:"service-version" env:"OTEL_SERVICE_VERSION" env-default:"v0.2.0"`
}

type Game struct {
	ThinkDelay         time.Duration `yaml:"think-delay" env:"BOT_THINK_DELAY" env-default:"800ms"`
	DefaultDifficulty  string        `yaml:"default-difficulty" env:"BOT_DIFFICULTY" env-default:"hard"`
	AutomatedByDefault bool          `yaml:"automated-by-default" env:"BOT_ENABLED" env-default:"true"`
	// ReconnectGrace keeps a session without connections alive so its player
	// can reconnect. Zero closes it as soon as the last connection drops.
	ReconnectGrace time.Duration `yaml:"reconnect-grace" env:"SESSION_RECONNECT_GRACE" env-default:"30s"`
}

// placeholderSecret is the value shipped in sample configs. It is never
// accepted as a signing key.
const placeholderSecret = "change-me"

var ErrInsecureSecret = errors.New("jwt secret is empty or a placeholder; set JWT_SECRET")

// MustLoad - load all configurations from the yml file at path, falling back
// to environment variables and defaults when the file does not exist, and
// validate them.
func MustLoad(path string) *Config {
	conf, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config: %w", err))
	}
	if err := conf.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}
	return conf
}

// Validate rejects settings the server cannot run with safely.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == placeholderSecret {
		return ErrInsecureSecret
	}
	if c.StaticDir != "" {
		info, err := os.Stat(c.StaticDir)
		if err != nil {
			return fmt.Errorf("static dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("static dir %s is not a directory", c.StaticDir)
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	conf := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, conf); err != nil {
				return nil, fmt.Errorf("read config file %s: %w", path, err)
			}
			return conf, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(conf); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	return conf, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
