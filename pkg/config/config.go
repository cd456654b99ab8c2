package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Host      string `env:"APP_HOST" env-default:"127.0.0.1"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost"`
		User    string `env:"POSTGRES_USER" env-default:"postgres"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME" env-default:"news_mobile"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Auth struct {
		Endpoint string        `env:"AUTH_ENDPOINT" env-default:"https://identitytoolkit.googleapis.com/v1"`
		APIKey   string        `env:"AUTH_API_KEY"`
		Timeout  time.Duration `env:"AUTH_TIMEOUT" env-default:"15s"`
	}
	News struct {
		Endpoint      string        `env:"NEWS_ENDPOINT" env-default:"https://newsapi.org/v2/everything"`
		APIKey        string        `env:"NEWS_API_KEY"`
		Query         string        `env:"NEWS_QUERY" env-default:"Apple"`
		PageSize      int           `env:"NEWS_PAGE_SIZE" env-default:"20"`
		Timeout       time.Duration `env:"NEWS_TIMEOUT" env-default:"15s"`
		LoadsPerMin   int           `env:"NEWS_LOADS_PER_MINUTE" env-default:"6"`
		LoadsBurst    int           `env:"NEWS_LOADS_BURST" env-default:"3"`
		RetryAttempts uint64        `env:"NEWS_RETRY_ATTEMPTS" env-default:"2"`
	}
	Images struct {
		BaseURL         string `env:"IMAGES_BASE_URL" env-default:"http://localhost:5000"`
		MaxDimension    int    `env:"IMAGES_MAX_DIMENSION" env-default:"800"`
		Quality         int    `env:"IMAGES_QUALITY" env-default:"50"`
		MaxPayloadBytes int    `env:"IMAGES_MAX_PAYLOAD_BYTES" env-default:"1000000"`
		MaxPixels       int    `env:"IMAGES_MAX_PIXELS" env-default:"40000000"`
	}
	Poller struct {
		// Zero disables background refresh
		Interval time.Duration `env:"POLLER_INTERVAL" env-default:"0s"`
	}
}

// GetDSN returns the postgres connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}

var (
	once    sync.Once
	cfg     *Config
	loadErr error
)

func New() (*Config, error) {
	once.Do(func() {
		c := &Config{}
		if err := cleanenv.ReadEnv(c); err != nil {
			help, _ := cleanenv.GetDescription(c, nil)
			loadErr = fmt.Errorf("failed to read configuration: %w\n%s", err, help)
			return
		}
		cfg = c
	})
	return cfg, loadErr
}
