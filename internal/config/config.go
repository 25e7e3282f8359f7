package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"snippet-war"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	LLM      LLM
	Batch    Batch
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds cache configuration. An empty address disables the anonymous
// batch cache.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// LLM configures the generation provider (OpenAI-compatible endpoint).
// A missing API key is a hard startup failure.
type LLM struct {
	APIKey    string        `env:"LLM_API_KEY,notEmpty"`
	Model     string        `env:"LLM_MODEL" envDefault:"gpt-4.1-mini"`
	BaseURL   string        `env:"LLM_BASE_URL" envDefault:"https://api.proxyapi.ru/openai/v1"`
	Timeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	MaxTokens int           `env:"LLM_MAX_TOKENS" envDefault:"2000"`
}

// Batch groups delivery defaults.
type Batch struct {
	CacheTTL time.Duration `env:"BATCH_CACHE_TTL" envDefault:"5m"`
}

// Load parses environment variables into App config.
func Load() (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
