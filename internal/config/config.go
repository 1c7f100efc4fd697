package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Minio    MinioConfig
	Auth     AuthConfig
	Log      LogConfig
	Viewer   ViewerConfig
	Worker   WorkerConfig
	SeedDemo bool `env:"SEED_DEMO_DATA" env-default:"false" env-description:"load the demo feed, archive and highlights on start"`
}

type ServerConfig struct {
	Port               string   `env:"PORT" env-default:"8080"`
	BaseURL            string   `env:"BASE_URL" env-default:"http://localhost:8080" env-description:"public origin used in share links"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

type PostgresConfig struct {
	URL string `env:"DATABASE_URL" env-description:"postgres DSN; in-memory stores are used when empty"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-description:"redis address; in-memory kv is used when empty"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT" env-description:"uploads are disabled when empty"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" env-default:"stories"`
	UseSSL    bool   `env:"MINIO_USE_SSL" env-default:"false"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" env-required:"true" env-description:"HS256 secret shared with the identity provider"`
}

type LogConfig struct {
	Level    string `env:"LOG_LEVEL" env-default:"info"`
	Encoding string `env:"LOG_ENCODING" env-default:"json"`
}

type ViewerConfig struct {
	IdleTTL time.Duration `env:"SESSION_IDLE_TTL" env-default:"10m"`
}

type WorkerConfig struct {
	ExpireInterval time.Duration `env:"WORKER_EXPIRE_INTERVAL" env-default:"1m"`
	ReapInterval   time.Duration `env:"WORKER_REAP_INTERVAL" env-default:"30s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		help, _ := cleanenv.GetDescription(&cfg, nil)
		return nil, fmt.Errorf("failed to read configuration: %w\n%s", err, help)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must not be empty")
	}
	return &cfg, nil
}
