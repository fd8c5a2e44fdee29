package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "interview-eval-go/internal/platform/errors"
)

// Loader reads configuration from a yaml file layered over defaults,
// then applies environment overrides for secrets.
type Loader struct {
	useDotEnv bool
	path      string
}

func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		path:      "",
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the config file location (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

func (l *Loader) resolvePath() string {
	if l.path != "" {
		return l.path
	}
	if p := os.Getenv("INTERVIEW_CONFIG"); p != "" {
		return p
	}
	for _, candidate := range []string{".config.yaml", "configs/config.yaml", "config.yaml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load builds the configuration: defaults, yaml file, env overrides.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using process environment")
		}
	}

	cfg := DefaultConfig()

	if path := l.resolvePath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfig, "load", "read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfig, "load", "parse config file", err)
		}
	}

	l.applyEnv(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.ObjectStore.Bucket = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Relational.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Relational.Driver = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Document.URI = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return apperrors.New(apperrors.KindConfig, "validate",
			fmt.Sprintf("invalid server port %d", cfg.Server.Port))
	}
	if cfg.Relational.Driver != "mysql" && cfg.Relational.Driver != "sqlite" {
		return apperrors.New(apperrors.KindConfig, "validate",
			fmt.Sprintf("unsupported relational driver %q", cfg.Relational.Driver))
	}
	if cfg.Relational.DSN == "" {
		return apperrors.New(apperrors.KindConfig, "validate", "relational dsn is required")
	}
	if cfg.Pipeline.FanoutWidth <= 0 {
		return apperrors.New(apperrors.KindConfig, "validate", "fanout width must be positive")
	}
	if cfg.Pipeline.RetryAttempts <= 0 {
		return apperrors.New(apperrors.KindConfig, "validate", "retry attempts must be positive")
	}
	return nil
}
