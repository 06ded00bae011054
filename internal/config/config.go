package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Freeeeeet/demand_scheduler/internal/lock"
	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string `validate:"required"`
	Environment string `validate:"oneof=development production test"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	// RedisAddr пустой адрес отключает блокировку слотов
	RedisAddr string        `validate:"omitempty,hostname_port"`
	LockTTL   time.Duration `validate:"gt=0"`

	ReleasingStatuses string
	Policy            model.StatusPolicy `validate:"-"`

	MetricsAddr string `validate:"omitempty,hostname_port"`

	// EnvFileLoaded true, если настройки прочитаны из .env
	EnvFileLoaded bool `validate:"-"`
}

var validate = validator.New()

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Отсутствие .env не ошибка: в проде всё приходит из окружения
	loaded := godotenv.Load(".env") == nil

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

// FromEnv собирает конфиг из произвольного источника переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:             getenv("DB_DSN"),
		Environment:       getenv("ENV"),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL")),
		RedisAddr:         getenv("REDIS_ADDR"),
		ReleasingStatuses: getenv("SCHEDULING_RELEASING_STATUSES"),
		MetricsAddr:       getenv("METRICS_ADDR"),
		LockTTL:           lock.DefaultTTL,
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if raw := getenv("SCHEDULING_LOCK_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("SCHEDULING_LOCK_TTL: %w", err)
		}
		cfg.LockTTL = ttl
	}

	policy, err := model.ParseStatusPolicy(cfg.ReleasingStatuses)
	if err != nil {
		return nil, fmt.Errorf("SCHEDULING_RELEASING_STATUSES: %w", err)
	}
	cfg.Policy = policy

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
