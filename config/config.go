package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`

	// memory | redis
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	SessionSecret  string        `mapstructure:"SESSION_SECRET"`
	AllowedOrigins string        `mapstructure:"ALLOWED_ORIGINS"`

	ModelURL        string        `mapstructure:"MODEL_URL"`
	ModelName       string        `mapstructure:"MODEL_NAME"`
	ModelTimeout    time.Duration `mapstructure:"MODEL_TIMEOUT"`
	ModelMaxRetries int           `mapstructure:"MODEL_MAX_RETRIES"`

	LogMode string `mapstructure:"LOG_MODE"`

	OTelEnabled      bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint     string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSamplerRatio float64 `mapstructure:"OTEL_SAMPLER_RATIO"`
}

var keys = []string{
	"HTTP_PORT", "GRPC_PORT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "SQLITE_PATH",
	"REDIS_ADDR",
	"SESSION_BACKEND", "SESSION_TTL", "SESSION_SECRET", "ALLOWED_ORIGINS",
	"MODEL_URL", "MODEL_NAME", "MODEL_TIMEOUT", "MODEL_MAX_RETRIES",
	"LOG_MODE",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLER_RATIO",
}

// LoadConfig читает app.env из path, переменные окружения имеют приоритет.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("GRPC_PORT", "9090")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("SQLITE_PATH", "courseforge.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("SESSION_BACKEND", "redis")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("MODEL_URL", "http://localhost:11434")
	v.SetDefault("MODEL_NAME", "qwen2")
	v.SetDefault("MODEL_TIMEOUT", "60s")
	v.SetDefault("MODEL_MAX_RETRIES", 1)
	v.SetDefault("LOG_MODE", "dev")
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)

	v.AutomaticEnv()

	// Явно биндим переменные, чтобы Viper их видел без файла
	for _, key := range keys {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}

	// Файла может и не быть, тогда работаем на ENV
	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	err = config.validate()
	return
}

func (c Config) validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	switch c.SessionBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("SESSION_BACKEND must be memory or redis, got %q", c.SessionBackend)
	}
	return nil
}

// DSN строка подключения для выбранного драйвера.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Origins разбирает ALLOWED_ORIGINS через запятую.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
