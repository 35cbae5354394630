package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress    string        `mapstructure:"SERVER_ADDRESS"`
	PostgresConn     string        `mapstructure:"POSTGRES_CONN"`
	PostgresUser     string        `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass     string        `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost     string        `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string        `mapstructure:"POSTGRES_PORT"`
	PostgresDB       string        `mapstructure:"POSTGRES_DATABASE"`
	PostgresMaxConns int32         `mapstructure:"POSTGRES_MAX_CONNS"`
	MigrationURL     string        `mapstructure:"MIGRATION_URL"`
	StorageDriver    string        `mapstructure:"STORAGE_DRIVER"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	NotifyWorkers    int           `mapstructure:"NOTIFY_WORKERS"`
	NotifyMaxRetries uint          `mapstructure:"NOTIFY_MAX_RETRIES"`
	NotifyQueueSize  int           `mapstructure:"NOTIFY_QUEUE_SIZE"`
	BoostDuration    time.Duration `mapstructure:"BOOST_DURATION"`
	BoostSweepSpec   string        `mapstructure:"BOOST_SWEEP_SPEC"`
	OTLPEndpoint     string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName      string        `mapstructure:"SERVICE_NAME"`
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

var defaults = map[string]any{
	"SERVER_ADDRESS":              "0.0.0.0:8080",
	"POSTGRES_CONN":               "",
	"POSTGRES_USERNAME":           "",
	"POSTGRES_PASSWORD":           "",
	"POSTGRES_HOST":               "",
	"POSTGRES_PORT":               "5432",
	"POSTGRES_DATABASE":           "",
	"POSTGRES_MAX_CONNS":          10,
	"MIGRATION_URL":               "file://db/migrations",
	"STORAGE_DRIVER":              StoragePostgres,
	"REQUEST_TIMEOUT":             "5s",
	"NOTIFY_WORKERS":              4,
	"NOTIFY_MAX_RETRIES":          3,
	"NOTIFY_QUEUE_SIZE":           256,
	"BOOST_DURATION":              "24h",
	"BOOST_SWEEP_SPEC":            "@every 5m",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"SERVICE_NAME":                "unlisted-market",
}

// LoadConfig загружает конфигурацию из файла app.env в каталоге path.
// Переменные окружения и .env имеют приоритет, отсутствие файлов не ошибка.
func LoadConfig(path string) (cfg Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	err = cfg.validate()
	return
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case StorageMemory:
		return nil
	case StoragePostgres:
		if c.PostgresConn == "" {
			return errors.New("POSTGRES_CONN is required for postgres storage")
		}
		return nil
	}
	return errors.New("STORAGE_DRIVER must be 'postgres' or 'memory'")
}
