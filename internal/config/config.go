package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Environment   string   `mapstructure:"ENV"`
	LogLevel      string   `mapstructure:"LOG_LEVEL"`
	DBDriver      string   `mapstructure:"DB_DRIVER"`
	DBDSN         string   `mapstructure:"DB_DSN"`
	HTTPAddr      string   `mapstructure:"HTTP_ADDR"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	Timezone      string   `mapstructure:"TIMEZONE"`
	AutoMigrate   bool     `mapstructure:"AUTO_MIGRATE"`
	TelegramToken string   `mapstructure:"TELEGRAM_TOKEN"`
	AlertChatID   int64    `mapstructure:"ALERT_CHAT_ID"`

	location *time.Location
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Environment:   getEnv("ENV", "development"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		DBDriver:      getEnv("DB_DRIVER", DriverPostgres),
		DBDSN:         os.Getenv("DB_DSN"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":3001"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		Timezone:      getEnv("TIMEZONE", "UTC"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	autoMigrate, err := strconv.ParseBool(getEnv("AUTO_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("AUTO_MIGRATE: %w", err)
	}
	cfg.AutoMigrate = autoMigrate

	if raw := os.Getenv("ALERT_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ALERT_CHAT_ID: %w", err)
		}
		cfg.AlertChatID = chatID
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	// Проверяем обязательные поля
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}

	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	c.location = loc

	return nil
}

// Location часовой пояс для нормализации дат бронирования
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// AlertsEnabled включены ли уведомления операторам в Telegram
func (c *Config) AlertsEnabled() bool {
	return c.TelegramToken != "" && c.AlertChatID != 0
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
