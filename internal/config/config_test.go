package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	// .env из рабочей директории пакета не должен влиять на тест
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DB_DRIVER", "DB_DSN", "HTTP_ADDR", "CORS_ORIGINS",
		"TIMEZONE", "AUTO_MIGRATE", "TELEGRAM_TOKEN", "ALERT_CHAT_ID",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/bookit")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, ":3001", cfg.HTTPAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.AlertsEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "file:bookit.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://bookit.example ,")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ALERT_CHAT_ID", "-100200300")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, []string{"http://localhost:5173", "https://bookit.example"}, cfg.CORSOrigins)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, int64(-100200300), cfg.AlertChatID)
	assert.True(t, cfg.AlertsEnabled())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "x")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = Load()
	assert.ErrorContains(t, err, "DB_DRIVER")

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = Load()
	assert.ErrorContains(t, err, "TIMEZONE")

	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ALERT_CHAT_ID", "ops")
	_, err = Load()
	assert.ErrorContains(t, err, "ALERT_CHAT_ID")
}
