// Package storetest поднимает хранилища для тестов: SQLite во временном
// каталоге всегда, postgres только если задан BOOKIT_TEST_PG_DSN.
package storetest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Freeeeeet/bookit/internal/app"
	"github.com/Freeeeeet/bookit/internal/config"
	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const PostgresDSNEnv = "BOOKIT_TEST_PG_DSN"

// OpenSQLite создаёт мигрированную базу SQLite в t.TempDir()
func OpenSQLite(t testing.TB) *app.Database {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "bookit.db")
	return open(t, config.DriverSQLite, dsn)
}

// OpenPostgres подключается к postgres из BOOKIT_TEST_PG_DSN или пропускает тест.
// Данные не чистятся: каждый тест создаёт свои experience.
func OpenPostgres(t testing.TB) *app.Database {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", PostgresDSNEnv)
	}
	return open(t, config.DriverPostgres, dsn)
}

// Drivers возвращает доступные хранилища по имени драйвера
func Drivers(t *testing.T) map[string]func(testing.TB) *app.Database {
	t.Helper()

	drivers := map[string]func(testing.TB) *app.Database{
		config.DriverSQLite: OpenSQLite,
	}
	if os.Getenv(PostgresDSNEnv) != "" {
		drivers[config.DriverPostgres] = OpenPostgres
	}
	return drivers
}

func open(t testing.TB, driver, dsn string) *app.Database {
	t.Helper()

	ctx := context.Background()
	db, err := app.OpenDatabase(ctx, driver, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(ctx, zap.NewNop())
	require.NoError(t, err)

	return db
}

// Experience собирает experience с одним днём и заданными слотами
func Experience(date string, slots ...model.TimeSlot) *model.Experience {
	return &model.Experience{
		Title:       "Kayaking",
		Description: "Small-group kayaking with certified guides.",
		Price:       999,
		Location:    "Udupi",
		ImageURL:    "https://example.com/kayak.jpg",
		AvailableSlots: []model.DateSlot{
			{Date: date, TimeSlots: slots},
		},
	}
}

// CreateExperience сохраняет experience и возвращает его с заполненным ID
func CreateExperience(t testing.TB, store app.ExperienceStore, exp *model.Experience) *model.Experience {
	t.Helper()

	require.NoError(t, store.Create(context.Background(), exp))
	return exp
}

// SpotsLeft текущий остаток в слоте (перечитывается из хранилища)
func SpotsLeft(t testing.TB, store app.ExperienceStore, key model.SlotKey) int {
	t.Helper()

	exp, err := store.GetByID(context.Background(), key.ExperienceID)
	require.NoError(t, err)
	require.NotNil(t, exp)

	slot := exp.FindSlot(key)
	require.NotNil(t, slot, "slot %s %s not found", key.Date, key.Time)
	return slot.SpotsLeft
}
