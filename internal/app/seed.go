package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/bookit/internal/model"
	"go.uber.org/zap"
)

type seedExperience struct {
	title       string
	description string
	price       float64
	location    string
	imageURL    string
}

var seedCatalog = []seedExperience{
	{"Kayaking", "Curated small-group kayaking experience with certified guides. Safety gear included.", 999, "Udupi", "https://images.unsplash.com/photo-1544551763-46a013bb70d5"},
	{"Nandi Hills Sunrise", "Early morning trek to catch the sunrise over the hills. Breakfast included.", 899, "Bangalore", "https://images.unsplash.com/photo-1506905925346-21bda4d32df4"},
	{"Coffee Trail", "Walk through a working coffee estate with a tasting session at the end.", 1299, "Coorg", "https://images.unsplash.com/photo-1447933601403-0c6688de566e"},
	{"Boat Cruise", "Sunset cruise along the backwaters with live music.", 999, "Sunderban", "https://images.unsplash.com/photo-1500514966906-fe245eea9344"},
}

var seedTimes = []model.TimeSlot{
	{Time: "07:00 AM", SpotsLeft: 4},
	{Time: "09:00 AM", SpotsLeft: 2},
	{Time: "11:00 AM", SpotsLeft: 5},
	{Time: "01:00 PM", SpotsLeft: 0},
}

// Seed заполняет пустой каталог тестовыми данными на days дней вперёд от from.
// Возвращает число созданных experience (0 если каталог уже не пуст).
func Seed(ctx context.Context, store ExperienceStore, from time.Time, days int, logger *zap.Logger) (int, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list experiences: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("Catalog is not empty, skipping seed", zap.Int("experiences", len(existing)))
		return 0, nil
	}

	for _, item := range seedCatalog {
		exp := &model.Experience{
			Title:       item.title,
			Description: item.description,
			Price:       item.price,
			Location:    item.location,
			ImageURL:    item.imageURL,
		}

		for d := 0; d < days; d++ {
			day := model.DateSlot{
				Date:      from.AddDate(0, 0, d).Format(model.DateLayout),
				TimeSlots: make([]model.TimeSlot, len(seedTimes)),
			}
			copy(day.TimeSlots, seedTimes)
			exp.AvailableSlots = append(exp.AvailableSlots, day)
		}

		if err := store.Create(ctx, exp); err != nil {
			return 0, fmt.Errorf("create %q: %w", item.title, err)
		}

		logger.Info("Experience seeded",
			zap.String("experience_id", exp.ID.String()),
			zap.String("title", exp.Title),
		)
	}

	return len(seedCatalog), nil
}
