package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/bookit/internal/model"
	"go.uber.org/zap"
)

const compensationTimeout = 10 * time.Second

// SlotReleaser обратная операция к резерву
type SlotReleaser interface {
	Release(ctx context.Context, key model.SlotKey, quantity int) error
}

// Alerter канал для операторов (дефицит мест требует ручного вмешательства)
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// Compensator возвращает места, если запись бронирования не удалась
type Compensator struct {
	slots   SlotReleaser
	alerter Alerter
	logger  *zap.Logger
}

func NewCompensator(slots SlotReleaser, alerter Alerter, logger *zap.Logger) *Compensator {
	return &Compensator{
		slots:   slots,
		alerter: alerter,
		logger:  logger,
	}
}

// Compensate инкрементирует слот на quantity. Это не транзакция: при провале
// возвращается *RollbackError, событие пишется отдельной ошибкой и уходит в alerter.
func (c *Compensator) Compensate(ctx context.Context, key model.SlotKey, quantity int, cause error) error {
	// отмена клиентского запроса не должна прерывать откат
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	err := c.slots.Release(ctx, key, quantity)
	if err == nil {
		c.logger.Info("Reservation rolled back",
			zap.String("experience_id", key.ExperienceID.String()),
			zap.String("date", key.Date),
			zap.String("time", key.Time),
			zap.Int("quantity", quantity),
			zap.NamedError("cause", cause),
		)
		return nil
	}

	rbErr := &RollbackError{Slot: key, Quantity: quantity, Cause: cause, Err: err}

	c.logger.Error("Inventory deficit: rollback failed",
		zap.Bool("stuck_deficit", true),
		zap.String("experience_id", key.ExperienceID.String()),
		zap.String("date", key.Date),
		zap.String("time", key.Time),
		zap.Int("quantity", quantity),
		zap.NamedError("cause", cause),
		zap.Error(err),
	)

	if c.alerter != nil {
		text := fmt.Sprintf("Inventory deficit: %d spot(s) not returned to experience %s on %s at %s. Rollback error: %v",
			quantity, key.ExperienceID, key.Date, key.Time, err)
		if alertErr := c.alerter.Alert(ctx, text); alertErr != nil {
			c.logger.Error("Failed to send inventory deficit alert", zap.Error(alertErr))
		}
	}

	return rbErr
}
