package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/Freeeeeet/bookit/internal/service"
	"github.com/Freeeeeet/bookit/internal/storetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerateBookingRef(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		ref, err := service.GenerateBookingRef()
		require.NoError(t, err)
		require.Regexp(t, refPattern, ref)
		seen[ref] = struct{}{}
	}
	// 36^8 вариантов: повторы на 500 попытках практически невозможны
	assert.Greater(t, len(seen), 490)
}

func TestBookingRecorder_Record(t *testing.T) {
	db := storetest.OpenSQLite(t)
	exp := storetest.CreateExperience(t, db.Experiences,
		storetest.Experience(slotDate, model.TimeSlot{Time: slotTime, SpotsLeft: 4}))
	recorder := service.NewBookingRecorder(db.Bookings, zap.NewNop())

	draft := model.Booking{
		ExperienceID: exp.ID,
		UserName:     "Asha",
		UserEmail:    "asha@example.com",
		BookingDate:  slotDate,
		BookingTime:  slotTime,
		Quantity:     1,
		TotalPrice:   999,
	}

	booking, err := recorder.Record(context.Background(), draft)
	require.NoError(t, err)
	assert.Regexp(t, refPattern, booking.BookingRef)
	assert.Empty(t, draft.BookingRef)

	found, err := recorder.Find(context.Background(), booking.BookingRef)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, found.ID)
}

func TestBookingRecorder_ValidationErrors(t *testing.T) {
	recorder := service.NewBookingRecorder(brokenBookingStore{}, zap.NewNop())

	valid := model.Booking{
		ExperienceID: uuid.New(),
		UserName:     "Asha",
		UserEmail:    "asha@example.com",
		BookingDate:  slotDate,
		BookingTime:  slotTime,
		Quantity:     1,
	}

	tests := []struct {
		name   string
		modify func(*model.Booking)
	}{
		{"missing experience", func(b *model.Booking) { b.ExperienceID = uuid.Nil }},
		{"missing name", func(b *model.Booking) { b.UserName = "" }},
		{"bad email", func(b *model.Booking) { b.UserEmail = "asha" }},
		{"bad date", func(b *model.Booking) { b.BookingDate = "03/11/2025" }},
		{"negative price", func(b *model.Booking) { b.TotalPrice = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.modify(&b)

			_, err := recorder.Record(context.Background(), b)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestBookingRecorder_GeneratorFailure(t *testing.T) {
	recorder := service.NewBookingRecorder(brokenBookingStore{}, zap.NewNop()).
		WithRefGenerator(func() (string, error) { return "", errors.New("entropy exhausted") })

	_, err := recorder.Record(context.Background(), model.Booking{})
	assert.ErrorContains(t, err, "entropy exhausted")
}
