package service_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/bookit/internal/app"
	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/Freeeeeet/bookit/internal/repository"
	"github.com/Freeeeeet/bookit/internal/service"
	"github.com/Freeeeeet/bookit/internal/storetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	slotDate = "2025-11-03"
	slotTime = "09:00 AM"
)

var refPattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

type fakeAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *fakeAlerter) Alert(_ context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, text)
	return nil
}

type failingReleaser struct{}

func (failingReleaser) Release(context.Context, model.SlotKey, int) error {
	return errors.New("connection reset by peer")
}

type fixture struct {
	db       *app.Database
	exp      *model.Experience
	key      model.SlotKey
	alerter  *fakeAlerter
	recorder *service.BookingRecorder
	svc      *service.ReservationService
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T, spots int) *fixture {
	t.Helper()

	db := storetest.OpenSQLite(t)
	exp := storetest.CreateExperience(t, db.Experiences,
		storetest.Experience(slotDate, model.TimeSlot{Time: slotTime, SpotsLeft: spots}))

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	f := &fixture{
		db:       db,
		exp:      exp,
		key:      model.SlotKey{ExperienceID: exp.ID, Date: slotDate, Time: slotTime},
		alerter:  &fakeAlerter{},
		recorder: service.NewBookingRecorder(db.Bookings, logger),
		logs:     logs,
	}
	f.svc = service.NewReservationService(
		db.Experiences,
		f.recorder,
		service.NewCompensator(db.Experiences, f.alerter, logger),
		time.UTC,
		logger,
	)
	return f
}

func (f *fixture) request(quantity int) service.BookingRequest {
	return service.BookingRequest{
		ExperienceID: f.exp.ID,
		UserName:     "Asha",
		UserEmail:    "asha@example.com",
		Date:         slotDate,
		Time:         slotTime,
		Quantity:     quantity,
		TotalPrice:   999 * float64(quantity),
	}
}

func (f *fixture) spotsLeft(t *testing.T) int {
	t.Helper()
	return storetest.SpotsLeft(t, f.db.Experiences, f.key)
}

func TestBook_Success(t *testing.T) {
	f := newFixture(t, 4)

	booking, err := f.svc.Book(context.Background(), f.request(3))
	require.NoError(t, err)

	assert.Regexp(t, refPattern, booking.BookingRef)
	assert.Equal(t, f.exp.ID, booking.ExperienceID)
	assert.Equal(t, slotDate, booking.BookingDate)
	assert.Equal(t, 3, booking.Quantity)
	assert.Equal(t, 1, f.spotsLeft(t))

	found, err := f.svc.GetBooking(context.Background(), booking.BookingRef)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, found.ID)
}

func TestBook_NormalizesTimestampDate(t *testing.T) {
	f := newFixture(t, 2)

	req := f.request(1)
	req.Date = "2025-11-03T00:00:00.000Z"

	booking, err := f.svc.Book(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, slotDate, booking.BookingDate)
	assert.Equal(t, 1, f.spotsLeft(t))
}

// Ёмкость 2, пять параллельных запросов по одному месту
func TestBook_ConcurrentRequestsNeverOversell(t *testing.T) {
	f := newFixture(t, 2)

	const requests = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		refs     []string
		failures []error
	)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			booking, err := f.svc.Book(context.Background(), f.request(1))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			refs = append(refs, booking.BookingRef)
		}()
	}
	wg.Wait()

	require.Len(t, refs, 2)
	assert.NotEqual(t, refs[0], refs[1])
	for _, ref := range refs {
		assert.Regexp(t, refPattern, ref)
	}

	require.Len(t, failures, 3)
	for _, err := range failures {
		var capacity *service.InsufficientCapacityError
		require.ErrorAs(t, err, &capacity)
		assert.Equal(t, 0, capacity.Remaining)
	}

	assert.Equal(t, 0, f.spotsLeft(t))
}

func TestBook_ExactCapacityThenExhausted(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.svc.Book(context.Background(), f.request(2))
	require.NoError(t, err)
	assert.Equal(t, 0, f.spotsLeft(t))

	_, err = f.svc.Book(context.Background(), f.request(1))
	var capacity *service.InsufficientCapacityError
	require.ErrorAs(t, err, &capacity)
	assert.Equal(t, 0, capacity.Remaining)
	assert.Equal(t, 0, f.spotsLeft(t))
}

func TestBook_Conservation(t *testing.T) {
	f := newFixture(t, 10)

	total := 0
	for _, q := range []int{1, 3, 2, 4} {
		_, err := f.svc.Book(context.Background(), f.request(q))
		require.NoError(t, err)
		total += q
		assert.Equal(t, 10-total, f.spotsLeft(t))
	}

	counts, err := f.db.Bookings.CountByExperience(context.Background(), f.exp.ID)
	require.NoError(t, err)
	assert.Equal(t, total, counts[f.key])
}

func TestBook_Rejections(t *testing.T) {
	f := newFixture(t, 2)

	tests := []struct {
		name   string
		modify func(*service.BookingRequest)
		want   error
	}{
		{
			name:   "unknown experience",
			modify: func(r *service.BookingRequest) { r.ExperienceID = uuid.New() },
			want:   service.ErrExperienceNotFound,
		},
		{
			name:   "date not offered",
			modify: func(r *service.BookingRequest) { r.Date = "2025-12-25" },
			want:   service.ErrDateUnavailable,
		},
		{
			name:   "time not offered",
			modify: func(r *service.BookingRequest) { r.Time = "06:00 PM" },
			want:   service.ErrTimeUnavailable,
		},
		{
			name:   "unparseable date",
			modify: func(r *service.BookingRequest) { r.Date = "next friday" },
			want:   service.ErrInvalidDate,
		},
		{
			name:   "zero quantity",
			modify: func(r *service.BookingRequest) { r.Quantity = 0 },
			want:   service.ErrInvalidQuantity,
		},
		{
			name:   "negative quantity",
			modify: func(r *service.BookingRequest) { r.Quantity = -2 },
			want:   service.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(1)
			tt.modify(&req)

			_, err := f.svc.Book(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 2, f.spotsLeft(t))
		})
	}
}

func TestBook_InsufficientCapacityReportsRemaining(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.Book(context.Background(), f.request(5))
	var capacity *service.InsufficientCapacityError
	require.ErrorAs(t, err, &capacity)
	assert.Equal(t, 3, capacity.Remaining)
	assert.Equal(t, 3, f.spotsLeft(t))
}

func TestBook_RollsBackOnValidationFailure(t *testing.T) {
	f := newFixture(t, 4)

	req := f.request(2)
	req.UserEmail = "not-an-email"

	_, err := f.svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, 4, f.spotsLeft(t))
	assert.Equal(t, 1, f.logs.FilterMessage("Reservation rolled back").Len())

	counts, err := f.db.Bookings.CountByExperience(context.Background(), f.exp.ID)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestBook_RetriesOnReferenceCollision(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	taken := &model.Booking{
		ExperienceID: f.exp.ID,
		UserName:     "Ravi",
		UserEmail:    "ravi@example.com",
		BookingDate:  slotDate,
		BookingTime:  slotTime,
		Quantity:     1,
		TotalPrice:   999,
		BookingRef:   "AAAAAAAA",
	}
	require.NoError(t, f.db.Bookings.Create(ctx, taken))

	candidates := []string{"AAAAAAAA", "BBBBBBBB"}
	f.recorder.WithRefGenerator(func() (string, error) {
		ref := candidates[0]
		candidates = candidates[1:]
		return ref, nil
	})

	booking, err := f.svc.Book(ctx, f.request(1))
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBB", booking.BookingRef)
	assert.Equal(t, 3, f.spotsLeft(t))
	assert.Equal(t, 1, f.logs.FilterMessage("Booking reference collision, regenerating").Len())
}

func TestBook_RollsBackWhenReferencesExhausted(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	require.NoError(t, f.db.Bookings.Create(ctx, &model.Booking{
		ExperienceID: f.exp.ID,
		UserName:     "Ravi",
		UserEmail:    "ravi@example.com",
		BookingDate:  slotDate,
		BookingTime:  slotTime,
		Quantity:     1,
		TotalPrice:   999,
		BookingRef:   "ZZZZZZZZ",
	}))
	f.recorder.WithRefGenerator(func() (string, error) { return "ZZZZZZZZ", nil })

	_, err := f.svc.Book(ctx, f.request(2))
	assert.ErrorIs(t, err, service.ErrDuplicateReference)
	assert.Equal(t, 4, f.spotsLeft(t))
}

func TestBook_RollbackFailureIsLoggedAndAlerted(t *testing.T) {
	f := newFixture(t, 4)

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	svc := service.NewReservationService(
		f.db.Experiences,
		service.NewBookingRecorder(f.db.Bookings, logger),
		service.NewCompensator(failingReleaser{}, f.alerter, logger),
		time.UTC,
		logger,
	)

	req := f.request(2)
	req.UserName = ""

	_, err := svc.Book(context.Background(), req)

	var rbErr *service.RollbackError
	require.ErrorAs(t, err, &rbErr)
	assert.Equal(t, f.key, rbErr.Slot)
	assert.Equal(t, 2, rbErr.Quantity)
	assert.ErrorIs(t, err, service.ErrValidation)

	// резерв остался: дефицит виден в хранилище
	assert.Equal(t, 2, f.spotsLeft(t))

	entries := logs.FilterMessage("Inventory deficit: rollback failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, true, entries[0].ContextMap()["stuck_deficit"])

	require.Len(t, f.alerter.messages, 1)
	assert.Contains(t, f.alerter.messages[0], f.exp.ID.String())
}

type brokenBookingStore struct{}

func (brokenBookingStore) Create(context.Context, *model.Booking) error {
	return errors.New("write timeout")
}

func (brokenBookingStore) GetByRef(context.Context, string) (*model.Booking, error) {
	return nil, nil
}

func TestBook_RollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t, 4)

	svc := service.NewReservationService(
		f.db.Experiences,
		service.NewBookingRecorder(brokenBookingStore{}, zap.NewNop()),
		service.NewCompensator(f.db.Experiences, f.alerter, zap.NewNop()),
		time.UTC,
		zap.NewNop(),
	)

	_, err := svc.Book(context.Background(), f.request(3))
	require.Error(t, err)
	assert.Equal(t, 4, f.spotsLeft(t))
	assert.Empty(t, f.alerter.messages)
}

// cancelMidReserve отменяет клиентский контекст, пока UPDATE ещё выполняется,
// и, как драйвер, отдаёт ошибку отмены уже после того, как UPDATE прошёл
type cancelMidReserve struct {
	app.ExperienceStore
	cancel context.CancelFunc
}

func (s cancelMidReserve) Reserve(ctx context.Context, key model.SlotKey, quantity int) error {
	s.cancel()
	if err := s.ExperienceStore.Reserve(ctx, key, quantity); err != nil {
		return err
	}
	return ctx.Err()
}

func TestBook_ClientCancelDuringReserveStillRecords(t *testing.T) {
	f := newFixture(t, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := service.NewReservationService(
		cancelMidReserve{ExperienceStore: f.db.Experiences, cancel: cancel},
		f.recorder,
		service.NewCompensator(f.db.Experiences, f.alerter, zap.NewNop()),
		time.UTC,
		zap.NewNop(),
	)

	booking, err := svc.Book(ctx, f.request(1))
	require.NoError(t, err)
	assert.Regexp(t, refPattern, booking.BookingRef)

	// списанные места принадлежат записанному бронированию
	counts, err := f.db.Bookings.CountByExperience(context.Background(), f.exp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[f.key])
	assert.Equal(t, 3, f.spotsLeft(t))
}

func TestBook_CatalogReadFailureAfterReserveStillRecords(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	// строка experience больше не читается, а слот по-прежнему обновляется
	_, err := f.db.DB().ExecContext(ctx, `UPDATE experiences SET created_at = 'garbage' WHERE id = ?`, f.exp.ID.String())
	require.NoError(t, err)
	_, err = f.db.Experiences.GetByID(ctx, f.exp.ID)
	require.Error(t, err)

	booking, err := f.svc.Book(ctx, f.request(2))
	require.NoError(t, err)

	_, err = f.db.DB().ExecContext(ctx, `UPDATE experiences SET created_at = updated_at WHERE id = ?`, f.exp.ID.String())
	require.NoError(t, err)

	counts, err := f.db.Bookings.CountByExperience(ctx, f.exp.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.Quantity, counts[f.key])
	assert.Equal(t, 2, f.spotsLeft(t))
}

// unreadableStore: слот не совпал, а диагностика падает на чтении
type unreadableStore struct{}

func (unreadableStore) GetByID(context.Context, uuid.UUID) (*model.Experience, error) {
	return nil, errors.New("connection refused")
}

func (unreadableStore) Reserve(context.Context, model.SlotKey, int) error {
	return repository.ErrNoMatch
}

func (unreadableStore) Release(context.Context, model.SlotKey, int) error {
	return nil
}

func TestBook_DiagnosisFailureLoggedAsError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	svc := service.NewReservationService(
		unreadableStore{},
		service.NewBookingRecorder(brokenBookingStore{}, logger),
		service.NewCompensator(unreadableStore{}, nil, logger),
		time.UTC,
		logger,
	)

	_, err := svc.Book(context.Background(), service.BookingRequest{
		ExperienceID: uuid.New(),
		Date:         slotDate,
		Time:         slotTime,
		Quantity:     1,
	})
	require.ErrorContains(t, err, "connection refused")

	failures := logs.FilterMessage("Failed to diagnose rejected reservation").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zapcore.ErrorLevel, failures[0].Level)
	assert.Zero(t, logs.FilterMessage("Reservation rejected").Len())
}

func TestBook_CanceledBeforeReserve(t *testing.T) {
	f := newFixture(t, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Book(ctx, f.request(1))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, f.spotsLeft(t))
}

// staleStore: UPDATE не нашёл строку, а к моменту диагностики места вернулись
type staleStore struct {
	exp *model.Experience
}

func (s staleStore) GetByID(context.Context, uuid.UUID) (*model.Experience, error) {
	return s.exp, nil
}

func (s staleStore) Reserve(context.Context, model.SlotKey, int) error {
	return repository.ErrNoMatch
}

func (s staleStore) Release(context.Context, model.SlotKey, int) error {
	return nil
}

func TestBook_DiagnosisRace(t *testing.T) {
	exp := storetest.Experience(slotDate, model.TimeSlot{Time: slotTime, SpotsLeft: 5})
	exp.ID = uuid.New()

	svc := service.NewReservationService(
		staleStore{exp: exp},
		service.NewBookingRecorder(brokenBookingStore{}, zap.NewNop()),
		service.NewCompensator(staleStore{}, service.Alerter(nil), zap.NewNop()),
		nil,
		zap.NewNop(),
	)

	_, err := svc.Book(context.Background(), service.BookingRequest{
		ExperienceID: exp.ID,
		UserName:     "Asha",
		UserEmail:    "asha@example.com",
		Date:         slotDate,
		Time:         slotTime,
		Quantity:     1,
	})
	assert.ErrorIs(t, err, service.ErrReservationConflict)
}

func TestGetBooking_NotFound(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.GetBooking(context.Background(), "MISSING1")
	assert.ErrorIs(t, err, service.ErrBookingNotFound)
}
