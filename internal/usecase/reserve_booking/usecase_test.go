package reserve_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-BeautyBooking/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-BeautyBooking/pkg/clock"
	"github.com/m04kA/SMC-BeautyBooking/pkg/logger"
	"github.com/m04kA/SMC-BeautyBooking/pkg/metrics"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

const (
	providerID = int64(10)
	clientID   = int64(20)
	serviceID  = int64(30)
)

var (
	// понедельник
	bookingDate = time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	testNow     = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
)

type fakeCatalog struct {
	mu       sync.Mutex
	services map[int64]*catalogservice.Service
	err      error
}

func (c *fakeCatalog) GetService(ctx context.Context, id int64) (*catalogservice.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	s, ok := c.services[id]
	if !ok {
		return nil, catalogservice.ErrServiceNotFound
	}
	cp := *s
	return &cp, nil
}

type fixture struct {
	store   *memory.Store
	catalog *fakeCatalog
	metrics *metrics.Metrics
	uc      *UseCase
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := memory.NewStore()
	_, err := store.Schedules().Upsert(context.Background(), &domain.ProviderSchedule{
		ProviderID: providerID,
		WeeklyHours: map[time.Weekday][]domain.TimeWindow{
			time.Monday: {{Open: types.NewMinuteOfDay(9, 0), Close: types.NewMinuteOfDay(18, 0)}},
			time.Sunday: {{Open: types.NewMinuteOfDay(10, 0), Close: types.NewMinuteOfDay(14, 0)}},
		},
		SlotGranularityMinutes: 60,
	})
	require.NoError(t, err)

	catalog := &fakeCatalog{services: map[int64]*catalogservice.Service{
		serviceID: {ID: serviceID, ProviderID: providerID, Name: "Маникюр", DurationMinutes: 60, Price: 1500},
	}}
	m := metrics.New("test")

	uc := NewUseCase(
		store.Bookings(),
		store.Schedules(),
		store.Idempotency(),
		store.Outbox(),
		catalog,
		store.TxManager(),
		clock.Fixed{At: now},
		m,
		logger.Nop(),
		time.Second,
	)

	return &fixture{store: store, catalog: catalog, metrics: m, uc: uc}
}

// withClock use case над тем же хранилищем и каталогом с другим временем
func (f *fixture) withClock(now time.Time) *UseCase {
	return NewUseCase(
		f.store.Bookings(),
		f.store.Schedules(),
		f.store.Idempotency(),
		f.store.Outbox(),
		f.catalog,
		f.store.TxManager(),
		clock.Fixed{At: now},
		f.metrics,
		logger.Nop(),
		time.Second,
	)
}

// blockingBookings держит вставку до истечения контекста запроса
type blockingBookings struct {
	BookingRepository
}

func (b blockingBookings) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newRequest(key string, at types.MinuteOfDay) *Request {
	return &Request{
		ProviderID:     providerID,
		ClientID:       clientID,
		ServiceID:      serviceID,
		Date:           bookingDate,
		Time:           at,
		InitialStatus:  domain.StatusPending,
		IdempotencyKey: key,
		Actor:          domain.Actor{UserID: clientID, Role: domain.RoleClient},
	}
}

func TestExecute_CreatesBookingWithSnapshots(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	resp, err := f.uc.Execute(ctx, newRequest("k-1", types.NewMinuteOfDay(10, 0)))
	require.NoError(t, err)
	require.NotNil(t, resp.Booking)

	assert.False(t, resp.Replayed)
	assert.Equal(t, domain.StatusPending, resp.Booking.Status)
	assert.Equal(t, "Маникюр", resp.Booking.ServiceName)
	assert.Equal(t, 1500.0, resp.Booking.PriceSnapshot)
	assert.Equal(t, 60, resp.Booking.DurationSnapshot)

	events := f.store.Outbox().Events(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, "booking.created", events[0].EventType)
	assert.Equal(t, resp.Booking.ID, events[0].AggregateID)
}

func TestExecute_ConfirmedFlow(t *testing.T) {
	f := newFixture(t, testNow)

	req := newRequest("k-1", types.NewMinuteOfDay(11, 0))
	req.InitialStatus = domain.StatusConfirmed

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, resp.Booking.Status)
}

func TestExecute_ConcurrentRequestsOneWinner(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := newRequest(fmt.Sprintf("key-%d", i), types.NewMinuteOfDay(12, 0))
			req.ClientID = clientID + int64(i)
			req.Actor.UserID = req.ClientID

			_, err := f.uc.Execute(ctx, req)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrSlotUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)

	bookings, err := f.store.Bookings().GetByProviderWithFilter(ctx, domain.ProviderBookingsFilter{ProviderID: providerID})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestExecute_IdempotentReplay(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, newRequest("same-key", types.NewMinuteOfDay(13, 0)))
	require.NoError(t, err)

	second, err := f.uc.Execute(ctx, newRequest("same-key", types.NewMinuteOfDay(13, 0)))
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)

	bookings, err := f.store.Bookings().GetByClientID(ctx, clientID, nil)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Len(t, f.store.Outbox().Events(ctx), 1)
}

func TestExecute_ReplayAfterSlotStarted(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 16, 9, 55, 0, 0, time.UTC))
	ctx := context.Background()
	req := newRequest("early", types.NewMinuteOfDay(10, 0))

	first, err := f.uc.Execute(ctx, req)
	require.NoError(t, err)

	later := f.withClock(time.Date(2026, 3, 16, 10, 1, 0, 0, time.UTC))
	second, err := later.Execute(ctx, newRequest("early", types.NewMinuteOfDay(10, 0)))
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)

	// новый ключ на тот же слот уже просрочен
	_, err = later.Execute(ctx, newRequest("late", types.NewMinuteOfDay(10, 0)))
	assert.ErrorIs(t, err, domain.ErrSlotExpired)
}

func TestExecute_ReplayDuringCatalogOutage(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, newRequest("k", types.NewMinuteOfDay(10, 0)))
	require.NoError(t, err)

	f.catalog.err = catalogservice.ErrUnavailable

	second, err := f.uc.Execute(ctx, newRequest("k", types.NewMinuteOfDay(10, 0)))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)

	_, err = f.uc.Execute(ctx, newRequest("other", types.NewMinuteOfDay(11, 0)))
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestExecute_StoreTimeoutIsUnknown(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	uc := NewUseCase(
		blockingBookings{BookingRepository: f.store.Bookings()},
		f.store.Schedules(),
		f.store.Idempotency(),
		f.store.Outbox(),
		f.catalog,
		f.store.TxManager(),
		clock.Fixed{At: testNow},
		f.metrics,
		logger.Nop(),
		50*time.Millisecond,
	)

	_, err := uc.Execute(ctx, newRequest("slow", types.NewMinuteOfDay(10, 0)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknown)
	assert.NotErrorIs(t, err, domain.ErrSlotUnavailable)

	// неудачная попытка не занимает ни слот, ни ключ
	resp, err := f.uc.Execute(ctx, newRequest("slow", types.NewMinuteOfDay(10, 0)))
	require.NoError(t, err)
	assert.False(t, resp.Replayed)
}

func TestExecute_KeyReusedWithDifferentParameters(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, newRequest("same-key", types.NewMinuteOfDay(13, 0)))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, newRequest("same-key", types.NewMinuteOfDay(14, 0)))
	assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
}

func TestExecute_FailedAttemptDoesNotBurnKey(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	other := newRequest("other", types.NewMinuteOfDay(15, 0))
	other.ClientID = clientID + 1
	other.Actor.UserID = other.ClientID
	_, err := f.uc.Execute(ctx, other)
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, newRequest("retry", types.NewMinuteOfDay(15, 0)))
	require.ErrorIs(t, err, domain.ErrSlotUnavailable)

	resp, err := f.uc.Execute(ctx, newRequest("retry", types.NewMinuteOfDay(16, 0)))
	require.NoError(t, err)
	assert.False(t, resp.Replayed)
}

func TestExecute_SlotRules(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		at      types.MinuteOfDay
		wantErr error
	}{
		{
			name:    "off grid",
			now:     testNow,
			at:      types.NewMinuteOfDay(10, 30),
			wantErr: domain.ErrInvalidSlot,
		},
		{
			name:    "outside window",
			now:     testNow,
			at:      types.NewMinuteOfDay(18, 0),
			wantErr: domain.ErrInvalidSlot,
		},
		{
			name:    "today at current minute",
			now:     time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC),
			at:      types.NewMinuteOfDay(10, 0),
			wantErr: domain.ErrSlotExpired,
		},
		{
			name:    "past day",
			now:     time.Date(2026, 3, 17, 8, 0, 0, 0, time.UTC),
			at:      types.NewMinuteOfDay(10, 0),
			wantErr: domain.ErrSlotExpired,
		},
		{
			name: "today later slot",
			now:  time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC),
			at:   types.NewMinuteOfDay(11, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.now)

			_, err := f.uc.Execute(context.Background(), newRequest("k", tt.at))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecute_CatalogErrors(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	req := newRequest("k", types.NewMinuteOfDay(10, 0))
	req.ServiceID = 999
	_, err := f.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	f.catalog.services[serviceID].ProviderID = providerID + 1
	_, err = f.uc.Execute(ctx, newRequest("k", types.NewMinuteOfDay(10, 0)))
	assert.ErrorIs(t, err, ErrServiceNotFound)

	f.catalog.err = catalogservice.ErrUnavailable
	_, err = f.uc.Execute(ctx, newRequest("k", types.NewMinuteOfDay(10, 0)))
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestExecute_Validation(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, newRequest("", types.NewMinuteOfDay(10, 0)))
	assert.ErrorIs(t, err, ErrInvalidInput)

	req := newRequest("k", types.NewMinuteOfDay(10, 0))
	req.InitialStatus = domain.StatusCompleted
	_, err = f.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = newRequest("k", types.NewMinuteOfDay(10, 0))
	req.ProviderID = 77
	_, err = f.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestExecute_UnknownProviderSchedule(t *testing.T) {
	f := newFixture(t, testNow)
	require.NoError(t, f.store.Schedules().Delete(context.Background(), providerID))

	_, err := f.uc.Execute(context.Background(), newRequest("k", types.NewMinuteOfDay(10, 0)))
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	err := Classify(ctx, errors.New("connection reset"))
	assert.ErrorIs(t, err, domain.ErrUnknown)

	err = Classify(ctx, fmt.Errorf("wrap: %w", domain.ErrSlotUnavailable))
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	assert.NotErrorIs(t, err, domain.ErrUnknown)
}
