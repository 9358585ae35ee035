package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/booking"
	idempotencyRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/idempotency"
	scheduleRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/schedule"
)

var testDate = time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

func newBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:         uuid.New(),
		ProviderID: 1,
		ClientID:   2,
		ServiceID:  3,
		Date:       testDate,
		Time:       600,
		Status:     status,
	}
}

func TestBookings_ActiveSlotIsUnique(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()

	_, err := repo.Create(ctx, newBooking(domain.StatusConfirmed))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newBooking(domain.StatusPending))
	assert.ErrorIs(t, err, bookingRepo.ErrSlotNotAvailable)
}

func TestBookings_CancelledSlotCanBeReused(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()

	first, err := repo.Create(ctx, newBooking(domain.StatusConfirmed))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, domain.StatusChange{
		BookingID: first.ID,
		From:      domain.StatusConfirmed,
		To:        domain.StatusCancelled,
		At:        time.Now(),
	}))

	_, err = repo.Create(ctx, newBooking(domain.StatusPending))
	require.NoError(t, err)

	all, err := repo.GetByProviderWithFilter(ctx, domain.ProviderBookingsFilter{ProviderID: 1, IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBookings_UpdateStatusCompareAndSwap(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()

	b, err := repo.Create(ctx, newBooking(domain.StatusPending))
	require.NoError(t, err)

	err = repo.UpdateStatus(ctx, domain.StatusChange{BookingID: b.ID, From: domain.StatusConfirmed, To: domain.StatusCompleted, At: time.Now()})
	assert.ErrorIs(t, err, bookingRepo.ErrStatusConflict)

	err = repo.UpdateStatus(ctx, domain.StatusChange{BookingID: uuid.New(), From: domain.StatusPending, To: domain.StatusCancelled, At: time.Now()})
	assert.ErrorIs(t, err, bookingRepo.ErrBookingNotFound)
}

func TestBookings_ReturnsCopies(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()

	b, err := repo.Create(ctx, newBooking(domain.StatusPending))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	got.Status = domain.StatusCompleted

	again, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, again.Status)
}

func TestTxManager_RollbackUndoesEverything(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	existing, err := store.Bookings().Create(ctx, newBooking(domain.StatusConfirmed))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.TxManager().Do(ctx, func(txCtx context.Context) error {
		if err := store.Bookings().UpdateStatus(txCtx, domain.StatusChange{
			BookingID: existing.ID, From: domain.StatusConfirmed, To: domain.StatusCancelled, At: time.Now(),
		}); err != nil {
			return err
		}
		moved := newBooking(domain.StatusConfirmed)
		moved.Time = 660
		if _, err := store.Bookings().Create(txCtx, moved); err != nil {
			return err
		}
		if err := store.Outbox().Append(txCtx, domain.NewLifecycleEvent(moved, "", domain.SystemActor, time.Now())); err != nil {
			return err
		}
		if _, err := store.Idempotency().Claim(txCtx, 2, "key-1", "fp"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Bookings().GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)

	active, err := store.Bookings().GetByProviderWithFilter(ctx, domain.ProviderBookingsFilter{ProviderID: 1})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, existing.ID, active[0].ID)

	assert.Empty(t, store.Outbox().Events(ctx))

	// Занятый слот по-прежнему принадлежит существующему бронированию
	_, err = store.Bookings().Create(ctx, newBooking(domain.StatusPending))
	assert.ErrorIs(t, err, bookingRepo.ErrSlotNotAvailable)
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	store := NewStore()
	tm := store.TxManager()
	ctx := context.Background()

	boom := errors.New("boom")
	err := tm.Do(ctx, func(outer context.Context) error {
		if err := tm.Do(outer, func(inner context.Context) error {
			_, err := store.Bookings().Create(inner, newBooking(domain.StatusConfirmed))
			return err
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := store.Bookings().GetByProviderWithFilter(ctx, domain.ProviderBookingsFilter{ProviderID: 1, IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestIdempotency_ClaimRequiresTx(t *testing.T) {
	store := NewStore()

	_, err := store.Idempotency().Claim(context.Background(), 1, "k", "fp")
	assert.ErrorIs(t, err, idempotencyRepo.ErrNotInTransaction)
}

func TestIdempotency_ClaimAndComplete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	bookingID := uuid.New()

	err := store.TxManager().Do(ctx, func(txCtx context.Context) error {
		record, err := store.Idempotency().Claim(txCtx, 1, "k", "fp-1")
		require.NoError(t, err)
		assert.False(t, record.IsCompleted())
		return store.Idempotency().Complete(txCtx, 1, "k", bookingID)
	})
	require.NoError(t, err)

	err = store.TxManager().Do(ctx, func(txCtx context.Context) error {
		record, err := store.Idempotency().Claim(txCtx, 1, "k", "fp-2")
		require.NoError(t, err)
		require.True(t, record.IsCompleted())
		assert.Equal(t, bookingID, *record.BookingID)
		assert.Equal(t, "fp-1", record.Fingerprint)
		return nil
	})
	require.NoError(t, err)
}

func TestIdempotency_FindOutsideTx(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	bookingID := uuid.New()

	_, err := store.Idempotency().Find(ctx, 1, "k")
	require.ErrorIs(t, err, idempotencyRepo.ErrKeyNotFound)

	err = store.TxManager().Do(ctx, func(txCtx context.Context) error {
		if _, err := store.Idempotency().Claim(txCtx, 1, "k", "fp"); err != nil {
			return err
		}
		return store.Idempotency().Complete(txCtx, 1, "k", bookingID)
	})
	require.NoError(t, err)

	record, err := store.Idempotency().Find(ctx, 1, "k")
	require.NoError(t, err)
	require.True(t, record.IsCompleted())
	assert.Equal(t, bookingID, *record.BookingID)
	assert.Equal(t, "fp", record.Fingerprint)

	_, err = store.Idempotency().Find(ctx, 2, "k")
	assert.ErrorIs(t, err, idempotencyRepo.ErrKeyNotFound)
}

func TestOutbox_FetchAndMark(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	outbox := store.Outbox()

	b := newBooking(domain.StatusConfirmed)
	for i := 0; i < 3; i++ {
		require.NoError(t, outbox.Append(ctx, domain.NewLifecycleEvent(b, "", domain.SystemActor, time.Now())))
	}

	pending, err := outbox.FetchPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "booking.created", pending[0].EventType)

	require.NoError(t, outbox.MarkPublished(ctx, []int64{pending[0].ID, pending[1].ID}, time.Now()))
	require.NoError(t, outbox.MarkFailed(ctx, []int64{3}, "broker down"))

	pending, err = outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(3), pending[0].ID)
	assert.Equal(t, 1, pending[0].Attempts)
}

func TestSchedules_UpsertAndGet(t *testing.T) {
	repo := NewStore().Schedules()
	ctx := context.Background()

	_, err := repo.GetByProviderID(ctx, 1)
	require.ErrorIs(t, err, scheduleRepo.ErrScheduleNotFound)

	_, err = repo.Upsert(ctx, &domain.ProviderSchedule{
		ProviderID:  1,
		WeeklyHours: map[time.Weekday][]domain.TimeWindow{time.Monday: {{Open: 540, Close: 1080}}},
	})
	require.NoError(t, err)

	got, err := repo.GetByProviderID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSlotGranularityMinutes, got.SlotGranularityMinutes)
	assert.Len(t, got.WeeklyHours[time.Monday], 1)

	require.NoError(t, repo.Delete(ctx, 1))
	assert.ErrorIs(t, repo.Delete(ctx, 1), scheduleRepo.ErrScheduleNotFound)
}

func TestBookings_ConcurrentCreateOneWinner(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	const n = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.TxManager().Do(ctx, func(txCtx context.Context) error {
				_, err := store.Bookings().Create(txCtx, newBooking(domain.StatusConfirmed))
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, bookingRepo.ErrSlotNotAvailable):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
}
