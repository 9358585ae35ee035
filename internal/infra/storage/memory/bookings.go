package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/booking"
)

// BookingRepository бронирования в памяти с той же семантикой ошибок, что и PostgreSQL
type BookingRepository struct {
	store *Store
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	s := r.store
	tx, release := s.acquire(ctx)
	defer release()

	if !booking.Status.IsActive() {
		return nil, fmt.Errorf("%w: Create - status %q", bookingRepo.ErrInvalidStatus, booking.Status)
	}

	key := booking.SlotKey()
	if _, taken := s.activeSlots[key]; taken {
		return nil, fmt.Errorf("%w: provider=%d date=%s time=%s", bookingRepo.ErrSlotNotAvailable,
			key.ProviderID, key.Date, key.Time)
	}
	if _, exists := s.bookings[booking.ID]; exists {
		return nil, fmt.Errorf("%w: Create - duplicate id %s", bookingRepo.ErrExecQuery, booking.ID)
	}

	now := s.now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	s.bookings[booking.ID] = copyBooking(booking)
	s.activeSlots[key] = booking.ID
	tx.onRollback(func() {
		delete(s.bookings, booking.ID)
		delete(s.activeSlots, key)
	})

	return booking, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	s := r.store
	_, release := s.acquire(ctx)
	defer release()

	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (r *BookingRepository) GetByClientID(ctx context.Context, clientID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	s := r.store
	_, release := s.acquire(ctx)
	defer release()

	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.ClientID != clientID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		result = append(result, copyBooking(b))
	}

	sortBookings(result, false)
	return result, nil
}

func (r *BookingRepository) GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	s := r.store
	_, release := s.acquire(ctx)
	defer release()

	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.ProviderID != filter.ProviderID {
			continue
		}
		day := b.Date.Format(domain.DateFormat)
		if filter.StartDate != nil && day < filter.StartDate.Format(domain.DateFormat) {
			continue
		}
		if filter.EndDate != nil && day > filter.EndDate.Format(domain.DateFormat) {
			continue
		}
		if filter.Status != nil {
			if b.Status != *filter.Status {
				continue
			}
		} else if !filter.IncludeInactive && !b.IsActive() {
			continue
		}
		result = append(result, copyBooking(b))
	}

	singleDay := filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate)
	sortBookings(result, singleDay)
	return result, nil
}

func (r *BookingRepository) ListConfirmedUntil(ctx context.Context, until time.Time, limit int) ([]*domain.Booking, error) {
	s := r.store
	_, release := s.acquire(ctx)
	defer release()

	last := until.Format(domain.DateFormat)
	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.Status == domain.StatusConfirmed && b.Date.Format(domain.DateFormat) <= last {
			result = append(result, copyBooking(b))
		}
	}

	sortBookings(result, true)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, change domain.StatusChange) error {
	s := r.store
	tx, release := s.acquire(ctx)
	defer release()

	if !change.To.IsValid() {
		return fmt.Errorf("%w: UpdateStatus - status %q", bookingRepo.ErrInvalidStatus, change.To)
	}

	b, ok := s.bookings[change.BookingID]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if b.Status != change.From {
		return fmt.Errorf("%w: id=%s expected %s", bookingRepo.ErrStatusConflict, change.BookingID, change.From)
	}

	key := b.SlotKey()
	if change.To.IsActive() {
		if holder, taken := s.activeSlots[key]; taken && holder != b.ID {
			return fmt.Errorf("%w: provider=%d date=%s time=%s", bookingRepo.ErrSlotNotAvailable,
				key.ProviderID, key.Date, key.Time)
		}
	}

	before := copyBooking(b)
	change.Apply(b)
	if change.To.IsActive() {
		s.activeSlots[key] = b.ID
	} else {
		delete(s.activeSlots, key)
	}

	tx.onRollback(func() {
		s.bookings[before.ID] = before
		if before.IsActive() {
			s.activeSlots[key] = before.ID
		} else {
			delete(s.activeSlots, key)
		}
	})

	return nil
}

// sortBookings упорядочивает по времени начала: для одной даты по возрастанию, иначе новые первыми
func sortBookings(bookings []*domain.Booking, ascending bool) {
	sort.Slice(bookings, func(i, j int) bool {
		ki := bookings[i].Date.Format(domain.DateFormat)
		kj := bookings[j].Date.Format(domain.DateFormat)
		if ki == kj {
			if ascending {
				return bookings[i].Time < bookings[j].Time
			}
			return bookings[i].Time > bookings[j].Time
		}
		if ascending {
			return ki < kj
		}
		return ki > kj
	})
}
