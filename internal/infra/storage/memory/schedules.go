package memory

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/schedule"
)

// ScheduleRepository расписания провайдеров в памяти
type ScheduleRepository struct {
	store *Store
}

func (r *ScheduleRepository) GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error) {
	s := r.store
	_, release := s.acquire(ctx)
	defer release()

	schedule, ok := s.schedules[providerID]
	if !ok {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	return copySchedule(schedule), nil
}

func (r *ScheduleRepository) Upsert(ctx context.Context, schedule *domain.ProviderSchedule) (*domain.ProviderSchedule, error) {
	s := r.store
	tx, release := s.acquire(ctx)
	defer release()

	now := s.now()
	previous, existed := s.schedules[schedule.ProviderID]

	schedule.SlotGranularityMinutes = schedule.Granularity()
	schedule.UpdatedAt = now
	schedule.CreatedAt = now
	if existed {
		schedule.CreatedAt = previous.CreatedAt
	}

	s.schedules[schedule.ProviderID] = copySchedule(schedule)
	tx.onRollback(func() {
		if existed {
			s.schedules[schedule.ProviderID] = previous
		} else {
			delete(s.schedules, schedule.ProviderID)
		}
	})

	return schedule, nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, providerID int64) error {
	s := r.store
	tx, release := s.acquire(ctx)
	defer release()

	previous, ok := s.schedules[providerID]
	if !ok {
		return scheduleRepo.ErrScheduleNotFound
	}
	delete(s.schedules, providerID)
	tx.onRollback(func() { s.schedules[providerID] = previous })

	return nil
}

func copySchedule(src *domain.ProviderSchedule) *domain.ProviderSchedule {
	dst := *src
	dst.WeeklyHours = make(map[time.Weekday][]domain.TimeWindow, len(src.WeeklyHours))
	for day, windows := range src.WeeklyHours {
		dst.WeeklyHours[day] = append([]domain.TimeWindow(nil), windows...)
	}
	dst.Holidays = make([]domain.HolidayOverride, len(src.Holidays))
	for i, h := range src.Holidays {
		dst.Holidays[i] = domain.HolidayOverride{Date: h.Date, Windows: append([]domain.TimeWindow(nil), h.Windows...)}
	}
	return &dst
}
