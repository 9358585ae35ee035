package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-BeautyBooking/internal/availability"
	"github.com/m04kA/SMC-BeautyBooking/internal/calendar"
	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/schedule"
)

// UseCase use case для получения сетки слотов провайдера с занятостью.
// Результат носит справочный характер: между чтением и бронированием слот могут занять.
type UseCase struct {
	bookingRepo  BookingRepository
	scheduleRepo ScheduleRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	scheduleRepo ScheduleRepository,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute выполняет use case получения доступности
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: provider=%d, date=%s", req.ProviderID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Расписание провайдера
	schedule, err := uc.scheduleRepo.GetByProviderID(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			uc.logger.Warn("GetAvailableSlots: provider=%d has no schedule", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get schedule: %v", err)
		return nil, fmt.Errorf("%w: failed to get schedule: %v", ErrInternal, err)
	}

	response := &Response{
		ProviderID:         req.ProviderID,
		Date:               req.Date,
		GranularityMinutes: schedule.Granularity(),
		Slots:              []domain.SlotAvailability{},
	}

	// 3. Сетка слотов на дату
	grid := calendar.GenerateSlots(schedule, req.Date, uc.timeProvider.Now())
	if len(grid) == 0 {
		uc.logger.Info("GetAvailableSlots: no slots for provider=%d on %s", req.ProviderID, req.Date.Format(domain.DateFormat))
		return response, nil
	}

	// 4. Активные бронирования на дату
	bookings, err := uc.bookingRepo.GetByProviderWithFilter(ctx, domain.ProviderBookingsFilter{
		ProviderID: req.ProviderID,
		StartDate:  &req.Date,
		EndDate:    &req.Date,
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 5. Проекция занятости
	slots := availability.MarkOccupancy(req.ProviderID, req.Date, grid, bookings)
	if req.OnlyFree {
		free := make([]domain.SlotAvailability, 0, len(slots))
		for _, s := range slots {
			if s.IsFree() {
				free = append(free, s)
			}
		}
		slots = free
	}
	response.Slots = slots

	uc.logger.Info("GetAvailableSlots: %d slots for provider=%d, date=%s",
		len(slots), req.ProviderID, req.Date.Format(domain.DateFormat))

	return response, nil
}
